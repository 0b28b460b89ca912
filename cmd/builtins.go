package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/cash/commands"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands the shell runs itself.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 8, 8, 2, ' ', 0)

		for _, b := range commands.ListBuiltins() {
			fmt.Fprintf(tw, "%s\t%s\n", b.Name, b.Description)
		}

		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
