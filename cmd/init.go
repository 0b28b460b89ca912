package cmd

import (
	"log"

	"github.com/josephlewis42/cash/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		_, err := config.Initialize(cfgPath, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
