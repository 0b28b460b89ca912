package cmd

import (
	"os"
	"path/filepath"

	"github.com/josephlewis42/cash/commands"
	"github.com/josephlewis42/cash/core/config"
	"github.com/spf13/cobra"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	return config.LoadOrDefault(cfgPath)
}

// defaultConfigPath is $XDG_CONFIG_HOME/cash, or ~/.config/cash.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "cash")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "cash",
	Short:   "Can't Afford a SHell",
	Long:    `An interactive command interpreter with pipes and job control.`,
	Version: commands.Version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		return commands.RunInteractive(configuration)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config directory")
}
