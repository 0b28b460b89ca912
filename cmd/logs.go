package cmd

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/josephlewis42/cash/core/ttylog"
	"github.com/spf13/cobra"
)

var idleTimeLimit time.Duration

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Replay recorded sessions.",
}

// openSessionLog opens a recording by path, or by name within the session
// log directory.
func openSessionLog(name string) (io.ReadCloser, error) {
	fd, err := os.Open(name)
	if err == nil || filepath.Base(name) != name {
		return fd, err
	}

	config, cfgErr := loadConfig()
	if cfgErr != nil {
		return nil, err
	}
	return config.OpenSessionLog(name)
}

// playCommand represents the playLog command
var playCommand = &cobra.Command{
	Use:   "play FILE",
	Short: "Replay a recorded session in the terminal.",
	Long:  `Plays a recorded session back to the current terminal in real time.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := openSessionLog(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

// catCommand represents the playLog command
var catCommand = &cobra.Command{
	Use:   "cat FILE",
	Short: "Print full output of a recorded session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := openSessionLog(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(catCommand)

	// cat doesn't allow idle time
	playCommand.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
}
