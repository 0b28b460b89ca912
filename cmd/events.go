package cmd

import (
	"fmt"
	"io"

	"github.com/josephlewis42/cash/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

// runReport feeds every entry of the event log to update, then prints report
// as YAML.
func runReport(cmd *cobra.Command, update func(*logger.LogEntry), report interface{}) error {
	cmd.SilenceUsage = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.ReadAppLog()
	if err != nil {
		return fmt.Errorf("couldn't read event log, is event_log enabled? %w", err)
	}
	defer fd.Close()

	if err := logger.ReadJSONLinesLog(fd, update); err != nil {
		return err
	}

	return writeYAML(cmd.OutOrStdout(), report)
}

func writeYAML(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		var report logger.Report
		return runReport(cmd, report.Update, &report)
	},
}

var bugsCommand = &cobra.Command{
	Use:   "bugs",
	Short: "Show events that point to bugs: panics, unknown commands and syntax errors.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		report := logger.NewBugReport()
		return runReport(cmd, report.Update, report)
	},
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions",
	Short: "Show the commands run in each session.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		var report logger.InteractionReport
		return runReport(cmd, report.Update, &report)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(bugsCommand)
	eventsCmd.AddCommand(sessionsCommand)
}
