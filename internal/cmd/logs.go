package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show entries from the structured log file",
	Long: `Show entries from the log file configured by logging.file, including
rotated backups, optionally filtered by run, task, pipeline or level.`,
	Example: `  studiobuild logs --last
  studiobuild logs --task ts:dist --level error
  studiobuild logs --since 1h --format csv`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsFile     string
	logsRun      string
	logsLast     bool
	logsTask     string
	logsPipeline string
	logsLevel    string
	logsSince    time.Duration
	logsGrep     string
	logsFormat   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFile, "file", "", "log file to read (default: logging.file)")
	logsCmd.Flags().StringVar(&logsRun, "run", "", "only entries from this run ID")
	logsCmd.Flags().BoolVar(&logsLast, "last", false, "only entries from the most recent run")
	logsCmd.Flags().StringVar(&logsTask, "task", "", "only entries for this task")
	logsCmd.Flags().StringVar(&logsPipeline, "pipeline", "", "only entries for this composite task")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level: debug, info, warn, error")
	logsCmd.Flags().DurationVar(&logsSince, "since", 0, "only entries newer than this (e.g. 30m, 2h)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only entries whose message contains this text")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "output format: text, json, csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	path := logsFile
	if path == "" {
		path = config.Get().Logging.File
	}
	if path == "" {
		return fmt.Errorf("no log file configured; set logging.file or pass --file")
	}

	entries, err := logging.ReadLog(path)
	if err != nil {
		return err
	}

	filter := logging.Filter{
		Level:    logsLevel,
		RunID:    logsRun,
		Task:     logsTask,
		Pipeline: logsPipeline,
		Contains: logsGrep,
	}
	if logsLast && filter.RunID == "" {
		filter.RunID = logging.LastRunID(entries)
	}
	if logsSince > 0 {
		filter.Since = time.Now().Add(-logsSince)
	}

	return logging.WriteEntries(cmd.OutOrStdout(), logging.FilterEntries(entries, filter), logsFormat)
}
