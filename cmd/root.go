// Package cmd wires the finch CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	agentFlag    string
	logLevelFlag string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finch",
		Short: "finch — an autonomous social media agent",
		Long: `finch runs a configured personality as an autonomous agent:
it picks weighted actions (post, reply, like), generates content through an
LLM provider and executes them against the social network.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(logLevelFlag)
		},
	}

	cmd.PersistentFlags().StringVarP(&agentFlag, "agent", "a", "default", "agent name or path to an agent file")
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(agentsCmd())
	cmd.AddCommand(connectionsCmd())
	cmd.AddCommand(actionCmd())
	cmd.AddCommand(historyCmd())
	return cmd
}

func initLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
