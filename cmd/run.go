package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/finch/internal/agent"
	"github.com/nextlevelbuilder/finch/internal/bus"
	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/history"
)

func runCmd() *cobra.Command {
	var journalPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			runAgent(journalPath)
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal", "", "path to the action journal database")
	return cmd
}

func runAgent(journalPath string) {
	cfg, path := mustLoadAgent(agentFlag)
	slog.Info("agent loaded", "name", cfg.Name, "path", path)

	events := bus.New()

	if journalPath == "" {
		journalPath = defaultJournalPath(cfg.Name)
	}
	if err := os.MkdirAll(filepath.Dir(journalPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating journal directory: %v\n", err)
		os.Exit(1)
	}
	journal, err := history.Open(journalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		os.Exit(1)
	}
	defer journal.Close()
	events.Subscribe("journal", journal.Handler())

	manager := buildManager(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager.InitializeAll(ctx)
	defer manager.ShutdownAll(context.Background())

	// Config edits take effect on the next start; the watcher only surfaces
	// that a restart is due.
	watcher, err := config.NewWatcher(path)
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		if err := watcher.Start(); err != nil {
			slog.Warn("config watcher not started", "error", err)
			watcher.Stop()
		} else {
			defer watcher.Stop()
		}
	}

	a := agent.New(cfg, manager, events)
	loop, err := agent.NewLoop(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := loop.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
