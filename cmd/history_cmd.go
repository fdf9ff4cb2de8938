package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/finch/internal/history"
)

func historyCmd() *cobra.Command {
	var (
		journalPath string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent loop iterations from the action journal",
		Run: func(cmd *cobra.Command, args []string) {
			runHistory(journalPath, limit)
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal", "", "path to the action journal database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func runHistory(journalPath string, limit int) {
	if journalPath == "" {
		cfg, _ := mustLoadAgent(agentFlag)
		journalPath = defaultJournalPath(cfg.Name)
	}
	if _, err := os.Stat(journalPath); err != nil {
		fmt.Fprintf(os.Stderr, "No journal at %s. Has the agent run yet?\n", journalPath)
		os.Exit(1)
	}

	store, err := history.Open(journalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	entries, err := store.Recent(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTASK\tOUTCOME\tPOST\tDETAIL")
	for _, e := range entries {
		detail := e.Detail
		if len(detail) > 60 {
			detail = detail[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Task, e.Outcome, e.PostID, detail)
	}
	w.Flush()
}
