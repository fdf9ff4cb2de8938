package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/finch/internal/config"
)

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage agent personality files",
	}
	cmd.AddCommand(agentsListCmd())
	cmd.AddCommand(agentsValidateCmd())
	return cmd
}

type agentListEntry struct {
	Name      string `json:"name"`
	File      string `json:"file"`
	LoopDelay int    `json:"loopDelay"`
	Tasks     string `json:"tasks"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

func agentsListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agent files in the agents directory",
		Run: func(cmd *cobra.Command, args []string) {
			runAgentsList(jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runAgentsList(jsonOutput bool) {
	dir := agentsDir()
	files, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", dir, err)
		os.Exit(1)
	}

	var entries []agentListEntry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name())) {
		case ".json5", ".json", ".yaml", ".yml":
		default:
			continue
		}

		path := filepath.Join(dir, f.Name())
		entry := agentListEntry{File: path}
		cfg, err := config.Load(path)
		if err != nil {
			entry.Name = strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
			entry.Error = err.Error()
			entries = append(entries, entry)
			continue
		}
		entry.Name = cfg.Name
		entry.LoopDelay = cfg.LoopDelay
		entry.Valid = true

		names := make([]string, 0, len(cfg.Tasks))
		for _, task := range cfg.Tasks {
			names = append(names, fmt.Sprintf("%s:%g", task.Name, task.Weight))
		}
		entry.Tasks = strings.Join(names, " ")
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if jsonOutput {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFILE\tLOOP\tTASKS\tSTATUS")
	for _, e := range entries {
		status := "ok"
		if !e.Valid {
			status = "invalid: " + e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%ds\t%s\t%s\n", e.Name, e.File, e.LoopDelay, e.Tasks, status)
	}
	w.Flush()
}

func agentsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the selected agent file",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, path := mustLoadAgent(agentFlag)
			fmt.Printf("Agent %q at %s is valid.\n", cfg.Name, path)
		},
	}
}
