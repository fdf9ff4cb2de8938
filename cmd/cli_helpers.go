package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
	"github.com/nextlevelbuilder/finch/internal/connections/anthropic"
	"github.com/nextlevelbuilder/finch/internal/connections/openai"
	"github.com/nextlevelbuilder/finch/internal/connections/twitter"
)

// agentsDir is where agent files are looked up by name. Overridable for
// deployments that keep personas elsewhere.
func agentsDir() string {
	if dir := os.Getenv("FINCH_AGENTS_DIR"); dir != "" {
		return dir
	}
	return "agents"
}

// resolveAgentPath turns the --agent flag into a file path. A value that
// names an existing file is used as-is; otherwise it is treated as an agent
// name under the agents directory.
func resolveAgentPath(agent string) (string, error) {
	if fi, err := os.Stat(agent); err == nil && !fi.IsDir() {
		return agent, nil
	}

	name := config.NormalizeAgentName(agent)
	for _, ext := range []string{".json5", ".json", ".yaml", ".yml"} {
		path := filepath.Join(agentsDir(), name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("agent %q not found in %s", agent, agentsDir())
}

func mustLoadAgent(agent string) (*config.Agent, string) {
	path, err := resolveAgentPath(agent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading agent: %v\n", err)
		os.Exit(1)
	}
	return cfg, path
}

// buildManager registers one adapter per configured connection block, in
// config order so provider preference follows the file.
func buildManager(cfg *config.Agent) *connections.Manager {
	m := connections.NewManager()
	for i := range cfg.Conns {
		block := &cfg.Conns[i]
		switch block.Name {
		case "twitter":
			m.Register(twitter.New(block))
		case "openai":
			m.Register(openai.New(block))
		case "anthropic":
			m.Register(anthropic.New(block))
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown connection %q ignored\n", block.Name)
		}
	}
	return m
}

// defaultJournalPath is the per-agent action journal location.
func defaultJournalPath(agentName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.NormalizeAgentName(agentName) + ".journal.db"
	}
	return filepath.Join(home, ".finch", config.NormalizeAgentName(agentName)+".journal.db")
}

// credentialKeys lists the keystore keys each connection needs.
func credentialKeys(connection string) []string {
	switch connection {
	case "twitter":
		return []string{
			"twitter.consumer_key",
			"twitter.consumer_secret",
			"twitter.access_token",
			"twitter.access_token_secret",
		}
	case "openai":
		return []string{"openai.api_key"}
	case "anthropic":
		return []string{"anthropic.api_key"}
	default:
		return nil
	}
}

// parseParams splits raw CLI args into positional action parameters.
// Everything stays a string; connections coerce.
func parseParams(args []string) []any {
	params := make([]any, 0, len(args))
	for _, a := range args {
		params = append(params, strings.TrimSpace(a))
	}
	return params
}
