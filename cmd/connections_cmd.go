package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/finch/internal/keystore"
)

func connectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Inspect and configure the agent's connections",
	}
	cmd.AddCommand(connectionsListCmd())
	cmd.AddCommand(connectionsConfigureCmd())
	return cmd
}

func connectionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the agent's connections and their actions",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, _ := mustLoadAgent(agentFlag)
			manager := buildManager(cfg)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONNECTION\tCREDENTIALS\tACTIONS")
			for _, name := range manager.Names() {
				conn, _ := manager.Get(name)

				actions := make([]string, 0, len(conn.Actions()))
				for action := range conn.Actions() {
					actions = append(actions, action)
				}
				sort.Strings(actions)

				fmt.Fprintf(w, "%s\t%s\t%s\n", name, credentialStatus(name), strings.Join(actions, ", "))
			}
			w.Flush()
		},
	}
}

// credentialStatus reports whether every keystore entry the connection needs
// resolves. Secrets are never printed.
func credentialStatus(connection string) string {
	keys := credentialKeys(connection)
	if len(keys) == 0 {
		return "n/a"
	}
	for _, key := range keys {
		if _, err := keystore.Get(key); err != nil {
			return "missing " + key
		}
	}
	return "configured"
}

func connectionsConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure <connection>",
		Short: "Store credentials for a connection in the OS keyring",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runConnectionsConfigure(args[0])
		},
	}
}

func runConnectionsConfigure(connection string) {
	keys := credentialKeys(connection)
	if len(keys) == 0 {
		fmt.Fprintf(os.Stderr, "Unknown connection %q. Known: twitter, openai, anthropic.\n", connection)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	for _, key := range keys {
		fmt.Printf("%s (leave empty to keep current): ", key)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		value := strings.TrimSpace(line)
		if value == "" {
			continue
		}
		if err := keystore.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing %s: %v\n", key, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Credentials for %s stored.\n", connection)
}
