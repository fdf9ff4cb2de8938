package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func actionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <connection> <action> [params...]",
		Short: "Perform a single connection action outside the loop",
		Long: `Performs one action ad hoc, e.g.:

  finch action twitter post-tweet "hello from the cli"
  finch action openai generate-text "write a haiku about compilers"
  finch action twitter read-timeline 5`,
		Args: cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			runAction(args[0], args[1], parseParams(args[2:]))
		},
	}
}

func runAction(connection, action string, params []any) {
	cfg, _ := mustLoadAgent(agentFlag)
	manager := buildManager(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Only the target connection needs to come up.
	conn, ok := manager.Get(connection)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: connection %q is not configured for agent %q\n", connection, cfg.Name)
		os.Exit(1)
	}
	if err := conn.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s: %v\n", connection, err)
		os.Exit(1)
	}
	defer conn.Shutdown(context.Background())

	result, err := manager.PerformAction(ctx, connection, action, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Println(result)
		return
	}
	fmt.Println(string(data))
}
