package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/listflow/listflow/internal/cli"
	"github.com/listflow/listflow/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <config-doc>",
	Short: "Export a config visualization",
	Long:  `Parses an automation config and outputs a Mermaid diagram (graph TD) of its triggers and actions.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, settings, err := loadSettings(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logger := cli.NewLogger(settings, debug)

		engine, err := cli.BuildEngine(dir, settings, logger)
		if err != nil {
			fmt.Printf("Error initializing listflow: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig(context.Background(), engine, args[0], args[0])
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(cfg))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
