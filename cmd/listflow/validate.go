package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/listflow/listflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config-doc>",
	Short: "Check a config document for parse errors",
	Long:  `Parses an automation config and reports the triggers it declares.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, path string) error {
	dir, settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(settings, debug)

	engine, err := cli.BuildEngine(dir, settings, logger)
	if err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}

	cfg, err := loadConfig(context.Background(), engine, path, path)
	if err != nil {
		return err
	}

	fmt.Printf("Config is valid: %d trigger(s)\n", len(cfg.Triggers))
	for _, t := range cfg.Triggers {
		fmt.Printf("  - %s\n", t.Kind)
	}
	return nil
}
