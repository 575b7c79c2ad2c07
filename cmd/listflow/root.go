package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/listflow/listflow/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "listflow",
	Short: "listflow is a bullet-list automation engine",
	Long:  `listflow runs declarative automation configs written as plain bullet lists against a directory of task documents.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the document store")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadSettings resolves the settings file relative to the store directory.
func loadSettings(cmd *cobra.Command) (string, cli.Settings, error) {
	dir, _ := cmd.Flags().GetString("dir")
	st, err := cli.LoadSettings(filepath.Join(dir, cli.DefaultSettingsFile))
	return dir, st, err
}
