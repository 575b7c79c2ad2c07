package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/listflow/listflow"
	"github.com/listflow/listflow/internal/presentation/tui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of listflow",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.Interactive() {
			tui.PrintBanner()
		}
		fmt.Printf("listflow version %s\n", strings.TrimSpace(listflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
