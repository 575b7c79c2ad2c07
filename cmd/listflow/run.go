package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/listflow/listflow"
	"github.com/listflow/listflow/internal/cli"
	"github.com/listflow/listflow/internal/presentation/tui"
	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <config-doc> <trigger>",
	Short: "Execute a trigger from a config document",
	Long: `Loads an automation config from the store and fires one of its
triggers (onTrigger, onDone, onError, ...) against an optional target document.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTrigger(cmd, args[0], args[1]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("doc", "", "Target document path inside the store")
	runCmd.Flags().String("line", "", "Text of the line the trigger fires on")
	runCmd.Flags().String("vars", "", "Initial variables as a JSON object")
	runCmd.Flags().String("source-tag", "", "Tag recorded as the config source")
}

func runTrigger(cmd *cobra.Command, configDoc, kind string) error {
	if !domain.KnownTriggerKind(kind) {
		return fmt.Errorf("unknown trigger kind %q", kind)
	}

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

	ctx := context.Background()
	sourceTag, _ := cmd.Flags().GetString("source-tag")
	cfg, err := loadConfig(ctx, engine, configDoc, sourceTag)
	if err != nil {
		return err
	}

	inv := &listflow.Invocation{Vars: map[string]any{}}
	inv.DocPath, _ = cmd.Flags().GetString("doc")
	inv.Line, _ = cmd.Flags().GetString("line")
	if raw, _ := cmd.Flags().GetString("vars"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &inv.Vars); err != nil {
			return fmt.Errorf("invalid --vars: %w", err)
		}
	}

	res := engine.ExecuteTrigger(ctx, cfg, domain.TriggerKind(kind), inv)
	printResult(kind, res)
	if inv.DocPath != "" {
		printDocument(ctx, engine, inv.DocPath)
	}
	if !res.Success {
		os.Exit(1)
	}
	return nil
}

// printDocument previews the target document after the run so edits made
// by the trigger are visible without opening the file.
func printDocument(ctx context.Context, engine *listflow.Engine, path string) {
	text, err := engine.Store().Load(ctx, path)
	if err != nil {
		return
	}
	if !tui.Interactive() {
		fmt.Print(text)
		return
	}
	if out, err := tui.NewRenderer()(text); err == nil {
		fmt.Print(out)
	} else {
		fmt.Print(text)
	}
}

// loadConfig reads the config from the store, falling back to a plain
// file on disk so configs outside the store still work.
func loadConfig(ctx context.Context, engine *listflow.Engine, path, sourceTag string) (*domain.Config, error) {
	if sourceTag == "" {
		sourceTag = path
	}
	cfg, err := engine.LoadConfigFromDocument(ctx, path, sourceTag)
	if err == nil {
		return cfg, nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return engine.LoadConfig(string(data), sourceTag)
}

func printResult(kind string, res domain.Result) {
	if !tui.Interactive() {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", kind, res.Err)
			return
		}
		if res.Value != nil {
			fmt.Println(pattern.FormatValue(res.Value))
		}
		return
	}

	render := tui.NewRenderer()
	var md string
	if res.Err != nil {
		md = fmt.Sprintf("**%s failed**\n\n> %v\n", kind, res.Err)
	} else if res.Value != nil {
		md = fmt.Sprintf("**%s** completed\n\n```\n%s\n```\n", kind, pattern.FormatValue(res.Value))
	} else {
		md = fmt.Sprintf("**%s** completed\n", kind)
	}
	out, err := render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
