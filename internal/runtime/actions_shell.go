package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
)

const defaultShellTimeout = 30 * time.Second

// runShell interpolates the command with shell quoting applied to every
// substituted value, rejects path escapes before anything runs, then hands
// the command to the configured runner. Combined output either lands as a
// generated child line or in a variable.
func (e *Engine) runShell(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	if e.shell == nil {
		return fmt.Errorf("no shell capability configured")
	}
	opts := node.Shell
	if opts == nil {
		opts = &domain.ShellOptions{}
	}

	command, err := pattern.InterpolateWith(node.Value, ec.Vars, shellQuote)
	if err != nil {
		return err
	}

	if reason := sandboxViolation(command); reason != "" {
		return &domain.ActionError{
			Kind: domain.KindShell,
			Msg:  fmt.Sprintf("command rejected: %s", reason),
			Err:  domain.ErrSandbox,
		}
	}

	timeout := defaultShellTimeout
	if opts.Timeout != "" {
		d, err := parseDuration(opts.Timeout)
		if err != nil {
			return &domain.ActionError{Kind: domain.KindShell, Msg: err.Error(), Err: err}
		}
		timeout = d
	}

	output, err := e.shell.Run(ctx, command, timeout)
	if err != nil {
		return &domain.ActionError{
			Kind:   domain.KindShell,
			Msg:    fmt.Sprintf("command failed: %v", err),
			Output: output,
			Err:    err,
		}
	}
	output = strings.TrimRight(output, "\n")

	if opts.As != "" {
		ec.Vars[opts.As] = output
		return nil
	}
	if ec.Item != nil && e.editor != nil && output != "" {
		for _, line := range strings.Split(output, "\n") {
			if err := e.editor.AppendChild(ctx, ec.Item, line, "*", 0); err != nil {
				return err
			}
		}
		return nil
	}
	ec.Vars["output"] = output
	return nil
}

// sandboxViolation reports why a command breaks out of the workspace, or ""
// when it stays inside. Checked before execution so a rejected command never
// reaches the shell at all.
func sandboxViolation(command string) string {
	for _, field := range strings.Fields(command) {
		field = strings.Trim(field, `"'`)
		// Flags like --prefix=/usr hide the path after '='.
		if idx := strings.IndexByte(field, '='); idx >= 0 {
			field = field[idx+1:]
		}
		if strings.HasPrefix(field, "/") {
			return fmt.Sprintf("absolute path %q", field)
		}
		if field == "~" || strings.HasPrefix(field, "~/") {
			return fmt.Sprintf("home path %q", field)
		}
		for _, seg := range strings.Split(field, "/") {
			if seg == ".." {
				return fmt.Sprintf("parent traversal in %q", field)
			}
		}
	}
	return ""
}

// shellQuote wraps a substituted value in single quotes so it reaches the
// command as literal text regardless of content.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
