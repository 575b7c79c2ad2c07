package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
)

// runTransform rewrites the originating line and generates child lines.
// With a tracked item it goes through the editor; without one it splices
// the rendered block into the document at the cursor line.
func (e *Engine) runTransform(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	opts := node.Transform
	if opts == nil {
		opts = &domain.TransformOptions{}
	}

	primary := ""
	if node.Value != "" {
		p, err := pattern.Interpolate(node.Value, ec.Vars)
		if err != nil {
			return err
		}
		primary = p
	}

	if ec.Item != nil {
		if e.editor == nil {
			return fmt.Errorf("no editor capability configured")
		}
		if primary != "" {
			var err error
			switch opts.Mode {
			case "", "replace":
				err = e.editor.ReplacePrimary(ctx, ec.Item, primary)
			case "append":
				err = e.editor.AppendPrimary(ctx, ec.Item, primary)
			case "prepend":
				err = e.editor.PrependPrimary(ctx, ec.Item, primary)
			default:
				err = fmt.Errorf("unknown transform mode %q", opts.Mode)
			}
			if err != nil {
				return err
			}
		}
		for _, tpl := range opts.Templates {
			line, err := pattern.Interpolate(tpl.Text, ec.Vars)
			if err != nil {
				return err
			}
			line, _ = pattern.StripCursor(line)
			if err := e.editor.AppendChild(ctx, ec.Item, line, "*", tpl.Indent); err != nil {
				return err
			}
		}
		return nil
	}

	return e.spliceTransform(ctx, primary, opts.Templates, ec)
}

// spliceTransform rewrites the cursor line of the raw document. A {{cursor}}
// marker in a rendered line moves the context cursor there after the edit.
func (e *Engine) spliceTransform(ctx context.Context, primary string, templates []domain.TemplateLine, ec *Context) error {
	if e.docs == nil || ec.DocPath == "" {
		return fmt.Errorf("transform outside a document requires a document store")
	}
	content, err := e.docs.Load(ctx, ec.DocPath)
	if err != nil {
		return err
	}
	lines := strings.Split(content, "\n")
	at := ec.Cursor.Line
	if at < 0 || at >= len(lines) {
		at = len(lines) - 1
	}
	indentOf := lines[at][:len(lines[at])-len(strings.TrimLeft(lines[at], " \t"))]

	block := make([]string, 0, len(templates)+1)
	if primary != "" {
		block = append(block, indentOf+primary)
	} else {
		block = append(block, lines[at])
	}
	for _, tpl := range templates {
		line, err := pattern.Interpolate(tpl.Text, ec.Vars)
		if err != nil {
			return err
		}
		stripped, col := pattern.StripCursor(line)
		child := indentOf + strings.Repeat("    ", tpl.Indent+1) + "* " + stripped
		if col >= 0 {
			ec.Cursor = Position{Line: at + len(block), Col: len(child) - len(stripped) + col}
		}
		block = append(block, child)
	}

	out := make([]string, 0, len(lines)+len(block)-1)
	out = append(out, lines[:at]...)
	out = append(out, block...)
	out = append(out, lines[at+1:]...)
	return e.docs.Save(ctx, ec.DocPath, strings.Join(out, "\n"))
}

// runAppend adds one generated child line. The context anchor decides where:
// foreach sets it so per-iteration output lands as consecutive siblings
// instead of nesting under the previous line.
func (e *Engine) runAppend(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	opts := node.Append
	if opts == nil {
		opts = &domain.AppendOptions{}
	}
	marker := opts.Marker
	if marker == "" {
		marker = "*"
	}
	if !domain.GeneratedMarker(marker) {
		return fmt.Errorf("marker %q is not a generated-line marker", marker)
	}

	line, err := pattern.Interpolate(node.Value, ec.Vars)
	if err != nil {
		return err
	}

	if ec.Item != nil {
		if e.editor == nil {
			return fmt.Errorf("no editor capability configured")
		}
		if ec.anchor >= 0 {
			if err := e.editor.InjectChildAt(ctx, ec.Item, ec.anchor, line, marker, opts.Indent); err != nil {
				return err
			}
			ec.anchor++
			return nil
		}
		return e.editor.AppendChild(ctx, ec.Item, line, marker, opts.Indent)
	}

	if e.docs == nil || ec.DocPath == "" {
		return fmt.Errorf("append outside a document requires a document store")
	}
	content, err := e.docs.Load(ctx, ec.DocPath)
	if err != nil {
		return err
	}
	rendered := strings.Repeat("    ", opts.Indent) + marker + " " + line
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return e.docs.Save(ctx, ec.DocPath, content+rendered+"\n")
}

// runTask mutates the originating work item: clears generated children,
// appends a child line, and rewrites the status marker, in that order.
func (e *Engine) runTask(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	if ec.Item == nil {
		return fmt.Errorf("task requires a tracked work item")
	}
	if e.editor == nil {
		return fmt.Errorf("no editor capability configured")
	}
	opts := node.Task
	if opts == nil {
		opts = &domain.TaskOptions{}
	}

	if opts.Clear != "" {
		if !domain.GeneratedMarker(opts.Clear) {
			return fmt.Errorf("clear marker %q is not a generated-line marker", opts.Clear)
		}
		if err := e.editor.RemoveChildrenByMarker(ctx, ec.Item, opts.Clear); err != nil {
			return err
		}
	}

	if node.Value != "" {
		marker := opts.Marker
		if marker == "" {
			marker = "*"
		}
		if !domain.GeneratedMarker(marker) {
			return fmt.Errorf("marker %q is not a generated-line marker", marker)
		}
		line, err := pattern.Interpolate(node.Value, ec.Vars)
		if err != nil {
			return err
		}
		if err := e.editor.AppendChild(ctx, ec.Item, line, marker, opts.Indent); err != nil {
			return err
		}
	}

	if opts.Status != "" {
		status, ok := statusByName(opts.Status)
		if !ok {
			return fmt.Errorf("unknown status %q", opts.Status)
		}
		if err := e.editor.SetStatus(ctx, ec.Item, status); err != nil {
			return err
		}
		ec.Item.Status = status
	}
	return nil
}

func statusByName(name string) (domain.Status, bool) {
	switch name {
	case "open":
		return domain.StatusOpen, true
	case "done":
		return domain.StatusDone, true
	case "error":
		return domain.StatusError, true
	case "in-progress":
		return domain.StatusInProgress, true
	case "cancelled":
		return domain.StatusCancelled, true
	}
	return "", false
}
