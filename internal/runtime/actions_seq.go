package runtime

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
)

// runFilter keeps the elements of an array for which the predicate holds.
// The predicate sees each element as "item" plus its "index".
func (e *Engine) runFilter(node *domain.ActionNode, ec *Context) error {
	opts := node.Filter
	if opts == nil || opts.Where == "" {
		return fmt.Errorf("filter requires a where predicate")
	}
	elems, err := resolveList(node.Value, ec.Vars)
	if err != nil {
		return err
	}

	kept := make([]any, 0, len(elems))
	err = withElementVars(ec.Vars, elems, func(i int, elem any) error {
		ok, err := pattern.EvaluateCondition(opts.Where, ec.Vars)
		if err != nil {
			return err
		}
		if ok {
			kept = append(kept, elem)
		}
		return nil
	})
	if err != nil {
		return err
	}
	ec.Vars[targetVar(opts.As, node.Value)] = kept
	return nil
}

// runMap renders each element of an array through a template, producing a
// string array.
func (e *Engine) runMap(node *domain.ActionNode, ec *Context) error {
	opts := node.Map
	if opts == nil || opts.With == "" {
		return fmt.Errorf("map requires a with template")
	}
	elems, err := resolveList(node.Value, ec.Vars)
	if err != nil {
		return err
	}

	out := make([]any, 0, len(elems))
	err = withElementVars(ec.Vars, elems, func(i int, elem any) error {
		rendered, err := pattern.Interpolate(opts.With, ec.Vars)
		if err != nil {
			return err
		}
		out = append(out, rendered)
		return nil
	})
	if err != nil {
		return err
	}
	ec.Vars[targetVar(opts.As, node.Value)] = out
	return nil
}

func resolveList(name string, vars map[string]any) ([]any, error) {
	val, ok := pattern.Resolve(name, vars)
	if !ok {
		return nil, fmt.Errorf("unknown variable %q", name)
	}
	elems, err := asList(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return elems, nil
}

// withElementVars binds "item" and "index" around each element visit and
// restores prior bindings afterwards.
func withElementVars(vars map[string]any, elems []any, visit func(int, any) error) error {
	prevItem, hadItem := vars["item"]
	prevIndex, hadIndex := vars["index"]
	defer func() {
		if hadItem {
			vars["item"] = prevItem
		} else {
			delete(vars, "item")
		}
		if hadIndex {
			vars["index"] = prevIndex
		} else {
			delete(vars, "index")
		}
	}()
	for i, elem := range elems {
		vars["item"] = elem
		vars["index"] = i
		if err := visit(i, elem); err != nil {
			return err
		}
	}
	return nil
}

func targetVar(as, fallback string) string {
	if as != "" {
		return as
	}
	return fallback
}

// runDate stores the current (or parsed) time in one of four formats.
func (e *Engine) runDate(node *domain.ActionNode, ec *Context) error {
	opts := node.Date
	if opts == nil {
		opts = &domain.DateOptions{}
	}

	t := e.now()
	if opts.Source != "" {
		src, err := pattern.Interpolate(opts.Source, ec.Vars)
		if err != nil {
			return err
		}
		t, err = parseTime(src)
		if err != nil {
			return err
		}
	}

	var out any
	switch opts.Format {
	case "", "iso":
		out = t.UTC().Format(time.RFC3339)
	case "date":
		out = t.UTC().Format("2006-01-02")
	case "epoch":
		out = t.UnixMilli()
	case "unix":
		out = t.Unix()
	default:
		return fmt.Errorf("unknown date format %q", opts.Format)
	}

	target := node.Value
	if target == "" {
		target = "date"
	}
	ec.Vars[target] = out
	return nil
}

func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Millisecond epochs are 13 digits well past any plausible
		// second epoch.
		if n > 1e12 {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}

// runNotify shows a fire-and-forget message. Without a notifier configured
// it degrades to a log line.
func (e *Engine) runNotify(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	msg, err := pattern.Interpolate(node.Value, ec.Vars)
	if err != nil {
		return err
	}
	duration := 5 * time.Second
	if node.Notify != nil && node.Notify.Duration != "" {
		duration, err = parseDuration(node.Notify.Duration)
		if err != nil {
			return err
		}
	}
	if e.notifier == nil {
		e.logger.Info("notify", "message", msg)
		return nil
	}
	e.notifier.Notify(ctx, msg, duration)
	return nil
}

// runQuery finds tracked items by tag and stores them as plain maps so
// templates can reach into fields by path.
func (e *Engine) runQuery(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	if e.query == nil {
		return fmt.Errorf("no query capability configured")
	}
	opts := node.Query
	if opts == nil {
		opts = &domain.QueryOptions{}
	}

	identifier, err := pattern.Interpolate(node.Value, ec.Vars)
	if err != nil {
		return err
	}
	items, err := e.query.Find(ctx, identifier, domain.QueryOptionsRequest{
		Status: opts.Status,
		Limit:  opts.Limit,
	})
	if err != nil {
		return err
	}

	results := make([]any, len(items))
	for i, item := range items {
		children := make([]any, len(item.Children))
		for j, c := range item.Children {
			children[j] = c
		}
		results[i] = map[string]any{
			"text":     item.Text,
			"status":   string(item.Status),
			"children": children,
			"path":     item.DocPath,
			"line":     item.Line,
		}
	}

	target := opts.As
	if target == "" {
		target = "results"
	}
	ec.Vars[target] = results
	return nil
}
