package runtime

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
)

// runIf evaluates the condition and runs exactly one branch.
func (e *Engine) runIf(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	opts := node.If
	if opts == nil {
		opts = &domain.IfOptions{}
	}
	ok, err := pattern.EvaluateCondition(node.Value, ec.Vars)
	if err != nil {
		return err
	}
	if ok {
		return e.runSequence(ctx, opts.Then, ec)
	}
	return e.runSequence(ctx, opts.Else, ec)
}

// runForeach iterates an array variable, binding the element and index
// before each pass. The anchor is reset per iteration so generated lines
// from different iterations come out as siblings. A return inside the body
// stops the loop and everything above it.
func (e *Engine) runForeach(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	opts := node.Foreach
	if opts == nil {
		opts = &domain.ForeachOptions{}
	}
	itemVar := opts.As
	if itemVar == "" {
		itemVar = "item"
	}
	indexVar := opts.IndexAs
	if indexVar == "" {
		indexVar = "index"
	}

	val, ok := pattern.Resolve(node.Value, ec.Vars)
	if !ok {
		return fmt.Errorf("unknown variable %q", node.Value)
	}
	elems, err := asList(val)
	if err != nil {
		return fmt.Errorf("%s: %w", node.Value, err)
	}

	prevAnchor := ec.anchor
	defer func() { ec.anchor = prevAnchor }()

	for i, elem := range elems {
		if ec.ShouldReturn {
			break
		}
		ec.anchor = prevAnchor
		ec.Vars[itemVar] = elem
		ec.Vars[indexVar] = i
		if err := e.runSequence(ctx, opts.Do, ec); err != nil {
			return err
		}
	}
	delete(ec.Vars, itemVar)
	delete(ec.Vars, indexVar)
	return nil
}

func asList(val any) ([]any, error) {
	switch v := val.(type) {
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not an array (got %T)", val)
	}
}

// runReturn sets the short-circuit flag; every enclosing sequence stops
// before its next action. An optional value becomes the trigger result.
func (e *Engine) runReturn(node *domain.ActionNode, ec *Context) error {
	if node.Value != "" {
		val, err := pattern.Interpolate(node.Value, ec.Vars)
		if err != nil {
			return err
		}
		ec.ReturnValue = val
	}
	ec.ShouldReturn = true
	return nil
}

// runValidate fails the sequence when the condition is false.
func (e *Engine) runValidate(node *domain.ActionNode, ec *Context) error {
	ok, err := pattern.EvaluateCondition(node.Value, ec.Vars)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	msg := ""
	if node.Validate != nil && node.Validate.Message != "" {
		msg, err = pattern.Interpolate(node.Validate.Message, ec.Vars)
		if err != nil {
			return err
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("validation failed: %s", node.Value)
	}
	return &domain.ActionError{Kind: domain.KindValidate, Msg: msg}
}

// runDelay suspends the sequence for the given duration, honoring context
// cancellation.
func (e *Engine) runDelay(ctx context.Context, node *domain.ActionNode) error {
	d, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	return e.sleep(ctx, d)
}

// parseDuration accepts "500ms", "2s", "1m" and a bare number of
// milliseconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("malformed duration %q", s)
	}
	return d, nil
}
