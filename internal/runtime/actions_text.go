package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
)

var (
	decorationRe = regexp.MustCompile(`(?m)^[ \t]*[-*+] (\[.\] )?`)
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
	regexLitRe   = regexp.MustCompile(`^/(.*)/([a-z]*)$`)
)

// runRead selects a source text, optionally strips list decoration, stores
// the raw text and extracts pattern variables from it.
func (e *Engine) runRead(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	opts := node.Read
	if opts == nil {
		opts = &domain.ReadOptions{}
	}

	text, err := e.readSource(ctx, opts.Source, ec)
	if err != nil {
		return err
	}
	if opts.Strip {
		text = decorationRe.ReplaceAllString(text, "")
	}

	as := opts.As
	if as == "" {
		as = "source"
	}
	// The raw source text is always stored, even when extraction fails.
	ec.Vars[as] = text

	if node.Value == "" {
		return nil
	}
	values, err := pattern.ExtractValues(text, node.Value)
	if err != nil {
		return err
	}
	for k, v := range values {
		ec.Vars[k] = v
	}
	return nil
}

func (e *Engine) readSource(ctx context.Context, source domain.ReadSource, ec *Context) (string, error) {
	switch {
	case source == "" || source == domain.ReadLine:
		return ec.Line, nil

	case source == domain.ReadDocument:
		if e.docs == nil {
			return "", fmt.Errorf("no document store configured")
		}
		return e.docs.Load(ctx, ec.DocPath)

	case source == domain.ReadSelection:
		return ec.Selection, nil

	case source == domain.ReadChildren:
		if ec.Item == nil {
			return "", fmt.Errorf("no work item for children source")
		}
		return strings.Join(ec.Item.Children, "\n"), nil

	case source == domain.ReadImage:
		return e.readImage(ctx, ec)

	case strings.HasPrefix(string(source), "doc:"):
		if e.docs == nil {
			return "", fmt.Errorf("no document store configured")
		}
		path, err := pattern.Interpolate(strings.TrimPrefix(string(source), "doc:"), ec.Vars)
		if err != nil {
			return "", err
		}
		return e.docs.Load(ctx, path)
	}
	return "", fmt.Errorf("unknown read source %q", source)
}

// readImage resolves the first embedded image reference on the current line
// and returns its content base64-encoded.
func (e *Engine) readImage(ctx context.Context, ec *Context) (string, error) {
	m := imageRe.FindStringSubmatch(ec.Line)
	if m == nil {
		return "", fmt.Errorf("no embedded image on the current line")
	}
	if e.docs == nil {
		return "", fmt.Errorf("no document store configured")
	}
	data, err := e.docs.Load(ctx, m[1])
	if err != nil {
		return "", fmt.Errorf("loading image %s: %w", m[1], err)
	}
	return base64.StdEncoding.EncodeToString([]byte(data)), nil
}

// runSet interpolates a value into a named variable, or extracts via a
// pattern. Extracted token names win over the target name.
func (e *Engine) runSet(node *domain.ActionNode, ec *Context) error {
	opts := node.Set
	if opts == nil {
		opts = &domain.SetOptions{}
	}

	if opts.Pattern != "" {
		source := ec.Line
		if opts.Source != "" {
			s, err := pattern.Interpolate(opts.Source, ec.Vars)
			if err != nil {
				return err
			}
			source = s
		}
		values, err := pattern.ExtractValues(source, opts.Pattern)
		if err != nil {
			return err
		}
		for k, v := range values {
			ec.Vars[k] = v
		}
		return nil
	}

	val, err := pattern.Interpolate(opts.Value, ec.Vars)
	if err != nil {
		return err
	}
	ec.Vars[node.Value] = val
	return nil
}

// runMatch extracts pattern variables from an interpolated source.
func (e *Engine) runMatch(node *domain.ActionNode, ec *Context) error {
	source := ec.Line
	if node.Match != nil && node.Match.Source != "" {
		s, err := pattern.Interpolate(node.Match.Source, ec.Vars)
		if err != nil {
			return err
		}
		source = s
	}
	values, err := pattern.ExtractValues(source, node.Value)
	if err != nil {
		return err
	}
	for k, v := range values {
		ec.Vars[k] = v
	}
	return nil
}

// runExtract matches a free-form regex (optionally /pattern/flags) against
// an interpolated source. Named groups become variables; without named
// groups the first capture lands in the "as" variable.
func (e *Engine) runExtract(node *domain.ActionNode, ec *Context) error {
	opts := node.Extract
	if opts == nil {
		opts = &domain.ExtractOptions{}
	}

	source := ec.Line
	if opts.Source != "" {
		s, err := pattern.Interpolate(opts.Source, ec.Vars)
		if err != nil {
			return err
		}
		source = s
	}

	expr := node.Value
	if m := regexLitRe.FindStringSubmatch(expr); m != nil {
		flags := strings.Map(func(r rune) rune {
			if strings.ContainsRune("ims", r) {
				return r
			}
			return -1
		}, m[2])
		if flags != "" {
			expr = "(?" + flags + ")" + m[1]
		} else {
			expr = m[1]
		}
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	match := re.FindStringSubmatch(source)
	if match == nil {
		return fmt.Errorf("regex %q did not match", node.Value)
	}

	named := false
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		named = true
		ec.Vars[name] = match[i]
	}
	if !named {
		as := opts.As
		if as == "" {
			as = "match"
		}
		if len(match) > 1 {
			ec.Vars[as] = match[1]
		} else {
			ec.Vars[as] = match[0]
		}
	}
	return nil
}

// runBuild assembles a structured variable from interpolated key/value
// templates, attempting a structured parse of each value before falling
// back to string.
func (e *Engine) runBuild(node *domain.ActionNode, ec *Context) error {
	obj := make(map[string]any)
	if node.Build != nil {
		for _, field := range node.Build.Fields {
			val, err := pattern.Interpolate(field.Value, ec.Vars)
			if err != nil {
				return err
			}
			obj[field.Key] = parseStructured(val)
		}
	}
	name := node.Value
	if name == "" {
		name = "built"
	}
	ec.Vars[name] = obj
	return nil
}

// parseStructured attempts a JSON reading of an interpolated value.
func parseStructured(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '{', '[', '"', 't', 'f', 'n', '-',
		'0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var out any
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
			return out
		}
	}
	return s
}
