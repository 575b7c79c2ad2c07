package compiler

import (
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/listflow/listflow/internal/logging"
	"github.com/listflow/listflow/pkg/domain"
)

// Parser converts a raw bullet configuration tree into a typed Config.
// Unknown action kinds are dropped with a warning; a configuration that
// yields zero recognized triggers is a parse failure.
type Parser struct {
	logger *slog.Logger
}

// Option configures the Parser.
type Option func(*Parser)

// WithLogger sets the logger used for non-fatal parse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseConfig groups the top-level bullets by trigger kind and parses each
// trigger's children into an action sequence, in document order.
func (p *Parser) ParseConfig(items []domain.RawItem, sourceTag string) (*domain.Config, error) {
	cfg := &domain.Config{SourceTag: sourceTag, Raw: items}

	for _, item := range items {
		key, _, _ := splitHead(item.Text)
		if !domain.KnownTriggerKind(key) {
			p.logger.Warn("skipping unknown trigger section", "tag", sourceTag, "key", key)
			continue
		}
		cfg.Triggers = append(cfg.Triggers, domain.Trigger{
			Kind:    domain.TriggerKind(key),
			Actions: p.parseSequence(item.Children),
		})
	}

	if len(cfg.Triggers) == 0 {
		return nil, domain.ErrNoTriggers
	}
	return cfg, nil
}

// ParseConfigText is a convenience wrapper over ParseOutline + ParseConfig.
func (p *Parser) ParseConfigText(text, sourceTag string) (*domain.Config, error) {
	return p.ParseConfig(ParseOutline(text), sourceTag)
}

// parseSequence parses sibling bullets into an action sequence. Bullets
// with an unrecognized kind are dropped with a warning, not a failure.
func (p *Parser) parseSequence(items []domain.RawItem) []domain.ActionNode {
	nodes := make([]domain.ActionNode, 0, len(items))
	for _, item := range items {
		node, err := p.parseActionNode(item)
		if err != nil {
			p.logger.Warn("dropping action", "item", item.Text, "err", err)
			continue
		}
		if node == nil {
			p.logger.Warn("dropping unknown action kind", "item", item.Text)
			continue
		}
		nodes = append(nodes, *node)
	}
	return nodes
}

// parseActionNode reads one bullet's "kind: value" head plus its children.
// A child keyed exactly "onError" becomes the node's error-handler sequence
// rather than an ordinary option.
func (p *Parser) parseActionNode(item domain.RawItem) (*domain.ActionNode, error) {
	key, value, inline := splitHead(item.Text)
	if !domain.KnownKind(key) {
		return nil, nil
	}

	node := &domain.ActionNode{Kind: domain.Kind(key), Value: value}

	// Children split three ways: the onError handler, kind-specific
	// structural children, and plain "key: value" options.
	options := map[string]any{}
	for k, v := range inline {
		options[k] = v
	}

	var structural []domain.RawItem
	for _, child := range item.Children {
		ck, cv, _ := splitHead(child.Text)
		if ck == "onError" {
			node.OnError = p.parseSequence(child.Children)
			continue
		}
		if isStructuralChild(node.Kind, ck) {
			structural = append(structural, child)
			continue
		}
		if len(child.Children) == 0 && cv != "" {
			options[ck] = cv
			continue
		}
		structural = append(structural, child)
	}

	if err := p.applyKind(node, options, structural); err != nil {
		return nil, err
	}
	return node, nil
}

// applyKind decodes the collected options into the kind-specific struct and
// wires structural children (branches, templates, nested maps).
func (p *Parser) applyKind(node *domain.ActionNode, options map[string]any, structural []domain.RawItem) error {
	switch node.Kind {
	case domain.KindRead:
		node.Read = &domain.ReadOptions{}
		return decode(options, node.Read)

	case domain.KindFetch:
		node.Fetch = &domain.FetchOptions{}
		for _, child := range structural {
			ck, cv, _ := splitHead(child.Text)
			switch ck {
			case "headers":
				node.Fetch.Headers = childMap(child)
			case "auth":
				auth := childMap(child)
				node.Fetch.Auth = &domain.AuthOptions{}
				if err := decode(anyMap(auth), node.Fetch.Auth); err != nil {
					return err
				}
			case "body":
				node.Fetch.Body = joinBody(cv, child.Children)
			default:
				return &domain.ParseError{Item: child.Text, Msg: "unknown fetch option"}
			}
		}
		return decode(options, node.Fetch)

	case domain.KindShell:
		node.Shell = &domain.ShellOptions{}
		return decode(options, node.Shell)

	case domain.KindTransform:
		node.Transform = &domain.TransformOptions{}
		if err := decode(options, node.Transform); err != nil {
			return err
		}
		node.Transform.Templates = flattenTemplates(structural, 0)
		return nil

	case domain.KindBuild:
		node.Build = &domain.BuildOptions{}
		// Build fields keep document order, so they come from the raw
		// children, not the unordered option map.
		for _, child := range structural {
			k, v, _ := splitHead(child.Text)
			node.Build.Fields = append(node.Build.Fields, domain.BuildField{Key: k, Value: v})
		}
		for k, v := range options {
			if s, ok := v.(string); ok {
				node.Build.Fields = append(node.Build.Fields, domain.BuildField{Key: k, Value: s})
			}
		}
		return nil

	case domain.KindQuery:
		node.Query = &domain.QueryOptions{}
		return decode(options, node.Query)

	case domain.KindSet:
		node.Set = &domain.SetOptions{}
		return decode(options, node.Set)

	case domain.KindMatch:
		node.Match = &domain.MatchOptions{}
		return decode(options, node.Match)

	case domain.KindExtract:
		node.Extract = &domain.ExtractOptions{}
		return decode(options, node.Extract)

	case domain.KindIf:
		node.If = &domain.IfOptions{}
		var direct []domain.RawItem
		for _, child := range structural {
			ck, _, _ := splitHead(child.Text)
			switch ck {
			case "then":
				node.If.Then = p.parseSequence(child.Children)
			case "else":
				node.If.Else = p.parseSequence(child.Children)
			default:
				direct = append(direct, child)
			}
		}
		// Children without explicit branches are the "then" arm.
		if node.If.Then == nil && len(direct) > 0 {
			node.If.Then = p.parseSequence(direct)
		}
		return nil

	case domain.KindForeach:
		node.Foreach = &domain.ForeachOptions{}
		if err := decode(options, node.Foreach); err != nil {
			return err
		}
		var direct []domain.RawItem
		for _, child := range structural {
			ck, _, _ := splitHead(child.Text)
			if ck == "do" {
				node.Foreach.Do = p.parseSequence(child.Children)
				continue
			}
			direct = append(direct, child)
		}
		if node.Foreach.Do == nil {
			node.Foreach.Do = p.parseSequence(direct)
		}
		return nil

	case domain.KindReturn, domain.KindDelay:
		return nil

	case domain.KindAppend:
		node.Append = &domain.AppendOptions{}
		return decode(options, node.Append)

	case domain.KindTask:
		node.Task = &domain.TaskOptions{}
		return decode(options, node.Task)

	case domain.KindValidate:
		node.Validate = &domain.ValidateOptions{}
		return decode(options, node.Validate)

	case domain.KindFilter:
		node.Filter = &domain.SeqOptions{}
		return decode(options, node.Filter)

	case domain.KindMap:
		node.Map = &domain.SeqOptions{}
		return decode(options, node.Map)

	case domain.KindDate:
		node.Date = &domain.DateOptions{}
		return decode(options, node.Date)

	case domain.KindNotify:
		node.Notify = &domain.NotifyOptions{}
		return decode(options, node.Notify)
	}
	return nil
}

// decode maps loosely-typed option values onto a typed options struct.
func decode(options map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return &domain.ParseError{Msg: err.Error()}
	}
	return nil
}

// childMap collects a child's "key: value" bullets into a string map.
func childMap(item domain.RawItem) map[string]string {
	out := make(map[string]string, len(item.Children))
	for _, c := range item.Children {
		k, v, _ := splitHead(c.Text)
		out[k] = v
	}
	return out
}

func anyMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// joinBody assembles a request body from an inline value or nested lines.
func joinBody(inline string, children []domain.RawItem) string {
	if inline != "" {
		return inline
	}
	lines := make([]string, 0, len(children))
	for _, c := range children {
		lines = append(lines, c.Text)
	}
	return strings.Join(lines, "\n")
}

// flattenTemplates converts nested template bullets into TemplateLines with
// indent relative to the owning action.
func flattenTemplates(items []domain.RawItem, depth int) []domain.TemplateLine {
	var out []domain.TemplateLine
	for _, item := range items {
		out = append(out, domain.TemplateLine{Text: unquoteTemplate(item.Text), Indent: depth})
		out = append(out, flattenTemplates(item.Children, depth+1)...)
	}
	return out
}

// isStructuralChild reports whether the child key carries nested structure
// for this kind instead of a flat option.
func isStructuralChild(kind domain.Kind, key string) bool {
	switch kind {
	case domain.KindFetch:
		return key == "headers" || key == "auth" || key == "body"
	case domain.KindIf:
		return key == "then" || key == "else" || domain.KnownKind(key)
	case domain.KindForeach:
		return key == "do" || domain.KnownKind(key)
	case domain.KindTransform:
		// Everything below a transform except its mode option is template.
		return key != "mode"
	case domain.KindBuild:
		return key != ""
	}
	return false
}

// splitHead parses a bullet head of the form
//
//	kind: value [inlineKey: value]*
//
// The primary value may be backtick-delimited, which protects embedded
// "key:" sequences and is unwrapped here. Inline keys are bare identifiers
// followed by a colon and space.
func splitHead(text string) (key, value string, inline map[string]string) {
	text = strings.TrimSpace(text)
	idx := strings.Index(text, ":")
	if idx < 0 {
		return strings.TrimSuffix(text, ":"), "", nil
	}
	key = strings.TrimSpace(text[:idx])
	rest := strings.TrimSpace(text[idx+1:])

	value, rest = takeValue(rest)
	for rest != "" {
		var k, v string
		k, v, rest = takeInlinePair(rest)
		if k == "" {
			break
		}
		if inline == nil {
			inline = map[string]string{}
		}
		inline[k] = v
	}
	return key, value, inline
}

// takeValue pops the primary value: a backtick-quoted run, or bare text up
// to the next inline "key: " boundary.
func takeValue(s string) (value, rest string) {
	if strings.HasPrefix(s, "`") {
		if end := strings.Index(s[1:], "`"); end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:])
		}
	}
	if b := inlineBoundary(s); b >= 0 {
		return strings.TrimSpace(s[:b]), s[b:]
	}
	return unquote(s), ""
}

func takeInlinePair(s string) (key, value, rest string) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", "", ""
	}
	key = strings.TrimSpace(s[:idx])
	value, rest = takeValue(strings.TrimSpace(s[idx+1:]))
	return key, value, rest
}

// inlineBoundary finds the start of the next " key: " pair outside
// backticks, or -1.
func inlineBoundary(s string) int {
	inTick := false
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			inTick = !inTick
			continue
		}
		if inTick || s[i] != ' ' {
			continue
		}
		// A boundary looks like " ident: ".
		j := i + 1
		for j < len(s) && (isIdentChar(s[j])) {
			j++
		}
		if j > i+1 && j < len(s)-1 && s[j] == ':' && s[j+1] == ' ' {
			return i + 1
		}
	}
	return -1
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// unquoteTemplate strips the quoting template authors use to protect
// leading markup ('#tag ...' or backticks) from the bullet grammar.
func unquoteTemplate(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	return unquote(s)
}

func unquote(s string) string {
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		return s[1 : len(s)-1]
	}
	return s
}
