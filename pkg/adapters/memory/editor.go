package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/ports"
)

const indentStep = "    "

// Editor performs line surgery on documents held in a document store. It
// locates a work item by document path and primary-line offset, edits the
// surrounding lines and writes the document back whole. Fields of the item
// are refreshed after each edit so chained actions see current text.
type Editor struct {
	docs ports.DocumentStore
}

// NewEditor creates an editor over the given store.
func NewEditor(docs ports.DocumentStore) *Editor {
	return &Editor{docs: docs}
}

type lineParts struct {
	indent string
	width  int
	marker string
	hasBox bool
	status domain.Status
	body   string
}

// parseLine splits one document line into indent, bullet, checkbox and body.
// Tabs count four columns.
func parseLine(line string) lineParts {
	var p lineParts
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ':
			p.width++
		case '\t':
			p.width += 4
		default:
			p.indent = line[:i]
			goto bullet
		}
		i++
	}
	p.indent = line
	return p

bullet:
	rest := line[i:]
	if len(rest) >= 2 && strings.ContainsRune("-*+", rune(rest[0])) && rest[1] == ' ' {
		p.marker = string(rest[0])
		rest = rest[2:]
	} else {
		p.body = rest
		return p
	}
	if len(rest) >= 4 && rest[0] == '[' && rest[2] == ']' && rest[3] == ' ' {
		p.hasBox = true
		p.status = domain.Status(rest[1])
		rest = rest[4:]
	}
	p.body = rest
	return p
}

func (p lineParts) render() string {
	var sb strings.Builder
	sb.WriteString(p.indent)
	if p.marker != "" {
		sb.WriteString(p.marker + " ")
	}
	if p.hasBox {
		sb.WriteString("[" + string(p.status) + "] ")
	}
	sb.WriteString(p.body)
	return sb.String()
}

// load returns the document lines and the parsed primary line of the item.
func (e *Editor) load(ctx context.Context, item *domain.WorkItem) ([]string, lineParts, error) {
	content, err := e.docs.Load(ctx, item.DocPath)
	if err != nil {
		return nil, lineParts{}, err
	}
	lines := strings.Split(content, "\n")
	if item.Line < 0 || item.Line >= len(lines) {
		return nil, lineParts{}, fmt.Errorf("item line %d out of range in %s", item.Line, item.DocPath)
	}
	return lines, parseLine(lines[item.Line]), nil
}

func (e *Editor) save(ctx context.Context, item *domain.WorkItem, lines []string) error {
	if err := e.docs.Save(ctx, item.DocPath, strings.Join(lines, "\n")); err != nil {
		return err
	}
	return e.sync(ctx, item)
}

// sync refreshes the item's text, status and children from the document.
func (e *Editor) sync(ctx context.Context, item *domain.WorkItem) error {
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	item.Text = primary.body
	if primary.hasBox {
		item.Status = primary.status
	}
	start, end := childBlock(lines, item.Line, primary.width)
	item.Children = item.Children[:0]
	for _, line := range lines[start:end] {
		item.Children = append(item.Children, parseLine(line).body)
	}
	return nil
}

// childBlock returns the absolute line range of the item's children: the
// run of more-indented lines directly below it. A blank line ends the block.
func childBlock(lines []string, primary, primaryWidth int) (start, end int) {
	start = primary + 1
	end = start
	for end < len(lines) {
		if strings.TrimSpace(lines[end]) == "" {
			break
		}
		if parseLine(lines[end]).width <= primaryWidth {
			break
		}
		end++
	}
	return start, end
}

// AppendPrimary appends text to the item's primary line.
func (e *Editor) AppendPrimary(ctx context.Context, item *domain.WorkItem, text string) error {
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	primary.body = strings.TrimRight(primary.body, " ") + " " + text
	lines[item.Line] = primary.render()
	return e.save(ctx, item, lines)
}

// PrependPrimary inserts text after the item's tag, before the body.
func (e *Editor) PrependPrimary(ctx context.Context, item *domain.WorkItem, text string) error {
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	if item.Tag != "" && strings.HasPrefix(primary.body, item.Tag+" ") {
		primary.body = item.Tag + " " + text + " " + strings.TrimPrefix(primary.body, item.Tag+" ")
	} else {
		primary.body = text + " " + primary.body
	}
	lines[item.Line] = primary.render()
	return e.save(ctx, item, lines)
}

// ReplacePrimary replaces the body of the item's primary line, keeping the
// bullet and checkbox.
func (e *Editor) ReplacePrimary(ctx context.Context, item *domain.WorkItem, text string) error {
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	primary.body = text
	lines[item.Line] = primary.render()
	return e.save(ctx, item, lines)
}

func (e *Editor) renderChild(primary lineParts, text, marker string, indent int) string {
	return primary.indent + strings.Repeat(indentStep, indent+1) + marker + " " + text
}

// AppendChild adds a generated line after the item's existing children.
func (e *Editor) AppendChild(ctx context.Context, item *domain.WorkItem, text, marker string, indent int) error {
	if !domain.GeneratedMarker(marker) {
		return fmt.Errorf("marker %q is not a generated-line marker", marker)
	}
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	_, end := childBlock(lines, item.Line, primary.width)
	lines = insertLine(lines, end, e.renderChild(primary, text, marker, indent))
	return e.save(ctx, item, lines)
}

// PrependChild adds a generated line before the item's existing children.
func (e *Editor) PrependChild(ctx context.Context, item *domain.WorkItem, text, marker string, indent int) error {
	if !domain.GeneratedMarker(marker) {
		return fmt.Errorf("marker %q is not a generated-line marker", marker)
	}
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	lines = insertLine(lines, item.Line+1, e.renderChild(primary, text, marker, indent))
	return e.save(ctx, item, lines)
}

// InjectChildAt inserts a generated line at the given child offset.
func (e *Editor) InjectChildAt(ctx context.Context, item *domain.WorkItem, offset int, text, marker string, indent int) error {
	if !domain.GeneratedMarker(marker) {
		return fmt.Errorf("marker %q is not a generated-line marker", marker)
	}
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	start, end := childBlock(lines, item.Line, primary.width)
	at := start + offset
	if at < start {
		at = start
	}
	if at > end {
		at = end
	}
	lines = insertLine(lines, at, e.renderChild(primary, text, marker, indent))
	return e.save(ctx, item, lines)
}

// ReplaceChild replaces the generated child line at the given offset. The
// existing line must itself be generated.
func (e *Editor) ReplaceChild(ctx context.Context, item *domain.WorkItem, offset int, text, marker string) error {
	if !domain.GeneratedMarker(marker) {
		return fmt.Errorf("marker %q is not a generated-line marker", marker)
	}
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	at, err := childAt(lines, item.Line, primary.width, offset)
	if err != nil {
		return err
	}
	existing := parseLine(lines[at])
	if !domain.GeneratedMarker(existing.marker) {
		return fmt.Errorf("child at offset %d is human-authored", offset)
	}
	lines[at] = existing.indent + marker + " " + text
	return e.save(ctx, item, lines)
}

// RemoveChildByOffset removes the generated child line at the offset.
func (e *Editor) RemoveChildByOffset(ctx context.Context, item *domain.WorkItem, offset int) error {
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	at, err := childAt(lines, item.Line, primary.width, offset)
	if err != nil {
		return err
	}
	if !domain.GeneratedMarker(parseLine(lines[at]).marker) {
		return fmt.Errorf("child at offset %d is human-authored", offset)
	}
	lines = append(lines[:at], lines[at+1:]...)
	return e.save(ctx, item, lines)
}

// RemoveChildrenByMarker removes every child line tagged with marker.
// Human-authored lines are never touched, whatever the marker argument.
func (e *Editor) RemoveChildrenByMarker(ctx context.Context, item *domain.WorkItem, marker string) error {
	if !domain.GeneratedMarker(marker) {
		return fmt.Errorf("marker %q is not a generated-line marker", marker)
	}
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	start, end := childBlock(lines, item.Line, primary.width)
	kept := append([]string{}, lines[:start]...)
	for _, line := range lines[start:end] {
		if parseLine(line).marker != marker {
			kept = append(kept, line)
		}
	}
	kept = append(kept, lines[end:]...)
	return e.save(ctx, item, kept)
}

// SetStatus rewrites the item's status marker.
func (e *Editor) SetStatus(ctx context.Context, item *domain.WorkItem, status domain.Status) error {
	lines, primary, err := e.load(ctx, item)
	if err != nil {
		return err
	}
	if !primary.hasBox {
		return fmt.Errorf("item at %s:%d has no status checkbox", item.DocPath, item.Line)
	}
	primary.status = status
	lines[item.Line] = primary.render()
	return e.save(ctx, item, lines)
}

func childAt(lines []string, primary, primaryWidth, offset int) (int, error) {
	start, end := childBlock(lines, primary, primaryWidth)
	at := start + offset
	if offset < 0 || at >= end {
		return 0, fmt.Errorf("child offset %d out of range", offset)
	}
	return at, nil
}

func insertLine(lines []string, at int, line string) []string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, line)
	out = append(out, lines[at:]...)
	return out
}
