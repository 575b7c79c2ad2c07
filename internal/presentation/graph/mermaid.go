package graph

import (
	"fmt"
	"strings"

	"github.com/listflow/listflow/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart syntax string from a parsed
// config. It applies semantic styling:
// - Trigger: ((Circle))
// - Shell/Fetch (external effects): [[Subroutine]]
// - If: {Diamond}
// - Default: [Rectangle]
// Branch bodies hang off their parent node; error handlers attach with a
// dotted edge.
func GenerateMermaid(cfg *domain.Config) string {
	g := &builder{}
	g.sb.WriteString("graph TD\n")

	for _, t := range cfg.Triggers {
		id := sanitizeMermaidID(string(t.Kind))
		g.sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", id, t.Kind))
		g.writeSequence(id, "", t.Actions)
	}

	return g.sb.String()
}

type builder struct {
	sb   strings.Builder
	next int
}

// writeSequence chains nodes off parent and returns the last node ID.
// The first edge carries label (used for branch entry edges).
func (g *builder) writeSequence(parent, label string, nodes []domain.ActionNode) string {
	prev := parent
	edgeLabel := label
	for i := range nodes {
		id := g.writeNode(&nodes[i])

		arrow := "-->"
		if edgeLabel != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", edgeLabel)
		}
		g.sb.WriteString(fmt.Sprintf("    %s %s %s\n", prev, arrow, id))

		prev = id
		edgeLabel = ""
	}
	return prev
}

func (g *builder) writeNode(node *domain.ActionNode) string {
	g.next++
	id := fmt.Sprintf("n%d", g.next)

	opener, closer := "[", "]"
	switch node.Kind {
	case domain.KindShell, domain.KindFetch:
		opener, closer = "[[", "]]" // Subroutine (external effect)
	case domain.KindIf:
		opener, closer = "{", "}" // Diamond
	}

	g.sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, nodeLabel(node), closer))

	switch {
	case node.Kind == domain.KindIf && node.If != nil:
		g.writeSequence(id, "yes", node.If.Then)
		if len(node.If.Else) > 0 {
			g.writeSequence(id, "no", node.If.Else)
		}
	case node.Kind == domain.KindForeach && node.Foreach != nil:
		last := g.writeSequence(id, "each", node.Foreach.Do)
		if last != id {
			g.sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", last, id))
		}
	}

	g.writeErrorHandler(id, node.OnError)

	return id
}

func (g *builder) writeErrorHandler(parent string, nodes []domain.ActionNode) {
	if len(nodes) == 0 {
		return
	}
	first := g.writeNode(&nodes[0])
	g.sb.WriteString(fmt.Sprintf("    %s -. \"onError\" .-> %s\n", parent, first))
	prev := first
	for i := 1; i < len(nodes); i++ {
		id := g.writeNode(&nodes[i])
		g.sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		prev = id
	}
}

// nodeLabel renders "kind: value" with the value truncated and quoted
// characters escaped for Mermaid labels.
func nodeLabel(node *domain.ActionNode) string {
	label := string(node.Kind)
	if v := strings.TrimSpace(node.Value); v != "" {
		if len(v) > 32 {
			v = v[:29] + "..."
		}
		label += ": " + v
	}
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
