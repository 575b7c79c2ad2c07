package runtime

import (
	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/ports"
)

// Position is a document cursor: zero-based line and column.
type Position struct {
	Line int
	Col  int
}

// Invocation carries the caller-supplied starting point of one trigger
// execution: the originating work item or line, plus seed variables (hosts
// typically expose the originating configuration as "config").
type Invocation struct {
	Item      *domain.WorkItem
	DocPath   string
	Line      string
	Selection string
	Cursor    Position
	Vars      map[string]any
}

// Context is the mutable state bag threaded through one trigger execution.
// It is created fresh per invocation, discarded on completion and never
// shared across concurrent invocations. Variable keys are case-sensitive;
// later writes overwrite earlier ones.
type Context struct {
	Vars map[string]any

	Item      *domain.WorkItem
	DocPath   string
	Line      string
	Selection string
	Cursor    Position

	// anchor is the child offset the next generated line is injected at;
	// -1 appends after existing children. foreach re-anchors it per
	// iteration so loop output becomes siblings.
	anchor int

	LastResponse any
	LastError    error

	ShouldReturn bool
	ReturnValue  any

	docs     ports.DocumentStore
	editor   ports.TaskEditor
	query    ports.QueryService
	http     ports.HTTPDoer
	notifier ports.Notifier
}

func (e *Engine) newContext(inv *Invocation) *Context {
	ec := &Context{
		Vars:     make(map[string]any),
		anchor:   -1,
		docs:     e.docs,
		editor:   e.editor,
		query:    e.query,
		http:     e.http,
		notifier: e.notifier,
	}
	if inv == nil {
		return ec
	}
	for k, v := range inv.Vars {
		ec.Vars[k] = v
	}
	ec.Item = inv.Item
	ec.DocPath = inv.DocPath
	ec.Line = inv.Line
	ec.Selection = inv.Selection
	ec.Cursor = inv.Cursor
	if ec.Item != nil {
		if ec.DocPath == "" {
			ec.DocPath = ec.Item.DocPath
		}
		if ec.Line == "" {
			ec.Line = ec.Item.Text
		}
	}
	ec.Vars["line"] = ec.Line
	return ec
}
