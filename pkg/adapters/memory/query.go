package memory

import (
	"context"
	"strings"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/ports"
)

// Lister is a document store that can enumerate its documents. Both the
// in-memory store and the loam file store satisfy it.
type Lister interface {
	ports.DocumentStore
	Paths(ctx context.Context) ([]string, error)
}

// Query locates tracked items across every document of a store by scanning
// for checkbox lines whose body starts with the identifier.
type Query struct {
	store Lister
}

// NewQuery creates a query service over the given store.
func NewQuery(store Lister) *Query {
	return &Query{store: store}
}

// Find returns every item tagged with identifier, in document and line
// order. Status narrows by checkbox state; limit truncates the result.
func (q *Query) Find(ctx context.Context, identifier string, opts domain.QueryOptionsRequest) ([]domain.WorkItem, error) {
	paths, err := q.store.Paths(ctx)
	if err != nil {
		return nil, err
	}
	var items []domain.WorkItem
	for _, path := range paths {
		content, err := q.store.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			p := parseLine(line)
			if !p.hasBox || !taggedWith(p.body, identifier) {
				continue
			}
			if opts.Status != "" && string(p.status) != opts.Status {
				continue
			}
			item := domain.WorkItem{
				DocPath: path,
				Line:    i,
				Tag:     identifier,
				Status:  p.status,
				Text:    p.body,
			}
			start, end := childBlock(lines, i, p.width)
			for _, child := range lines[start:end] {
				item.Children = append(item.Children, parseLine(child).body)
			}
			items = append(items, item)
			if opts.Limit > 0 && len(items) >= opts.Limit {
				return items, nil
			}
		}
	}
	return items, nil
}

func taggedWith(body, identifier string) bool {
	return body == identifier || strings.HasPrefix(body, identifier+" ")
}
