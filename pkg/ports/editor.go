package ports

import (
	"context"

	"github.com/listflow/listflow/pkg/domain"
)

// TaskEditor performs the physical line surgery on a tracked work item.
// Child operations tag the lines they write with a marker character so they
// can be found and removed later; implementations must refuse to remove or
// replace lines whose marker is human-authored (see domain.GeneratedMarker).
type TaskEditor interface {
	// AppendPrimary appends text to the item's primary line.
	AppendPrimary(ctx context.Context, item *domain.WorkItem, text string) error

	// PrependPrimary inserts text after the item's tag, before the body.
	PrependPrimary(ctx context.Context, item *domain.WorkItem, text string) error

	// ReplacePrimary replaces the body of the item's primary line.
	ReplacePrimary(ctx context.Context, item *domain.WorkItem, text string) error

	// AppendChild adds a generated line after the item's existing children.
	// Indent is relative to the item (0 = direct child).
	AppendChild(ctx context.Context, item *domain.WorkItem, text, marker string, indent int) error

	// PrependChild adds a generated line before the item's existing children.
	PrependChild(ctx context.Context, item *domain.WorkItem, text, marker string, indent int) error

	// ReplaceChild replaces the generated child line at the given offset.
	ReplaceChild(ctx context.Context, item *domain.WorkItem, offset int, text, marker string) error

	// InjectChildAt inserts a generated line at the given child offset.
	InjectChildAt(ctx context.Context, item *domain.WorkItem, offset int, text, marker string, indent int) error

	// RemoveChildrenByMarker removes every child line tagged with marker.
	RemoveChildrenByMarker(ctx context.Context, item *domain.WorkItem, marker string) error

	// RemoveChildByOffset removes the generated child line at the offset.
	RemoveChildByOffset(ctx context.Context, item *domain.WorkItem, offset int) error

	// SetStatus rewrites the item's status marker.
	SetStatus(ctx context.Context, item *domain.WorkItem, status domain.Status) error
}
