package ports

import "context"

// ResponseStash is the single-slot hand-off between an onTrigger success and
// the done-transition that consumes its value. Keyed by document path; Put
// overwrites any previous value, Take consumes-and-clears exactly once.
// At most one hand-off per item is expected at a time, so this is not a
// queue.
type ResponseStash interface {
	Put(ctx context.Context, docPath string, value any) error

	// Take returns the stashed value and clears the slot. The second return
	// is false when the slot was empty, which is a normal no-value case,
	// not an error.
	Take(ctx context.Context, docPath string) (any, bool, error)
}
