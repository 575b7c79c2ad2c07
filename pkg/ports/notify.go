package ports

import (
	"context"
	"time"
)

// Notifier shows a fire-and-forget message to the user for the given
// duration. Errors are not reported back to the action sequence.
type Notifier interface {
	Notify(ctx context.Context, message string, duration time.Duration)
}
