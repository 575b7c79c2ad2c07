package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/listflow/listflow/internal/logging"
)

// Notifier delivers notifications as structured log lines. Hosts with a real
// notification surface provide their own implementation.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a log-backed notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Notifier{logger: logger}
}

// Notify logs the message; the duration is recorded but not acted on.
func (n *Notifier) Notify(_ context.Context, message string, duration time.Duration) {
	n.logger.Info("notification", "message", message, "duration", duration)
}
