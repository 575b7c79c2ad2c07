package ports

import (
	"context"

	"github.com/listflow/listflow/pkg/domain"
)

// QueryService locates tracked items across documents by tag or identifier.
type QueryService interface {
	Find(ctx context.Context, identifier string, opts domain.QueryOptionsRequest) ([]domain.WorkItem, error)
}
