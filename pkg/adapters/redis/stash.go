// Package redis provides a Redis-backed pending-response stash so the
// hand-off between a trigger success and its done-transition survives
// process restarts and works across engine replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// Stash implements ports.ResponseStash on a Redis key per document path.
// GETDEL keeps the consume-and-clear atomic across replicas.
type Stash struct {
	client *backend.Client
	prefix string
}

// StashOption configures the stash.
type StashOption func(*Stash)

// WithPrefix sets the key prefix (default "listflow:stash:").
func WithPrefix(prefix string) StashOption {
	return func(s *Stash) { s.prefix = prefix }
}

// NewStash creates a stash on the given client.
func NewStash(client *backend.Client, opts ...StashOption) *Stash {
	s := &Stash{
		client: client,
		prefix: "listflow:stash:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the value for the document, overwriting any previous one.
func (s *Stash) Put(ctx context.Context, docPath string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding stash value: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+docPath, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Take consumes and clears the value for the document. An empty slot
// returns ok=false with no error.
func (s *Stash) Take(ctx context.Context, docPath string) (any, bool, error) {
	data, err := s.client.GetDel(ctx, s.prefix+docPath).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis getdel: %w", err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false, fmt.Errorf("decoding stash value: %w", err)
	}
	return value, true, nil
}
