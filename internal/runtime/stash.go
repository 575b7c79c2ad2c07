package runtime

import (
	"context"
	"sync"
)

// memoryStash is the default in-process pending-response stash: a
// single-slot overwrite-and-clear map keyed by document path, owned by the
// engine instance. Executions for different items may run concurrently, so
// the map is guarded; slot semantics stay last-write-wins.
type memoryStash struct {
	mu    sync.Mutex
	slots map[string]any
}

func newMemoryStash() *memoryStash {
	return &memoryStash{slots: make(map[string]any)}
}

func (s *memoryStash) Put(_ context.Context, docPath string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[docPath] = value
	return nil
}

func (s *memoryStash) Take(_ context.Context, docPath string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.slots[docPath]
	if ok {
		delete(s.slots, docPath)
	}
	return val, ok, nil
}
