package ports

import "context"

// DocumentStore loads and saves document text by path. The engine treats
// documents as opaque line-oriented text; bullet structure is recovered by
// the compiler on demand.
type DocumentStore interface {
	// Load returns the full text of a document.
	Load(ctx context.Context, path string) (string, error)

	// Save replaces the full text of a document.
	Save(ctx context.Context, path, content string) error

	// Root returns the store's root directory. Shell commands may only
	// reference paths inside it.
	Root() string
}
