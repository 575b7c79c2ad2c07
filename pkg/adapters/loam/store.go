// Package loam backs the document store with a loam repository: plain
// files on disk with optional frontmatter, versioned through loam's commit
// discipline. It is the store the CLI and server run against.
package loam

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

// DocMeta is the frontmatter shape of a listflow document. Tags are
// informational; trigger configuration lives in the body outline.
type DocMeta struct {
	Tags []string `json:"tags"`
}

// Store is a loam-backed document store rooted at a directory.
type Store struct {
	root  string
	repo  core.Repository
	typed *loam.TypedRepository[DocMeta]
	svc   *core.Service
}

// Open initializes a loam repository at root and returns a store over it.
// Versioning is disabled; listflow documents are edited by their owners and
// the engine in place, not through loam history.
func Open(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid store root: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("initializing document store: %w", err)
	}
	return &Store{
		root:  abs,
		repo:  repo,
		typed: loam.NewTypedRepository[DocMeta](repo),
		svc:   core.NewService(repo),
	}, nil
}

// Load returns the full text of a document by path.
func (s *Store) Load(ctx context.Context, path string) (string, error) {
	doc, err := s.typed.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", path, err)
	}
	return doc.Content, nil
}

// Save replaces the full text of a document.
func (s *Store) Save(ctx context.Context, path, content string) error {
	tx, err := s.svc.Begin(ctx)
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := tx.Save(ctx, core.Document{ID: path, Content: content}); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := tx.Commit(ctx, "update "+path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Paths lists every markdown document under the store root, as paths
// relative to it.
func (s *Store) Paths(_ context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
