package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	dirStorePerm  = 0o750
	fileStorePerm = 0o600
	indexFileName = "index.md"
	indexHeader   = "# Documentation Index"
)

// DirStore persists documents under a root directory, one subdirectory per
// region. The shared index is a markdown file at the root, rewritten as a
// whole on every merge.
type DirStore struct {
	root string

	mu    sync.Mutex
	index []IndexEntry
}

// NewDirStore creates a store rooted at dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, dirStorePerm); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}

	return &DirStore{root: dir}, nil
}

// WriteDocument writes the document under root/region/path.
func (s *DirStore) WriteDocument(_ context.Context, region string, doc Document) error {
	target := filepath.Join(s.root, region, filepath.FromSlash(doc.Path))

	if err := os.MkdirAll(filepath.Dir(target), dirStorePerm); err != nil {
		return fmt.Errorf("creating region %s: %w", region, err)
	}

	if err := os.WriteFile(target, []byte(doc.Content), fileStorePerm); err != nil {
		return fmt.Errorf("writing %s: %w", doc.Path, err)
	}

	return nil
}

// MergeIndex folds the contributions into the index file in specialist
// order. The caller serializes merges; the lock only guards against
// concurrent direct use of the same store value.
func (s *DirStore) MergeIndex(ctx context.Context, contributions []IndexContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]IndexContribution, len(contributions))
	copy(sorted, contributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Specialist < sorted[j].Specialist
	})

	for _, contrib := range sorted {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.index = append(s.index, contrib.Entries...)
	}

	var b strings.Builder

	b.WriteString(indexHeader + "\n\n")

	for _, entry := range s.index {
		fmt.Fprintf(&b, "- [%s](%s)\n", entry.Title, entry.Path)
	}

	target := filepath.Join(s.root, indexFileName)
	if err := os.WriteFile(target, []byte(b.String()), fileStorePerm); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	return nil
}
