// Package docstore is the boundary to the document store collaborator.
// Each specialist owns a disjoint region of the store; the only shared
// artifact is the navigation index, whose updates are merged in one
// serialized step after all specialists finish.
package docstore

import (
	"context"
	"sort"
	"sync"
)

// Document is one piece of generated documentation.
type Document struct {
	// Path is relative to the specialist's region.
	Path    string
	Content string
}

// IndexEntry is one navigation line a specialist wants in the shared index.
type IndexEntry struct {
	Title string
	Path  string
}

// IndexContribution is a specialist's computed share of the shared index.
// Specialists never touch the index directly; the dispatcher applies all
// contributions sequentially once the event settles.
type IndexContribution struct {
	Specialist string
	Entries    []IndexEntry
}

// Store receives generated documentation. Implementations must tolerate
// concurrent WriteDocument calls for different regions; MergeIndex is always
// called from a single goroutine.
type Store interface {
	WriteDocument(ctx context.Context, region string, doc Document) error
	MergeIndex(ctx context.Context, contributions []IndexContribution) error
}

// MemoryStore keeps everything in maps. Test double and local dry-run sink.
type MemoryStore struct {
	mu    sync.Mutex
	docs  map[string][]Document
	index []IndexEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]Document{}}
}

// WriteDocument records a document under its region.
func (m *MemoryStore) WriteDocument(_ context.Context, region string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[region] = append(m.docs[region], doc)

	return nil
}

// MergeIndex applies contributions in specialist order, deterministically.
func (m *MemoryStore) MergeIndex(_ context.Context, contributions []IndexContribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := make([]IndexContribution, len(contributions))
	copy(sorted, contributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Specialist < sorted[j].Specialist
	})

	for _, contrib := range sorted {
		m.index = append(m.index, contrib.Entries...)
	}

	return nil
}

// Documents returns the documents written to a region.
func (m *MemoryStore) Documents(region string) []Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Document, len(m.docs[region]))
	copy(out, m.docs[region])

	return out
}

// Index returns the merged navigation index.
func (m *MemoryStore) Index() []IndexEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]IndexEntry, len(m.index))
	copy(out, m.index)

	return out
}
