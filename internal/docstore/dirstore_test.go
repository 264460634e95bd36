package docstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoallende/coderipple-sub001/internal/docstore"
)

func TestDirStoreWritesDocumentsUnderRegion(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := docstore.NewDirStore(root)
	require.NoError(t, err)

	ctx := context.Background()
	doc := docstore.Document{Path: "usage.md", Content: "## Usage\n"}
	require.NoError(t, store.WriteDocument(ctx, "user-guide", doc))

	got, err := os.ReadFile(filepath.Join(root, "user-guide", "usage.md"))
	require.NoError(t, err)
	assert.Equal(t, doc.Content, string(got))
}

func TestDirStoreMergeIndexRewritesIndexFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := docstore.NewDirStore(root)
	require.NoError(t, err)

	ctx := context.Background()

	contribs := []docstore.IndexContribution{
		{Specialist: "user-guide", Entries: []docstore.IndexEntry{{Title: "Usage", Path: "user-guide/usage.md"}}},
		{Specialist: "architecture-state", Entries: []docstore.IndexEntry{{Title: "Current State", Path: "architecture/current-state.md"}}},
	}

	require.NoError(t, store.MergeIndex(ctx, contribs))

	got, err := os.ReadFile(filepath.Join(root, "index.md"))
	require.NoError(t, err)

	content := string(got)
	assert.Contains(t, content, "- [Current State](architecture/current-state.md)")
	assert.Contains(t, content, "- [Usage](user-guide/usage.md)")
	// Contributions fold in specialist order.
	assert.Less(t, strings.Index(content, "Current State"), strings.Index(content, "Usage"))
}

func TestDirStoreMergeIndexAccumulatesAcrossMerges(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := docstore.NewDirStore(root)
	require.NoError(t, err)

	ctx := context.Background()

	first := []docstore.IndexContribution{
		{Specialist: "user-guide", Entries: []docstore.IndexEntry{{Title: "Usage", Path: "user-guide/usage.md"}}},
	}
	second := []docstore.IndexContribution{
		{Specialist: "decision-record", Entries: []docstore.IndexEntry{{Title: "Decision", Path: "decisions/decision.md"}}},
	}

	require.NoError(t, store.MergeIndex(ctx, first))
	require.NoError(t, store.MergeIndex(ctx, second))

	got, err := os.ReadFile(filepath.Join(root, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "Usage")
	assert.Contains(t, string(got), "Decision")
}
