package ingest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoallende/coderipple-sub001/internal/ingest"
	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
)

func TestParseEventWellFormed(t *testing.T) {
	t.Parallel()

	metadata := []byte(`{
		"kind": "proposal",
		"repository": "acme/widgets",
		"commits": [
			{"id": "abc123", "message": "add thing", "author": "dev@acme.test",
			 "timestamp": "2025-03-14T09:26:53Z", "files": ["thing.go"]}
		]
	}`)

	ev, err := ingest.ParseEvent(metadata, "raw diff body")
	require.NoError(t, err)

	assert.Equal(t, changeset.EventProposal, ev.Kind)
	assert.Equal(t, "acme/widgets", ev.Repository)
	assert.Equal(t, "raw diff body", ev.RawDiff)
	require.Len(t, ev.Commits, 1)
	assert.Equal(t, "abc123", ev.Commits[0].ID)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), ev.Commits[0].Timestamp)
}

func TestParseEventGeneratesMissingIDs(t *testing.T) {
	t.Parallel()

	metadata := []byte(`{
		"repository": "acme/widgets",
		"commits": [{"message": "anonymous change"}]
	}`)

	ev, err := ingest.ParseEvent(metadata, "")
	require.NoError(t, err)
	require.Len(t, ev.Commits, 1)
	assert.NotEmpty(t, ev.Commits[0].ID)
	assert.Equal(t, changeset.EventPush, ev.Kind, "kind defaults to push")
}

func TestParseEventEmptyCommitsIsFatal(t *testing.T) {
	t.Parallel()

	metadata := []byte(`{"repository": "acme/widgets", "commits": []}`)

	_, err := ingest.ParseEvent(metadata, "")
	require.ErrorIs(t, err, ingest.ErrNoCommitMetadata)
}

func TestParseEventRejectsMalformedDocuments(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"not json":           []byte(`{{{{`),
		"missing repository": []byte(`{"commits": [{"message": "m"}]}`),
		"bad kind":           []byte(`{"kind": "telepathy", "repository": "r", "commits": [{"message": "m"}]}`),
		"commit not object":  []byte(`{"repository": "r", "commits": ["m"]}`),
	}

	for name, metadata := range cases {
		_, err := ingest.ParseEvent(metadata, "")
		assert.ErrorIs(t, err, ingest.ErrInvalidMetadata, name)
	}
}

func TestParseEventToleratesBadTimestamp(t *testing.T) {
	t.Parallel()

	metadata := []byte(`{
		"repository": "acme/widgets",
		"commits": [{"message": "m", "timestamp": "yesterday-ish"}]
	}`)

	ev, err := ingest.ParseEvent(metadata, "")
	require.NoError(t, err)
	assert.True(t, ev.Commits[0].Timestamp.IsZero())
}
