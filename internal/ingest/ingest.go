// Package ingest constructs a ChangeEvent from the two collaborator-supplied
// inputs: a structured commit-metadata document and a raw diff blob. The
// metadata document is validated against a JSON Schema before anything else
// looks at it; the diff blob is passed through untouched, the parser copes
// with whatever it contains.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
)

// Ingest errors.
var (
	// ErrInvalidMetadata means the metadata document failed schema
	// validation or was not JSON at all.
	ErrInvalidMetadata = errors.New("invalid event metadata")
	// ErrNoCommitMetadata is the fatal case: nothing to classify.
	ErrNoCommitMetadata = errors.New("event metadata has no commits")
)

// eventSchema validates the shape of the inbound metadata document. Field
// content is checked here once so downstream code never re-validates.
const eventSchema = `{
  "type": "object",
  "required": ["repository", "commits"],
  "properties": {
    "kind": {"type": "string", "enum": ["push", "proposal"]},
    "repository": {"type": "string", "minLength": 1},
    "commits": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["message"],
        "properties": {
          "id": {"type": "string"},
          "message": {"type": "string"},
          "author": {"type": "string"},
          "timestamp": {"type": "string"},
          "files": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

// commitDoc and eventDoc mirror the metadata schema.
type commitDoc struct {
	ID        string   `json:"id"`
	Message   string   `json:"message"`
	Author    string   `json:"author"`
	Timestamp string   `json:"timestamp"`
	Files     []string `json:"files"`
}

type eventDoc struct {
	Kind       string      `json:"kind"`
	Repository string      `json:"repository"`
	Commits    []commitDoc `json:"commits"`
}

var compiledSchema = gojsonschema.NewStringLoader(eventSchema)

// ParseEvent validates the metadata document and assembles the immutable
// ChangeEvent. Commits without an id get a generated one so downstream
// correlation always has a handle.
func ParseEvent(metadata []byte, rawDiff string) (changeset.ChangeEvent, error) {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(metadata))
	if err != nil {
		return changeset.ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	if !result.Valid() {
		return changeset.ChangeEvent{}, fmt.Errorf("%w: %s", ErrInvalidMetadata, schemaErrors(result))
	}

	var doc eventDoc
	if err := json.Unmarshal(metadata, &doc); err != nil {
		return changeset.ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	if len(doc.Commits) == 0 {
		return changeset.ChangeEvent{}, ErrNoCommitMetadata
	}

	commits := make([]changeset.CommitRecord, len(doc.Commits))
	for i, c := range doc.Commits {
		commits[i] = changeset.CommitRecord{
			ID:        commitID(c.ID),
			Message:   c.Message,
			Author:    c.Author,
			Timestamp: parseTimestamp(c.Timestamp),
			Files:     c.Files,
		}
	}

	kind := changeset.EventPush
	if doc.Kind == string(changeset.EventProposal) {
		kind = changeset.EventProposal
	}

	return changeset.ChangeEvent{
		Kind:       kind,
		Repository: doc.Repository,
		Commits:    commits,
		RawDiff:    rawDiff,
	}, nil
}

func commitID(id string) string {
	if id != "" {
		return id
	}

	return uuid.NewString()
}

// parseTimestamp tolerates a missing or malformed timestamp; commit time is
// narrative context, not a routing input.
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}

	return ts
}

func schemaErrors(result *gojsonschema.Result) string {
	parts := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		parts = append(parts, desc.String())
	}

	return strings.Join(parts, "; ")
}
