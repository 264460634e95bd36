// Package commands implements CLI command handlers for coderipple.
package commands

import (
	"fmt"
	"os"

	"github.com/robertoallende/coderipple-sub001/internal/ingest"
	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
)

// loadEvent reads the event metadata and raw diff from disk and runs them
// through ingest validation. The diff path may name an empty file; a missing
// diff is an error because the caller asked for exactly these two inputs.
func loadEvent(metadataPath, diffPath string) (changeset.ChangeEvent, error) {
	metadata, err := os.ReadFile(metadataPath)
	if err != nil {
		return changeset.ChangeEvent{}, fmt.Errorf("reading event metadata: %w", err)
	}

	rawDiff, err := os.ReadFile(diffPath)
	if err != nil {
		return changeset.ChangeEvent{}, fmt.Errorf("reading diff: %w", err)
	}

	event, err := ingest.ParseEvent(metadata, string(rawDiff))
	if err != nil {
		return changeset.ChangeEvent{}, fmt.Errorf("parsing change event: %w", err)
	}

	return event, nil
}
