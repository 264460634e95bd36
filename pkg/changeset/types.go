// Package changeset defines the event-scoped data model for one upstream
// change notification: commits, per-file diffs, and hunks. All values are
// constructed once per event and treated as read-only downstream.
package changeset

import "time"

// EventKind distinguishes push-style notifications from proposal-style ones
// (pull/merge requests).
type EventKind string

const (
	// EventPush is a direct push of commits to a branch.
	EventPush EventKind = "push"
	// EventProposal is a proposed change set (pull/merge request).
	EventProposal EventKind = "proposal"
)

// FileStatus describes what happened to a file in a diff.
type FileStatus string

const (
	// StatusAdded means the file is new in this change.
	StatusAdded FileStatus = "added"
	// StatusModified means the file existed and its content changed.
	StatusModified FileStatus = "modified"
	// StatusRemoved means the file was deleted.
	StatusRemoved FileStatus = "removed"
	// StatusRenamed means the file moved with no content hunks.
	StatusRenamed FileStatus = "renamed"
	// StatusUnparsed means the diff body could not be decomposed into hunks.
	// It is a recorded outcome, not an error: the rest of the event proceeds.
	StatusUnparsed FileStatus = "unparsed"
)

// LineKind tags a single diff line.
type LineKind int

const (
	// LineContext is an unchanged line shown for context.
	LineContext LineKind = iota
	// LineAdded is a line present only in the new version.
	LineAdded
	// LineRemoved is a line present only in the old version.
	LineRemoved
)

// Line is one entry in a hunk body.
type Line struct {
	Kind LineKind
	Text string
}

// Span is a half of a hunk range header: a start line and a line count.
type Span struct {
	Start int
	Count int
}

// Hunk is a contiguous block of change within one file.
type Hunk struct {
	Old   Span
	New   Span
	Lines []Line
}

// AddedLines returns the texts of all added lines in order.
func (h Hunk) AddedLines() []string {
	return h.linesOfKind(LineAdded)
}

// RemovedLines returns the texts of all removed lines in order.
func (h Hunk) RemovedLines() []string {
	return h.linesOfKind(LineRemoved)
}

func (h Hunk) linesOfKind(kind LineKind) []string {
	var out []string

	for _, line := range h.Lines {
		if line.Kind == kind {
			out = append(out, line.Text)
		}
	}

	return out
}

// FileChange is the parsed diff for a single file.
type FileChange struct {
	// Path is the new path, or the old path for removals.
	Path string
	// OldPath differs from Path only for renames.
	OldPath string
	Status  FileStatus
	Hunks   []Hunk
	// Unparsed marks a file whose body (or part of it) resisted hunk
	// decomposition: binary content, malformed markers, inconsistent ranges.
	Unparsed bool
}

// AddedLineCount returns the total number of added lines across hunks.
func (fc FileChange) AddedLineCount() int {
	total := 0
	for _, h := range fc.Hunks {
		for _, line := range h.Lines {
			if line.Kind == LineAdded {
				total++
			}
		}
	}

	return total
}

// RemovedLineCount returns the total number of removed lines across hunks.
func (fc FileChange) RemovedLineCount() int {
	total := 0
	for _, h := range fc.Hunks {
		for _, line := range h.Lines {
			if line.Kind == LineRemoved {
				total++
			}
		}
	}

	return total
}

// CommitRecord is one commit inside a ChangeEvent. Read-only downstream.
type CommitRecord struct {
	ID        string
	Message   string
	Author    string
	Timestamp time.Time
	Files     []string
}

// ChangeEvent is one upstream notification: commit metadata plus the raw
// diff bundle for the whole event. Immutable once constructed.
type ChangeEvent struct {
	Kind       EventKind
	Repository string
	Commits    []CommitRecord
	RawDiff    string
}

// Messages returns all commit messages in order. Convenience for
// message-signal classification rules.
func (ev ChangeEvent) Messages() []string {
	msgs := make([]string, len(ev.Commits))
	for i, c := range ev.Commits {
		msgs[i] = c.Message
	}

	return msgs
}
