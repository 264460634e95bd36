// Package diffparse turns raw unified-diff text into an ordered list of
// [changeset.FileChange]. The parser is total: malformed input never returns
// an error, it degrades to unparsed files so the rest of the event proceeds.
package diffparse

import (
	"strconv"
	"strings"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
)

// Header prefixes recognized while scanning.
const (
	fileHeaderPrefix = "diff --git "
	oldPathPrefix    = "--- "
	newPathPrefix    = "+++ "
	hunkHeaderPrefix = "@@ "
	binaryPrefix     = "Binary files "
	gitBinaryPrefix  = "GIT binary patch"
	renameFromPrefix = "rename from "
	renameToPrefix   = "rename to "
	newFilePrefix    = "new file mode "
	deletedPrefix    = "deleted file mode "
	devNull          = "/dev/null"
)

// Parse scans diff text line by line and produces one FileChange per file
// section, in input order. It never fails: a section that cannot be decomposed
// yields a FileChange with Status unparsed, and an inconsistent hunk is
// discarded with its file marked partially unparsed.
func Parse(text string) []changeset.FileChange {
	scanner := &fileScanner{lines: splitLines(text)}

	return scanner.run()
}

// fileScanner holds the line cursor and the file under construction.
type fileScanner struct {
	lines []string
	pos   int

	files   []changeset.FileChange
	current *changeset.FileChange
	// sawHunkError marks the current file as having lost at least one hunk.
	sawHunkError bool
	// explicitStatus is set by new/deleted/rename metadata lines and wins
	// over the /dev/null inference.
	explicitStatus changeset.FileStatus
}

func (s *fileScanner) run() []changeset.FileChange {
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]

		switch {
		case strings.HasPrefix(line, fileHeaderPrefix):
			s.closeCurrent()
			s.openFile(line)
		case s.current == nil:
			// Preamble noise before the first file header.
		case strings.HasPrefix(line, hunkHeaderPrefix):
			s.scanHunk(line)

			continue // scanHunk advanced the cursor itself.
		default:
			s.scanMetadata(line)
		}

		s.pos++
	}

	s.closeCurrent()

	return s.files
}

// openFile starts a new FileChange from a "diff --git a/x b/y" header.
func (s *fileScanner) openFile(header string) {
	oldPath, newPath := splitGitHeaderPaths(strings.TrimPrefix(header, fileHeaderPrefix))

	s.current = &changeset.FileChange{
		Path:    newPath,
		OldPath: oldPath,
		Status:  changeset.StatusModified,
	}
	s.sawHunkError = false
	s.explicitStatus = ""
}

// scanMetadata interprets the extended header lines between the file header
// and the first hunk.
func (s *fileScanner) scanMetadata(line string) {
	switch {
	case strings.HasPrefix(line, newFilePrefix):
		s.explicitStatus = changeset.StatusAdded
	case strings.HasPrefix(line, deletedPrefix):
		s.explicitStatus = changeset.StatusRemoved
	case strings.HasPrefix(line, renameFromPrefix):
		s.current.OldPath = strings.TrimPrefix(line, renameFromPrefix)
		s.explicitStatus = changeset.StatusRenamed
	case strings.HasPrefix(line, renameToPrefix):
		s.current.Path = strings.TrimPrefix(line, renameToPrefix)
		s.explicitStatus = changeset.StatusRenamed
	case strings.HasPrefix(line, binaryPrefix) || strings.HasPrefix(line, gitBinaryPrefix):
		// Binary content: keep the file but record it as undecomposable.
		s.current.Unparsed = true
	case strings.HasPrefix(line, oldPathPrefix):
		if strings.TrimPrefix(line, oldPathPrefix) == devNull && s.explicitStatus == "" {
			s.explicitStatus = changeset.StatusAdded
		}
	case strings.HasPrefix(line, newPathPrefix):
		if strings.TrimPrefix(line, newPathPrefix) == devNull && s.explicitStatus == "" {
			s.explicitStatus = changeset.StatusRemoved
		}
	}
}

// scanHunk parses one "@@ -a,b +c,d @@" header and its body, advancing the
// cursor past the consumed lines. A header whose integers fail to parse, or a
// body whose line tallies disagree with the declared ranges, discards the hunk
// and marks the file partially unparsed.
func (s *fileScanner) scanHunk(header string) {
	oldSpan, newSpan, ok := parseHunkRanges(header)
	if !ok {
		s.sawHunkError = true
		s.pos++
		s.skipToNextHeader()

		return
	}

	hunk := changeset.Hunk{Old: oldSpan, New: newSpan}
	s.pos++

	for s.pos < len(s.lines) {
		line := s.lines[s.pos]
		if isHeader(line) {
			break
		}

		if strings.HasPrefix(line, `\`) {
			// "\ No newline at end of file" is not counted in the ranges.
			s.pos++

			continue
		}

		kind, ok := lineKind(line)
		if !ok {
			// Unrecognized marker inside a hunk body: stop the hunk here
			// and let the outer loop resynchronize on the next header.
			s.sawHunkError = true
			s.skipToNextHeader()

			break
		}

		hunk.Lines = append(hunk.Lines, changeset.Line{Kind: kind, Text: line[1:]})
		s.pos++
	}

	if hunkConsistent(hunk) {
		s.current.Hunks = append(s.current.Hunks, hunk)
	} else {
		s.sawHunkError = true
	}
}

// skipToNextHeader advances the cursor to the next file or hunk header.
func (s *fileScanner) skipToNextHeader() {
	for s.pos < len(s.lines) && !isHeader(s.lines[s.pos]) {
		s.pos++
	}
}

// closeCurrent finalizes the file under construction, resolving its status.
func (s *fileScanner) closeCurrent() {
	if s.current == nil {
		return
	}

	fc := *s.current

	if s.sawHunkError {
		fc.Unparsed = true
	}

	switch {
	case s.explicitStatus != "":
		fc.Status = s.explicitStatus
	case fc.Unparsed && len(fc.Hunks) == 0:
		fc.Status = changeset.StatusUnparsed
	case len(fc.Hunks) == 0:
		// A section with no hunks and no explicit status is a pure
		// rename or mode change.
		fc.Status = changeset.StatusRenamed
	}

	s.files = append(s.files, fc)
	s.current = nil
}

// isHeader reports whether a line starts a new file section or hunk.
func isHeader(line string) bool {
	return strings.HasPrefix(line, fileHeaderPrefix) || strings.HasPrefix(line, hunkHeaderPrefix)
}

// lineKind classifies a hunk body line by its leading marker.
func lineKind(line string) (changeset.LineKind, bool) {
	if line == "" {
		// Some producers emit a bare empty line for an empty context line.
		return changeset.LineContext, false
	}

	switch line[0] {
	case '+':
		return changeset.LineAdded, true
	case '-':
		return changeset.LineRemoved, true
	case ' ':
		return changeset.LineContext, true
	default:
		return changeset.LineContext, false
	}
}

// parseHunkRanges extracts the four range integers from a hunk header.
func parseHunkRanges(header string) (oldSpan, newSpan changeset.Span, ok bool) {
	body := strings.TrimPrefix(header, hunkHeaderPrefix)

	end := strings.Index(body, " @@")
	if end < 0 {
		return changeset.Span{}, changeset.Span{}, false
	}

	parts := strings.Fields(body[:end])
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "-") || !strings.HasPrefix(parts[1], "+") {
		return changeset.Span{}, changeset.Span{}, false
	}

	oldSpan, ok = parseSpan(parts[0][1:])
	if !ok {
		return changeset.Span{}, changeset.Span{}, false
	}

	newSpan, ok = parseSpan(parts[1][1:])
	if !ok {
		return changeset.Span{}, changeset.Span{}, false
	}

	return oldSpan, newSpan, true
}

// parseSpan parses "start,count" or the single-line shorthand "start".
func parseSpan(text string) (changeset.Span, bool) {
	start, count := text, "1"

	if comma := strings.IndexByte(text, ','); comma >= 0 {
		start, count = text[:comma], text[comma+1:]
	}

	startNum, err := strconv.Atoi(start)
	if err != nil {
		return changeset.Span{}, false
	}

	countNum, err := strconv.Atoi(count)
	if err != nil {
		return changeset.Span{}, false
	}

	return changeset.Span{Start: startNum, Count: countNum}, true
}

// hunkConsistent checks the declared ranges against the body tallies:
// old count must equal context+removed, new count must equal context+added.
func hunkConsistent(h changeset.Hunk) bool {
	var added, removed, context int

	for _, line := range h.Lines {
		switch line.Kind {
		case changeset.LineAdded:
			added++
		case changeset.LineRemoved:
			removed++
		case changeset.LineContext:
			context++
		}
	}

	return h.Old.Count == context+removed && h.New.Count == context+added
}

// splitGitHeaderPaths splits the "a/old b/new" remainder of a git file
// header. Paths with spaces are ambiguous in this format; the split prefers
// the last " b/" separator, which is correct for all unambiguous inputs.
func splitGitHeaderPaths(rest string) (oldPath, newPath string) {
	sep := strings.LastIndex(rest, " b/")
	if sep < 0 {
		return rest, rest
	}

	oldPath = strings.TrimPrefix(rest[:sep], "a/")
	newPath = rest[sep+len(" b/"):]

	return oldPath, newPath
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
