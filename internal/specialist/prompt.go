package specialist

import (
	"fmt"
	"strings"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
)

// maxDiffLinesPerFile caps how much raw diff rides into a prompt for one
// file. Specialists need the shape of a change, not every line of it.
const maxDiffLinesPerFile = 40

// RenderPrompt flattens a context payload into the prose-generation prompt.
// Output is deterministic for a given payload: sections appear in fixed
// order and symbol sets are sorted.
func RenderPrompt(payload routing.ContextPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Change classification: %s", payload.Classification.Primary)

	for _, cat := range payload.Classification.Categories() {
		if cat != payload.Classification.Primary {
			fmt.Fprintf(&b, ", %s", cat)
		}
	}

	fmt.Fprintf(&b, "\nSignificance: %d/100 (%s)", payload.Score.Value, payload.Score.Bucket)

	if payload.Score.BreakingChange {
		b.WriteString(", BREAKING CHANGE detected")
	}

	if payload.ReducedDepth {
		b.WriteString("\nDepth: routine freshness pass, keep updates brief")
	}

	b.WriteString("\n\nCommits:\n")

	for _, commit := range payload.Commits {
		fmt.Fprintf(&b, "- %s %s (%s)\n", shortID(commit.ID), firstLine(commit.Message), commit.Author)
	}

	writeDeltas(&b, payload)
	writeDiffs(&b, payload)

	return b.String()
}

func writeDeltas(b *strings.Builder, payload routing.ContextPayload) {
	if len(payload.Deltas) == 0 {
		return
	}

	b.WriteString("\nStructural changes:\n")

	for _, delta := range payload.Deltas {
		fmt.Fprintf(b, "- %s:", delta.Path)

		writeSymbols(b, "added functions", delta.AddedFunctions.Sorted())
		writeSymbols(b, "removed functions", delta.RemovedFunctions.Sorted())
		writeSymbols(b, "modified functions", delta.ModifiedFunctions.Sorted())
		writeSymbols(b, "added types", delta.AddedTypes.Sorted())
		writeSymbols(b, "removed types", delta.RemovedTypes.Sorted())
		writeSymbols(b, "modified types", delta.ModifiedTypes.Sorted())
		writeSymbols(b, "added imports", delta.AddedImports.Sorted())
		writeSymbols(b, "removed imports", delta.RemovedImports.Sorted())

		fmt.Fprintf(b, " (+%d/-%d lines)\n", delta.AddedLines, delta.RemovedLines)
	}
}

func writeSymbols(b *strings.Builder, label string, names []string) {
	if len(names) == 0 {
		return
	}

	fmt.Fprintf(b, " %s: %s;", label, strings.Join(names, ", "))
}

func writeDiffs(b *strings.Builder, payload routing.ContextPayload) {
	wroteHeader := false

	for _, fc := range payload.Files {
		if len(fc.Hunks) == 0 {
			continue
		}

		if !wroteHeader {
			b.WriteString("\nDiff excerpts:\n")

			wroteHeader = true
		}

		fmt.Fprintf(b, "--- %s (%s)\n", fc.Path, fc.Status)

		lines := 0

		for _, hunk := range fc.Hunks {
			for _, line := range hunk.Lines {
				if lines >= maxDiffLinesPerFile {
					b.WriteString("  [truncated]\n")

					break
				}

				fmt.Fprintf(b, "  %s%s\n", marker(line.Kind), line.Text)
				lines++
			}

			if lines >= maxDiffLinesPerFile {
				break
			}
		}
	}
}

func marker(kind changeset.LineKind) string {
	switch kind {
	case changeset.LineAdded:
		return "+"
	case changeset.LineRemoved:
		return "-"
	case changeset.LineContext:
		return " "
	default:
		return " "
	}
}

func shortID(id string) string {
	const short = 8
	if len(id) <= short {
		return id
	}

	return id[:short]
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}

	return message
}
