package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/robertoallende/coderipple-sub001/internal/dispatch"
	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/engine"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
)

const (
	confidencePercent = 100
	durationGrain     = 10 * time.Millisecond
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

// renderAnalysis prints the full analysis for one change event: the parsed
// files, the classification shares, the significance score, and the routing
// decision with per-specialist payload shapes.
func renderAnalysis(w io.Writer, event changeset.ChangeEvent, analysis engine.Analysis) {
	fmt.Fprintf(w, "Repository: %s (%s, %s commits)\n\n", event.Repository, event.Kind, humanize.Comma(int64(len(event.Commits))))

	renderFiles(w, analysis.Files)
	renderClassification(w, analysis)
	renderDecision(w, analysis.Decision)
}

func renderFiles(w io.Writer, files []changeset.FileChange) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"File", "Status", "Added", "Removed"})

	var added, removed int

	for _, fc := range files {
		a, r := fc.AddedLineCount(), fc.RemovedLineCount()
		added += a
		removed += r

		tbl.AppendRow(table.Row{fc.Path, string(fc.Status), a, r})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d files", len(files)), "",
		humanize.Comma(int64(added)), humanize.Comma(int64(removed)),
	})
	tbl.Render()
	fmt.Fprintln(w)
}

func renderClassification(w io.Writer, analysis engine.Analysis) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Category", "Confidence"})

	categories := make([]string, 0, len(analysis.Classification.Confidence))
	for cat := range analysis.Classification.Confidence {
		categories = append(categories, string(cat))
	}

	sort.Strings(categories)

	for _, cat := range categories {
		share := analysis.Classification.Confidence[classify.Category(cat)]
		label := cat
		if cat == string(analysis.Classification.Primary) {
			label = cat + " (primary)"
		}

		tbl.AppendRow(table.Row{label, fmt.Sprintf("%.0f%%", share*confidencePercent)})
	}

	tbl.Render()

	scoreLine := fmt.Sprintf("Significance: %d (%s)", analysis.Score.Value, analysis.Score.Bucket)
	if analysis.Score.BreakingChange {
		scoreLine += " " + color.New(color.FgRed).Sprint("BREAKING")
	}

	fmt.Fprintln(w, scoreLine)
	fmt.Fprintln(w)
}

func renderDecision(w io.Writer, decision routing.Decision) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Specialist", "Files", "Branches", "Depth"})

	for _, payload := range decision.Payloads {
		depth := "full"
		if payload.ReducedDepth {
			depth = "reduced"
		}

		tbl.AppendRow(table.Row{
			string(payload.Specialist),
			len(payload.Files),
			strings.Join(payload.Branches, ", "),
			depth,
		})
	}

	tbl.Render()

	if decision.Fallback {
		color.New(color.FgYellow).Fprintln(w, "No branch matched; fallback routing applied.")
	}

	fmt.Fprintln(w)
}

// renderReport prints the per-specialist dispatch outcomes.
func renderReport(w io.Writer, report dispatch.Report) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Specialist", "Status", "Attempts", "Duration"})

	for _, outcome := range report.Outcomes {
		status := string(outcome.Status)
		if outcome.Err != nil {
			status = fmt.Sprintf("%s: %v", status, outcome.Err)
		}

		tbl.AppendRow(table.Row{
			string(outcome.Specialist),
			colorStatus(outcome.Status, status),
			outcome.Attempts,
			outcome.Duration.Round(durationGrain).String(),
		})
	}

	tbl.Render()

	switch report.Status {
	case dispatch.EventSucceeded:
		color.New(color.FgGreen).Fprintln(w, "Event dispatched.")
	case dispatch.EventPartialFailure:
		color.New(color.FgYellow).Fprintln(w, "Event dispatched with partial failure; see outcomes above.")
	}
}

func colorStatus(status dispatch.Status, label string) string {
	switch status {
	case dispatch.StatusSucceeded:
		return color.New(color.FgGreen).Sprint(label)
	case dispatch.StatusFailed, dispatch.StatusTimedOut:
		return color.New(color.FgRed).Sprint(label)
	default:
		return color.New(color.FgYellow).Sprint(label)
	}
}
