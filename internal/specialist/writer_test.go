package specialist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoallende/coderipple-sub001/internal/genai"
	"github.com/robertoallende/coderipple-sub001/internal/specialist"
	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
	"github.com/robertoallende/coderipple-sub001/pkg/significance"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

type staticGenerator struct {
	prose string
	err   error
	// lastReq captures what the writer sent.
	lastReq genai.Request
}

func (s *staticGenerator) Generate(_ context.Context, req genai.Request) (string, error) {
	s.lastReq = req

	return s.prose, s.err
}

func samplePayload() routing.ContextPayload {
	delta := structdelta.Delta{
		Path:           "billing.go",
		AddedFunctions: structdelta.SymbolSet{"computeTotal": {}},
		AddedLines:     4,
	}

	hunk := changeset.Hunk{
		Old: changeset.Span{Start: 20, Count: 1},
		New: changeset.Span{Start: 20, Count: 2},
		Lines: []changeset.Line{
			{Kind: changeset.LineContext, Text: "// existing"},
			{Kind: changeset.LineAdded, Text: "func computeTotal() {}"},
		},
	}

	return routing.ContextPayload{
		Specialist: routing.SpecialistUserGuide,
		Files: []changeset.FileChange{{
			Path:   "billing.go",
			Status: changeset.StatusModified,
			Hunks:  []changeset.Hunk{hunk},
		}},
		Deltas: []structdelta.Delta{delta},
		Classification: classify.Classification{
			Confidence: map[classify.Category]float64{classify.CategoryFeature: 1.0},
			Primary:    classify.CategoryFeature,
		},
		Score: significance.Score{Value: 7, Bucket: significance.BucketMinor},
		Commits: []changeset.CommitRecord{{
			ID:      "c0ffee1234567890",
			Message: "add invoice total calculation\n\nlong body here",
			Author:  "dev@acme.test",
		}},
	}
}

func TestForKnownSpecialists(t *testing.T) {
	t.Parallel()

	for _, id := range []routing.Specialist{
		routing.SpecialistUserGuide,
		routing.SpecialistArchitectureState,
		routing.SpecialistDecisionRecord,
	} {
		w, ok := specialist.For(id)
		require.True(t, ok, id)
		assert.Equal(t, id, w.ID)
		assert.NotEmpty(t, w.Region)
		assert.NotEmpty(t, w.System)
	}

	_, ok := specialist.For("mystery")
	assert.False(t, ok)
}

func TestRenderPromptContents(t *testing.T) {
	t.Parallel()

	prompt := specialist.RenderPrompt(samplePayload())

	assert.Contains(t, prompt, "Change classification: feature")
	assert.Contains(t, prompt, "Significance: 7/100 (minor)")
	assert.Contains(t, prompt, "c0ffee12 add invoice total calculation")
	assert.NotContains(t, prompt, "long body here", "only the subject line rides along")
	assert.Contains(t, prompt, "added functions: computeTotal")
	assert.Contains(t, prompt, "+func computeTotal() {}")
}

func TestRenderPromptDeterministic(t *testing.T) {
	t.Parallel()

	payload := samplePayload()
	assert.Equal(t, specialist.RenderPrompt(payload), specialist.RenderPrompt(payload))
}

func TestRenderPromptBreakingAndReducedDepth(t *testing.T) {
	t.Parallel()

	payload := samplePayload()
	payload.Score.BreakingChange = true
	payload.ReducedDepth = true

	prompt := specialist.RenderPrompt(payload)
	assert.Contains(t, prompt, "BREAKING CHANGE")
	assert.Contains(t, prompt, "routine freshness pass")
}

func TestWriterRunPackagesResult(t *testing.T) {
	t.Parallel()

	gen := &staticGenerator{prose: "## Updated usage\n..."}

	w, ok := specialist.For(routing.SpecialistUserGuide)
	require.True(t, ok)

	result, err := w.Run(context.Background(), gen, samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "usage.md", result.Document.Path)
	assert.Equal(t, "## Updated usage\n...", result.Document.Content)
	assert.Equal(t, "user-guide", result.Index.Specialist)
	require.Len(t, result.Index.Entries, 1)
	assert.Equal(t, "user-guide/usage.md", result.Index.Entries[0].Path)
	assert.Contains(t, result.Index.Entries[0].Title, "User Guide")

	assert.Equal(t, w.System, gen.lastReq.System)
	assert.NotEmpty(t, gen.lastReq.Prompt)
}

func TestWriterRunPropagatesGeneratorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("provider down")
	gen := &staticGenerator{err: boom}

	w, _ := specialist.For(routing.SpecialistDecisionRecord)

	_, err := w.Run(context.Background(), gen, samplePayload())
	require.ErrorIs(t, err, boom)
}
