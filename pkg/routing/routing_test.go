package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
	"github.com/robertoallende/coderipple-sub001/pkg/significance"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

func classification(primary classify.Category) classify.Classification {
	return classify.Classification{
		Confidence: map[classify.Category]float64{primary: 1.0},
		Primary:    primary,
	}
}

func TestDecideFallbackWhenNothingFires(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	in := routing.Input{
		Files:          []changeset.FileChange{{Path: "notes.txt", Status: changeset.StatusModified}},
		Classification: classification(classify.CategoryUnknown),
		Score:          significance.Score{Value: 4, Bucket: significance.BucketMinor},
	}

	decision := engine.Decide(in)

	require.Len(t, decision.Payloads, 1)
	assert.True(t, decision.Fallback)

	payload := decision.Payloads[0]
	assert.Equal(t, routing.SpecialistArchitectureState, payload.Specialist)
	assert.True(t, payload.ReducedDepth)
}

func TestDecideSpecialistSetNeverEmpty(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	decision := engine.Decide(routing.Input{
		Classification: classification(classify.CategoryUnknown),
	})

	assert.NotEmpty(t, decision.Specialists())
}

func TestDecideFeatureSelectsUserGuideAndArchitecture(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	delta := structdelta.Delta{
		Path:           "billing.go",
		AddedFunctions: structdelta.SymbolSet{"computeTotal": {}},
	}

	in := routing.Input{
		Files:          []changeset.FileChange{{Path: "billing.go", Status: changeset.StatusModified}},
		Deltas:         []structdelta.Delta{delta},
		Classification: classification(classify.CategoryFeature),
		Score:          significance.Score{Value: 35, Bucket: significance.BucketModerate},
	}

	decision := engine.Decide(in)

	assert.ElementsMatch(t,
		[]routing.Specialist{routing.SpecialistUserGuide, routing.SpecialistArchitectureState},
		decision.Specialists())
	assert.False(t, decision.Fallback)
}

func TestDecideBreakingChangeSelectsDecisionRecord(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	delta := structdelta.Delta{
		Path:             "api.go",
		RemovedFunctions: structdelta.SymbolSet{"oldApi": {}},
	}

	commits := []changeset.CommitRecord{
		{ID: "a1", Message: "drop the old entry point"},
		{ID: "a2", Message: "tidy call sites"},
	}

	in := routing.Input{
		Files:          []changeset.FileChange{{Path: "api.go", Status: changeset.StatusModified}},
		Deltas:         []structdelta.Delta{delta},
		Classification: classification(classify.CategoryRefactor),
		Score:          significance.Score{Value: 70, Bucket: significance.BucketMajor, BreakingChange: true},
		Commits:        commits,
	}

	decision := engine.Decide(in)

	payload, ok := decision.Payload(routing.SpecialistDecisionRecord)
	require.True(t, ok, "breaking changes must route to the decision record")
	assert.Equal(t, commits, payload.Commits, "decision record needs the full narrative")
}

func TestDecideUserFacingPathAloneSelectsUserGuide(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	delta := structdelta.Delta{
		Path:           "lib/util.go",
		AddedFunctions: structdelta.SymbolSet{"helper": {}},
	}

	in := routing.Input{
		Files: []changeset.FileChange{
			{Path: "examples/quickstart.sh", Status: changeset.StatusModified},
			{Path: "lib/util.go", Status: changeset.StatusModified},
		},
		Deltas:         []structdelta.Delta{delta},
		Classification: classification(classify.CategoryDocs),
		Score:          significance.Score{Value: 8, Bucket: significance.BucketMinor},
	}

	decision := engine.Decide(in)

	payload, ok := decision.Payload(routing.SpecialistUserGuide)
	require.True(t, ok)

	// Only the user-facing file drove the user-guide branch; the library
	// file rides with architecture-state instead.
	require.Len(t, payload.Files, 1)
	assert.Equal(t, "examples/quickstart.sh", payload.Files[0].Path)

	archPayload, ok := decision.Payload(routing.SpecialistArchitectureState)
	require.True(t, ok)
	require.Len(t, archPayload.Files, 1)
	assert.Equal(t, "lib/util.go", archPayload.Files[0].Path)
}

func TestDecideConfigPrimarySelectsArchitectureState(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	in := routing.Input{
		Files:          []changeset.FileChange{{Path: "deploy/values.yaml", Status: changeset.StatusModified}},
		Classification: classification(classify.CategoryConfig),
		Score:          significance.Score{Value: 4, Bucket: significance.BucketMinor},
	}

	decision := engine.Decide(in)

	payload, ok := decision.Payload(routing.SpecialistArchitectureState)
	require.True(t, ok)
	assert.False(t, payload.ReducedDepth)
	require.Len(t, payload.Files, 1)
}

func TestDecideCoverageIncludesUnclaimedParsedFiles(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	delta := structdelta.Delta{
		Path:           "core.go",
		AddedFunctions: structdelta.SymbolSet{"New": {}},
	}

	hunk := changeset.Hunk{
		Old:   changeset.Span{Start: 1, Count: 1},
		New:   changeset.Span{Start: 1, Count: 1},
		Lines: []changeset.Line{{Kind: changeset.LineContext, Text: "x"}},
	}

	in := routing.Input{
		Files: []changeset.FileChange{
			{Path: "core.go", Status: changeset.StatusModified, Hunks: []changeset.Hunk{hunk}},
			{Path: "helper.go", Status: changeset.StatusModified, Hunks: []changeset.Hunk{hunk}},
			{Path: "blob.bin", Status: changeset.StatusUnparsed, Unparsed: true},
		},
		Deltas:         []structdelta.Delta{delta},
		Classification: classification(classify.CategoryRefactor),
		Score:          significance.Score{Value: 10, Bucket: significance.BucketMinor},
	}

	decision := engine.Decide(in)

	payload, ok := decision.Payload(routing.SpecialistArchitectureState)
	require.True(t, ok)

	var paths []string
	for _, fc := range payload.Files {
		paths = append(paths, fc.Path)
	}

	assert.ElementsMatch(t, []string{"core.go", "helper.go"}, paths,
		"parsed files with no claiming branch still get covered; signal-less unparsed files do not")
}

func TestDecideSelectionIsIdempotent(t *testing.T) {
	t.Parallel()

	engine := routing.NewEngine()

	// Major significance plus user-facing path: user-guide is selected by
	// two independent branches but appears once.
	in := routing.Input{
		Files:          []changeset.FileChange{{Path: "cmd/app/main.go", Status: changeset.StatusModified}},
		Classification: classification(classify.CategoryFeature),
		Score:          significance.Score{Value: 80, Bucket: significance.BucketMajor},
	}

	decision := engine.Decide(in)

	seen := map[routing.Specialist]int{}
	for _, spec := range decision.Specialists() {
		seen[spec]++
	}

	for spec, count := range seen {
		assert.Equal(t, 1, count, "specialist %s selected more than once", spec)
	}
}
