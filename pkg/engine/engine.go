// Package engine wires the analysis pipeline for one change event: parse the
// diff, extract structural deltas, classify, assess significance, and decide
// routing. The whole pipeline is a pure function of the event with no
// suspension points; concurrency lives downstream at the dispatch boundary.
package engine

import (
	"errors"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/diffparse"
	"github.com/robertoallende/coderipple-sub001/pkg/routing"
	"github.com/robertoallende/coderipple-sub001/pkg/significance"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

// ErrNoCommits is the single fatal analysis error: an event with no commit
// metadata has nothing to classify and aborts before routing.
var ErrNoCommits = errors.New("change event has no commit metadata")

// Analysis is the full intermediate and final output for one event.
type Analysis struct {
	Files          []changeset.FileChange
	Deltas         []structdelta.Delta
	Classification classify.Classification
	Score          significance.Score
	Decision       routing.Decision
}

// Engine holds the configured pipeline stages. Safe for concurrent use.
type Engine struct {
	classifier *classify.Classifier
	assessor   *significance.Assessor
	router     *routing.Engine
}

// New creates an Engine from a rule set and scoring policy.
func New(rules classify.RuleSet, policy significance.Policy) *Engine {
	return &Engine{
		classifier: classify.NewClassifier(rules),
		assessor:   significance.NewAssessor(policy),
		router:     routing.NewEngine(),
	}
}

// Default creates an Engine with the stock rule set and policy.
func Default() *Engine {
	return New(classify.DefaultRuleSet(), significance.DefaultPolicy())
}

// Analyze runs the pipeline stages in order. The only error is an event with
// an empty commit list; every diff, however malformed, produces a decision.
func (e *Engine) Analyze(event changeset.ChangeEvent) (Analysis, error) {
	if len(event.Commits) == 0 {
		return Analysis{}, ErrNoCommits
	}

	files := diffparse.Parse(event.RawDiff)
	deltas := structdelta.ExtractAll(files)
	classification := e.classifier.Classify(files, deltas, event.Commits)
	score := e.assessor.Assess(classification, deltas)

	decision := e.router.Decide(routing.Input{
		Files:          files,
		Deltas:         deltas,
		Classification: classification,
		Score:          score,
		Commits:        event.Commits,
	})

	return Analysis{
		Files:          files,
		Deltas:         deltas,
		Classification: classification,
		Score:          score,
		Decision:       decision,
	}, nil
}
