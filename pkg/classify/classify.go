// Package classify assigns change categories with confidences to a change
// event. Classification is rule evaluation over three signal families (file
// paths, commit messages, structural deltas), not a trained model, and it
// never fails: absence of signal resolves to {unknown: 1.0}.
package classify

import (
	"strings"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

// Category is one kind of change.
type Category string

// Change categories, in tie-break priority order.
const (
	CategoryFeature    Category = "feature"
	CategoryBugfix     Category = "bugfix"
	CategoryRefactor   Category = "refactor"
	CategoryDocs       Category = "docs"
	CategoryConfig     Category = "config"
	CategoryTest       Category = "test"
	CategoryDependency Category = "dependency"
	CategoryUnknown    Category = "unknown"
)

// DefaultPriority orders categories for primary selection when confidences
// tie. Earlier wins.
var DefaultPriority = []Category{
	CategoryFeature, CategoryBugfix, CategoryRefactor, CategoryDocs,
	CategoryConfig, CategoryTest, CategoryDependency, CategoryUnknown,
}

// Vote is one weighted opinion cast by a single rule.
type Vote struct {
	Category Category
	Weight   float64
	// Rule names the rule that fired, for explainability in logs.
	Rule string
}

// Classification is the reduced vote outcome: a non-empty confidence map and
// the priority-resolved primary category.
type Classification struct {
	Confidence map[Category]float64
	Primary    Category
}

// Has reports whether the category survived the confidence floor.
func (c Classification) Has(cat Category) bool {
	_, ok := c.Confidence[cat]
	return ok
}

// Categories returns the surviving categories in priority order.
func (c Classification) Categories() []Category {
	var out []Category

	for _, cat := range DefaultPriority {
		if c.Has(cat) {
			out = append(out, cat)
		}
	}

	return out
}

// Classifier evaluates an immutable rule set over one event's signals.
// Safe for concurrent use after construction.
type Classifier struct {
	rules RuleSet
}

// NewClassifier creates a Classifier with the given rule set. Tests can
// substitute rule sets freely; there is no package-level mutable state.
func NewClassifier(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// Classify gathers votes from all three signal families and reduces them.
func (c *Classifier) Classify(
	files []changeset.FileChange,
	deltas []structdelta.Delta,
	commits []changeset.CommitRecord,
) Classification {
	var votes []Vote

	votes = append(votes, c.pathVotes(files)...)
	votes = append(votes, c.messageVotes(commits)...)
	votes = append(votes, c.structuralVotes(deltas)...)

	return Reduce(votes, c.rules.ConfidenceFloor, c.rules.Priority)
}

// pathVotes casts one vote per (path rule, matching file).
func (c *Classifier) pathVotes(files []changeset.FileChange) []Vote {
	var votes []Vote

	for _, fc := range files {
		for _, rule := range c.rules.PathRules {
			if rule.Pattern.MatchString(fc.Path) {
				votes = append(votes, Vote{
					Category: rule.Category,
					Weight:   rule.Weight,
					Rule:     "path:" + rule.Name,
				})

				break // First matching path rule wins for a file.
			}
		}
	}

	return votes
}

// messageVotes casts one vote per (message rule, matching commit).
func (c *Classifier) messageVotes(commits []changeset.CommitRecord) []Vote {
	var votes []Vote

	for _, commit := range commits {
		msg := strings.ToLower(commit.Message)

		for _, rule := range c.rules.MessageRules {
			if containsAnyToken(msg, rule.Tokens) {
				votes = append(votes, Vote{
					Category: rule.Category,
					Weight:   rule.Weight,
					Rule:     "message:" + rule.Name,
				})
			}
		}
	}

	return votes
}

// structuralVotes casts per-delta votes from declaration changes. Removal
// alone never implies a bugfix: it reads as refactoring unless the commit
// message says otherwise. Import changes cast no vote here; routing reacts
// to them directly.
func (c *Classifier) structuralVotes(deltas []structdelta.Delta) []Vote {
	var votes []Vote

	for _, delta := range deltas {
		if len(delta.ModifiedFunctions) > 0 || len(delta.ModifiedTypes) > 0 {
			votes = append(votes, Vote{
				Category: CategoryRefactor,
				Weight:   c.rules.StructuralWeight,
				Rule:     "structural:modified",
			})
		}

		if len(delta.AddedFunctions) > 0 || len(delta.AddedTypes) > 0 {
			votes = append(votes, Vote{
				Category: CategoryFeature,
				Weight:   c.rules.StructuralWeight,
				Rule:     "structural:added",
			})
		}

		if len(delta.RemovedFunctions) > 0 || len(delta.RemovedTypes) > 0 {
			votes = append(votes, Vote{
				Category: CategoryRefactor,
				Weight:   c.rules.StructuralWeight,
				Rule:     "structural:removed",
			})
		}
	}

	return votes
}

// Reduce folds an ordered vote list into a Classification: confidence is
// each category's weight share, categories below the floor are dropped, and
// an empty outcome falls back to {unknown: 1.0}.
func Reduce(votes []Vote, floor float64, priority []Category) Classification {
	totals := map[Category]float64{}
	sum := 0.0

	for _, vote := range votes {
		totals[vote.Category] += vote.Weight
		sum += vote.Weight
	}

	confidence := map[Category]float64{}

	if sum > 0 {
		for cat, weight := range totals {
			share := weight / sum
			if share >= floor {
				confidence[cat] = share
			}
		}
	}

	if len(confidence) == 0 {
		return Classification{
			Confidence: map[Category]float64{CategoryUnknown: 1.0},
			Primary:    CategoryUnknown,
		}
	}

	return Classification{
		Confidence: confidence,
		Primary:    primaryOf(confidence, priority),
	}
}

// primaryOf picks the highest-confidence category, breaking ties by the
// given priority order.
func primaryOf(confidence map[Category]float64, priority []Category) Category {
	if len(priority) == 0 {
		priority = DefaultPriority
	}

	best := CategoryUnknown
	bestShare := -1.0

	for _, cat := range priority {
		share, ok := confidence[cat]
		if !ok {
			continue
		}

		if share > bestShare {
			best = cat
			bestShare = share
		}
	}

	return best
}

func containsAnyToken(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}

	return false
}
