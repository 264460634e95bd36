// Package routing selects the documentation specialists for a change event
// and builds each one's context payload. The decision tree is a fixed,
// ordered list of branches; every branch is a pure predicate over the same
// inputs returning an additive contribution, and the engine folds all
// contributions via set union. A fallback branch guarantees the specialist
// set is never empty.
package routing

import (
	"regexp"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/significance"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

// Specialist identifies a downstream documentation writer.
type Specialist string

const (
	// SpecialistUserGuide documents user-visible behavior.
	SpecialistUserGuide Specialist = "user-guide"
	// SpecialistArchitectureState keeps current-state documentation fresh.
	SpecialistArchitectureState Specialist = "architecture-state"
	// SpecialistDecisionRecord captures why a notable change happened.
	SpecialistDecisionRecord Specialist = "decision-record"
)

// specialistOrder fixes payload iteration order for deterministic output.
var specialistOrder = []Specialist{
	SpecialistUserGuide, SpecialistArchitectureState, SpecialistDecisionRecord,
}

// Input is everything a branch may inspect.
type Input struct {
	Files          []changeset.FileChange
	Deltas         []structdelta.Delta
	Classification classify.Classification
	Score          significance.Score
	Commits        []changeset.CommitRecord
}

// ContextPayload is what one selected specialist receives.
type ContextPayload struct {
	Specialist     Specialist
	Files          []changeset.FileChange
	Deltas         []structdelta.Delta
	Classification classify.Classification
	Score          significance.Score
	Commits        []changeset.CommitRecord
	// ReducedDepth signals a low-cost freshness pass, set only by the
	// fallback branch.
	ReducedDepth bool
	// Branches lists the decision-tree branches that selected this
	// specialist, for explainability.
	Branches []string
}

// Decision is the engine's externally consumed artifact.
type Decision struct {
	Payloads []ContextPayload
	// Fallback is true when only the fallback branch fired.
	Fallback bool
}

// Specialists returns the selected specialist identifiers in fixed order.
func (d Decision) Specialists() []Specialist {
	out := make([]Specialist, len(d.Payloads))
	for i, p := range d.Payloads {
		out[i] = p.Specialist
	}

	return out
}

// Payload returns the payload for a specialist, if selected.
func (d Decision) Payload(s Specialist) (ContextPayload, bool) {
	for _, p := range d.Payloads {
		if p.Specialist == s {
			return p, true
		}
	}

	return ContextPayload{}, false
}

// contribution is one branch's additive output: the specialists it selects
// and the file paths that drove the selection. A nil path set means "every
// file informed this branch" (whole-event signals like classification).
type contribution struct {
	branch      string
	specialists []Specialist
	paths       map[string]struct{}
}

// branchFunc evaluates one decision-tree branch. Pure: no side effects,
// selection is idempotent under re-evaluation.
type branchFunc func(in Input) (contribution, bool)

// userFacingPattern matches entry points and usage examples: paths a user
// would read to operate the system.
var userFacingPattern = regexp.MustCompile(
	`(^|/)(main\.[a-z]+|cli[^/]*|examples?(/|$)|cmd(/|$)|usage[^/]*|quickstart[^/]*)`)

// Engine evaluates the decision tree. Safe for concurrent use.
type Engine struct {
	branches []branchFunc
}

// NewEngine creates the engine with the fixed branch list.
func NewEngine() *Engine {
	return &Engine{
		branches: []branchFunc{
			userGuideBranch,
			architectureStateBranch,
			decisionRecordBranch,
		},
	}
}

// Decide folds all branch contributions and builds per-specialist payloads.
// If no branch fires, the fallback selects architecture-state with a
// reduced-depth payload so routine changes still refresh current-state docs.
func (e *Engine) Decide(in Input) Decision {
	var contributions []contribution

	for _, branch := range e.branches {
		if contrib, ok := branch(in); ok {
			contributions = append(contributions, contrib)
		}
	}

	if len(contributions) == 0 {
		payload := buildPayload(SpecialistArchitectureState, in, nil, []string{"fallback"})
		payload.ReducedDepth = true

		return Decision{Payloads: []ContextPayload{payload}, Fallback: true}
	}

	return Decision{Payloads: foldContributions(in, contributions)}
}

// userGuideBranch: a meaningful feature or fix, a touched user-facing
// surface, or a brand-new public capability needs the user guide updated.
func userGuideBranch(in Input) (contribution, bool) {
	primary := in.Classification.Primary
	significantFix := (primary == classify.CategoryFeature || primary == classify.CategoryBugfix) &&
		in.Score.Bucket.AtLeast(significance.BucketModerate)

	userFacing := map[string]struct{}{}

	for _, fc := range in.Files {
		if userFacingPattern.MatchString(fc.Path) {
			userFacing[fc.Path] = struct{}{}
		}
	}

	// A feature that introduces a public-looking function is usage-relevant
	// even when its volume keeps the score minor.
	newCapability := map[string]struct{}{}

	if primary == classify.CategoryFeature {
		for _, delta := range in.Deltas {
			for name := range delta.AddedFunctions {
				if significance.PublicLooking(name) {
					newCapability[delta.Path] = struct{}{}

					break
				}
			}
		}
	}

	if !significantFix && len(userFacing) == 0 && len(newCapability) == 0 {
		return contribution{}, false
	}

	// When the whole-event signal fired, every file informed the branch.
	var paths map[string]struct{}

	if !significantFix {
		paths = map[string]struct{}{}
		for path := range userFacing {
			paths[path] = struct{}{}
		}

		for path := range newCapability {
			paths[path] = struct{}{}
		}
	}

	return contribution{
		branch:      "user-guide",
		specialists: []Specialist{SpecialistUserGuide},
		paths:       paths,
	}, true
}

// architectureStateBranch: any structural movement, or a configuration
// change, shifts the documented current state.
func architectureStateBranch(in Input) (contribution, bool) {
	paths := map[string]struct{}{}

	for _, delta := range in.Deltas {
		if !delta.Empty() {
			paths[delta.Path] = struct{}{}
		}
	}

	isConfig := in.Classification.Primary == classify.CategoryConfig

	if len(paths) == 0 && !isConfig {
		return contribution{}, false
	}

	if isConfig {
		paths = nil
	}

	return contribution{
		branch:      "architecture-state",
		specialists: []Specialist{SpecialistArchitectureState},
		paths:       paths,
	}, true
}

// decisionRecordBranch: major or breaking changes deserve a recorded
// rationale with the full commit narrative.
func decisionRecordBranch(in Input) (contribution, bool) {
	if in.Score.Bucket != significance.BucketMajor && !in.Score.BreakingChange {
		return contribution{}, false
	}

	return contribution{
		branch:      "decision-record",
		specialists: []Specialist{SpecialistDecisionRecord},
		paths:       nil,
	}, true
}

// foldContributions unions branch outputs into ordered payloads and patches
// coverage: every parsed file must land in at least one payload, so files no
// branch claimed ride with architecture-state when selected, else with the
// first selected specialist.
func foldContributions(in Input, contributions []contribution) []ContextPayload {
	selectedPaths := map[Specialist]map[string]struct{}{}
	branchNames := map[Specialist][]string{}
	wholeEvent := map[Specialist]bool{}

	for _, contrib := range contributions {
		for _, spec := range contrib.specialists {
			branchNames[spec] = appendUnique(branchNames[spec], contrib.branch)

			if contrib.paths == nil {
				wholeEvent[spec] = true

				continue
			}

			if selectedPaths[spec] == nil {
				selectedPaths[spec] = map[string]struct{}{}
			}

			for path := range contrib.paths {
				selectedPaths[spec][path] = struct{}{}
			}
		}
	}

	patchCoverage(in, selectedPaths, wholeEvent, branchNames)

	var payloads []ContextPayload

	for _, spec := range specialistOrder {
		if _, ok := branchNames[spec]; !ok {
			continue
		}

		var filter map[string]struct{}
		if !wholeEvent[spec] {
			filter = selectedPaths[spec]
		}

		payloads = append(payloads, buildPayload(spec, in, filter, branchNames[spec]))
	}

	return payloads
}

// patchCoverage assigns files no branch claimed to a selected specialist.
func patchCoverage(
	in Input,
	selectedPaths map[Specialist]map[string]struct{},
	wholeEvent map[Specialist]bool,
	branchNames map[Specialist][]string,
) {
	for _, spec := range specialistOrder {
		if wholeEvent[spec] {
			// A whole-event payload already covers everything.
			if _, ok := branchNames[spec]; ok {
				return
			}
		}
	}

	covered := func(path string) bool {
		for _, paths := range selectedPaths {
			if _, ok := paths[path]; ok {
				return true
			}
		}

		return false
	}

	receiver := coverageReceiver(branchNames)

	for _, fc := range in.Files {
		if fc.Status == changeset.StatusUnparsed && len(fc.Hunks) == 0 {
			continue // No extractable signal to cover.
		}

		if covered(fc.Path) {
			continue
		}

		if selectedPaths[receiver] == nil {
			selectedPaths[receiver] = map[string]struct{}{}
		}

		selectedPaths[receiver][fc.Path] = struct{}{}
	}
}

// coverageReceiver prefers architecture-state for leftover files.
func coverageReceiver(branchNames map[Specialist][]string) Specialist {
	if _, ok := branchNames[SpecialistArchitectureState]; ok {
		return SpecialistArchitectureState
	}

	for _, spec := range specialistOrder {
		if _, ok := branchNames[spec]; ok {
			return spec
		}
	}

	return SpecialistArchitectureState
}

// buildPayload filters the event down to one specialist's view. A nil filter
// passes every file. The decision-record specialist always receives the full
// commit list; others get it too, commit metadata is cheap and narrative
// helps every writer.
func buildPayload(spec Specialist, in Input, filter map[string]struct{}, branches []string) ContextPayload {
	files := in.Files
	deltas := in.Deltas

	if filter != nil {
		files = nil
		deltas = nil

		for _, fc := range in.Files {
			if _, ok := filter[fc.Path]; ok {
				files = append(files, fc)
			}
		}

		for _, delta := range in.Deltas {
			if _, ok := filter[delta.Path]; ok {
				deltas = append(deltas, delta)
			}
		}
	}

	return ContextPayload{
		Specialist:     spec,
		Files:          files,
		Deltas:         deltas,
		Classification: in.Classification,
		Score:          in.Score,
		Commits:        in.Commits,
		Branches:       branches,
	}
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}

	return append(list, item)
}
