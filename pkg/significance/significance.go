// Package significance computes a bounded impact score for a change event
// from its classification and structural delta volumes. The formula is a
// policy, not a law: constants are carried in a Policy value so deployments
// can tune them, but any policy must stay monotonic and deterministic.
package significance

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/robertoallende/coderipple-sub001/pkg/classify"
	"github.com/robertoallende/coderipple-sub001/pkg/structdelta"
)

// Bucket is the coarse significance band.
type Bucket string

const (
	// BucketMinor covers scores 0–29.
	BucketMinor Bucket = "minor"
	// BucketModerate covers scores 30–69.
	BucketModerate Bucket = "moderate"
	// BucketMajor covers scores 70–100.
	BucketMajor Bucket = "major"
)

// AtLeast reports whether b is at or above the given band.
func (b Bucket) AtLeast(other Bucket) bool {
	return bucketRank(b) >= bucketRank(other)
}

func bucketRank(b Bucket) int {
	switch b {
	case BucketMinor:
		return 0
	case BucketModerate:
		return 1
	case BucketMajor:
		return 2
	default:
		return 0
	}
}

// Score is the assessed impact of one whole change event.
type Score struct {
	Value          int
	Bucket         Bucket
	BreakingChange bool
}

// Policy holds the scoring constants. The zero value is not valid; start
// from DefaultPolicy.
type Policy struct {
	// FilesCap / PerFile: the touched-files term, min(FilesCap, PerFile*n).
	FilesCap int
	PerFile  int
	// SymbolsCap / PerSymbol: the symbol-volume term.
	SymbolsCap int
	PerSymbol  int
	// ModifiedBonus is added once when any in-place modification exists.
	ModifiedBonus int
	// BreakingFloor is the minimum score when a breaking change is detected.
	BreakingFloor int
	// ModerateAt / MajorAt are the bucket boundaries.
	ModerateAt int
	MajorAt    int
}

// DefaultPolicy returns the stock scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		FilesCap:      60,
		PerFile:       4,
		SymbolsCap:    30,
		PerSymbol:     3,
		ModifiedBonus: 10,
		BreakingFloor: 70,
		ModerateAt:    30,
		MajorAt:       70,
	}
}

// Assessor scores events under one policy. Safe for concurrent use.
type Assessor struct {
	policy Policy
}

// NewAssessor creates an Assessor with the given policy.
func NewAssessor(policy Policy) *Assessor {
	return &Assessor{policy: policy}
}

// Assess computes the event-wide significance score. More touched files or
// symbols never lower the result.
func (a *Assessor) Assess(classification classify.Classification, deltas []structdelta.Delta) Score {
	p := a.policy

	files := len(deltas)
	symbols := 0
	anyModified := false

	for _, delta := range deltas {
		symbols += delta.SymbolCount()

		if len(delta.ModifiedFunctions) > 0 || len(delta.ModifiedTypes) > 0 {
			anyModified = true
		}
	}

	value := minInt(p.FilesCap, p.PerFile*files) + minInt(p.SymbolsCap, p.PerSymbol*symbols)
	if anyModified {
		value += p.ModifiedBonus
	}

	breaking := a.detectBreaking(classification, deltas)
	if breaking && value < p.BreakingFloor {
		value = p.BreakingFloor
	}

	if value > 100 {
		value = 100
	}

	return Score{
		Value:          value,
		Bucket:         a.bucketOf(value),
		BreakingChange: breaking,
	}
}

// detectBreaking looks for removals of public-looking symbols, plus the
// dependency-downgrade heuristic for manifest files. Test-only changes never
// count as breaking.
func (a *Assessor) detectBreaking(classification classify.Classification, deltas []structdelta.Delta) bool {
	if classification.Primary == classify.CategoryTest {
		return false
	}

	for _, delta := range deltas {
		for name := range delta.RemovedFunctions {
			if PublicLooking(name) {
				return true
			}
		}

		for name := range delta.RemovedTypes {
			if PublicLooking(name) {
				return true
			}
		}

		if delta.Family == structdelta.FamilyManifest && manifestDowngraded(delta) {
			return true
		}
	}

	return false
}

func (a *Assessor) bucketOf(value int) Bucket {
	switch {
	case value >= a.policy.MajorAt:
		return BucketMajor
	case value >= a.policy.ModerateAt:
		return BucketModerate
	default:
		return BucketMinor
	}
}

// PublicLooking reports whether a symbol name looks like part of a public
// surface: no leading underscore and no internal-marker prefix. This is a
// cross-language convention check, not a visibility analysis.
func PublicLooking(name string) bool {
	if name == "" {
		return false
	}

	if strings.HasPrefix(name, "_") {
		return false
	}

	lower := strings.ToLower(name)

	return !strings.HasPrefix(lower, "internal") && !strings.HasPrefix(lower, "impl")
}

// manifestDowngraded applies the version-downgrade heuristic: a pinned
// dependency removed and re-added at a lower version reads as breaking.
func manifestDowngraded(delta structdelta.Delta) bool {
	removedPins := map[string]string{}

	for entry := range delta.RemovedImports {
		if name, version, ok := splitPin(entry); ok {
			removedPins[name] = version
		}
	}

	for entry := range delta.AddedImports {
		name, version, ok := splitPin(entry)
		if !ok {
			continue
		}

		oldVersion, pinned := removedPins[name]
		if pinned && semver.Compare(canonicalVersion(version), canonicalVersion(oldVersion)) < 0 {
			return true
		}
	}

	return false
}

// splitPin splits "name==1.2.3" style pins. Unpinned entries give no signal.
func splitPin(entry string) (name, version string, ok bool) {
	for _, sep := range []string{"==", ">=", "~=", "@"} {
		if idx := strings.Index(entry, sep); idx > 0 {
			return entry[:idx], entry[idx+len(sep):], true
		}
	}

	return "", "", false
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
