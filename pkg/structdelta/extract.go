// Package structdelta derives per-file structural deltas from parsed diffs:
// which declaration-like symbols (functions, types, imports) appear to have
// been added, removed, or modified. Detection is heuristic by design; missed
// declarations are acceptable, and matches inside strings or comments are a
// documented limitation.
package structdelta

import (
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/robertoallende/coderipple-sub001/pkg/changeset"
)

// SymbolSet is a set of symbol names.
type SymbolSet map[string]struct{}

// Add inserts a name into the set.
func (s SymbolSet) Add(name string) { s[name] = struct{}{} }

// Has reports whether the set contains the name.
func (s SymbolSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the set's names in lexical order.
func (s SymbolSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Delta is the structural change signal for one file. Built incrementally
// during extraction, then treated as frozen.
type Delta struct {
	Path   string
	Family Family

	AddedFunctions    SymbolSet
	RemovedFunctions  SymbolSet
	ModifiedFunctions SymbolSet
	AddedTypes        SymbolSet
	RemovedTypes      SymbolSet
	ModifiedTypes     SymbolSet
	AddedImports      SymbolSet
	RemovedImports    SymbolSet

	AddedLines   int
	RemovedLines int
}

// Empty reports whether the delta carries no structural signal at all.
func (d Delta) Empty() bool {
	return len(d.AddedFunctions) == 0 && len(d.RemovedFunctions) == 0 &&
		len(d.ModifiedFunctions) == 0 && len(d.AddedTypes) == 0 &&
		len(d.RemovedTypes) == 0 && len(d.ModifiedTypes) == 0 &&
		len(d.AddedImports) == 0 && len(d.RemovedImports) == 0
}

// SymbolCount returns the number of added plus removed symbols, the volume
// input for significance scoring. Modified symbols count once.
func (d Delta) SymbolCount() int {
	return len(d.AddedFunctions) + len(d.RemovedFunctions) + len(d.ModifiedFunctions) +
		len(d.AddedTypes) + len(d.RemovedTypes) + len(d.ModifiedTypes)
}

// newDelta allocates a Delta with all sets initialized.
func newDelta(path string, family Family) Delta {
	return Delta{
		Path:              path,
		Family:            family,
		AddedFunctions:    SymbolSet{},
		RemovedFunctions:  SymbolSet{},
		ModifiedFunctions: SymbolSet{},
		AddedTypes:        SymbolSet{},
		RemovedTypes:      SymbolSet{},
		ModifiedTypes:     SymbolSet{},
		AddedImports:      SymbolSet{},
		RemovedImports:    SymbolSet{},
	}
}

// Extract computes the structural delta for one parsed file change.
func Extract(fc changeset.FileChange) Delta {
	family := FamilyForPath(fc.Path)
	delta := newDelta(fc.Path, family)
	matchers := matchersFor(family)

	// Matched line text per symbol, kept for the modified-promotion check.
	addedAt := map[string]string{}
	removedAt := map[string]string{}

	for _, hunk := range fc.Hunks {
		for _, line := range hunk.Lines {
			switch line.Kind {
			case changeset.LineAdded:
				delta.AddedLines++

				if kind, name, ok := matchLine(matchers, line.Text); ok {
					addSymbol(&delta, kind, name, true)
					addedAt[name] = line.Text
				}
			case changeset.LineRemoved:
				delta.RemovedLines++

				if kind, name, ok := matchLine(matchers, line.Text); ok {
					addSymbol(&delta, kind, name, false)
					removedAt[name] = line.Text
				}
			case changeset.LineContext:
			}
		}
	}

	promoteModified(delta.AddedFunctions, delta.RemovedFunctions, delta.ModifiedFunctions, addedAt, removedAt)
	promoteModified(delta.AddedTypes, delta.RemovedTypes, delta.ModifiedTypes, addedAt, removedAt)

	return delta
}

// ExtractAll maps Extract over all file changes, skipping files with no
// hunks. Unparsed files yield no delta, only the recorded status.
func ExtractAll(files []changeset.FileChange) []Delta {
	deltas := make([]Delta, 0, len(files))

	for _, fc := range files {
		if len(fc.Hunks) == 0 {
			continue
		}

		deltas = append(deltas, Extract(fc))
	}

	return deltas
}

// matchLine tests a line against the family matchers in order and returns
// the first match's kind and captured symbol name.
func matchLine(matchers []matcher, text string) (SymbolKind, string, bool) {
	for _, m := range matchers {
		groups := m.re.FindStringSubmatch(text)
		if groups != nil && groups[1] != "" {
			return m.kind, groups[1], true
		}
	}

	return 0, "", false
}

func addSymbol(d *Delta, kind SymbolKind, name string, added bool) {
	switch kind {
	case KindFunction:
		if added {
			d.AddedFunctions.Add(name)
		} else {
			d.RemovedFunctions.Add(name)
		}
	case KindType:
		if added {
			d.AddedTypes.Add(name)
		} else {
			d.RemovedTypes.Add(name)
		}
	case KindImport:
		if added {
			d.AddedImports.Add(name)
		} else {
			d.RemovedImports.Add(name)
		}
	}
}

// promoteModified moves symbols present in both added and removed into
// modified (declaration changed in place). A symbol whose matched lines are
// character-identical is a pure move inside the file: it is dropped from both
// sets without promotion.
func promoteModified(added, removed, modified SymbolSet, addedAt, removedAt map[string]string) {
	dmp := diffmatchpatch.New()

	for name := range added {
		if !removed.Has(name) {
			continue
		}

		delete(added, name)
		delete(removed, name)

		diffs := dmp.DiffMain(removedAt[name], addedAt[name], false)
		if declarationChanged(diffs) {
			modified.Add(name)
		}
	}
}

// declarationChanged reports whether a character diff contains any actual
// edit, not just equal runs.
func declarationChanged(diffs []diffmatchpatch.Diff) bool {
	for _, diff := range diffs {
		if diff.Type != diffmatchpatch.DiffEqual {
			return true
		}
	}

	return false
}
