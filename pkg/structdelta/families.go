package structdelta

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/src-d/enry/v2"
)

func lowerBase(path string) string {
	return strings.ToLower(filepath.Base(path))
}

// Family is a coarse language class. Declaration matching is keyed by family,
// not by exact language: the goal is a cheap cross-language structural signal,
// not grammar-accurate parsing.
type Family int

const (
	// FamilyUnknown gets the brace matchers as a permissive default.
	FamilyUnknown Family = iota
	// FamilyBrace covers C-descended brace languages (Go, C, Java, JS, Rust).
	FamilyBrace
	// FamilyIndent covers indentation-structured languages (Python, Ruby).
	FamilyIndent
	// FamilyMarkup covers documentation and markup formats.
	FamilyMarkup
	// FamilyManifest covers dependency manifests and lock files.
	FamilyManifest
)

// SymbolKind tags what a matched declaration line declares.
type SymbolKind int

const (
	// KindFunction is a function or method declaration.
	KindFunction SymbolKind = iota
	// KindType is a type, class, struct, interface, or enum declaration.
	KindType
	// KindImport is an import, include, or dependency reference.
	KindImport
)

// matcher pairs a compiled declaration shape with the kind it declares.
// The first capture group is the symbol name.
type matcher struct {
	kind SymbolKind
	re   *regexp.Regexp
}

// Matchers are anchored and tolerate only light indentation, which keeps
// most string-literal and comment bodies from matching. Misses are accepted;
// this is a signal extractor, not a parser.
var (
	braceMatchers = []matcher{
		{KindFunction, regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)},
		{KindFunction, regexp.MustCompile(`^[ \t]{0,4}(?:export\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)},
		{KindFunction, regexp.MustCompile(`^[ \t]{0,4}(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`)},
		{KindFunction, regexp.MustCompile(`^[ \t]{2,4}(?:public\s+|private\s+|protected\s+)?(?:static\s+)?[A-Za-z_][\w<>,\[\] ]*\s+([A-Za-z_]\w*)\s*\([^;]*\)\s*\{`)},
		{KindType, regexp.MustCompile(`^type\s+([A-Za-z_]\w*)`)},
		{KindType, regexp.MustCompile(`^[ \t]{0,4}(?:export\s+)?(?:public\s+|abstract\s+)*(?:class|interface|struct|enum|trait)\s+([A-Za-z_$][\w$]*)`)},
		{KindImport, regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"([^"]+)"`)},
		{KindImport, regexp.MustCompile(`^\t(?:[\w.]+\s+)?"([^"]+)"`)},
		{KindImport, regexp.MustCompile(`^[ \t]{0,4}import\s+.*from\s+['"]([^'"]+)['"]`)},
		{KindImport, regexp.MustCompile(`^[ \t]{0,4}(?:const|let|var)\s+\w+\s*=\s*require\(['"]([^'"]+)['"]\)`)},
		{KindImport, regexp.MustCompile(`^#include\s+[<"]([^>"]+)[>"]`)},
		{KindImport, regexp.MustCompile(`^[ \t]{0,4}use\s+([\w:]+)`)},
	}

	indentMatchers = []matcher{
		{KindFunction, regexp.MustCompile(`^[ \t]{0,8}(?:async\s+)?def\s+([A-Za-z_]\w*)`)},
		{KindType, regexp.MustCompile(`^[ \t]{0,4}class\s+([A-Za-z_]\w*)`)},
		{KindImport, regexp.MustCompile(`^import\s+([\w.]+)`)},
		{KindImport, regexp.MustCompile(`^from\s+([\w.]+)\s+import`)},
		{KindImport, regexp.MustCompile(`^require(?:_relative)?\s+['"]([^'"]+)['"]`)},
	}

	// Markup files carry no declarations; they contribute line counts only.
	markupMatchers = []matcher{}

	manifestMatchers = []matcher{
		{KindImport, regexp.MustCompile(`^([A-Za-z0-9][\w.\-]*(?:\[[\w,]+\])?(?:[=<>!~^]=?[\w.*]+)?)\s*$`)},
		{KindImport, regexp.MustCompile(`^\t([\w./\-]+)\s+v[\w.\-+]+`)},
		{KindImport, regexp.MustCompile(`^[ \t]{2,8}"([@\w./\-]+)"\s*:\s*"[^"]+"`)},
	}
)

// manifestNames are basenames treated as dependency manifests regardless of
// what enry says about them.
var manifestNames = map[string]struct{}{
	"requirements.txt": {},
	"requirements.in":  {},
	"pipfile":          {},
	"pipfile.lock":     {},
	"go.mod":           {},
	"go.sum":           {},
	"package.json":     {},
	"package-lock.json": {},
	"yarn.lock":        {},
	"gemfile":          {},
	"gemfile.lock":     {},
	"cargo.toml":       {},
	"cargo.lock":       {},
	"pom.xml":          {},
}

// indentLanguages maps enry language names to the indentation family.
var indentLanguages = map[string]struct{}{
	"Python": {},
	"Ruby":   {},
	"YAML":   {},
	"Elixir": {},
	"Nim":    {},
}

// markupLanguages maps enry language names to the markup family.
var markupLanguages = map[string]struct{}{
	"Markdown":         {},
	"HTML":             {},
	"XML":              {},
	"Text":             {},
	"reStructuredText": {},
	"AsciiDoc":         {},
}

// FamilyForPath resolves the coarse language family for a file path using
// enry's filename and extension strategies. Content is never inspected.
func FamilyForPath(path string) Family {
	if _, ok := manifestNames[lowerBase(path)]; ok {
		return FamilyManifest
	}

	lang, safe := enry.GetLanguageByFilename(path)
	if !safe {
		lang, safe = enry.GetLanguageByExtension(path)
	}

	if !safe || lang == "" {
		return FamilyUnknown
	}

	if _, ok := indentLanguages[lang]; ok {
		return FamilyIndent
	}

	if _, ok := markupLanguages[lang]; ok {
		return FamilyMarkup
	}

	return FamilyBrace
}

// matchersFor returns the matcher list for a family. Unknown files get the
// brace matchers: their anchored shapes are the least likely to misfire.
func matchersFor(family Family) []matcher {
	switch family {
	case FamilyIndent:
		return indentMatchers
	case FamilyMarkup:
		return markupMatchers
	case FamilyManifest:
		return manifestMatchers
	case FamilyBrace, FamilyUnknown:
		return braceMatchers
	default:
		return braceMatchers
	}
}
