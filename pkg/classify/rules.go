package classify

import "regexp"

// DefaultConfidenceFloor drops categories whose weight share falls below it.
// Empirically tuned; override through the rule set, not by editing code.
const DefaultConfidenceFloor = 0.15

// DefaultStructuralWeight is the weight of one structural vote.
const DefaultStructuralWeight = 1.0

// PathRule votes for a category when a file path matches its pattern.
type PathRule struct {
	Name     string
	Pattern  *regexp.Regexp
	Category Category
	Weight   float64
}

// MessageRule votes for a category when a commit message contains any of its
// tokens. Matching is case-insensitive substring containment.
type MessageRule struct {
	Name     string
	Tokens   []string
	Category Category
	Weight   float64
}

// RuleSet is the complete, immutable rule configuration for a Classifier.
type RuleSet struct {
	PathRules        []PathRule
	MessageRules     []MessageRule
	StructuralWeight float64
	ConfidenceFloor  float64
	Priority         []Category
}

// DefaultRuleSet returns the stock rules. Path rules are ordered most
// specific first; the first match wins per file.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		PathRules: []PathRule{
			{
				Name:     "dependency-manifest",
				Pattern:  regexp.MustCompile(`(^|/)(go\.(mod|sum)|requirements[^/]*\.(txt|in)|Pipfile(\.lock)?|package(-lock)?\.json|yarn\.lock|Gemfile(\.lock)?|Cargo\.(toml|lock)|pom\.xml|composer\.(json|lock))$`),
				Category: CategoryDependency,
				Weight:   1.0,
			},
			{
				Name:     "test-file",
				Pattern:  regexp.MustCompile(`(^|/)(tests?|spec|__tests__)(/|$)|_test\.[a-z]+$|(^|/)test_[^/]+$|\.(spec|test)\.[a-z]+$`),
				Category: CategoryTest,
				Weight:   1.0,
			},
			{
				Name:     "docs",
				Pattern:  regexp.MustCompile(`(^|/)docs?(/|$)|\.(md|rst|adoc)$`),
				Category: CategoryDocs,
				Weight:   1.0,
			},
			{
				Name:     "config-file",
				Pattern:  regexp.MustCompile(`(^|/)(Dockerfile|Makefile|\.env[^/]*)$|\.(ya?ml|toml|ini|cfg|conf)$|(^|/)\.github/`),
				Category: CategoryConfig,
				Weight:   1.0,
			},
		},
		MessageRules: []MessageRule{
			{
				Name:     "bugfix-tokens",
				Tokens:   []string{"fix", "bug", "patch", "hotfix", "regression"},
				Category: CategoryBugfix,
				Weight:   1.0,
			},
			{
				Name:     "feature-tokens",
				Tokens:   []string{"add ", "adds ", "added ", "introduce", "implement", "support for"},
				Category: CategoryFeature,
				Weight:   1.0,
			},
			{
				Name:     "refactor-tokens",
				Tokens:   []string{"refactor", "cleanup", "clean up", "restructure", "simplify", "rename"},
				Category: CategoryRefactor,
				Weight:   1.0,
			},
		},
		StructuralWeight: DefaultStructuralWeight,
		ConfidenceFloor:  DefaultConfidenceFloor,
		Priority:         DefaultPriority,
	}
}
