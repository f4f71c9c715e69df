// Package ignore decides which paths are left out of a rendered tree.
//
// Exclusion sources are custom patterns, workspace-wide patterns, the root
// directory's .gitignore and the built-in node_modules rule. Every source is
// reduced to PatternRule values that answer Matches for a root-relative,
// slash-separated path.
package ignore

import (
	"path"
	"regexp"

	"github.com/temirov/repotree/internal/glob"
	"github.com/temirov/repotree/internal/types"
)

// RuleKind names the matching strategy of a PatternRule.
type RuleKind string

// Rule kinds in the order a gitignore line emits them. Structural kinds
// precede the generic glob rule.
const (
	RuleKindDirectoryExact   RuleKind = "directory-exact"
	RuleKindDirectorySubtree RuleKind = "directory-subtree"
	RuleKindDepthAny         RuleKind = "depth-any"
	RuleKindLiteral          RuleKind = "literal"
	RuleKindGlob             RuleKind = "glob"
	RuleKindEscapedLiteral   RuleKind = "escaped-literal"
)

type pathMatcher interface {
	Matches(relativePath string) bool
}

type expressionMatcher struct {
	expression *regexp.Regexp
}

func (matcher expressionMatcher) Matches(relativePath string) bool {
	return matcher.expression.MatchString(relativePath)
}

// PatternRule is one compiled exclusion rule. It is immutable once built.
type PatternRule struct {
	Source  types.RuleSource
	Kind    RuleKind
	Pattern string
	matcher pathMatcher
}

func newExpressionRule(source types.RuleSource, kind RuleKind, pattern string, expression string) (PatternRule, error) {
	compiledExpression, compileError := regexp.Compile(expression)
	if compileError != nil {
		return PatternRule{}, compileError
	}
	return PatternRule{Source: source, Kind: kind, Pattern: pattern, matcher: expressionMatcher{expression: compiledExpression}}, nil
}

func newGlobRule(source types.RuleSource, pattern string, matcher *glob.Matcher) PatternRule {
	return PatternRule{Source: source, Kind: RuleKindGlob, Pattern: pattern, matcher: matcher}
}

// Matches reports whether the root-relative slash path matches the rule.
func (rule PatternRule) Matches(relativePath string) bool {
	if rule.matcher == nil {
		return false
	}
	return rule.matcher.Matches(relativePath)
}

// MatchRules returns the first rule matching either the full relative path or
// its basename.
func MatchRules(rules []PatternRule, relativePath string) (PatternRule, bool) {
	baseName := path.Base(relativePath)
	for _, rule := range rules {
		if rule.Matches(relativePath) || rule.Matches(baseName) {
			return rule, true
		}
	}
	return PatternRule{}, false
}
