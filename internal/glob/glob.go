// Package glob compiles glob-style exclusion patterns into slash-path matchers.
//
// Supported wildcards are `*` (any run of characters except `/`), `?` (one
// character except `/`) and `**` (any run of characters including `/`).
// Pattern shapes are recognised in a fixed priority order: directory
// globstar (`dir/**`), depth-any prefix (`**/name`), trailing-slash
// directory (`dir/`) and finally the generic form.
package glob

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	globstarToken         = "**"
	directoryGlobstar     = "/**"
	depthAnyPrefix        = "**/"
	pathSeparator         = "/"
	singleSegmentWildcard = '*'
	singleCharWildcard    = '?'

	anySegmentExpression    = `[^/]*`
	anyCharacterExpression  = `[^/]`
	anyDepthExpression      = `.*`
	matchEverythingExpr     = `^.*$`
	anyParentExpression     = `(^|.*/)`
	optionalSubtreeSuffix   = `(/.*)?$`
	anchoredStartExpression = `^`
	anchoredEndExpression   = `$`

	errorCompileFormat = "compile glob pattern %q: %w"
)

// ErrEmptyPattern is returned when an empty pattern is compiled.
var ErrEmptyPattern = errors.New("empty glob pattern")

// Matcher tests slash-separated paths relative to a root against one compiled pattern.
// The zero value never matches.
type Matcher struct {
	pattern    string
	expression *regexp.Regexp
}

// Compile converts pattern into a Matcher. A malformed pattern yields a matcher
// that never matches together with the compilation error, so callers can log
// the error and keep evaluating other patterns.
func Compile(pattern string) (*Matcher, error) {
	matcher := &Matcher{pattern: pattern}
	if strings.TrimSpace(pattern) == "" {
		return matcher, fmt.Errorf(errorCompileFormat, pattern, ErrEmptyPattern)
	}
	compiledExpression, compileError := regexp.Compile(Expression(pattern))
	if compileError != nil {
		return matcher, fmt.Errorf(errorCompileFormat, pattern, compileError)
	}
	matcher.expression = compiledExpression
	return matcher, nil
}

// Matches reports whether relativePath, using forward slashes, matches the pattern.
func (matcher *Matcher) Matches(relativePath string) bool {
	if matcher == nil || matcher.expression == nil {
		return false
	}
	return matcher.expression.MatchString(relativePath)
}

// Pattern returns the source pattern.
func (matcher *Matcher) Pattern() string {
	if matcher == nil {
		return ""
	}
	return matcher.pattern
}

// Expression returns the regular expression source a pattern compiles to.
func Expression(pattern string) string {
	if globstarIndex := strings.Index(pattern, directoryGlobstar); globstarIndex >= 0 {
		return directoryGlobstarExpression(pattern[:globstarIndex])
	}
	if strings.HasPrefix(pattern, depthAnyPrefix) {
		component := strings.TrimSuffix(strings.TrimPrefix(pattern, depthAnyPrefix), pathSeparator)
		return anyParentExpression + convertSegment(component) + optionalSubtreeSuffix
	}
	if strings.HasSuffix(pattern, pathSeparator) {
		directory := strings.TrimSuffix(strings.TrimPrefix(pattern, pathSeparator), pathSeparator)
		return anchoredStartExpression + convertSegment(directory) + optionalSubtreeSuffix
	}
	if strings.HasPrefix(pattern, pathSeparator) {
		return anchoredStartExpression + convertSegment(strings.TrimPrefix(pattern, pathSeparator)) + anchoredEndExpression
	}
	return anyParentExpression + convertSegment(pattern) + anchoredEndExpression
}

// directoryGlobstarExpression handles patterns split at their first "/**".
func directoryGlobstarExpression(prefix string) string {
	trimmedPrefix := strings.TrimPrefix(prefix, pathSeparator)
	switch {
	case trimmedPrefix == globstarToken || trimmedPrefix == "":
		return matchEverythingExpr
	case strings.HasPrefix(trimmedPrefix, depthAnyPrefix):
		directory := strings.TrimPrefix(trimmedPrefix, depthAnyPrefix)
		return anyParentExpression + convertSegment(directory) + optionalSubtreeSuffix
	default:
		return anchoredStartExpression + convertSegment(trimmedPrefix) + optionalSubtreeSuffix
	}
}

// convertSegment translates wildcards and escapes every other character.
func convertSegment(segment string) string {
	var builder strings.Builder
	characters := []rune(segment)
	for index := 0; index < len(characters); index++ {
		character := characters[index]
		switch character {
		case singleSegmentWildcard:
			if index+1 < len(characters) && characters[index+1] == singleSegmentWildcard {
				builder.WriteString(anyDepthExpression)
				index++
				continue
			}
			builder.WriteString(anySegmentExpression)
		case singleCharWildcard:
			builder.WriteString(anyCharacterExpression)
		default:
			builder.WriteString(regexp.QuoteMeta(string(character)))
		}
	}
	return builder.String()
}
