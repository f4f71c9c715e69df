package ignore

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repotree/internal/glob"
	"github.com/temirov/repotree/internal/types"
	"github.com/temirov/repotree/internal/utils"
)

const (
	// DefaultSandboxMarker marks scratch directories created by automated tests.
	// Paths under the sandbox root containing it are never excluded.
	DefaultSandboxMarker = "repotree-test-"

	depthAnyPrefix    = "**/"
	directorySuffix   = "/**"
	builtinRuleReason = "node_modules"

	logActivePatterns   = "exclusion patterns"
	logInvalidPattern   = "skipping invalid exclude pattern"
	logExcludedPath     = "excluded"
	logSandboxPath      = "sandbox path kept"
	decisionFieldSource = "source"
)

// EvaluatorOptions carries the resolved exclusion settings for one invocation.
type EvaluatorOptions struct {
	// CustomExcludes maps patterns to their enabled state; only true entries apply.
	CustomExcludes map[string]bool
	// WorkspaceExcludes maps workspace-wide patterns to their enabled state.
	WorkspaceExcludes               map[string]bool
	RespectWorkspaceExcludeSettings bool
	RespectGitignore                bool
	// SandboxRoot defaults to os.TempDir().
	SandboxRoot string
	// SandboxMarker defaults to DefaultSandboxMarker.
	SandboxMarker string
}

// Decision explains the outcome of one exclusion check.
type Decision struct {
	Excluded bool
	Source   types.RuleSource
	Pattern  string
}

type configuredPattern struct {
	source  types.RuleSource
	pattern string
	matcher *glob.Matcher
}

// Evaluator merges every exclusion source into one decision per path.
// It owns its gitignore store, so separate evaluators never share state.
type Evaluator struct {
	options        EvaluatorOptions
	gitignoreStore *GitignoreStore
	patterns       []configuredPattern
	logger         *zap.Logger
}

// NewEvaluator compiles the configured patterns once. Invalid patterns are
// logged and skipped. A nil logger disables logging.
func NewEvaluator(options EvaluatorOptions, gitignoreStore *GitignoreStore, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.SandboxRoot == "" {
		options.SandboxRoot = os.TempDir()
	}
	if options.SandboxMarker == "" {
		options.SandboxMarker = DefaultSandboxMarker
	}

	evaluator := &Evaluator{options: options, gitignoreStore: gitignoreStore, logger: logger}
	evaluator.addPatterns(types.RuleSourceCustom, options.CustomExcludes)
	if options.RespectWorkspaceExcludeSettings {
		evaluator.addPatterns(types.RuleSourceWorkspace, options.WorkspaceExcludes)
	}

	activePatterns := make([]string, 0, len(evaluator.patterns))
	for _, configured := range evaluator.patterns {
		activePatterns = append(activePatterns, configured.pattern)
	}
	logger.Debug(logActivePatterns, zap.Strings("patterns", activePatterns))
	return evaluator
}

func (evaluator *Evaluator) addPatterns(source types.RuleSource, patternToggles map[string]bool) {
	for _, pattern := range utils.EnabledPatterns(patternToggles) {
		matcher, compileError := glob.Compile(pattern)
		if compileError != nil {
			evaluator.logger.Warn(logInvalidPattern, zap.String(decisionFieldSource, string(source)), zap.Error(compileError))
			matcher = nil
		}
		evaluator.patterns = append(evaluator.patterns, configuredPattern{source: source, pattern: pattern, matcher: matcher})
	}
}

// ShouldExclude reports whether absolutePath, located under rootDirectory, is left out of the tree.
func (evaluator *Evaluator) ShouldExclude(absolutePath string, rootDirectory string) bool {
	decision := evaluator.Decide(absolutePath, rootDirectory)
	if decision.Excluded {
		evaluator.logger.Debug(logExcludedPath,
			zap.String("path", absolutePath),
			zap.String(decisionFieldSource, string(decision.Source)),
			zap.String("pattern", decision.Pattern))
	}
	return decision.Excluded
}

// Decide applies the exclusion sources in order and reports the first match:
// sandbox bypass, gitignore, the built-in node_modules rule, then custom and
// workspace patterns.
func (evaluator *Evaluator) Decide(absolutePath string, rootDirectory string) Decision {
	if evaluator.isSandboxPath(absolutePath) {
		evaluator.logger.Debug(logSandboxPath, zap.String("path", absolutePath))
		return Decision{}
	}

	relativePath := utils.RelativePathOrSelf(absolutePath, rootDirectory)
	baseName := path.Base(utils.NormalizeSeparators(absolutePath))

	if evaluator.options.RespectGitignore && evaluator.gitignoreStore != nil {
		rules := evaluator.gitignoreStore.Load(rootDirectory)
		if rule, matched := MatchRules(rules, relativePath); matched {
			return Decision{Excluded: true, Source: types.RuleSourceGitignore, Pattern: rule.Pattern}
		}
	}

	if baseName == utils.NodeModulesDirectoryName || utils.ContainsPathSegment(absolutePath, utils.NodeModulesDirectoryName) {
		return Decision{Excluded: true, Source: types.RuleSourceBuiltin, Pattern: builtinRuleReason}
	}

	for _, configured := range evaluator.patterns {
		if configured.matchesBaseName(baseName) || configured.matcher.Matches(relativePath) {
			return Decision{Excluded: true, Source: configured.source, Pattern: configured.pattern}
		}
	}

	return Decision{}
}

func (configured configuredPattern) matchesBaseName(baseName string) bool {
	return configured.pattern == baseName ||
		configured.pattern == depthAnyPrefix+baseName ||
		configured.pattern == depthAnyPrefix+baseName+directorySuffix
}

func (evaluator *Evaluator) isSandboxPath(absolutePath string) bool {
	cleanSandboxRoot := filepath.Clean(evaluator.options.SandboxRoot)
	cleanPath := filepath.Clean(absolutePath)
	if cleanPath != cleanSandboxRoot && !strings.HasPrefix(cleanPath, cleanSandboxRoot+string(filepath.Separator)) {
		return false
	}
	return strings.Contains(cleanPath, evaluator.options.SandboxMarker)
}
