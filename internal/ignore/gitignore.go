package ignore

import (
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/repotree/internal/glob"
	"github.com/temirov/repotree/internal/types"
	"github.com/temirov/repotree/internal/utils"
)

const (
	gitignoreCommentPrefix  = "#"
	gitignoreNegationPrefix = "!"
	gitignoreDirectorySlash = "/"
	gitignoreGlobstar       = "**"
	gitignoreDepthAnyPrefix = "**/"
	gitignoreWildcards      = "*?"

	logMissingGitignore    = "no .gitignore found"
	logUnreadableGitignore = "unable to read .gitignore"
	logLoadedGitignore     = "loaded .gitignore rules"
	logGitignoreFallback   = "gitignore line compiled as literal"
	logGitignoreSkipped    = "gitignore line skipped"
)

// GitignoreStore loads the .gitignore rules of one root directory and caches
// them until a different root is requested.
type GitignoreStore struct {
	fileSystem afero.Fs
	logger     *zap.Logger

	mutex      sync.Mutex
	cachedRoot string
	rules      []PatternRule
	loaded     bool
}

// NewGitignoreStore creates a store reading through fileSystem. A nil logger disables logging.
func NewGitignoreStore(fileSystem afero.Fs, logger *zap.Logger) *GitignoreStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitignoreStore{fileSystem: fileSystem, logger: logger}
}

// Load returns the ordered rules of rootDirectory's .gitignore. A missing or
// unreadable file yields no rules. An unreadable file is retried on the next
// call; every other outcome stays cached until the root changes.
func (store *GitignoreStore) Load(rootDirectory string) []PatternRule {
	cleanRoot := filepath.Clean(rootDirectory)

	store.mutex.Lock()
	defer store.mutex.Unlock()

	if cleanRoot == store.cachedRoot && store.loaded {
		return store.rules
	}

	store.cachedRoot = cleanRoot
	store.rules = nil
	store.loaded = false

	gitignorePath := filepath.Join(cleanRoot, utils.GitIgnoreFileName)
	content, readError := afero.ReadFile(store.fileSystem, gitignorePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			store.logger.Debug(logMissingGitignore, zap.String("path", gitignorePath))
			store.loaded = true
			return store.rules
		}
		store.logger.Warn(logUnreadableGitignore, zap.String("path", gitignorePath), zap.Error(readError))
		return store.rules
	}

	store.rules = ParseGitignore(string(content), store.logger)
	store.loaded = true
	store.logger.Debug(logLoadedGitignore, zap.String("path", gitignorePath), zap.Int("rules", len(store.rules)))
	return store.rules
}

// ParseGitignore compiles .gitignore content into rules, keeping file order.
// Blank lines, comments and negated lines produce no rules.
func ParseGitignore(content string, logger *zap.Logger) []PatternRule {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rules []PatternRule
	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, gitignoreCommentPrefix) {
			continue
		}
		if strings.HasPrefix(line, gitignoreNegationPrefix) {
			logger.Debug(logGitignoreSkipped, zap.String("line", line))
			continue
		}
		rules = append(rules, compileGitignoreLine(line, logger)...)
	}
	return rules
}

// compileGitignoreLine produces the structural rules for a line followed by its glob rule.
func compileGitignoreLine(line string, logger *zap.Logger) []PatternRule {
	var rules []PatternRule
	isDirectoryLine := strings.HasSuffix(line, gitignoreDirectorySlash)
	isAnchored := strings.HasPrefix(line, gitignoreDirectorySlash)
	hasWildcard := strings.ContainsAny(line, gitignoreWildcards)
	name := strings.TrimSuffix(strings.TrimPrefix(line, gitignoreDirectorySlash), gitignoreDirectorySlash)
	quotedName := regexp.QuoteMeta(name)
	normalizedPattern := line

	appendRule := func(kind RuleKind, expression string) {
		rule, ruleError := newExpressionRule(types.RuleSourceGitignore, kind, line, expression)
		if ruleError != nil {
			logger.Debug(logGitignoreSkipped, zap.String("line", line), zap.String("kind", string(kind)), zap.Error(ruleError))
			return
		}
		rules = append(rules, rule)
	}

	if isDirectoryLine && name != "" {
		appendRule(RuleKindDirectoryExact, "^"+quotedName+"/?$")
		appendRule(RuleKindDirectorySubtree, "^"+quotedName+"/")
		normalizedPattern = line + gitignoreGlobstar
	}

	if !hasWildcard && name != "" {
		appendRule(RuleKindLiteral, "^"+quotedName+"$")
		if !isAnchored {
			appendRule(RuleKindDepthAny, "(^|/)"+quotedName+"/")
			normalizedPattern = gitignoreDepthAnyPrefix + normalizedPattern
		}
	}

	globMatcher, compileError := glob.Compile(normalizedPattern)
	if compileError != nil {
		logger.Debug(logGitignoreFallback, zap.String("line", line), zap.Error(compileError))
		appendRule(RuleKindEscapedLiteral, regexp.QuoteMeta(line))
		return rules
	}
	rules = append(rules, newGlobRule(types.RuleSourceGitignore, line, globMatcher))
	return rules
}
