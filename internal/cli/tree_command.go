package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repotree/internal/config"
	"github.com/temirov/repotree/internal/ignore"
	"github.com/temirov/repotree/internal/output"
	"github.com/temirov/repotree/internal/readme"
	"github.com/temirov/repotree/internal/tree"
	"github.com/temirov/repotree/internal/types"
)

const (
	formatFlagName            = "format"
	commentsFlagName          = "comments"
	commentSymbolFlagName     = "comment-symbol"
	commentDistanceFlagName   = "comment-distance"
	treeDistanceFlagName      = "tree-distance"
	exclusionFlagName         = "e"
	gitignoreFlagName         = "gitignore"
	workspaceExcludesFlagName = "workspace-excludes"
	iconsFlagName             = "icons"
	noColorFlagName           = "no-color"
	appendReadmeFlagName      = "append-readme"
	copyFlagName              = "copy"
	configFlagName            = "config"
	defaultPath               = "."

	treeUse              = types.CommandTree + " [paths...]"
	treeAlias            = "t"
	treeShortDescription = "render an annotated directory tree (" + treeAlias + ")"
	treeLongDescription  = `Render the directory tree of one or more paths.
Directories are listed before files. With --comments every entry is followed by an
annotation aligned to one column across the whole tree.
Use --format to select text, markup, json or xml output.`
	treeUsageExample = `  # Annotated tree of the current directory
  repotree tree --comments

  # Respect .gitignore and hide log files, then append the tree to the README
  repotree tree --gitignore -e '*.log' --append-readme .`

	formatFlagDescription            = "output format: text, markup, json or xml"
	commentsFlagDescription          = "append // Directory and // File annotations"
	commentSymbolFlagDescription     = "symbol opening each annotation"
	commentDistanceFlagDescription   = "spaces between the widest entry and the annotation column (min 4)"
	treeDistanceFlagDescription      = "spaces after each guide glyph (min 1)"
	exclusionFlagDescription         = "exclude path pattern (repeatable)"
	gitignoreFlagDescription         = "exclude entries matched by the root .gitignore"
	workspaceExcludesFlagDescription = "exclude entries matched by files.exclude in .vscode/settings.json"
	iconsFlagDescription             = "prefix entries with icons in text output"
	noColorFlagDescription           = "disable coloured output"
	appendReadmeFlagDescription      = "append the tree to the README of each root"
	copyFlagDescription              = "copy the output to the clipboard"
	configFlagDescription            = "configuration file used instead of ./.repotree.yaml"

	invalidFormatMessage    = "invalid format value '%s'"
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	errorNoValidPaths       = "no valid paths"
	errorAppendReadmeFormat = "append tree for %s: %w"

	logSkippingPath       = "skipping path"
	logNotDirectory       = "not a directory"
	logAppendedReadme     = "tree appended"
	logCopiedToClipboard  = "tree copied to clipboard"
	logWorkspaceSettings  = "workspace settings unavailable"
	logLoadedRenderConfig = "render settings"
)

// treeFlags holds the raw flag values of the tree command.
type treeFlags struct {
	format            string
	addComments       bool
	commentSymbol     string
	commentDistance   int
	treeDistance      int
	exclusionPatterns []string
	respectGitignore  bool
	workspaceExcludes bool
	includeIcons      bool
	noColor           bool
	appendReadme      bool
	copyToClipboard   bool
	configPath        string
}

func newTreeCommand(dependencies *Dependencies) *cobra.Command {
	var flags treeFlags

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			flags.format = strings.ToLower(flags.format)
			if !isSupportedFormat(flags.format) {
				return fmt.Errorf(invalidFormatMessage, flags.format)
			}
			return runTree(command.Context(), dependencies, command, flags, arguments)
		},
	}

	flagSet := treeCommand.Flags()
	flagSet.StringVar(&flags.format, formatFlagName, types.FormatText, formatFlagDescription)
	flagSet.StringVar(&flags.commentSymbol, commentSymbolFlagName, tree.DefaultCommentSymbol, commentSymbolFlagDescription)
	flagSet.IntVar(&flags.commentDistance, commentDistanceFlagName, tree.DefaultCommentDistance, commentDistanceFlagDescription)
	flagSet.IntVar(&flags.treeDistance, treeDistanceFlagName, tree.DefaultTreeDistance, treeDistanceFlagDescription)
	flagSet.StringArrayVarP(&flags.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	registerToggles(flagSet,
		toggleDefinition{name: commentsFlagName, target: &flags.addComments, usage: commentsFlagDescription},
		toggleDefinition{name: gitignoreFlagName, target: &flags.respectGitignore, usage: gitignoreFlagDescription},
		toggleDefinition{name: workspaceExcludesFlagName, target: &flags.workspaceExcludes, defaultValue: true, usage: workspaceExcludesFlagDescription},
		toggleDefinition{name: iconsFlagName, target: &flags.includeIcons, defaultValue: true, usage: iconsFlagDescription},
		toggleDefinition{name: noColorFlagName, target: &flags.noColor, usage: noColorFlagDescription},
		toggleDefinition{name: appendReadmeFlagName, target: &flags.appendReadme, usage: appendReadmeFlagDescription},
		toggleDefinition{name: copyFlagName, target: &flags.copyToClipboard, usage: copyFlagDescription},
	)
	return treeCommand
}

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatText, types.FormatMarkup, types.FormatJSON, types.FormatXML:
		return true
	default:
		return false
	}
}

// flagOverrides turns explicitly set flags into the highest configuration layer.
func flagOverrides(command *cobra.Command, flags treeFlags) config.RenderSettings {
	var overrides config.RenderSettings
	changed := command.Flags().Changed
	if changed(commentsFlagName) {
		overrides.AddComments = &flags.addComments
	}
	if changed(commentSymbolFlagName) {
		overrides.CommentSymbol = &flags.commentSymbol
	}
	if changed(commentDistanceFlagName) {
		overrides.CommentDistance = &flags.commentDistance
	}
	if changed(treeDistanceFlagName) {
		overrides.TreeDistance = &flags.treeDistance
	}
	if changed(gitignoreFlagName) {
		overrides.RespectGitignore = &flags.respectGitignore
	}
	if changed(workspaceExcludesFlagName) {
		overrides.RespectWorkspaceExcludeSettings = &flags.workspaceExcludes
	}
	if len(flags.exclusionPatterns) > 0 {
		overrides.Exclude = make(map[string]bool, len(flags.exclusionPatterns))
		for _, pattern := range flags.exclusionPatterns {
			overrides.Exclude[pattern] = true
		}
	}
	return overrides
}

func runTree(ctx context.Context, dependencies *Dependencies, command *cobra.Command, flags treeFlags, arguments []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := dependencies.Logger

	roots, resolveError := resolveRoots(dependencies, arguments)
	if resolveError != nil {
		return resolveError
	}

	loadedSettings, loadError := config.NewLoader(dependencies.FileSystem).Load(config.LoadOptions{
		WorkingDirectory: dependencies.WorkingDirectory,
		ExplicitFilePath: flags.configPath,
		HomeDirectory:    dependencies.HomeDirectory,
	})
	if loadError != nil {
		return loadError
	}
	settings := loadedSettings.Merge(flagOverrides(command, flags))
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}

	workspaceExcludes, workspaceError := config.LoadWorkspaceExcludes(dependencies.FileSystem, dependencies.WorkingDirectory)
	if workspaceError != nil {
		logger.Warn(logWorkspaceSettings, zap.Error(workspaceError))
	}
	treeOptions := settings.TreeOptions()
	evaluatorOptions := settings.EvaluatorOptions(workspaceExcludes)
	logger.Debug(logLoadedRenderConfig,
		zap.Bool("add_comments", treeOptions.AddComments),
		zap.String("comment_symbol", treeOptions.CommentSymbol),
		zap.Int("comment_distance", treeOptions.CommentDistance),
		zap.Int("tree_distance", treeOptions.TreeDistance),
		zap.Bool("respect_gitignore", evaluatorOptions.RespectGitignore),
		zap.Bool("respect_workspace_exclude_settings", evaluatorOptions.RespectWorkspaceExcludeSettings),
	)

	documents := make([]tree.Document, len(roots))
	group, groupContext := errgroup.WithContext(ctx)
	for index, root := range roots {
		index, root := index, root
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			evaluator := ignore.NewEvaluator(evaluatorOptions, ignore.NewGitignoreStore(dependencies.FileSystem, logger), logger)
			formatter := tree.NewFormatter(dependencies.FileSystem, evaluator, treeOptions, logger)
			documents[index] = formatter.Generate(root)
			return nil
		})
	}
	if groupError := group.Wait(); groupError != nil {
		return groupError
	}

	colorize := flags.format == types.FormatText && !flags.noColor && dependencies.IsTerminal()
	color.NoColor = !colorize
	rendered, renderError := output.Render(flags.format, documents, output.TextOptions{
		IncludeIcons: flags.includeIcons,
		Colorize:     colorize,
	})
	if renderError != nil {
		return renderError
	}
	if _, writeError := fmt.Fprint(dependencies.Stdout, ensureTrailingNewline(rendered)); writeError != nil {
		return writeError
	}

	if flags.copyToClipboard && dependencies.Copier != nil {
		clipboardText := rendered
		if colorize {
			plainText, plainRenderError := output.Render(flags.format, documents, output.TextOptions{IncludeIcons: flags.includeIcons})
			if plainRenderError != nil {
				return plainRenderError
			}
			clipboardText = plainText
		}
		if copyError := dependencies.Copier.Copy(clipboardText); copyError != nil {
			return copyError
		}
		logger.Info(logCopiedToClipboard)
	}

	if flags.appendReadme {
		return appendReadmes(readme.NewAppender(dependencies.FileSystem, logger), roots, documents, flags.includeIcons, logger)
	}
	return nil
}

// appendReadmes writes each rendered tree into its root README, one root at a
// time and only after every tree has been walked.
func appendReadmes(appender *readme.Appender, roots []string, documents []tree.Document, includeIcons bool, logger *zap.Logger) error {
	for index, root := range roots {
		plainTree := output.ConvertMarkupToPlain(output.RenderMarkup(documents[index]), includeIcons)
		writtenPath, appendError := appender.Append(root, plainTree)
		if appendError != nil {
			return fmt.Errorf(errorAppendReadmeFormat, root, appendError)
		}
		logger.Info(logAppendedReadme, zap.String("path", writtenPath))
	}
	return nil
}

func ensureTrailingNewline(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

// resolveRoots converts arguments to absolute directories, warning about and
// skipping paths that are missing or are not directories.
func resolveRoots(dependencies *Dependencies, arguments []string) ([]string, error) {
	seen := make(map[string]struct{})
	var roots []string
	for _, argument := range arguments {
		absolutePath := argument
		if !filepath.IsAbs(absolutePath) {
			if dependencies.WorkingDirectory == "" {
				resolvedPath, absoluteError := filepath.Abs(argument)
				if absoluteError != nil {
					return nil, fmt.Errorf(errorAbsolutePathFormat, argument, absoluteError)
				}
				absolutePath = resolvedPath
			} else {
				absolutePath = filepath.Join(dependencies.WorkingDirectory, argument)
			}
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, duplicate := seen[cleanPath]; duplicate {
			continue
		}
		fileInfo, statError := dependencies.FileSystem.Stat(cleanPath)
		if statError != nil {
			dependencies.Logger.Warn(logSkippingPath, zap.String("path", argument), zap.Error(statError))
			continue
		}
		if !fileInfo.IsDir() {
			dependencies.Logger.Warn(logSkippingPath, zap.String("path", argument), zap.String("reason", logNotDirectory))
			continue
		}
		seen[cleanPath] = struct{}{}
		roots = append(roots, cleanPath)
	}
	if len(roots) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return roots, nil
}
