// Package tree walks a directory and lays it out as aligned, annotated lines.
//
// Comment annotations share one column across the whole output: the
// alignment width is the widest line of the entire filtered tree, so a deep
// long name pads even the shallowest short line.
package tree

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/repotree/internal/types"
)

const (
	logSkippedDirectory = "skipping unreadable directory"
	logSymlinkCycle     = "not descending into symlink cycle"
	logStatFallback     = "unable to resolve entry type, rendering as file"
)

// Excluder decides whether a path under rootDirectory is left out.
type Excluder interface {
	ShouldExclude(absolutePath string, rootDirectory string) bool
}

// Line is one rendered entry.
type Line struct {
	Depth  int
	Prefix string
	Glyph  string
	Type   string
	Name   string
	Path   string
	// ContentWidth is the rune width of Prefix, Glyph and Name.
	ContentWidth int
	// Padding is the number of spaces before Annotation; zero without annotation.
	Padding    int
	Annotation string
	IsLast     bool
}

// IsDirectory reports whether the line describes a directory.
func (line Line) IsDirectory() bool {
	return line.Type == types.NodeTypeDirectory
}

// Text renders the line with icon placed between the glyph and the name.
func (line Line) Text(icon string) string {
	var builder strings.Builder
	builder.WriteString(line.Prefix)
	builder.WriteString(line.Glyph)
	builder.WriteString(icon)
	builder.WriteString(line.Name)
	if line.Annotation != "" {
		builder.WriteString(strings.Repeat(" ", line.Padding))
		builder.WriteString(line.Annotation)
	}
	return builder.String()
}

// Document is a fully rendered tree.
type Document struct {
	RootName string
	RootPath string
	Width    int
	Lines    []Line
	Options  Options
}

// Formatter renders directory trees. A Formatter holds no state between calls
// apart from its collaborators, so one value may render several roots.
type Formatter struct {
	fileSystem      afero.Fs
	excluder        Excluder
	options         Options
	logger          *zap.Logger
	resolveRealPath func(string) (string, error)
}

// NewFormatter creates a Formatter. A nil excluder keeps every entry and a nil logger disables logging.
func NewFormatter(fileSystem afero.Fs, excluder Excluder, options Options, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolveRealPath := func(pathValue string) (string, error) { return filepath.Clean(pathValue), nil }
	if _, isOsFs := fileSystem.(*afero.OsFs); isOsFs {
		resolveRealPath = filepath.EvalSymlinks
	}
	return &Formatter{
		fileSystem:      fileSystem,
		excluder:        excluder,
		options:         options.Normalized(),
		logger:          logger,
		resolveRealPath: resolveRealPath,
	}
}

// Measure walks the filtered tree and returns the alignment width: the
// largest prefix-plus-name width of any entry.
func (formatter *Formatter) Measure(rootDirectory string) int {
	return measureLines(formatter.collect(rootDirectory))
}

// Render walks the filtered tree again and lays out every line against width.
func (formatter *Formatter) Render(rootDirectory string, width int) []Line {
	return formatter.annotate(formatter.collect(rootDirectory), width)
}

// Generate produces the same lines as Render(rootDirectory, Measure(rootDirectory))
// from a single buffered walk.
func (formatter *Formatter) Generate(rootDirectory string) Document {
	cleanRoot := filepath.Clean(rootDirectory)
	lines := formatter.collect(cleanRoot)
	width := measureLines(lines)
	return Document{
		RootName: filepath.Base(cleanRoot),
		RootPath: cleanRoot,
		Width:    width,
		Lines:    formatter.annotate(lines, width),
		Options:  formatter.options,
	}
}

func measureLines(lines []Line) int {
	width := 0
	for _, line := range lines {
		if line.ContentWidth > width {
			width = line.ContentWidth
		}
	}
	return width
}

func (formatter *Formatter) annotate(lines []Line, width int) []Line {
	if !formatter.options.AddComments {
		return lines
	}
	for index := range lines {
		padding := width + formatter.options.CommentDistance - lines[index].ContentWidth
		if padding < minimumPadding {
			padding = minimumPadding
		}
		label := FileAnnotation
		if lines[index].IsDirectory() {
			label = DirectoryAnnotation
		}
		lines[index].Padding = padding
		lines[index].Annotation = formatter.options.CommentSymbol + " " + label
	}
	return lines
}

func (formatter *Formatter) collect(rootDirectory string) []Line {
	cleanRoot := filepath.Clean(rootDirectory)
	ancestors := map[string]struct{}{}
	if realRoot, resolveError := formatter.resolveRealPath(cleanRoot); resolveError == nil {
		ancestors[realRoot] = struct{}{}
	}
	var lines []Line
	formatter.walk(cleanRoot, cleanRoot, 0, ancestors, &lines)
	return lines
}

func (formatter *Formatter) walk(currentDirectory string, rootDirectory string, depth int, ancestors map[string]struct{}, lines *[]Line) {
	entries := formatter.listEntries(currentDirectory, rootDirectory)
	prefix := formatter.prefix(depth)
	for index, entry := range entries {
		isLast := index == len(entries)-1
		glyph := formatter.glyph(isLast)
		*lines = append(*lines, Line{
			Depth:        depth,
			Prefix:       prefix,
			Glyph:        glyph,
			Type:         entry.Type,
			Name:         entry.Name,
			Path:         entry.AbsolutePath,
			ContentWidth: utf8.RuneCountInString(prefix) + utf8.RuneCountInString(glyph) + utf8.RuneCountInString(entry.Name),
			IsLast:       isLast,
		})
		if !entry.IsDirectory() {
			continue
		}
		realPath, resolveError := formatter.resolveRealPath(entry.AbsolutePath)
		if resolveError != nil {
			realPath = entry.AbsolutePath
		}
		if _, visited := ancestors[realPath]; visited {
			formatter.logger.Debug(logSymlinkCycle, zap.String("path", entry.AbsolutePath))
			continue
		}
		ancestors[realPath] = struct{}{}
		formatter.walk(entry.AbsolutePath, rootDirectory, depth+1, ancestors, lines)
		delete(ancestors, realPath)
	}
}

// listEntries returns the non-excluded children of directoryPath, directories
// first, each group in listing order.
func (formatter *Formatter) listEntries(directoryPath string, rootDirectory string) []types.DirectoryEntry {
	fileInfos, readError := afero.ReadDir(formatter.fileSystem, directoryPath)
	if readError != nil {
		formatter.logger.Debug(logSkippedDirectory, zap.String("path", directoryPath), zap.Error(readError))
		return nil
	}

	var directories []types.DirectoryEntry
	var files []types.DirectoryEntry
	for _, fileInfo := range fileInfos {
		childPath := filepath.Join(directoryPath, fileInfo.Name())
		if formatter.excluder != nil && formatter.excluder.ShouldExclude(childPath, rootDirectory) {
			continue
		}
		entry := types.DirectoryEntry{Name: fileInfo.Name(), AbsolutePath: childPath, Type: types.NodeTypeFile}
		if formatter.isDirectory(childPath, fileInfo) {
			entry.Type = types.NodeTypeDirectory
			directories = append(directories, entry)
			continue
		}
		files = append(files, entry)
	}
	return append(directories, files...)
}

// isDirectory follows symbolic links so that linked directories render as directories.
func (formatter *Formatter) isDirectory(childPath string, fileInfo os.FileInfo) bool {
	if fileInfo.Mode()&os.ModeSymlink == 0 {
		return fileInfo.IsDir()
	}
	targetInfo, statError := formatter.fileSystem.Stat(childPath)
	if statError != nil {
		formatter.logger.Debug(logStatFallback, zap.String("path", childPath), zap.Error(statError))
		return false
	}
	return targetInfo.IsDir()
}

func (formatter *Formatter) prefix(depth int) string {
	guideUnit := GuideGlyph + strings.Repeat(" ", formatter.options.TreeDistance)
	return LeadingIndent + strings.Repeat(guideUnit, depth)
}

func (formatter *Formatter) glyph(isLast bool) string {
	branch := BranchGlyph
	if isLast {
		branch = LastBranchGlyph
	}
	return branch + strings.Repeat(" ", formatter.options.TreeDistance)
}
