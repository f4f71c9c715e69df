package tree_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/temirov/repotree/internal/ignore"
	"github.com/temirov/repotree/internal/tree"
	"github.com/temirov/repotree/internal/types"
)

const memoryRoot = "/project"

func buildMemoryTree(testingHandle *testing.T, files map[string]string, directories ...string) afero.Fs {
	testingHandle.Helper()
	fileSystem := afero.NewMemMapFs()
	for _, directory := range directories {
		if mkdirError := fileSystem.MkdirAll(filepath.Join(memoryRoot, directory), 0o755); mkdirError != nil {
			testingHandle.Fatalf("mkdir %s: %v", directory, mkdirError)
		}
	}
	for relativePath, content := range files {
		absolutePath := filepath.Join(memoryRoot, relativePath)
		if mkdirError := fileSystem.MkdirAll(filepath.Dir(absolutePath), 0o755); mkdirError != nil {
			testingHandle.Fatalf("mkdir %s: %v", filepath.Dir(absolutePath), mkdirError)
		}
		if writeError := afero.WriteFile(fileSystem, absolutePath, []byte(content), 0o644); writeError != nil {
			testingHandle.Fatalf("write %s: %v", relativePath, writeError)
		}
	}
	return fileSystem
}

func newFormatter(fileSystem afero.Fs, options tree.Options, evaluatorOptions ignore.EvaluatorOptions) *tree.Formatter {
	evaluator := ignore.NewEvaluator(evaluatorOptions, ignore.NewGitignoreStore(fileSystem, nil), nil)
	return tree.NewFormatter(fileSystem, evaluator, options, nil)
}

func lineNames(lines []tree.Line) []string {
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		names = append(names, line.Name)
	}
	return names
}

// TestGenerateDirectoriesFirst verifies directory-first ordering with listing order inside each group.
func TestGenerateDirectoriesFirst(testingHandle *testing.T) {
	fileSystem := buildMemoryTree(testingHandle, map[string]string{
		"a.txt":     "a",
		"file1.txt": "1",
	}, "dirA", "dirB", "zdir")
	document := newFormatter(fileSystem, tree.DefaultOptions(), ignore.EvaluatorOptions{}).Generate(memoryRoot)

	expected := []string{"dirA", "dirB", "zdir", "a.txt", "file1.txt"}
	if actual := lineNames(document.Lines); !reflect.DeepEqual(actual, expected) {
		testingHandle.Fatalf("expected order %v, got %v", expected, actual)
	}
	for index, line := range document.Lines {
		expectedGlyph := tree.BranchGlyph + " "
		if index == len(document.Lines)-1 {
			expectedGlyph = tree.LastBranchGlyph + " "
		}
		if line.Glyph != expectedGlyph {
			testingHandle.Errorf("line %s: expected glyph %q, got %q", line.Name, expectedGlyph, line.Glyph)
		}
	}
	if document.RootName != "project" {
		testingHandle.Errorf("expected root name project, got %s", document.RootName)
	}
}

// TestGenerateFilesOnly verifies that a files-only directory lists every file exactly once as a file.
func TestGenerateFilesOnly(testingHandle *testing.T) {
	fileSystem := buildMemoryTree(testingHandle, map[string]string{
		"one.txt":   "1",
		"two.txt":   "2",
		"three.log": "3",
	})
	options := tree.DefaultOptions()
	options.AddComments = true
	document := newFormatter(fileSystem, options, ignore.EvaluatorOptions{
		CustomExcludes: map[string]bool{"*.log": true},
	}).Generate(memoryRoot)

	if len(document.Lines) != 2 {
		testingHandle.Fatalf("expected 2 lines, got %d", len(document.Lines))
	}
	seen := map[string]int{}
	for _, line := range document.Lines {
		seen[line.Name]++
		if line.Type != types.NodeTypeFile || !strings.HasSuffix(line.Annotation, tree.FileAnnotation) {
			testingHandle.Errorf("line %s: expected file annotation, got %q", line.Name, line.Annotation)
		}
	}
	if seen["one.txt"] != 1 || seen["two.txt"] != 1 {
		testingHandle.Errorf("expected each file once, got %v", seen)
	}
}

// TestGenerateExactLayout verifies prefixes, glyphs and the global annotation column.
func TestGenerateExactLayout(testingHandle *testing.T) {
	fileSystem := buildMemoryTree(testingHandle, map[string]string{
		"src/main.go": "package main",
		"README.md":   "# readme",
	})
	options := tree.DefaultOptions()
	options.AddComments = true
	document := newFormatter(fileSystem, options, ignore.EvaluatorOptions{}).Generate(memoryRoot)

	expected := []string{
		" ┣ src          // Directory",
		" ┃ ┗ main.go    // File",
		" ┗ README.md    // File",
	}
	if document.Width != 12 {
		testingHandle.Errorf("expected width 12, got %d", document.Width)
	}
	if len(document.Lines) != len(expected) {
		testingHandle.Fatalf("expected %d lines, got %d", len(expected), len(document.Lines))
	}
	for index, line := range document.Lines {
		if actual := line.Text(""); actual != expected[index] {
			testingHandle.Errorf("line %d: expected %q, got %q", index, expected[index], actual)
		}
	}
}

// TestGenerateGlobalAlignment verifies that a deep long name pushes the column of every line.
func TestGenerateGlobalAlignment(testingHandle *testing.T) {
	fileSystem := buildMemoryTree(testingHandle, map[string]string{
		"a/b/c/a_really_long_file_name_for_alignment.txt": "x",
		"z.md": "z",
	})
	options := tree.Options{AddComments: true, CommentSymbol: "#", CommentDistance: 6, TreeDistance: 2}
	document := newFormatter(fileSystem, options, ignore.EvaluatorOptions{}).Generate(memoryRoot)

	expectedColumn := document.Width + 6
	for _, line := range document.Lines {
		annotationColumn := utf8.RuneCountInString(line.Text("")) - utf8.RuneCountInString(line.Annotation)
		if annotationColumn != expectedColumn {
			testingHandle.Errorf("line %s: annotation at column %d, expected %d", line.Name, annotationColumn, expectedColumn)
		}
		if !strings.HasPrefix(line.Annotation, "# ") {
			testingHandle.Errorf("line %s: expected comment symbol prefix, got %q", line.Name, line.Annotation)
		}
	}
	deepest := document.Lines[3]
	if deepest.Prefix != " ┃  ┃  ┃  " || deepest.Glyph != "┗  " {
		testingHandle.Errorf("unexpected deep prefix %q glyph %q", deepest.Prefix, deepest.Glyph)
	}
}

// TestRenderMinimumPadding verifies the one-space gap when the supplied width is too small.
func TestRenderMinimumPadding(testingHandle *testing.T) {
	fileSystem := buildMemoryTree(testingHandle, map[string]string{"quite_a_long_name.txt": "x"})
	options := tree.DefaultOptions()
	options.AddComments = true
	lines := newFormatter(fileSystem, options, ignore.EvaluatorOptions{}).Render(memoryRoot, 0)
	if len(lines) != 1 || lines[0].Padding != 1 {
		testingHandle.Fatalf("expected single line with padding 1, got %+v", lines)
	}
}

// TestGenerateMatchesTwoPassRender verifies that the buffered walk equals measure followed by render.
func TestGenerateMatchesTwoPassRender(testingHandle *testing.T) {
	fileSystem := buildMemoryTree(testingHandle, map[string]string{
		"cmd/app/main.go":        "package main",
		"internal/x/y/z/deep.go": "package z",
		"go.mod":                 "module x",
		"node_modules/left/pad":  "x",
	})
	options := tree.DefaultOptions()
	options.AddComments = true
	formatter := newFormatter(fileSystem, options, ignore.EvaluatorOptions{})

	width := formatter.Measure(memoryRoot)
	twoPass := formatter.Render(memoryRoot, width)
	buffered := formatter.Generate(memoryRoot)
	if buffered.Width != width {
		testingHandle.Fatalf("expected width %d, got %d", width, buffered.Width)
	}
	if !reflect.DeepEqual(twoPass, buffered.Lines) {
		testingHandle.Fatalf("two-pass and buffered output differ:\n%+v\n%+v", twoPass, buffered.Lines)
	}
	for _, line := range buffered.Lines {
		if line.Name == "node_modules" {
			testingHandle.Fatalf("node_modules must be excluded")
		}
	}
	if again := formatter.Generate(memoryRoot); !reflect.DeepEqual(again, buffered) {
		testingHandle.Fatalf("rendering twice must be identical")
	}
}

// TestGenerateMissingRoot verifies that a missing root yields an empty tree.
func TestGenerateMissingRoot(testingHandle *testing.T) {
	formatter := newFormatter(afero.NewMemMapFs(), tree.DefaultOptions(), ignore.EvaluatorOptions{})
	document := formatter.Generate("/does/not/exist")
	if len(document.Lines) != 0 || document.Width != 0 {
		testingHandle.Fatalf("expected empty document, got %+v", document)
	}
}

// TestOptionsNormalized verifies the distance floors.
func TestOptionsNormalized(testingHandle *testing.T) {
	normalized := tree.Options{CommentDistance: 1, TreeDistance: 0}.Normalized()
	if normalized.CommentDistance != tree.MinimumCommentDistance || normalized.TreeDistance != tree.MinimumTreeDistance {
		testingHandle.Fatalf("unexpected normalized options %+v", normalized)
	}
}

// TestGenerateStopsAtSymlinkCycle verifies that a directory link back to an ancestor is listed but not entered.
func TestGenerateStopsAtSymlinkCycle(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "nested")
	if mkdirError := os.Mkdir(nestedDirectory, 0o755); mkdirError != nil {
		testingHandle.Fatalf("mkdir: %v", mkdirError)
	}
	if linkError := os.Symlink(rootDirectory, filepath.Join(nestedDirectory, "loop")); linkError != nil {
		testingHandle.Skipf("symlinks unavailable: %v", linkError)
	}
	formatter := newFormatter(afero.NewOsFs(), tree.DefaultOptions(), ignore.EvaluatorOptions{})
	document := formatter.Generate(rootDirectory)

	expected := []string{"nested", "loop"}
	if actual := lineNames(document.Lines); !reflect.DeepEqual(actual, expected) {
		testingHandle.Fatalf("expected %v, got %v", expected, actual)
	}
	if !document.Lines[1].IsDirectory() {
		testingHandle.Errorf("expected linked directory to render as directory")
	}
}
