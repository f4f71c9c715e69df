package main_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const (
	integrationBinaryBaseName = "repotree-integration"
	treeCommand               = "tree"
	noColorFlag               = "--no-color"
	iconsDisabledFlag         = "--icons=false"
)

func buildBinary(testingHandle *testing.T) string {
	testingHandle.Helper()
	if testing.Short() {
		testingHandle.Skip("binary build skipped in short mode")
	}
	binaryName := integrationBinaryBaseName
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(testingHandle.TempDir(), binaryName)
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		testingHandle.Fatalf("working directory: %v", workingDirectoryError)
	}
	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	buildCommand.Dir = workingDirectory
	if combinedOutput, buildError := buildCommand.CombinedOutput(); buildError != nil {
		testingHandle.Fatalf("build failed: %v\n%s", buildError, string(combinedOutput))
	}
	return binaryPath
}

func setupTestDirectory(testingHandle *testing.T, layout map[string]string) string {
	testingHandle.Helper()
	root := filepath.Join(testingHandle.TempDir(), "fixture")
	for relativePath, content := range layout {
		absolutePath := filepath.Join(root, relativePath)
		if mkdirError := os.MkdirAll(filepath.Dir(absolutePath), 0o755); mkdirError != nil {
			testingHandle.Fatalf("mkdir %s: %v", relativePath, mkdirError)
		}
		if writeError := os.WriteFile(absolutePath, []byte(content), 0o644); writeError != nil {
			testingHandle.Fatalf("write %s: %v", relativePath, writeError)
		}
	}
	return root
}

func runCommand(testingHandle *testing.T, binaryPath string, workingDirectory string, arguments ...string) (string, string, error) {
	testingHandle.Helper()
	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(), "HOME="+testingHandle.TempDir())
	var stdoutBuffer, stderrBuffer bytes.Buffer
	command.Stdout = &stdoutBuffer
	command.Stderr = &stderrBuffer
	runError := command.Run()
	return stdoutBuffer.String(), stderrBuffer.String(), runError
}

func TestRepotreeBinary(testingHandle *testing.T) {
	binaryPath := buildBinary(testingHandle)
	root := setupTestDirectory(testingHandle, map[string]string{
		".gitignore":            "build/\n*.tmp\n",
		"build/output.bin":      "x",
		"cache.tmp":             "x",
		"cmd/tool/main.go":      "package main",
		"node_modules/x/pkg.js": "x",
		"go.mod":                "module example",
	})

	testCases := []struct {
		name             string
		arguments        []string
		expectedPresent  []string
		expectedAbsent   []string
		expectedExactOut string
	}{
		{
			name:      "annotated_with_gitignore",
			arguments: []string{treeCommand, noColorFlag, iconsDisabledFlag, "--comments", "--gitignore"},
			expectedExactOut: "fixture\n" +
				" ┣ cmd            // Directory\n" +
				" ┃ ┗ tool         // Directory\n" +
				" ┃ ┃ ┗ main.go    // File\n" +
				" ┣ .gitignore     // File\n" +
				" ┗ go.mod         // File\n",
		},
		{
			name:            "gitignore_disabled_keeps_build",
			arguments:       []string{treeCommand, noColorFlag},
			expectedPresent: []string{"build", "cache.tmp", "📦fixture", "📂cmd"},
			expectedAbsent:  []string{"node_modules", "// File"},
		},
		{
			name:            "custom_exclusion",
			arguments:       []string{treeCommand, noColorFlag, "-e", "cmd/", "--format", "markup"},
			expectedPresent: []string{"<bold>", "<br>", "go.mod"},
			expectedAbsent:  []string{"main.go"},
		},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			stdout, stderr, runError := runCommand(subTest, binaryPath, root, testCase.arguments...)
			if runError != nil {
				subTest.Fatalf("command failed: %v\nstdout:\n%s\nstderr:\n%s", runError, stdout, stderr)
			}
			if testCase.expectedExactOut != "" && stdout != testCase.expectedExactOut {
				subTest.Fatalf("expected:\n%s\ngot:\n%s", testCase.expectedExactOut, stdout)
			}
			for _, fragment := range testCase.expectedPresent {
				if !strings.Contains(stdout, fragment) {
					subTest.Errorf("expected %q in output:\n%s", fragment, stdout)
				}
			}
			for _, fragment := range testCase.expectedAbsent {
				if strings.Contains(stdout, fragment) {
					subTest.Errorf("unexpected %q in output:\n%s", fragment, stdout)
				}
			}
		})
	}
}

func TestRepotreeBinaryFailsWithoutValidPaths(testingHandle *testing.T) {
	binaryPath := buildBinary(testingHandle)
	_, stderr, runError := runCommand(testingHandle, binaryPath, testingHandle.TempDir(), treeCommand, "does-not-exist")
	if runError == nil {
		testingHandle.Fatalf("expected failure for missing path")
	}
	if !strings.Contains(stderr, "no valid paths") {
		testingHandle.Fatalf("expected error message on stderr, got %q", stderr)
	}
}
