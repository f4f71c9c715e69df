// Package readme appends a rendered tree to the companion document of a project.
package readme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultFileName is created when no candidate exists.
	DefaultFileName = "README.md"
	// DefaultHeader starts a newly created document.
	DefaultHeader = "# Project Tree\n"

	fenceOpen  = "\n\n```\n"
	fenceClose = "```\n"

	documentPermissions = 0o644

	errorStatCandidate = "stat %s: %w"
	errorCreateReadme  = "create %s: %w"
	errorOpenReadme    = "open %s: %w"
	errorAppendReadme  = "append to %s: %w"
	errorCloseReadme   = "close %s: %w"

	logCreatedReadme  = "created companion document"
	logAppendedReadme = "appended tree to companion document"
)

// CandidateFileNames are probed in order; the first existing file receives the tree.
var CandidateFileNames = []string{
	"README.md",
	"README.txt",
	"README.mdx",
	"README",
	"readme.md",
	"readme.txt",
	"readme.mdx",
	"readme",
}

// Appender writes trees into README files.
type Appender struct {
	fileSystem afero.Fs
	logger     *zap.Logger
}

// NewAppender constructs an Appender. A nil logger disables logging.
func NewAppender(fileSystem afero.Fs, logger *zap.Logger) *Appender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Appender{fileSystem: fileSystem, logger: logger}
}

// Locate returns the path of the first existing candidate in rootDirectory.
// The boolean is false when none exists.
func (appender *Appender) Locate(rootDirectory string) (string, bool, error) {
	for _, candidate := range CandidateFileNames {
		candidatePath := filepath.Join(rootDirectory, candidate)
		fileInfo, statError := appender.fileSystem.Stat(candidatePath)
		if statError != nil {
			if errors.Is(statError, fs.ErrNotExist) {
				continue
			}
			return "", false, fmt.Errorf(errorStatCandidate, candidatePath, statError)
		}
		if fileInfo.IsDir() {
			continue
		}
		return candidatePath, true, nil
	}
	return "", false, nil
}

// Append adds plainTree inside a fenced block at the end of the README in
// rootDirectory, creating README.md with a default header when none exists.
// It returns the path that was written.
func (appender *Appender) Append(rootDirectory string, plainTree string) (string, error) {
	documentPath, found, locateError := appender.Locate(rootDirectory)
	if locateError != nil {
		return "", locateError
	}
	if !found {
		documentPath = filepath.Join(rootDirectory, DefaultFileName)
		if writeError := afero.WriteFile(appender.fileSystem, documentPath, []byte(DefaultHeader), documentPermissions); writeError != nil {
			return "", fmt.Errorf(errorCreateReadme, documentPath, writeError)
		}
		appender.logger.Debug(logCreatedReadme, zap.String("path", documentPath))
	}

	documentFile, openError := appender.fileSystem.OpenFile(documentPath, os.O_APPEND|os.O_WRONLY, documentPermissions)
	if openError != nil {
		return "", fmt.Errorf(errorOpenReadme, documentPath, openError)
	}
	if _, appendError := documentFile.WriteString(FencedBlock(plainTree)); appendError != nil {
		documentFile.Close()
		return "", fmt.Errorf(errorAppendReadme, documentPath, appendError)
	}
	if closeError := documentFile.Close(); closeError != nil {
		return "", fmt.Errorf(errorCloseReadme, documentPath, closeError)
	}
	appender.logger.Debug(logAppendedReadme, zap.String("path", documentPath))
	return documentPath, nil
}

// FencedBlock wraps plainTree in the code fence appended to documents.
func FencedBlock(plainTree string) string {
	return fenceOpen + plainTree + fenceClose
}
