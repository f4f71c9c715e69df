package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repotree/internal/utils"
)

const (
	workspaceExcludeKey  = "files.exclude"
	tabReplacement       = "  "
	errorReadWorkspace   = "read workspace settings %s: %w"
	errorDecodeWorkspace = "decode workspace settings %s: %w"
)

// WorkspaceSettingsPath returns the editor settings file under workingDirectory.
func WorkspaceSettingsPath(workingDirectory string) string {
	return filepath.Join(workingDirectory, utils.WorkspaceSettingsDirectoryName, utils.WorkspaceSettingsFileName)
}

// LoadWorkspaceExcludes reads the files.exclude map of the editor settings in
// workingDirectory. A missing file yields an empty map. Entries whose value
// is not a boolean, such as conditional excludes, are ignored.
func LoadWorkspaceExcludes(fileSystem afero.Fs, workingDirectory string) (map[string]bool, error) {
	settingsPath := WorkspaceSettingsPath(workingDirectory)
	content, readError := afero.ReadFile(fileSystem, settingsPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf(errorReadWorkspace, settingsPath, readError)
	}
	return ParseWorkspaceExcludes(content, settingsPath)
}

// ParseWorkspaceExcludes decodes the files.exclude map from settings content.
// The content is JSON with comments and trailing commas; comments are removed
// and the rest is read as a YAML flow document.
func ParseWorkspaceExcludes(content []byte, sourceName string) (map[string]bool, error) {
	var document map[string]any
	if decodeError := yaml.Unmarshal([]byte(stripComments(string(content))), &document); decodeError != nil {
		return nil, fmt.Errorf(errorDecodeWorkspace, sourceName, decodeError)
	}
	excludes := map[string]bool{}
	rawExcludes, isMapping := document[workspaceExcludeKey].(map[string]any)
	if !isMapping {
		return excludes, nil
	}
	for pattern, rawValue := range rawExcludes {
		if enabled, isBoolean := rawValue.(bool); isBoolean {
			excludes[pattern] = enabled
		}
	}
	return excludes, nil
}

// stripComments removes // and /* */ comments outside string literals and
// replaces tabs with spaces. Newlines inside block comments are kept.
func stripComments(content string) string {
	var builder strings.Builder
	builder.Grow(len(content))
	inString := false
	for index := 0; index < len(content); index++ {
		character := content[index]
		if inString {
			builder.WriteByte(character)
			switch character {
			case '\\':
				if index+1 < len(content) {
					index++
					builder.WriteByte(content[index])
				}
			case '"':
				inString = false
			}
			continue
		}
		switch {
		case character == '"':
			inString = true
			builder.WriteByte(character)
		case character == '/' && index+1 < len(content) && content[index+1] == '/':
			for index+1 < len(content) && content[index+1] != '\n' {
				index++
			}
		case character == '/' && index+1 < len(content) && content[index+1] == '*':
			index += 2
			for index < len(content) && !(content[index] == '*' && index+1 < len(content) && content[index+1] == '/') {
				if content[index] == '\n' {
					builder.WriteByte('\n')
				}
				index++
			}
			index++
		case character == '\t':
			builder.WriteString(tabReplacement)
		default:
			builder.WriteByte(character)
		}
	}
	return builder.String()
}
