// Package utils contains general helper functions used across repotree.
package utils

import (
	"path/filepath"
	"sort"
	"strings"
)

// File and directory names used across the project.
const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// NodeModulesDirectoryName is always excluded from rendered trees.
	NodeModulesDirectoryName = "node_modules"
	// ConfigFileName is the local configuration file looked up in the working directory.
	ConfigFileName = ".repotree.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".repotree"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// WorkspaceSettingsDirectoryName holds the editor workspace settings.
	WorkspaceSettingsDirectoryName = ".vscode"
	// WorkspaceSettingsFileName is the editor workspace settings file.
	WorkspaceSettingsFileName = "settings.json"
)

const pathSegmentSeparator = "/"

// EnabledPatterns returns the keys of a pattern toggle map whose value is true,
// in lexical order so that evaluation and logging are deterministic.
func EnabledPatterns(patternToggles map[string]bool) []string {
	enabledPatterns := make([]string, 0, len(patternToggles))
	for pattern, enabled := range patternToggles {
		if enabled {
			enabledPatterns = append(enabledPatterns, pattern)
		}
	}
	sort.Strings(enabledPatterns)
	return enabledPatterns
}

// RelativePathOrSelf calculates the relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
// The result always uses forward slashes.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(cleanPath)
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return filepath.ToSlash(cleanPath)
	}
	return filepath.ToSlash(relativePath)
}

// NormalizeSeparators converts backslashes to forward slashes regardless of platform.
func NormalizeSeparators(pathValue string) string {
	return strings.ReplaceAll(filepath.ToSlash(pathValue), "\\", pathSegmentSeparator)
}

// ContainsPathSegment reports whether any slash-separated segment of pathValue equals segment.
func ContainsPathSegment(pathValue string, segment string) bool {
	for _, pathSegment := range strings.Split(NormalizeSeparators(pathValue), pathSegmentSeparator) {
		if pathSegment == segment {
			return true
		}
	}
	return false
}
