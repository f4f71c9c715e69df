package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repotree/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	configurationFilePermissions      = 0o600
	configurationDirectoryPermissions = 0o755

	errorWorkingDirectoryForInit = "determine working directory for configuration: %w"
	errorHomeDirectoryForInit    = "resolve home directory for configuration: %w"
	errorCreateConfigDirectory   = "create configuration directory %s: %w"
	errorUnsupportedInitTarget   = "unsupported init target %q"
	errorConfigurationExists     = "configuration file already exists at %s"
	errorInspectConfiguration    = "inspect configuration path %s: %w"
	errorEncodeDefaults          = "encode default configuration: %w"
	errorWriteConfiguration      = "write configuration to %s: %w"
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
	HomeDirectory    string
}

// DefaultConfigurationContent returns the YAML form of the built-in defaults.
func DefaultConfigurationContent() ([]byte, error) {
	encoded, encodeError := yaml.Marshal(DefaultRenderSettings())
	if encodeError != nil {
		return nil, fmt.Errorf(errorEncodeDefaults, encodeError)
	}
	return encoded, nil
}

// InitializeConfiguration writes the default configuration to the requested target.
func InitializeConfiguration(fileSystem afero.Fs, options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			currentDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return "", fmt.Errorf(errorWorkingDirectoryForInit, workingDirectoryError)
			}
			workingDirectory = currentDirectory
		}
		destinationPath = filepath.Join(workingDirectory, utils.ConfigFileName)
	case InitTargetGlobal:
		homeDirectory := options.HomeDirectory
		if homeDirectory == "" {
			userHome, homeError := os.UserHomeDir()
			if homeError != nil {
				return "", fmt.Errorf(errorHomeDirectoryForInit, homeError)
			}
			homeDirectory = userHome
		}
		destinationPath = GlobalConfigurationPath(homeDirectory)
		configurationDirectory := filepath.Dir(destinationPath)
		if mkdirError := fileSystem.MkdirAll(configurationDirectory, configurationDirectoryPermissions); mkdirError != nil {
			return "", fmt.Errorf(errorCreateConfigDirectory, configurationDirectory, mkdirError)
		}
	default:
		return "", fmt.Errorf(errorUnsupportedInitTarget, target)
	}

	if _, statError := fileSystem.Stat(destinationPath); statError == nil {
		if !options.Force {
			return "", fmt.Errorf(errorConfigurationExists, destinationPath)
		}
	} else if !errors.Is(statError, fs.ErrNotExist) {
		return "", fmt.Errorf(errorInspectConfiguration, destinationPath, statError)
	}

	content, encodeError := DefaultConfigurationContent()
	if encodeError != nil {
		return "", encodeError
	}
	if writeError := afero.WriteFile(fileSystem, destinationPath, content, configurationFilePermissions); writeError != nil {
		return "", fmt.Errorf(errorWriteConfiguration, destinationPath, writeError)
	}
	return destinationPath, nil
}
