// Package config loads render settings from configuration files and editor
// workspace settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repotree/internal/ignore"
	"github.com/temirov/repotree/internal/tree"
	"github.com/temirov/repotree/internal/utils"
)

const (
	errorDetermineWorkingDirectory = "determine working directory: %w"
	errorResolveConfigurationPath  = "resolve configuration path %s: %w"
	errorStatConfiguration         = "stat configuration %s: %w"
	errorConfigurationIsDirectory  = "configuration path %s is a directory"
	errorReadConfiguration         = "read configuration from %s: %w"
	errorDecodeConfiguration       = "decode configuration from %s: %w"
	errorDecodeExcludeMap          = "decode exclude patterns from %s: %w"
	errorInvalidConfiguration      = "invalid configuration %s: %w"
	validationFailureFormat        = "field '%s' fails rule '%s' (value: '%v')"
	validationFailureSeparator     = "; "
)

// LoadOptions controls how configuration files are discovered.
type LoadOptions struct {
	WorkingDirectory string
	// ExplicitFilePath replaces the local configuration file when set.
	ExplicitFilePath string
	// HomeDirectory overrides the user home used to find the global file.
	HomeDirectory string
}

// RenderSettings holds the render options. Nil fields are unset so layers
// can be merged; DefaultRenderSettings fills every field.
type RenderSettings struct {
	AddComments                     *bool           `mapstructure:"add_comments" yaml:"add_comments"`
	CommentSymbol                   *string         `mapstructure:"comment_symbol" yaml:"comment_symbol" validate:"omitempty,max=16"`
	CommentDistance                 *int            `mapstructure:"comment_distance" yaml:"comment_distance" validate:"omitempty,lte=256"`
	TreeDistance                    *int            `mapstructure:"tree_distance" yaml:"tree_distance" validate:"omitempty,lte=256"`
	Exclude                         map[string]bool `mapstructure:"-" yaml:"exclude"`
	RespectWorkspaceExcludeSettings *bool           `mapstructure:"respect_workspace_exclude_settings" yaml:"respect_workspace_exclude_settings"`
	RespectGitignore                *bool           `mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
}

// excludeDocument decodes only the exclude map. Pattern keys are
// case-sensitive and viper folds key case.
type excludeDocument struct {
	Exclude map[string]bool `yaml:"exclude"`
}

var settingsValidator = validator.New()

// DefaultRenderSettings returns the built-in defaults.
func DefaultRenderSettings() RenderSettings {
	defaults := tree.DefaultOptions()
	return RenderSettings{
		AddComments:                     boolPointer(defaults.AddComments),
		CommentSymbol:                   stringPointer(defaults.CommentSymbol),
		CommentDistance:                 intPointer(defaults.CommentDistance),
		TreeDistance:                    intPointer(defaults.TreeDistance),
		Exclude:                         map[string]bool{},
		RespectWorkspaceExcludeSettings: boolPointer(true),
		RespectGitignore:                boolPointer(false),
	}
}

// Loader reads configuration layers from a filesystem.
type Loader struct {
	fileSystem afero.Fs
}

// NewLoader constructs a Loader over fileSystem.
func NewLoader(fileSystem afero.Fs) *Loader {
	return &Loader{fileSystem: fileSystem}
}

// Load merges defaults, the global file and the local (or explicit) file,
// in increasing precedence.
func (loader *Loader) Load(options LoadOptions) (RenderSettings, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return RenderSettings{}, fmt.Errorf(errorDetermineWorkingDirectory, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	merged := DefaultRenderSettings()

	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if userHome, homeError := os.UserHomeDir(); homeError == nil {
			homeDirectory = userHome
		}
	}
	if homeDirectory != "" {
		globalSettings, loadError := loader.loadFromPath(GlobalConfigurationPath(homeDirectory))
		if loadError != nil {
			return RenderSettings{}, loadError
		}
		merged = merged.Merge(globalSettings)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return RenderSettings{}, resolveError
	}
	localSettings, loadError := loader.loadFromPath(localPath)
	if loadError != nil {
		return RenderSettings{}, loadError
	}
	return merged.Merge(localSettings), nil
}

// GlobalConfigurationPath returns the global configuration file under homeDirectory.
func GlobalConfigurationPath(homeDirectory string) string {
	return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName), nil
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath, nil
	}
	if workingDirectory == "" {
		absolutePath, absoluteError := filepath.Abs(explicitPath)
		if absoluteError != nil {
			return "", fmt.Errorf(errorResolveConfigurationPath, explicitPath, absoluteError)
		}
		return absolutePath, nil
	}
	return filepath.Join(workingDirectory, explicitPath), nil
}

func (loader *Loader) loadFromPath(configurationPath string) (RenderSettings, error) {
	fileInfo, statError := loader.fileSystem.Stat(configurationPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return RenderSettings{}, nil
		}
		return RenderSettings{}, fmt.Errorf(errorStatConfiguration, configurationPath, statError)
	}
	if fileInfo.IsDir() {
		return RenderSettings{}, fmt.Errorf(errorConfigurationIsDirectory, configurationPath)
	}

	reader := viper.New()
	reader.SetFs(loader.fileSystem)
	reader.SetConfigFile(configurationPath)
	reader.SetConfigType("yaml")
	if readError := reader.ReadInConfig(); readError != nil {
		return RenderSettings{}, fmt.Errorf(errorReadConfiguration, configurationPath, readError)
	}
	var settings RenderSettings
	if decodeError := reader.Unmarshal(&settings); decodeError != nil {
		return RenderSettings{}, fmt.Errorf(errorDecodeConfiguration, configurationPath, decodeError)
	}

	content, readError := afero.ReadFile(loader.fileSystem, configurationPath)
	if readError != nil {
		return RenderSettings{}, fmt.Errorf(errorReadConfiguration, configurationPath, readError)
	}
	var excludes excludeDocument
	if decodeError := yaml.Unmarshal(content, &excludes); decodeError != nil {
		return RenderSettings{}, fmt.Errorf(errorDecodeExcludeMap, configurationPath, decodeError)
	}
	settings.Exclude = excludes.Exclude

	if validationError := settings.Validate(); validationError != nil {
		return RenderSettings{}, fmt.Errorf(errorInvalidConfiguration, configurationPath, validationError)
	}
	return settings, nil
}

// Validate checks the upper bounds of the settings. Values under the
// minimums are clamped later rather than rejected.
func (settings RenderSettings) Validate() error {
	validationError := settingsValidator.Struct(settings)
	if validationError == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(validationError, &validationErrors) {
		return validationError
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, fmt.Sprintf(validationFailureFormat, fieldError.Field(), fieldError.Tag(), fieldError.Value()))
	}
	return errors.New(strings.Join(messages, validationFailureSeparator))
}

// Merge overlays override onto the receiver. Exclude maps are combined
// key by key so a later layer can disable an earlier pattern.
func (settings RenderSettings) Merge(override RenderSettings) RenderSettings {
	result := settings
	if override.AddComments != nil {
		result.AddComments = boolPointer(*override.AddComments)
	}
	if override.CommentSymbol != nil {
		result.CommentSymbol = stringPointer(*override.CommentSymbol)
	}
	if override.CommentDistance != nil {
		result.CommentDistance = intPointer(*override.CommentDistance)
	}
	if override.TreeDistance != nil {
		result.TreeDistance = intPointer(*override.TreeDistance)
	}
	if override.RespectWorkspaceExcludeSettings != nil {
		result.RespectWorkspaceExcludeSettings = boolPointer(*override.RespectWorkspaceExcludeSettings)
	}
	if override.RespectGitignore != nil {
		result.RespectGitignore = boolPointer(*override.RespectGitignore)
	}
	if len(override.Exclude) > 0 {
		combined := make(map[string]bool, len(settings.Exclude)+len(override.Exclude))
		for pattern, enabled := range settings.Exclude {
			combined[pattern] = enabled
		}
		for pattern, enabled := range override.Exclude {
			combined[pattern] = enabled
		}
		result.Exclude = combined
	}
	return result
}

// TreeOptions converts the settings into normalized formatter options.
// Unset fields take their defaults.
func (settings RenderSettings) TreeOptions() tree.Options {
	resolved := DefaultRenderSettings().Merge(settings)
	return tree.Options{
		AddComments:     *resolved.AddComments,
		CommentSymbol:   *resolved.CommentSymbol,
		CommentDistance: *resolved.CommentDistance,
		TreeDistance:    *resolved.TreeDistance,
	}.Normalized()
}

// EvaluatorOptions converts the settings into exclusion options using
// workspaceExcludes as the workspace pattern source.
func (settings RenderSettings) EvaluatorOptions(workspaceExcludes map[string]bool) ignore.EvaluatorOptions {
	resolved := DefaultRenderSettings().Merge(settings)
	return ignore.EvaluatorOptions{
		CustomExcludes:                  resolved.Exclude,
		WorkspaceExcludes:               workspaceExcludes,
		RespectWorkspaceExcludeSettings: *resolved.RespectWorkspaceExcludeSettings,
		RespectGitignore:                *resolved.RespectGitignore,
	}
}

func boolPointer(value bool) *bool {
	return &value
}

func stringPointer(value string) *string {
	return &value
}

func intPointer(value int) *int {
	return &value
}
