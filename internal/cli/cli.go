// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotree/internal/services/clipboard"
	"github.com/temirov/repotree/internal/utils"
)

const (
	versionFlagName      = "version"
	verboseFlagName      = "verbose"
	versionTemplate      = "repotree version: %s\n"
	rootUse              = "repotree"
	rootShortDescription = "repotree renders annotated project trees"
	rootLongDescription  = `repotree draws the directory structure of a project with box-drawing guides.
Entries can carry aligned "// Directory" and "// File" annotations, and exclusions come
from custom patterns, editor workspace settings, .gitignore and the built-in node_modules rule.
Use --version to print the application version.`
	versionFlagDescription = "display application version"
	verboseFlagDescription = "log every exclusion decision to stderr"
	errorWorkingDirectory  = "unable to determine working directory: %w"
)

// Dependencies are the collaborators used by the commands.
type Dependencies struct {
	FileSystem       afero.Fs
	Stdout           io.Writer
	Stderr           io.Writer
	Copier           clipboard.Copier
	Logger           *zap.Logger
	IsTerminal       func() bool
	WorkingDirectory string
	// HomeDirectory locates the global configuration; empty uses the user home.
	HomeDirectory string
}

// Execute runs the repotree application.
func Execute(logger *zap.Logger) error {
	dependencies := Dependencies{
		FileSystem: afero.NewOsFs(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Copier:     clipboard.NewService(),
		Logger:     logger,
		IsTerminal: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
	}
	rootCommand := NewRootCommand(&dependencies)
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// NewRootCommand builds the root Cobra command over dependencies.
func NewRootCommand(dependencies *Dependencies) *cobra.Command {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.IsTerminal == nil {
		dependencies.IsTerminal = func() bool { return false }
	}
	var showVersion bool
	var verbose bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(dependencies.Stdout, versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			if verbose {
				verboseLogger, loggerError := utils.NewApplicationLogger(true)
				if loggerError != nil {
					return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
				}
				dependencies.Logger = verboseLogger
			}
			if dependencies.WorkingDirectory == "" {
				workingDirectory, workingDirectoryError := os.Getwd()
				if workingDirectoryError != nil {
					return fmt.Errorf(errorWorkingDirectory, workingDirectoryError)
				}
				dependencies.WorkingDirectory = workingDirectory
			}
			return nil
		},
	}
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.AddCommand(
		newTreeCommand(dependencies),
		newInitCommand(dependencies),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}
