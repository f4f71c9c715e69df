package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotree/internal/config"
	"github.com/temirov/repotree/internal/types"
)

const (
	initUse              = types.CommandInit
	initShortDescription = "write the default configuration file"
	initLongDescription  = `Write the default configuration to ./.repotree.yaml, or to
~/.repotree/config.yaml with --global. Existing files are kept unless --force is given.`
	globalFlagName        = "global"
	forceFlagName         = "force"
	globalFlagDescription = "write the global configuration instead of the local one"
	forceFlagDescription  = "overwrite an existing configuration file"
	initSuccessTemplate   = "configuration written to %s\n"
	logInitializedConfig  = "configuration initialized"
)

func newInitCommand(dependencies *Dependencies) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(dependencies.FileSystem, config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: dependencies.WorkingDirectory,
				HomeDirectory:    dependencies.HomeDirectory,
			})
			if initError != nil {
				return initError
			}
			dependencies.Logger.Debug(logInitializedConfig, zap.String("path", writtenPath), zap.String("target", string(target)))
			_, writeError := fmt.Fprintf(dependencies.Stdout, initSuccessTemplate, writtenPath)
			return writeError
		},
	}
	registerToggles(initCommand.Flags(),
		toggleDefinition{name: globalFlagName, target: &global, usage: globalFlagDescription},
		toggleDefinition{name: forceFlagName, target: &force, usage: forceFlagDescription},
	)
	return initCommand
}
