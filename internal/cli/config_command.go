package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/kiwixctl/internal/config"
	"github.com/temirov/kiwixctl/internal/types"
)

const (
	configUse                  = "config"
	configInitUse              = types.CommandConfigInit
	configShortDescription     = "manage kiwixctl configuration files"
	configInitShortDescription = "write the default configuration"
	configInitLongDescription  = `Write the default configuration to ./.kiwixctl.yaml,
or to ~/.kiwixctl/config.yaml with --global. Existing files are kept unless --force is given.`
	globalFlagName             = "global"
	globalFlagDescription      = "write the global configuration instead of the local one"
	forceFlagName              = "force"
	forceFlagDescription       = "overwrite an existing configuration file"
	configWrittenMessageFormat = "configuration written to %s\n"
)

func createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	configCommand.AddCommand(createConfigInitCommand())
	return configCommand
}

func createConfigInitCommand() *cobra.Command {
	var globalTarget bool
	var force bool

	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShortDescription,
		Long:  configInitLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			destination, err := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if err != nil {
				return err
			}
			fmt.Fprintf(command.OutOrStdout(), configWrittenMessageFormat, destination)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalTarget, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
