package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/kiwixctl/internal/types"
)

const (
	launchUse              = types.CommandLaunch
	stopUse                = types.CommandStop
	pingUse                = types.CommandPing
	launchShortDescription = "start the content server for the configured topology"
	stopShortDescription   = "stop a native server started by launch"
	pingShortDescription   = "report whether the content server answers"
	launchLongDescription  = `Start kiwix-serve for the configured topology.
With --topology docker the configured container runtime runs the image in the background.
With --topology native the kiwix-serve binary is started and its process id is remembered for stop.
A remote topology needs no local server and launch does nothing.`
	launchUsageExample = `  # Serve ~/zim through docker on port 8080
  kiwixctl launch --topology docker --library-dir ~/zim

  # Use podman instead of docker
  KIWIXCTL_CONTAINER_RUNTIME=podman kiwixctl launch --topology docker`
	pingReachableMessage   = "reachable"
	pingUnreachableMessage = "unreachable"
	pingOutputFormat       = "%s %s\n"
)

func createLaunchCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     launchUse,
		Short:   launchShortDescription,
		Long:    launchLongDescription,
		Example: launchUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			return environment.application.LaunchServer(command.Context())
		},
	}
}

func createStopCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   stopUse,
		Short: stopShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			return environment.application.StopServer(command.Context())
		},
	}
}

func createPingCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   pingUse,
		Short: pingShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			status := pingUnreachableMessage
			if environment.application.Ping(command.Context()) {
				status = pingReachableMessage
			}
			fmt.Fprintf(command.OutOrStdout(), pingOutputFormat, environment.settings.Endpoint.Root(), status)
			return nil
		},
	}
}
