// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temirov/kiwixctl/internal/config"
	"github.com/temirov/kiwixctl/internal/picker"
	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	configFlagName           = "config"
	topologyFlagName         = "topology"
	baseURLFlagName          = "base-url"
	portFlagName             = "port"
	apiVersionFlagName       = "api-version"
	libraryDirectoryFlagName = "library-dir"
	browserFlagName          = "browser"
	completionFlagName       = "completion"
	debugFlagName            = "debug"
	versionFlagName          = "version"
	versionTemplate          = "kiwixctl version: %s\n"
	rootUse                  = "kiwixctl"
	rootShortDescription     = "search offline Kiwix archives from the command line and editors"
	rootLongDescription      = `kiwixctl searches ZIM archives served by kiwix-serve.
It lists the archives a server offers, completes search terms from the server's suggestion API,
and opens articles or search results in the browser of your choice. A local server can be
started and stopped through docker or a native kiwix-serve binary.
Settings come from ~/.kiwixctl/config.yaml, ./.kiwixctl.yaml, KIWIXCTL_* variables and flags, in that order.`

	configFlagDescription           = "path to a configuration file replacing ./.kiwixctl.yaml"
	topologyFlagDescription         = "server topology: remote, docker or native"
	baseURLFlagDescription          = "scheme and host of the content server"
	portFlagDescription             = "port of the content server"
	apiVersionFlagDescription       = "server API generation: v1 or v2"
	libraryDirectoryFlagDescription = "directory holding ZIM files and library.xml"
	browserFlagDescription          = "how results are opened: system, command, print or clipboard"
	completionFlagDescription       = "picker front-end: interactive, prompt or fallback"
	debugFlagDescription            = "enable debug logging"
	versionFlagDescription          = "display application version"
)

// Execute runs the kiwixctl application.
func Execute() error {
	rootCommand := createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCommand.ExecuteContext(signalContext)
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath       string
	topology         string
	baseURL          string
	port             int
	apiVersion       string
	libraryDirectory string
	browser          string
	completion       string
	debug            bool
}

// overrides converts explicitly set flags into a configuration layer.
func (options globalOptions) overrides() config.ApplicationConfiguration {
	return config.ApplicationConfiguration{
		Topology:         options.topology,
		BaseURL:          options.baseURL,
		Port:             options.port,
		APIVersion:       options.apiVersion,
		LibraryDirectory: options.libraryDirectory,
		Browser:          options.browser,
		Completion:       options.completion,
	}
}

// resolveSettings loads the configuration layers and applies the flag overrides on top.
func (options globalOptions) resolveSettings() (config.Settings, error) {
	loaded, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: options.configPath})
	if loadErr != nil {
		return config.Settings{}, loadErr
	}
	return loaded.Merge(options.overrides()).Resolve()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool
	options := &globalOptions{}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	persistentFlags.StringVar(&options.topology, topologyFlagName, "", topologyFlagDescription)
	persistentFlags.StringVar(&options.baseURL, baseURLFlagName, "", baseURLFlagDescription)
	persistentFlags.IntVar(&options.port, portFlagName, 0, portFlagDescription)
	persistentFlags.StringVar(&options.apiVersion, apiVersionFlagName, "", apiVersionFlagDescription)
	persistentFlags.StringVar(&options.libraryDirectory, libraryDirectoryFlagName, "", libraryDirectoryFlagDescription)
	persistentFlags.StringVar(&options.browser, browserFlagName, "", browserFlagDescription)
	persistentFlags.StringVar(&options.completion, completionFlagName, "", completionFlagDescription)
	registerBooleanFlag(persistentFlags, &options.debug, debugFlagName, false, debugFlagDescription)
	registerBooleanFlag(persistentFlags, &showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(
		createLaunchCommand(options),
		createStopCommand(options),
		createPingCommand(options),
		createListCommand(options),
		createSearchCommand(options),
		createSearchAllCommand(options),
		createAtPointCommand(options),
		createSuggestCommand(options),
		createURLCommand(options),
		createServeCommand(options),
		createConfigCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// advisory turns user-level outcomes into warnings: a dismissed picker ends quietly,
// and an empty query or an unreachable server is reported without failing the process.
func advisory(output io.Writer, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, picker.ErrCancelled):
		return nil
	case errors.Is(err, types.ErrInvalidQuery), errors.Is(err, types.ErrServerUnavailable):
		fmt.Fprintf(output, utils.WarningLogFormat+"\n", err)
		return nil
	default:
		return err
	}
}
