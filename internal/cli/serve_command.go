package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/bridge"
	"github.com/temirov/kiwixctl/internal/types"
)

const (
	serveUse              = types.CommandServe
	serveShortDescription = "expose kiwixctl to editors over a local HTTP bridge"
	serveLongDescription  = `Start a local HTTP bridge for editor integrations.
GET /capabilities lists the commands and POST /commands/<name> runs one with a JSON body
such as {"archive": "wikipedia_en_all_maxi", "query": "Linux kernel"}.
The bound address is printed once the listener is ready.`
	addressFlagName          = "address"
	addressFlagDescription   = "listen address of the bridge"
	defaultBridgeAddress     = "127.0.0.1:0"
	bridgeListeningMessage   = "kiwixctl bridge listening on "
	bridgeListeningLogFormat = "%s%s\n"
)

func createServeCommand(options *globalOptions) *cobra.Command {
	listenAddress := defaultBridgeAddress

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			return startBridgeServer(command.Context(), environment.application, listenAddress, command.OutOrStdout(), environment.logger)
		},
	}
	serveCommand.Flags().StringVar(&listenAddress, addressFlagName, defaultBridgeAddress, addressFlagDescription)
	return serveCommand
}

// startBridgeServer runs the bridge until ctx is cancelled and reports the bound address on output.
func startBridgeServer(ctx context.Context, operations bridgeOperations, address string, output io.Writer, logger *zap.Logger) error {
	server := bridge.NewServer(bridge.Config{
		Address:  address,
		Commands: bridgeCommands(operations),
		Logger:   logger,
	})
	return server.Run(ctx, func(boundAddress string) {
		fmt.Fprintf(output, bridgeListeningLogFormat, bridgeListeningMessage, boundAddress)
	})
}
