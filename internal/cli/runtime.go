package cli

import (
	"bufio"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/app"
	"github.com/temirov/kiwixctl/internal/catalog"
	"github.com/temirov/kiwixctl/internal/config"
	"github.com/temirov/kiwixctl/internal/dispatch"
	"github.com/temirov/kiwixctl/internal/picker"
	"github.com/temirov/kiwixctl/internal/point"
	"github.com/temirov/kiwixctl/internal/server"
	"github.com/temirov/kiwixctl/internal/services/clipboard"
	"github.com/temirov/kiwixctl/internal/suggest"
	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const clipboardUnsupportedMessage = "no clipboard utility found; install xclip, xsel or wl-clipboard"

// runtimeStreams are the standard streams a command exposes to the components.
type runtimeStreams struct {
	input  io.Reader
	output io.Writer
	errors io.Writer
}

func commandStreams(command *cobra.Command) runtimeStreams {
	return runtimeStreams{
		input:  command.InOrStdin(),
		output: command.OutOrStdout(),
		errors: command.ErrOrStderr(),
	}
}

// runtime is the fully wired application for one command invocation.
type runtime struct {
	settings    config.Settings
	logger      *zap.Logger
	application *app.App
	clipboard   *clipboard.Service
}

// runtimeOptions adjust the wiring for a single command.
type runtimeOptions struct {
	// pointArguments forces the argument point source when non-empty.
	pointArguments []string
}

// newRuntime resolves settings and wires every component the App coordinates.
func newRuntime(command *cobra.Command, options *globalOptions, extra runtimeOptions) (*runtime, error) {
	settings, settingsErr := options.resolveSettings()
	if settingsErr != nil {
		return nil, fmt.Errorf("load configuration: %w", settingsErr)
	}
	logger, loggerErr := utils.NewApplicationLogger(utils.LoggerOptions{LogFile: settings.LogFile, Debug: options.debug})
	if loggerErr != nil {
		return nil, fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerErr)
	}
	application, clipboardService, wireErr := wireApplication(settings, commandStreams(command), extra, logger)
	if wireErr != nil {
		_ = logger.Sync()
		return nil, wireErr
	}
	return &runtime{settings: settings, logger: logger, application: application, clipboard: clipboardService}, nil
}

// close flushes buffered log entries.
func (environment *runtime) close() {
	_ = environment.logger.Sync()
}

func wireApplication(settings config.Settings, streams runtimeStreams, extra runtimeOptions, logger *zap.Logger) (*app.App, *clipboard.Service, error) {
	logger = utils.LoggerOrNop(logger)
	requestClient := &http.Client{Timeout: settings.RequestTimeout}
	clipboardService := clipboard.NewService()

	manager := server.NewManager(
		server.Options{
			Topology:         settings.Topology,
			Endpoint:         settings.Endpoint,
			LibraryDirectory: settings.LibraryDirectory,
			ContainerRuntime: settings.ContainerRuntime,
			ContainerImage:   settings.ContainerImage,
			ServerExecutable: settings.ServerExecutable,
			PingTimeout:      settings.PingTimeout,
		},
		nil,
		server.NewHandleStore(settings.StateDirectory),
		&http.Client{},
		logger,
	)
	catalogClient := catalog.NewClient(
		catalog.Options{
			Strategy:         settings.Strategy,
			Endpoint:         settings.Endpoint,
			LibraryDirectory: settings.LibraryDirectory,
			FetchThumbnails:  settings.FetchThumbnails,
		},
		requestClient,
		logger,
	)
	suggestClient := suggest.NewClient(settings.Endpoint, manager, requestClient, logger)

	opener, openerErr := dispatch.NewOpener(dispatch.OpenerOptions{
		Kind:           settings.Browser,
		BrowserCommand: settings.BrowserCommand,
		Output:         streams.output,
		Clipboard:      clipboardService,
	})
	if openerErr != nil {
		return nil, nil, openerErr
	}
	dispatcher := dispatch.NewDispatcher(settings.Strategy, settings.Endpoint, opener, logger)

	lines := bufio.NewReader(streams.input)
	selector := picker.New(settings.Completion, picker.Options{
		Input:  streams.input,
		Lines:  lines,
		Output: streams.errors,
		Logger: logger,
	})

	pointSource := settings.PointSource
	if len(extra.pointArguments) > 0 {
		pointSource = types.PointArguments
	}
	if clipboard.Unsupported() && (pointSource == types.PointClipboard || settings.Browser == types.BrowserClipboard) {
		logger.Warn(clipboardUnsupportedMessage)
	}
	provider := point.NewProvider(pointSource, point.Options{
		Clipboard: clipboardService,
		Input:     lines,
		Arguments: extra.pointArguments,
	})

	application := app.New(app.Dependencies{
		Server:     manager,
		Catalog:    catalogClient,
		Suggester:  suggestClient,
		Dispatcher: dispatcher,
		Picker:     selector,
		Point:      provider,
		Logger:     logger,
	})
	return application, clipboardService, nil
}
