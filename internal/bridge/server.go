// Package bridge exposes kiwixctl operations to editors over a local HTTP API.
//
// Editors discover commands with GET /capabilities and run one with
// POST /commands/{name}, sending a Request as the JSON body. Successful calls
// answer {"result": ...}; failures answer {"error": "...", "status": N}.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	defaultListenAddress   = "127.0.0.1:0"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	maxRequestBytes        = 1 << 20

	capabilitiesRoute    = "GET /capabilities"
	commandRoute         = "POST /commands/{name}"
	commandNameParameter = "name"

	headerContentType = "Content-Type"
	mimeTypeJSON      = "application/json"

	listeningMessage     = "editor bridge listening"
	commandFailedMessage = "bridge command failed"
)

// ErrUnknownCommand is returned for a command name no Command was registered under.
var ErrUnknownCommand = errors.New("command not found")

// Request is the body an editor posts. Fields a command does not use are ignored.
type Request struct {
	Archive string `json:"archive"`
	Query   string `json:"query"`
	Term    string `json:"term"`
}

// ArchiveID returns the trimmed archive field.
func (request Request) ArchiveID() types.ArchiveID {
	return types.ArchiveID(strings.TrimSpace(request.Archive))
}

// Handler runs one command and returns the value placed under "result".
type Handler func(ctx context.Context, request Request) (any, error)

// Command binds a name and a description to its Handler.
type Command struct {
	Name        string
	Description string
	Handle      Handler
}

// Capability is the public description of a Command.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type resultEnvelope struct {
	Result any `json:"result"`
}

type errorEnvelope struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type capabilitiesEnvelope struct {
	Capabilities []Capability `json:"capabilities"`
}

// StatusError pins a failure to an HTTP status.
type StatusError struct {
	Status int
	Err    error
}

func (statusError StatusError) Error() string {
	return statusError.Err.Error()
}

func (statusError StatusError) Unwrap() error {
	return statusError.Err
}

// WithStatus wraps err so the bridge answers with status. A nil err stays nil.
func WithStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	return StatusError{Status: status, Err: err}
}

// StatusCode maps a command failure onto an HTTP status.
func StatusCode(err error) int {
	var statusError StatusError
	switch {
	case errors.As(err, &statusError):
		return statusError.Status
	case errors.Is(err, ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrServerUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Config defines the bridge listener and its commands.
type Config struct {
	Address         string
	Commands        []Command
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server routes editor requests to Commands. Commands run one at a time:
// they share the application's availability Session.
type Server struct {
	address         string
	shutdownTimeout time.Duration
	capabilities    []Capability
	commands        map[string]Handler
	logger          *zap.Logger
	running         sync.Mutex
}

// NewServer registers config.Commands in order. A later Command replaces an earlier one of the same name.
func NewServer(config Config) *Server {
	server := &Server{
		address:         config.Address,
		shutdownTimeout: config.ShutdownTimeout,
		capabilities:    []Capability{},
		commands:        map[string]Handler{},
		logger:          utils.LoggerOrNop(config.Logger),
	}
	if server.address == "" {
		server.address = defaultListenAddress
	}
	if server.shutdownTimeout <= 0 {
		server.shutdownTimeout = defaultShutdownTimeout
	}
	for _, command := range config.Commands {
		if command.Handle == nil {
			continue
		}
		if _, registered := server.commands[command.Name]; !registered {
			server.capabilities = append(server.capabilities, Capability{Name: command.Name, Description: command.Description})
		}
		server.commands[command.Name] = command.Handle
	}
	return server
}

// Capabilities lists the registered commands in registration order.
func (server *Server) Capabilities() []Capability {
	return append([]Capability(nil), server.capabilities...)
}

// Execute runs the named command while holding the server-wide command lock.
func (server *Server) Execute(ctx context.Context, name string, request Request) (any, error) {
	handle, found := server.commands[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	server.running.Lock()
	defer server.running.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return handle(ctx, request)
}

// Handler returns the HTTP routes of the bridge.
func (server *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(capabilitiesRoute, func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, capabilitiesEnvelope{Capabilities: server.capabilities})
	})
	router.HandleFunc(commandRoute, server.serveCommand)
	return router
}

func (server *Server) serveCommand(writer http.ResponseWriter, httpRequest *http.Request) {
	name := httpRequest.PathValue(commandNameParameter)
	request, decodeErr := decodeRequest(httpRequest.Body)
	if decodeErr != nil {
		server.fail(writer, name, WithStatus(http.StatusBadRequest, decodeErr))
		return
	}
	result, err := server.Execute(httpRequest.Context(), name, request)
	if err != nil {
		server.fail(writer, name, err)
		return
	}
	writeJSON(writer, http.StatusOK, resultEnvelope{Result: result})
}

func (server *Server) fail(writer http.ResponseWriter, name string, err error) {
	status := StatusCode(err)
	server.logger.Warn(commandFailedMessage,
		zap.String("command", name),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(writer, status, errorEnvelope{Error: err.Error(), Status: status})
}

// decodeRequest reads one JSON object. An empty body is the zero Request.
func decodeRequest(body io.Reader) (Request, error) {
	var request Request
	if body == nil {
		return request, nil
	}
	decoder := json.NewDecoder(io.LimitReader(body, maxRequestBytes))
	if err := decoder.Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, nil
		}
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return request, nil
}

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		encoded, _ = json.Marshal(errorEnvelope{Error: fmt.Sprintf("encode response: %v", err), Status: status})
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(status)
	_, _ = writer.Write(append(encoded, '\n'))
}

// Run serves the bridge until ctx is cancelled. notify receives the bound address once the listener is ready.
func (server *Server) Run(ctx context.Context, notify func(string)) error {
	listener, err := net.Listen("tcp", server.address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.address, err)
	}
	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: readHeaderTimeout}

	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		if serveErr := httpServer.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve bridge: %w", serveErr)
		}
		return nil
	})
	group.Go(func() error {
		<-groupContext.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), server.shutdownTimeout)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownContext); shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown bridge: %w", shutdownErr)
		}
		return nil
	})

	boundAddress := listener.Addr().String()
	server.logger.Info(listeningMessage, zap.String("address", boundAddress))
	if notify != nil {
		notify(boundAddress)
	}
	return group.Wait()
}
