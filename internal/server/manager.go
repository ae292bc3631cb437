// Package server starts, stops and probes the content server for each topology.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	defaultPingTimeout   = 2 * time.Second
	containerDataMount   = "/data"
	containerServerPort  = 80
	containerLibraryFile = containerDataMount + "/" + types.LibraryFileName

	remoteLaunchMessage    = "remote topology: the content server is managed externally"
	containerLaunchMessage = "content server container started"
	nativeLaunchMessage    = "content server process started"
	stopSkippedMessage     = "no local server process to stop"
	stopMessage            = "content server process stopped"
	corruptHandleMessage   = "discarding unreadable server handle"
	staleHandleMessage     = "recorded process is no longer the content server, discarding its handle"
	pingFailedMessage      = "content server unreachable"
	pullStartedMessage     = "pulling content server image"
	pullFailedMessage      = "image pull could not be started"
)

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Options describe the server the Manager controls.
type Options struct {
	Topology         types.Topology
	Endpoint         types.Endpoint
	LibraryDirectory string
	ContainerRuntime string
	ContainerImage   string
	ServerExecutable string
	PingTimeout      time.Duration
}

// Manager launches, stops and probes the content server.
type Manager struct {
	options  Options
	spawner  Spawner
	handles  *HandleStore
	client   httpClient
	logger   *zap.Logger
	pullOnce sync.Once
}

// NewManager wires a Manager. A nil spawner uses os/exec and a nil client uses http.DefaultClient.
func NewManager(options Options, spawner Spawner, handles *HandleStore, client httpClient, logger *zap.Logger) *Manager {
	if spawner == nil {
		spawner = NewExecSpawner()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if options.PingTimeout <= 0 {
		options.PingTimeout = defaultPingTimeout
	}
	return &Manager{
		options: options,
		spawner: spawner,
		handles: handles,
		client:  client,
		logger:  utils.LoggerOrNop(logger),
	}
}

// Launch starts the server for the configured topology without waiting for it to accept requests.
func (manager *Manager) Launch(ctx context.Context) error {
	switch manager.options.Topology {
	case types.TopologyDocker:
		return manager.launchContainer(ctx)
	case types.TopologyNative:
		return manager.launchNative(ctx)
	default:
		manager.logger.Info(remoteLaunchMessage, zap.String("endpoint", manager.options.Endpoint.Origin()))
		return nil
	}
}

func (manager *Manager) launchContainer(ctx context.Context) error {
	arguments := ContainerRunArguments(manager.options)
	process, err := manager.spawner.Start(ctx, manager.options.ContainerRuntime, arguments...)
	if err != nil {
		return err
	}
	if releaseErr := process.Release(); releaseErr != nil {
		manager.logger.Debug("release container runtime process", zap.Error(releaseErr))
	}
	manager.logger.Info(containerLaunchMessage,
		zap.String("image", manager.options.ContainerImage),
		zap.Int("port", manager.options.Endpoint.Port),
	)
	return nil
}

func (manager *Manager) launchNative(ctx context.Context) error {
	arguments := NativeArguments(manager.options)
	process, err := manager.spawner.Start(ctx, manager.options.ServerExecutable, arguments...)
	if err != nil {
		return err
	}
	if manager.handles != nil {
		handle := Handle{PID: process.PID(), Executable: manager.options.ServerExecutable}
		if running, identifyErr := manager.spawner.Executable(process.PID()); identifyErr == nil {
			handle.Executable = running
		}
		if saveErr := manager.handles.Save(ctx, handle); saveErr != nil {
			return fmt.Errorf("record server process %d: %w", process.PID(), saveErr)
		}
	}
	if releaseErr := process.Release(); releaseErr != nil {
		manager.logger.Debug("release server process", zap.Error(releaseErr))
	}
	manager.logger.Info(nativeLaunchMessage,
		zap.Int("pid", process.PID()),
		zap.Int("port", manager.options.Endpoint.Port),
	)
	return nil
}

// Stop terminates the recorded native server process. Calling it when nothing runs is a no-op.
// A handle whose PID now belongs to another program is discarded without signalling it.
func (manager *Manager) Stop(ctx context.Context) error {
	if manager.options.Topology != types.TopologyNative || manager.handles == nil {
		manager.logger.Debug(stopSkippedMessage, zap.String("topology", string(manager.options.Topology)))
		return nil
	}
	handle, found, err := manager.handles.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCorruptHandle) {
			return err
		}
		manager.logger.Warn(corruptHandleMessage, zap.String("path", manager.handles.Path()), zap.Error(err))
		return manager.handles.Clear(ctx)
	}
	if !found {
		manager.logger.Debug(stopSkippedMessage, zap.String("topology", string(manager.options.Topology)))
		return nil
	}
	if manager.ownsProcess(handle) {
		if killErr := manager.kill(handle.PID); killErr != nil {
			return killErr
		}
		manager.logger.Info(stopMessage, zap.Int("pid", handle.PID))
	}
	return manager.handles.Clear(ctx)
}

// ownsProcess reports whether handle.PID still runs the executable recorded at launch.
func (manager *Manager) ownsProcess(handle Handle) bool {
	running, err := manager.spawner.Executable(handle.PID)
	if err != nil {
		if !processGone(err) {
			manager.logger.Warn(staleHandleMessage, zap.Int("pid", handle.PID), zap.Error(err))
		} else {
			manager.logger.Debug("server process already exited", zap.Int("pid", handle.PID))
		}
		return false
	}
	if !sameExecutable(handle.Executable, running) {
		manager.logger.Warn(staleHandleMessage,
			zap.Int("pid", handle.PID),
			zap.String("recorded", handle.Executable),
			zap.String("running", running),
		)
		return false
	}
	return true
}

func (manager *Manager) kill(pid int) error {
	process, err := manager.spawner.Find(pid)
	if err != nil {
		if !processGone(err) {
			manager.logger.Debug("server process not found", zap.Int("pid", pid), zap.Error(err))
		}
		return nil
	}
	if killErr := process.Kill(); killErr != nil && !processGone(killErr) {
		return fmt.Errorf("stop server process %d: %w", pid, killErr)
	}
	return nil
}

// Ping probes the server root and records the outcome in session.
// A failed probe under the container topology starts a one-time image pull in the background.
func (manager *Manager) Ping(ctx context.Context, session *types.Session) bool {
	reachable := manager.probe(ctx)
	if session != nil {
		session.SetAvailable(reachable)
	}
	if !reachable && manager.options.Topology == types.TopologyDocker {
		manager.pullOnce.Do(func() {
			manager.pullImage(ctx)
		})
	}
	return reachable
}

func (manager *Manager) probe(ctx context.Context) bool {
	pingContext, cancel := context.WithTimeout(ctx, manager.options.PingTimeout)
	defer cancel()

	target := manager.options.Endpoint.Root()
	request, err := http.NewRequestWithContext(pingContext, http.MethodGet, target, nil)
	if err != nil {
		manager.logger.Debug(pingFailedMessage, zap.String("url", target), zap.Error(err))
		return false
	}
	response, err := manager.client.Do(request)
	if err != nil {
		manager.logger.Debug(pingFailedMessage, zap.String("url", target), zap.Error(err))
		return false
	}
	defer response.Body.Close()
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusBadRequest {
		manager.logger.Debug(pingFailedMessage, zap.String("url", target), zap.Int("status", response.StatusCode))
		return false
	}
	return true
}

func (manager *Manager) pullImage(ctx context.Context) {
	process, err := manager.spawner.Start(ctx, manager.options.ContainerRuntime, "pull", manager.options.ContainerImage)
	if err != nil {
		manager.logger.Warn(pullFailedMessage, zap.String("image", manager.options.ContainerImage), zap.Error(err))
		return
	}
	_ = process.Release()
	manager.logger.Info(pullStartedMessage, zap.String("image", manager.options.ContainerImage))
}

// ContainerRunArguments returns the container runtime arguments that serve the library directory.
func ContainerRunArguments(options Options) []string {
	return []string{
		"run", "--rm", "-d",
		"-v", options.LibraryDirectory + ":" + containerDataMount + ":ro",
		"-p", strconv.Itoa(options.Endpoint.Port) + ":" + strconv.Itoa(containerServerPort),
		options.ContainerImage,
		"--library", containerLibraryFile,
	}
}

// NativeArguments returns the server executable arguments for the native topology.
func NativeArguments(options Options) []string {
	return []string{
		"--port", strconv.Itoa(options.Endpoint.Port),
		"--library", filepath.Join(options.LibraryDirectory, types.LibraryFileName),
	}
}
