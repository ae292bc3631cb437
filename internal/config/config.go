// Package config loads kiwixctl settings and resolves them into validated runtime values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	defaultTopology         = string(types.TopologyRemote)
	defaultBaseURL          = "http://localhost"
	defaultPort             = 8080
	defaultAPIVersion       = string(types.APIVersion2)
	defaultLibraryDirectory = "~/zim"
	defaultBrowser          = string(types.BrowserSystem)
	defaultCompletion       = string(types.CompletionInteractive)
	defaultContainerRuntime = "docker"
	defaultContainerImage   = "kiwix/kiwix-serve:latest"
	defaultServerExecutable = "kiwix-serve"
	defaultPingTimeout      = 2 * time.Second
	defaultRequestTimeout   = 10 * time.Second
	defaultPointSource      = string(types.PointClipboard)
	defaultStateDirectory   = "~/" + utils.GlobalConfigDirectoryName + "/" + utils.StateDirectoryName

	homePrefix = "~/"
)

// Settings are the validated values every component is built from.
type Settings struct {
	Topology         types.Topology
	APIVersion       types.APIVersion
	Strategy         types.Strategy
	Endpoint         types.Endpoint
	LibraryDirectory string
	Browser          types.BrowserKind
	BrowserCommand   string
	Completion       types.CompletionKind
	ContainerRuntime string
	ContainerImage   string
	ServerExecutable string
	PingTimeout      time.Duration
	RequestTimeout   time.Duration
	FetchThumbnails  bool
	PointSource      types.PointSource
	StateDirectory   string
	LogFile          string
}

// LibraryFilePath is the library descriptor handed to the server.
func (settings Settings) LibraryFilePath() string {
	return filepath.Join(settings.LibraryDirectory, types.LibraryFileName)
}

// DefaultConfiguration returns the built-in values used when nothing else is set.
func DefaultConfiguration() ApplicationConfiguration {
	fetchThumbnails := false
	return ApplicationConfiguration{
		Topology:         defaultTopology,
		BaseURL:          defaultBaseURL,
		Port:             defaultPort,
		APIVersion:       defaultAPIVersion,
		LibraryDirectory: defaultLibraryDirectory,
		Browser:          defaultBrowser,
		Completion:       defaultCompletion,
		ContainerRuntime: defaultContainerRuntime,
		ContainerImage:   defaultContainerImage,
		ServerExecutable: defaultServerExecutable,
		PingTimeout:      defaultPingTimeout,
		RequestTimeout:   defaultRequestTimeout,
		FetchThumbnails:  &fetchThumbnails,
		PointSource:      defaultPointSource,
		StateDirectory:   defaultStateDirectory,
	}
}

// Resolve validates the configuration and converts it into Settings.
func (config ApplicationConfiguration) Resolve() (Settings, error) {
	completed := DefaultConfiguration().Merge(config)

	topology, topologyErr := types.ParseTopology(completed.Topology)
	if topologyErr != nil {
		return Settings{}, topologyErr
	}
	apiVersion, versionErr := types.ParseAPIVersion(completed.APIVersion)
	if versionErr != nil {
		return Settings{}, versionErr
	}
	browser, browserErr := types.ParseBrowserKind(completed.Browser)
	if browserErr != nil {
		return Settings{}, browserErr
	}
	if browser == types.BrowserCommand && strings.TrimSpace(completed.BrowserCommand) == "" {
		return Settings{}, fmt.Errorf("browser %q requires %s", types.BrowserCommand, keyBrowserCommand)
	}
	completion, completionErr := types.ParseCompletionKind(completed.Completion)
	if completionErr != nil {
		return Settings{}, completionErr
	}
	pointSource, pointErr := types.ParsePointSource(completed.PointSource)
	if pointErr != nil {
		return Settings{}, pointErr
	}
	if completed.Port <= 0 || completed.Port > 65535 {
		return Settings{}, fmt.Errorf("port %d is out of range", completed.Port)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(completed.BaseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return Settings{}, fmt.Errorf("base url %q must start with http:// or https://", completed.BaseURL)
	}
	libraryDirectory, libraryErr := expandHome(completed.LibraryDirectory)
	if libraryErr != nil {
		return Settings{}, libraryErr
	}
	stateDirectory, stateErr := expandHome(completed.StateDirectory)
	if stateErr != nil {
		return Settings{}, stateErr
	}
	logFile, logErr := expandHome(completed.LogFile)
	if logErr != nil {
		return Settings{}, logErr
	}

	return Settings{
		Topology:         topology,
		APIVersion:       apiVersion,
		Strategy:         types.ResolveStrategy(topology, apiVersion),
		Endpoint:         types.Endpoint{BaseURL: baseURL, Port: completed.Port},
		LibraryDirectory: libraryDirectory,
		Browser:          browser,
		BrowserCommand:   strings.TrimSpace(completed.BrowserCommand),
		Completion:       completion,
		ContainerRuntime: completed.ContainerRuntime,
		ContainerImage:   completed.ContainerImage,
		ServerExecutable: completed.ServerExecutable,
		PingTimeout:      completed.PingTimeout,
		RequestTimeout:   completed.RequestTimeout,
		FetchThumbnails:  completed.FetchThumbnails != nil && *completed.FetchThumbnails,
		PointSource:      pointSource,
		StateDirectory:   stateDirectory,
		LogFile:          logFile,
	}, nil
}

func expandHome(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed != "~" && !strings.HasPrefix(trimmed, homePrefix) {
		return trimmed, nil
	}
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	if trimmed == "~" {
		return homeDirectory, nil
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(trimmed, homePrefix)), nil
}
