package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/kiwixctl/internal/utils"
)

// Configuration keys, shared by files and KIWIXCTL_* environment overrides.
const (
	keyTopology         = "topology"
	keyBaseURL          = "base_url"
	keyPort             = "port"
	keyAPIVersion       = "api_version"
	keyLibraryDirectory = "library_dir"
	keyBrowser          = "browser"
	keyBrowserCommand   = "browser_command"
	keyCompletion       = "completion"
	keyContainerRuntime = "container_runtime"
	keyContainerImage   = "container_image"
	keyServerExecutable = "server_executable"
	keyPingTimeout      = "ping_timeout"
	keyRequestTimeout   = "request_timeout"
	keyFetchThumbnails  = "fetch_thumbnails"
	keyPointSource      = "point_source"
	keyStateDirectory   = "state_dir"
	keyLogFile          = "log_file"
)

var configurationKeys = []string{
	keyTopology,
	keyBaseURL,
	keyPort,
	keyAPIVersion,
	keyLibraryDirectory,
	keyBrowser,
	keyBrowserCommand,
	keyCompletion,
	keyContainerRuntime,
	keyContainerImage,
	keyServerExecutable,
	keyPingTimeout,
	keyRequestTimeout,
	keyFetchThumbnails,
	keyPointSource,
	keyStateDirectory,
	keyLogFile,
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipEnvironment ignores KIWIXCTL_* variables.
	SkipEnvironment bool
}

// ApplicationConfiguration mirrors the configuration file. Empty fields mean "not set".
type ApplicationConfiguration struct {
	Topology         string        `mapstructure:"topology" yaml:"topology"`
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url"`
	Port             int           `mapstructure:"port" yaml:"port"`
	APIVersion       string        `mapstructure:"api_version" yaml:"api_version"`
	LibraryDirectory string        `mapstructure:"library_dir" yaml:"library_dir"`
	Browser          string        `mapstructure:"browser" yaml:"browser"`
	BrowserCommand   string        `mapstructure:"browser_command" yaml:"browser_command"`
	Completion       string        `mapstructure:"completion" yaml:"completion"`
	ContainerRuntime string        `mapstructure:"container_runtime" yaml:"container_runtime"`
	ContainerImage   string        `mapstructure:"container_image" yaml:"container_image"`
	ServerExecutable string        `mapstructure:"server_executable" yaml:"server_executable"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	FetchThumbnails  *bool         `mapstructure:"fetch_thumbnails" yaml:"fetch_thumbnails"`
	PointSource      string        `mapstructure:"point_source" yaml:"point_source"`
	StateDirectory   string        `mapstructure:"state_dir" yaml:"state_dir"`
	LogFile          string        `mapstructure:"log_file" yaml:"log_file"`
}

// LoadApplicationConfiguration loads configuration from the global file, the local file and the environment.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	merged := DefaultConfiguration()

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	if !options.SkipEnvironment {
		environmentConfig, environmentErr := loadConfigurationFromEnvironment()
		if environmentErr != nil {
			return ApplicationConfiguration{}, environmentErr
		}
		merged = merged.Merge(environmentConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configurationKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from environment: %w", decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Topology = mergeString(result.Topology, override.Topology)
	result.BaseURL = mergeString(result.BaseURL, override.BaseURL)
	if override.Port != 0 {
		result.Port = override.Port
	}
	result.APIVersion = mergeString(result.APIVersion, override.APIVersion)
	result.LibraryDirectory = mergeString(result.LibraryDirectory, override.LibraryDirectory)
	result.Browser = mergeString(result.Browser, override.Browser)
	result.BrowserCommand = mergeString(result.BrowserCommand, override.BrowserCommand)
	result.Completion = mergeString(result.Completion, override.Completion)
	result.ContainerRuntime = mergeString(result.ContainerRuntime, override.ContainerRuntime)
	result.ContainerImage = mergeString(result.ContainerImage, override.ContainerImage)
	result.ServerExecutable = mergeString(result.ServerExecutable, override.ServerExecutable)
	if override.PingTimeout > 0 {
		result.PingTimeout = override.PingTimeout
	}
	if override.RequestTimeout > 0 {
		result.RequestTimeout = override.RequestTimeout
	}
	if override.FetchThumbnails != nil {
		result.FetchThumbnails = cloneBool(override.FetchThumbnails)
	}
	result.PointSource = mergeString(result.PointSource, override.PointSource)
	result.StateDirectory = mergeString(result.StateDirectory, override.StateDirectory)
	result.LogFile = mergeString(result.LogFile, override.LogFile)
	return result
}

func mergeString(current, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return current
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
