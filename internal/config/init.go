package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/kiwixctl/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	configurationHeader = "# kiwixctl configuration. Every key may be overridden with KIWIXCTL_<KEY>.\n"
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// configurationTemplate is the on-disk shape of the defaults; durations stay human readable.
type configurationTemplate struct {
	Topology         string `yaml:"topology"`
	BaseURL          string `yaml:"base_url"`
	Port             int    `yaml:"port"`
	APIVersion       string `yaml:"api_version"`
	LibraryDirectory string `yaml:"library_dir"`
	Browser          string `yaml:"browser"`
	BrowserCommand   string `yaml:"browser_command"`
	Completion       string `yaml:"completion"`
	ContainerRuntime string `yaml:"container_runtime"`
	ContainerImage   string `yaml:"container_image"`
	ServerExecutable string `yaml:"server_executable"`
	PingTimeout      string `yaml:"ping_timeout"`
	RequestTimeout   string `yaml:"request_timeout"`
	FetchThumbnails  bool   `yaml:"fetch_thumbnails"`
	PointSource      string `yaml:"point_source"`
	StateDirectory   string `yaml:"state_dir"`
	LogFile          string `yaml:"log_file"`
}

// RenderDefaultConfiguration returns the YAML document written by InitializeConfiguration.
func RenderDefaultConfiguration() ([]byte, error) {
	defaults := DefaultConfiguration()
	template := configurationTemplate{
		Topology:         defaults.Topology,
		BaseURL:          defaults.BaseURL,
		Port:             defaults.Port,
		APIVersion:       defaults.APIVersion,
		LibraryDirectory: defaults.LibraryDirectory,
		Browser:          defaults.Browser,
		BrowserCommand:   defaults.BrowserCommand,
		Completion:       defaults.Completion,
		ContainerRuntime: defaults.ContainerRuntime,
		ContainerImage:   defaults.ContainerImage,
		ServerExecutable: defaults.ServerExecutable,
		PingTimeout:      defaults.PingTimeout.String(),
		RequestTimeout:   defaults.RequestTimeout.String(),
		FetchThumbnails:  defaults.FetchThumbnails != nil && *defaults.FetchThumbnails,
		PointSource:      defaults.PointSource,
		StateDirectory:   defaults.StateDirectory,
		LogFile:          defaults.LogFile,
	}
	body, err := yaml.Marshal(template)
	if err != nil {
		return nil, fmt.Errorf("render default configuration: %w", err)
	}
	return append([]byte(configurationHeader), body...), nil
}

// InitializeConfiguration writes the default configuration to the requested target.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		destinationPath = filepath.Join(workingDirectory, utils.LocalConfigFileName)
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if err := os.MkdirAll(configurationDirectory, 0o755); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
		destinationPath = filepath.Join(configurationDirectory, utils.ConfigFileName)
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, err)
	}

	content, renderErr := RenderDefaultConfiguration()
	if renderErr != nil {
		return "", renderErr
	}
	if err := os.WriteFile(destinationPath, content, 0o600); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}

	return destinationPath, nil
}
