package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/temirov/kiwixctl/internal/utils"
)

type configTestCase struct {
	name             string
	globalContent    string
	localContent     string
	explicitPath     string
	explicitContent  string
	environment      map[string]string
	expectTopology   string
	expectPort       int
	expectAPIVersion string
	expectTimeout    time.Duration
	expectThumbnails *bool
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:             "defaults_only",
			expectTopology:   defaultTopology,
			expectPort:       defaultPort,
			expectAPIVersion: defaultAPIVersion,
			expectTimeout:    defaultPingTimeout,
			expectThumbnails: boolPointer(false),
		},
		{
			name:             "local_overrides_global",
			globalContent:    "topology: docker\nport: 9000\napi_version: v1\n",
			localContent:     "port: 9100\nping_timeout: 5s\nfetch_thumbnails: true\n",
			expectTopology:   "docker",
			expectPort:       9100,
			expectAPIVersion: "v1",
			expectTimeout:    5 * time.Second,
			expectThumbnails: boolPointer(true),
		},
		{
			name:             "explicit_path_replaces_local",
			localContent:     "port: 9100\n",
			explicitPath:     "custom.yaml",
			explicitContent:  "topology: native\n",
			expectTopology:   "native",
			expectPort:       defaultPort,
			expectAPIVersion: defaultAPIVersion,
			expectTimeout:    defaultPingTimeout,
			expectThumbnails: boolPointer(false),
		},
		{
			name:             "environment_overrides_files",
			globalContent:    "topology: docker\nport: 9000\n",
			environment:      map[string]string{"KIWIXCTL_PORT": "9200", "KIWIXCTL_PING_TIMEOUT": "750ms"},
			expectTopology:   "docker",
			expectPort:       9200,
			expectAPIVersion: defaultAPIVersion,
			expectTimeout:    750 * time.Millisecond,
			expectThumbnails: boolPointer(false),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				globalPath := filepath.Join(configDir, utils.ConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDir, utils.LocalConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				target := filepath.Join(workingDir, testCase.explicitPath)
				if err := os.WriteFile(target, []byte(testCase.explicitContent), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)
			for key, value := range testCase.environment {
				t.Setenv(key, value)
			}

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			if loadedConfig.Topology != testCase.expectTopology {
				t.Fatalf("expected topology %s, got %s", testCase.expectTopology, loadedConfig.Topology)
			}
			if loadedConfig.Port != testCase.expectPort {
				t.Fatalf("expected port %d, got %d", testCase.expectPort, loadedConfig.Port)
			}
			if loadedConfig.APIVersion != testCase.expectAPIVersion {
				t.Fatalf("expected api version %s, got %s", testCase.expectAPIVersion, loadedConfig.APIVersion)
			}
			if loadedConfig.PingTimeout != testCase.expectTimeout {
				t.Fatalf("expected ping timeout %s, got %s", testCase.expectTimeout, loadedConfig.PingTimeout)
			}
			if loadedConfig.FetchThumbnails == nil || *loadedConfig.FetchThumbnails != *testCase.expectThumbnails {
				t.Fatalf("unexpected fetch_thumbnails value")
			}
		})
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	homeDir := t.TempDir()
	workingDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	if err := os.MkdirAll(filepath.Join(workingDir, utils.LocalConfigFileName), 0o755); err != nil {
		t.Fatalf("create directory: %v", err)
	}
	_, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir, SkipEnvironment: true})
	if err == nil {
		t.Fatalf("expected error when configuration path is a directory")
	}
}

func TestMergeKeepsBaseWhenOverrideEmpty(t *testing.T) {
	base := DefaultConfiguration()
	merged := base.Merge(ApplicationConfiguration{BaseURL: "   "})
	if merged.BaseURL != defaultBaseURL {
		t.Fatalf("expected base url %s, got %s", defaultBaseURL, merged.BaseURL)
	}
	if merged.Port != defaultPort {
		t.Fatalf("expected port %d, got %d", defaultPort, merged.Port)
	}
}
