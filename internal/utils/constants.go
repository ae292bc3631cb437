package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// ErrorLogFormat defines the formatting string for error log messages.
const ErrorLogFormat = "Error: %v"

// WarningLogFormat defines the formatting string for advisory messages shown to the user.
const WarningLogFormat = "Warning: %v"

const (
	// ApplicationName is the binary and configuration directory base name.
	ApplicationName = "kiwixctl"
	// GlobalConfigDirectoryName is the directory under the user's home holding global settings.
	GlobalConfigDirectoryName = ".kiwixctl"
	// ConfigFileName is the global configuration file name.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = ".kiwixctl.yaml"
	// StateDirectoryName holds runtime state such as the native server PID file.
	StateDirectoryName = "state"
	// EnvironmentPrefix prefixes environment overrides, e.g. KIWIXCTL_PORT.
	EnvironmentPrefix = "KIWIXCTL"

	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "kiwixctl failed"
)
