package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMegabytes = 10
	logFileMaxBackups       = 3
	logFileMaxAgeDays       = 28
)

// LoggerOptions controls where application logs are written.
type LoggerOptions struct {
	// LogFile adds a rotating JSON log file next to the console output when set.
	LogFile string
	// Debug lowers the console level to debug.
	Debug bool
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
func NewApplicationLogger(options LoggerOptions) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	if options.Debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if options.LogFile == EmptyString {
		return config.Build()
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config.EncoderConfig),
		zapcore.Lock(os.Stderr),
		config.Level,
	)
	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(fileEncoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   options.LogFile,
			MaxSize:    logFileMaxSizeMegabytes,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}),
		zapcore.DebugLevel,
	)
	return zap.New(zapcore.NewTee(consoleCore, fileCore)), nil
}

// LoggerOrNop returns logger, or a no-op logger when logger is nil.
func LoggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
