package internal

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE (any case) to a level.
// Unknown names fall back to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	default:
		return LogLevelInfo
	}
}

// String returns the LOG_LEVEL spelling
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "INFO"
	}
}

// ZapLevel converts to the zap level. zap has no trace level, so TRACE logs at debug.
func (l LogLevel) ZapLevel() zapcore.Level {
	switch l {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelDebug, LogLevelTrace:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a zap logger. format "console" gives the development
// encoder; anything else is JSON.
func NewLogger(level LogLevel, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level.SetLevel(level.ZapLevel())

	logger, err := cfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "log: build logger")
	}
	return logger, nil
}

// NewDefaultLogger creates a logger based on the LOG_LEVEL and LOG_FORMAT
// environment variables, falling back to a no-op logger if zap cannot build one
func NewDefaultLogger() *zap.Logger {
	logger, err := NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"))
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// InitGlobal installs the logger as zap's global and returns a restore function
func InitGlobal(level LogLevel, format string) (*zap.Logger, func(), error) {
	logger, err := NewLogger(level, format)
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return logger, restore, nil
}
