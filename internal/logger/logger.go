package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App is attached to every entry so logs from several tools can share a sink.
const App = "job-tailor"

// New builds the CLI logger. Logs go to stderr: stdout is reserved for
// command output such as generated documents and fingerprints.
func New(json bool, debug bool) (*zap.Logger, error) {
	cfg := Config(json, debug)

	logger, err := cfg.Build(zap.Fields(zap.String("app", App)))
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// Config returns the zap configuration New builds from.
func Config(json bool, debug bool) zap.Config {
	return zap.Config{
		Encoding:          encoding(json),
		Level:             zap.NewAtomicLevelAt(level(debug)),
		DisableStacktrace: !debug,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
}

func encoding(json bool) string {
	if json {
		return "json"
	}
	return "console"
}

func level(debug bool) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// TruncateForLog shortens s to limit runes, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
