package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoding, level and destination of the cli logger.
type Config struct {
	JSON  bool
	Debug bool
	// Output is a zap sink path. Defaults to stderr so that command output on stdout stays clean.
	Output string
}

func New(c Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"
	output := "stderr"

	if c.JSON {
		encoding = "json"
	}

	if c.Debug {
		level = zapcore.DebugLevel
	}

	if c.Output != "" {
		output = c.Output
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
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

	return cfg.Build()
}

// Truncate shortens s to limit runes for log previews, appending an ellipsis when cut.
func Truncate(s string, limit int) string {
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

// OrNop returns a no-op logger for nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
