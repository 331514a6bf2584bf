package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions selects the sinks for one CLI run.
type LoggerOptions struct {
	// Screen receives human-oriented output; usually os.Stderr.
	Screen io.Writer
	// Verbosity is the count of -v flags minus the count of -q flags.
	Verbosity int
	// Level, when set, replaces the verbosity-derived screen level.
	Level string

	// HistoryPath is appended to on every run. Empty disables the sink.
	HistoryPath string
	// LastRunPath is truncated at start and holds only this run. Empty disables the sink.
	LastRunPath string

	RunID   string
	Command string
}

// NewLogger builds a logger that tees records to the screen, the history log
// and the last-run log. The returned close func flushes and closes the files.
func NewLogger(opts LoggerOptions) (*zap.Logger, func() error, error) {
	screen := opts.Screen
	if screen == nil {
		screen = os.Stderr
	}

	level := screenLevel(opts.Verbosity)
	if l, ok := parseLogLevel(opts.Level); ok {
		level = l
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(screenEncoderConfig()), zapcore.Lock(zapcore.AddSync(screen)), level),
	}
	var files []*os.File
	closeAll := func() error {
		var first error
		for _, f := range files {
			if err := f.Sync(); err != nil && first == nil {
				first = err
			}
			if err := f.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	if opts.HistoryPath != "" {
		f, err := os.OpenFile(opts.HistoryPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open history log: %w", err)
		}
		files = append(files, f)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(f), zap.DebugLevel))
	}
	if opts.LastRunPath != "" {
		f, err := os.OpenFile(opts.LastRunPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("open last-run log: %w", err)
		}
		files = append(files, f)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(f), zap.InfoLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(
		zap.String("run_id", opts.RunID),
		zap.String("command", opts.Command),
	)
	return logger, closeAll, nil
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func screenEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.NameKey = ""
	cfg.StacktraceKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// screenLevel maps verbosity onto zap levels with warn as the baseline:
// -v is info, -vv debug, -q error.
func screenLevel(verbosity int) zapcore.Level {
	l := zapcore.WarnLevel - zapcore.Level(verbosity)
	if l < zapcore.DebugLevel {
		return zapcore.DebugLevel
	}
	if l > zapcore.FatalLevel {
		return zapcore.FatalLevel
	}
	return l
}

func parseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zap.DebugLevel, true
	case "INFO":
		return zap.InfoLevel, true
	case "WARN", "WARNING":
		return zap.WarnLevel, true
	case "ERROR":
		return zap.ErrorLevel, true
	default:
		return zap.InfoLevel, false
	}
}
