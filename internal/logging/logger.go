// Package logging builds the zap logger used across the exporter.
//
// Two sinks are teed together: the console (stderr, configurable level and
// format) and the append-only run log inside the export dir, which always
// records info and above so each invocation leaves one timestamped block.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunLogTimeLayout is the timestamp format of run log lines.
const RunLogTimeLayout = "2006-01-02 15:04:05"

// Config controls logger construction.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // console or json
	RunLogPath string // empty disables the run log
}

// Logger is a zap logger plus the run log file it owns.
type Logger struct {
	*zap.Logger
	runLog *os.File
}

// New builds a logger writing to console and, if configured, the run log.
func New(cfg Config, console io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(console), level),
	}

	var runLog *os.File
	if cfg.RunLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.RunLogPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating run log dir: %w", err)
		}
		runLog, err = os.OpenFile(cfg.RunLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening run log: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newRunLogEncoder(), zapcore.AddSync(runLog), zapcore.InfoLevel))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...)),
		runLog: runLog,
	}, nil
}

// Close flushes buffered entries and closes the run log.
func (l *Logger) Close() error {
	err := l.Logger.Sync()
	if err != nil && isStdoutSyncError(err) {
		err = nil
	}
	if l.runLog != nil {
		err = errors.Join(err, l.runLog.Close())
	}
	return err
}

// ParseLevel maps a config level name to a zap level. Empty means warn.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.WarnLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderCfg)
	}
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderCfg)
}

func newRunLogEncoder() zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + t.Format(RunLogTimeLayout) + "]")
	}
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.CallerKey = ""
	encoderCfg.StacktraceKey = ""
	return zapcore.NewConsoleEncoder(encoderCfg)
}

// isStdoutSyncError checks if error is harmless stdout/stderr sync error.
// On Linux, syncing stdout/stderr returns EINVAL or ENOTTY which are safe to ignore.
func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
