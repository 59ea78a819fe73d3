// Package logger provides leveled logging for the dashboard and the relay.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a config string to a Level. Unknown values fall back to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *log.Logger

	// json is set for format "json"; lines then go through it instead of logger.
	json *slog.Logger
}

const levelFatal = slog.Level(12)

var slogLevels = map[Level]slog.Level{
	DebugLevel: slog.LevelDebug,
	InfoLevel:  slog.LevelInfo,
	WarnLevel:  slog.LevelWarn,
	ErrorLevel: slog.LevelError,
}

func newJSON(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		// Filtering happens in output.
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == levelFatal {
				a.Value = slog.StringValue("FATAL")
			}
			return a
		},
	}))
}

var defaultLogger *Logger

// Init initializes the default logger writing to stderr.
func Init(level string, format string) {
	InitWithOutput(level, format, os.Stderr)
}

// InitWithOutput initializes the default logger writing to w.
// The TUI uses this with a file so log lines never land on the alternate screen.
func InitWithOutput(level string, format string, w io.Writer) {
	flags := log.LstdFlags | log.Lmicroseconds
	isJSON := strings.ToLower(format) == "json"
	if !isJSON {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  ParseLevel(level),
		logger: log.New(w, "", flags),
	}
	if isJSON {
		defaultLogger.json = newJSON(w)
	}
}

// OpenFile opens (or creates) a log file in append mode, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func output(l Level, name, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if defaultLogger.json != nil {
		defaultLogger.json.Log(context.Background(), slogLevels[l], msg)
		return
	}
	_ = defaultLogger.logger.Output(3, "["+name+"] "+msg)
}

func Debug(format string, args ...interface{}) {
	output(DebugLevel, "DEBUG", format, args...)
}

func Info(format string, args ...interface{}) {
	output(InfoLevel, "INFO", format, args...)
}

func Warn(format string, args ...interface{}) {
	output(WarnLevel, "WARN", format, args...)
}

func Error(format string, args ...interface{}) {
	output(ErrorLevel, "ERROR", format, args...)
}

func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.json != nil {
		defaultLogger.json.Log(context.Background(), levelFatal, fmt.Sprintf(format, args...))
		os.Exit(1)
	}
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(1)
}
