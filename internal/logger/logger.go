package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"printwatch/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// MaxLogFileSize is the size in megabytes after which a log file is rotated.
	MaxLogFileSize = 10
	// MaxLogBackups is the number of rotated files kept per level.
	MaxLogBackups = 3
)

// Logger provides leveled logging (debug/info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	debug      bool
	files      []*lumberjack.Logger
	mu         sync.Mutex
}

// NewLogger creates a Logger writing into config.LogDirectory.
// Debug entries are only emitted when config.LogDebug is set.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	infoFile := rotatingFile(config.LogDirectory, "info.log")
	warningFile := rotatingFile(config.LogDirectory, "warning.log")
	errorFile := rotatingFile(config.LogDirectory, "error.log")

	l := &Logger{
		debug: config.LogDebug,
		files: []*lumberjack.Logger{infoFile, warningFile, errorFile},
	}
	l.setupLoggers(
		io.MultiWriter(os.Stdout, infoFile),
		io.MultiWriter(os.Stdout, warningFile),
		io.MultiWriter(os.Stderr, errorFile),
	)
	return l
}

// NewWithWriter sends every level to w. Used by tools and tests that do not
// keep log files.
func NewWithWriter(w io.Writer, debug bool) *Logger {
	l := &Logger{debug: debug}
	l.setupLoggers(w, w, w)
	return l
}

// setupLoggers initializes the per-level loggers; debug shares the info writer.
func (l *Logger) setupLoggers(infoWriter, warningWriter, errorWriter io.Writer) {
	l.debugLog = log.New(infoWriter, "🐞 DEBUG   ", log.Ldate|log.Ltime|log.Lshortfile)
	l.infoLog = log.New(infoWriter, "ℹ️  INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "⚠️  WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "❌ ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

func rotatingFile(dir, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    MaxLogFileSize,
		MaxBackups: MaxLogBackups,
		Compress:   true,
	}
}

// DebugEnabled reports whether Debug entries are written.
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

// Debug writes a formatted debug-level log entry when debug logging is enabled.
func (l *Logger) Debug(format string, v ...interface{}) {
	if !l.debug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugLog.Output(2, fmt.Sprintf(format, v...))
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Rotate moves the current log files to backups and starts fresh ones.
// Loggers without files do nothing.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		if err := f.Rotate(); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the rotating log files.
func (l *Logger) Close() error {
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
