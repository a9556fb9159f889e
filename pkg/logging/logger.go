package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger provides component-tagged debug logging for albumscout.
// By default all logs of one process run go to a single file in
// ~/.albumscout/logs/.
//
// All log methods (Debugf, Infof, Warnf, Errorf) write unconditionally.
// There is currently no log level filtering.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	// Global run ID for the current process
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	// userHomeDir is swapped out by tests
	userHomeDir = os.UserHomeDir
)

// getSessionID returns or creates the run ID for this process
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := userHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".albumscout", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.albumscout/logs/<run-id>-albumscout.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
// Callers can check the error to detect fallback mode and log warnings.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	runID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-albumscout.log", runID))

	// Append mode: every component of one run shares the file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}

	return &Logger{
		sessionID: runID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

// NewWriterLogger creates a logger that writes entries to w instead of the
// run log file. The driver uses it to mirror diagnostics on stderr.
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    log.New(w, "", 0),
	}
}

// Discard returns a logger that drops every entry.
func Discard(component string) *Logger {
	return NewWriterLogger(component, io.Discard)
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags|log.Lshortfile)
	logger.Printf("WARNING: Failed to initialize file logging: %v", err)
	logger.Printf("Falling back to stderr logging")

	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    logger,
	}
}

// With returns a logger for another component sharing the same output.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: component,
		logger:    l.logger,
		logPath:   l.logPath,
	}
}

// formatLogEntry creates a log entry with timestamp, component, and level
func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Println(l.formatLogEntry(level, fmt.Sprintf(format, v...)))
}

// Printf logs a formatted message
func (l *Logger) Printf(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// Writer returns an io.Writer that writes to this logger's destination
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return l.logger.Writer()
}

// SessionID returns the current run ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for writer loggers
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
