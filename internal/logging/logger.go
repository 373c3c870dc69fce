// Package logging provides config-driven categorized file-based logging for
// coursemind. Logs are written to <data-dir>/logs/ with a separate file per
// category. When debug mode is off, every call is a silent no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and wiring
	CategoryAPI       Category = "api"       // HTTP API requests
	CategoryGenerator Category = "generator" // LLM round loop
	CategoryLLM       Category = "llm"       // Provider round-trips
	CategoryTools     Category = "tools"     // Tool registration and execution
	CategorySession   Category = "session"   // Conversation sessions
	CategoryStore     Category = "store"     // Vector store operations
	CategoryIngest    Category = "ingest"    // Document processing and indexing
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string

	configMu  sync.RWMutex
	debugMode bool
	logLevel  = LevelInfo
)

// Initialize sets up the logging directory. Should be called once at startup.
// When debug is false this is a no-op and all loggers stay silent.
func Initialize(dataDir string, debug bool, level string) error {
	configMu.Lock()
	debugMode = debug
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	configMu.Unlock()

	if !debug {
		return nil
	}
	if dataDir == "" {
		return fmt.Errorf("data directory required")
	}

	logsDir = filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== coursemind logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", level)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return debugMode
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled.
func Get(category Category) *Logger {
	if !IsDebugMode() || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) write(level int, tag, format string, args ...interface{}) {
	if l.logger == nil || logLevel > level {
		return
	}
	l.logger.Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// CloseAll closes all open log files. Call on shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
		delete(loggers, cat)
	}
}

// Convenience helpers, one Info/Debug pair per category.

func API(format string, args ...interface{})       { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{})  { Get(CategoryAPI).Debug(format, args...) }
func APIError(format string, args ...interface{})  { Get(CategoryAPI).Error(format, args...) }
func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Generator(format string, args ...interface{}) {
	Get(CategoryGenerator).Info(format, args...)
}

func GeneratorDebug(format string, args ...interface{}) {
	Get(CategoryGenerator).Debug(format, args...)
}

func GeneratorError(format string, args ...interface{}) {
	Get(CategoryGenerator).Error(format, args...)
}

func LLM(format string, args ...interface{})      { Get(CategoryLLM).Info(format, args...) }
func LLMDebug(format string, args ...interface{}) { Get(CategoryLLM).Debug(format, args...) }
func LLMError(format string, args ...interface{}) { Get(CategoryLLM).Error(format, args...) }

func Tools(format string, args ...interface{})      { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...interface{}) { Get(CategoryTools).Debug(format, args...) }

func Session(format string, args ...interface{}) { Get(CategorySession).Info(format, args...) }

func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debug(format, args...)
}

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

func Ingest(format string, args ...interface{})      { Get(CategoryIngest).Info(format, args...) }
func IngestDebug(format string, args ...interface{}) { Get(CategoryIngest).Debug(format, args...) }
