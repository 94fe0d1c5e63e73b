// Package logger provides leveled logging for Vectorpenter.
// It wraps a zap sugared logger behind printf-style helpers so the
// pipeline code can log without carrying a logger instance around.
// Verbose mode (the --verbose flag) lowers the level to debug.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	log     = newLogger(zapcore.InfoLevel)
)

func newLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	l, err := cfg.Build()
	if err != nil {
		// The development config only fails on invalid output paths,
		// which we never set.
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// SetVerbose enables or disables debug-level logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		log = newLogger(zapcore.DebugLevel)
	} else {
		log = newLogger(zapcore.InfoLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLogger replaces the underlying logger. Useful for testing.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Infof(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warnf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Errorf(format, args...)
}

// Section logs a section header at debug level, marking a pipeline stage
// boundary in verbose output.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debugf("=== %s ===", name)
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}
