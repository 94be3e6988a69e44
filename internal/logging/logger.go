// Package logging provides category-based file logging for autoedu. Each
// task writes to its own file under the logs directory, with a shared
// console core for operator-visible progress.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names one log sink. A category maps to logs/<category>.log.
type Category string

const (
	CategoryBoot         Category = "boot"         // startup, config, login
	CategoryImport       Category = "import"       // import reconciliation pass
	CategorySearch       Category = "search"       // fallback identity search
	CategoryRelease      Category = "release"      // release-request batch
	CategorySectionShift Category = "sectionshift" // section reconciliation
	CategoryBrowser      Category = "browser"      // portal session plumbing
	CategoryReport       Category = "report"       // export and parsing
)

var (
	mu      sync.Mutex
	loggers = make(map[Category]*zap.Logger)
	logsDir string
	level   = zapcore.InfoLevel
)

// Initialize sets the logs directory and minimum level. Call once at
// startup before Get.
func Initialize(dir, lvl string) error {
	mu.Lock()
	defer mu.Unlock()

	if dir == "" {
		return fmt.Errorf("logs directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	logsDir = dir
	level = parsed
	return nil
}

// Get returns the logger for a category, creating it on first use. Before
// Initialize, or if the log file cannot be opened, a console-only logger is
// returned so callers never receive nil.
func Get(category Category) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if lg, ok := loggers[category]; ok {
		return lg
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		level,
	)

	core := consoleCore
	if logsDir != "" {
		path := filepath.Join(logsDir, string(category)+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encCfg),
				zapcore.AddSync(f),
				level,
			)
			core = zapcore.NewTee(consoleCore, fileCore)
		} else {
			fmt.Fprintf(os.Stderr, "[logging] could not open %s: %v\n", path, err)
		}
	}

	lg := zap.New(core).Named(string(category))
	loggers[category] = lg
	return lg
}

// Sync flushes every open logger. Call on shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	for _, lg := range loggers {
		_ = lg.Sync()
	}
}
