// Package weavelog provides weave's structured logger: a rotating file sink
// (gopkg.in/natefinch/lumberjack.v2) plus an optional stdout writer, behind
// a small functional-options constructor.
package weavelog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled, structured log lines to stdout and/or a rotating
// file. The zero value is not usable; construct with New.
type Logger struct {
	config     *config
	fileWriter *lumberjack.Logger
	stdout     io.Writer
	mu         sync.Mutex
}

// New creates a Logger from the given options.
func New(opts ...Option) *Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	l := &Logger{config: cfg, stdout: os.Stdout}
	if cfg.enableFile {
		l.fileWriter = &lumberjack.Logger{
			Filename:   cfg.filename,
			MaxSize:    cfg.maxSize,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAge,
			Compress:   cfg.compress,
		}
	}
	return l
}

func (l *Logger) log(level Level, msg string, keysAndValues ...any) {
	if level < l.config.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s", time.Now().Format(l.config.timeFormat), level, msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	line += "\n"

	if l.config.enableStdout {
		l.stdout.Write([]byte(line))
	}
	if l.config.enableFile && l.fileWriter != nil {
		l.fileWriter.Write([]byte(line))
	}
}

// Debug logs msg at DEBUG with optional structured key/value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...any) { l.log(DEBUG, msg, keysAndValues...) }

// Info logs msg at INFO with optional structured key/value pairs.
func (l *Logger) Info(msg string, keysAndValues ...any) { l.log(INFO, msg, keysAndValues...) }

// Warn logs msg at WARN with optional structured key/value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...any) { l.log(WARN, msg, keysAndValues...) }

// Error logs msg at ERROR with optional structured key/value pairs.
func (l *Logger) Error(msg string, keysAndValues ...any) { l.log(ERROR, msg, keysAndValues...) }

// Close flushes and closes the file sink, if one is configured.
func (l *Logger) Close() error {
	if l.fileWriter != nil {
		return l.fileWriter.Close()
	}
	return nil
}

// Default returns a Logger with default settings (INFO level, stdout only).
func Default() *Logger {
	return New()
}
