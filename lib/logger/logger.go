// Copyright (C) 2025 The Geocoding Authors.

// Package logger implements a small level-aware wrapper around the
// standard library's log.Logger, with pluggable handlers per level.
package logger

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// LogLevel is the severity of a single log call.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
)

// Handler is called once per log call whose level is >= the level it was
// registered for.
type Handler func(LogLevel, string)

// Logger wraps a standard library logger and fans each formatted message
// out to any handlers registered for its level (or below).
type Logger struct {
	mut      sync.Mutex
	logger   *log.Logger
	handlers map[LogLevel][]Handler
}

// DefaultLogger logs to os.Stdout and is shared across the whole program
// via a package-level `var l = logger.DefaultLogger` in each package.
var DefaultLogger = New()

// New creates a new Logger writing to os.Stdout, prefixing each line with
// the time of day (log.Ltime).
func New() *Logger {
	return &Logger{
		logger:   log.New(os.Stdout, "", log.Ltime),
		handlers: make(map[LogLevel][]Handler),
	}
}

func (l *Logger) SetFlags(flag int) {
	l.logger.SetFlags(flag)
}

func (l *Logger) SetPrefix(prefix string) {
	l.logger.SetPrefix(prefix)
}

// AddHandler registers fn to be called for every log call at level or
// above. Handlers for LevelWarn are also invoked for Fatal calls.
func (l *Logger) AddHandler(level LogLevel, fn Handler) {
	l.mut.Lock()
	defer l.mut.Unlock()
	l.handlers[level] = append(l.handlers[level], fn)
}

func (l *Logger) callHandlers(level LogLevel, msg string) {
	l.mut.Lock()
	defer l.mut.Unlock()
	for hl, hs := range l.handlers {
		if level >= hl {
			for _, h := range hs {
				h(level, msg)
			}
		}
	}
}

func (l *Logger) Debugf(format string, vals ...interface{}) {
	msg := fmt.Sprintf(format, vals...)
	l.logger.Output(2, "DEBUG: "+msg)
	l.callHandlers(LevelDebug, msg)
}

func (l *Logger) Debugln(vals ...interface{}) {
	msg := fmt.Sprintln(vals...)
	l.logger.Output(2, "DEBUG: "+msg)
	l.callHandlers(LevelDebug, msg)
}

func (l *Logger) Infof(format string, vals ...interface{}) {
	msg := fmt.Sprintf(format, vals...)
	l.logger.Output(2, "INFO: "+msg)
	l.callHandlers(LevelInfo, msg)
}

func (l *Logger) Infoln(vals ...interface{}) {
	msg := fmt.Sprintln(vals...)
	l.logger.Output(2, "INFO: "+msg)
	l.callHandlers(LevelInfo, msg)
}

func (l *Logger) Warnf(format string, vals ...interface{}) {
	msg := fmt.Sprintf(format, vals...)
	l.logger.Output(2, "WARNING: "+msg)
	l.callHandlers(LevelWarn, msg)
}

func (l *Logger) Warnln(vals ...interface{}) {
	msg := fmt.Sprintln(vals...)
	l.logger.Output(2, "WARNING: "+msg)
	l.callHandlers(LevelWarn, msg)
}

func (l *Logger) Fatalf(format string, vals ...interface{}) {
	msg := fmt.Sprintf(format, vals...)
	l.logger.Output(2, "FATAL: "+msg)
	l.callHandlers(LevelWarn, msg)
	os.Exit(1)
}

func (l *Logger) Fatalln(vals ...interface{}) {
	msg := fmt.Sprintln(vals...)
	l.logger.Output(2, "FATAL: "+msg)
	l.callHandlers(LevelWarn, msg)
	os.Exit(1)
}
