/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log provides a small module-scoped logger used throughout the
// didcomm packages. It mirrors the shape of aries-framework-go's
// pkg/common/log: a lazily-initialized, per-module Logger backed by the
// standard library's log package, with package-level level control.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

// Level is a logging severity level.
type Level int32

// Supported levels, most to least verbose.
const (
	DEBUG Level = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

var levelNames = map[Level]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

// ParseLevel returns the log level for the given case-insensitive name.
func ParseLevel(level string) (Level, error) {
	for lvl, name := range levelNames {
		if len(level) == len(name) && equalFold(level, name) {
			return lvl, nil
		}
	}

	return INFO, fmt.Errorf("log: invalid log level '%s'", level)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}

		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}

		if ca != cb {
			return false
		}
	}

	return true
}

var moduleLevels sync.Map // module string -> *int32

func levelFor(module string) *int32 {
	if v, ok := moduleLevels.Load(module); ok {
		return v.(*int32)
	}

	level := int32(INFO)
	v, _ := moduleLevels.LoadOrStore(module, &level)

	return v.(*int32)
}

// SetLevel sets the logging level for module. If not set, the default is INFO.
func SetLevel(module string, level Level) {
	atomic.StoreInt32(levelFor(module), int32(level))
}

// GetLevel returns the logging level for module.
func GetLevel(module string) Level {
	return Level(atomic.LoadInt32(levelFor(module)))
}

// IsEnabledFor reports whether level is enabled for module.
func IsEnabledFor(module string, level Level) bool {
	return level >= GetLevel(module)
}

// Log is a module-scoped logger. The zero value is not usable; create one
// with New.
type Log struct {
	module string
	once   sync.Once
	std    *log.Logger
}

// New creates a Logger for the given module name. The underlying standard
// logger is lazily initialized on first use.
func New(module string) *Log {
	return &Log{module: module}
}

func (l *Log) logger() *log.Logger {
	l.once.Do(func() {
		l.std = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	})

	return l.std
}

func (l *Log) log(level Level, msg string, args ...interface{}) {
	if !IsEnabledFor(l.module, level) {
		return
	}

	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}

	l.logger().Printf("[%s] %s - %s", levelNames[level], l.module, formatted)
}

// Debugf logs at DEBUG level.
func (l *Log) Debugf(msg string, args ...interface{}) { l.log(DEBUG, msg, args...) }

// Infof logs at INFO level.
func (l *Log) Infof(msg string, args ...interface{}) { l.log(INFO, msg, args...) }

// Warnf logs at WARNING level.
func (l *Log) Warnf(msg string, args ...interface{}) { l.log(WARNING, msg, args...) }

// Errorf logs at ERROR level.
func (l *Log) Errorf(msg string, args ...interface{}) { l.log(ERROR, msg, args...) }

// Fatalf logs at CRITICAL level then exits the process.
func (l *Log) Fatalf(msg string, args ...interface{}) {
	l.log(CRITICAL, msg, args...)
	os.Exit(1)
}
