// Package logger is the leveled stdout logger shared by the donr services.
// LOG_LEVEL picks the threshold at startup; everything below it is dropped.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu  sync.RWMutex
	out = log.New(os.Stdout, "", 0)
	min = LevelInfo
)

// Init sets the global threshold from a level name (case-insensitive).
// Unknown or empty names fall back to info.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	min = parseLevel(name)
}

func parseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

// LevelString reports the active threshold, for the readiness payload.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return levelNames[min]
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= min
}

func emit(l Level, format string, v ...interface{}) {
	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(levelNames[l]))
	out.Printf(prefix+format, v...)
}

func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		emit(LevelDebug, format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		emit(LevelInfo, format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		emit(LevelWarn, format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		emit(LevelError, format, v...)
	}
}

// Fatalf logs and exits. Reserved for startup failures the process cannot
// run without, like a missing MONGODB_URI.
func Fatalf(format string, v ...interface{}) {
	emit(LevelFatal, format, v...)
	os.Exit(1)
}

func Warn(msg string) { Warnf("%s", msg) }
