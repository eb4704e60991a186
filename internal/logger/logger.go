// Package logger is a small leveled logger on top of the standard log package.
// Messages go to stdout (errors to stderr) prefixed with a UTC timestamp and level.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a name to a Level, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type Logger struct {
	out   *log.Logger
	err   *log.Logger
	level atomic.Int32
	now   func() time.Time
}

func New(out, errOut io.Writer, level Level) *Logger {
	l := &Logger{
		out: log.New(out, "", 0),
		err: log.New(errOut, "", 0),
		now: time.Now,
	}
	l.level.Store(int32(level))
	return l
}

var std = New(os.Stdout, os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))

// Default returns the process-wide logger.
func Default() *Logger { return std }

func (l *Logger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *Logger) Level() Level { return Level(l.level.Load()) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if level < l.Level() {
		return
	}
	ts := l.now().UTC().Format("2006-01-02T15:04:05.000Z")
	line := fmt.Sprintf("[%s] %s: %s", ts, level, fmt.Sprintf(format, args...))
	if level >= ErrorLevel {
		l.err.Println(line)
		return
	}
	l.out.Println(line)
}

func (l *Logger) Debug(format string, args ...any) { l.logf(DebugLevel, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.logf(InfoLevel, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(WarnLevel, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.logf(ErrorLevel, format, args...) }

// Printf logs at warn level; it lets the logger back gorm's query logger.
func (l *Logger) Printf(format string, args ...any) { l.logf(WarnLevel, format, args...) }

func Debug(format string, args ...any) { std.Debug(format, args...) }
func Info(format string, args ...any)  { std.Info(format, args...) }
func Warn(format string, args ...any)  { std.Warn(format, args...) }
func Error(format string, args ...any) { std.Error(format, args...) }

// SetLevelFromString changes the level of the default logger.
func SetLevelFromString(level string) {
	std.SetLevel(ParseLevel(level))
}
