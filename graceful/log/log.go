package log

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is what the shutdown packages log through. graceful/zap provides
// the production implementation.
type Logger interface {
	Log(ctx context.Context, level Level, msg string, fields ...Field)
	With(fields ...Field) Logger
	WithGroup(name string) Logger
	Enabled(level Level) bool
	Sync(ctx context.Context) error
}

// Level is a log severity. A logger at level L emits L and every level
// below it, so LevelError is the quietest setting.
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{
	LevelError: "error",
	LevelWarn:  "warn",
	LevelInfo:  "info",
	LevelDebug: "debug",
}

func (level Level) String() string {
	if int(level) < len(levelNames) {
		return levelNames[level]
	}

	return "unknown"
}

// ParseLevel reads a LOG_LEVEL value. Matching ignores case and surrounding
// space, and "warning" is accepted for LevelWarn.
func ParseLevel(name string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "warning" {
		return LevelWarn, nil
	}

	for level, levelName := range levelNames {
		if levelName == normalized {
			return Level(level), nil
		}
	}

	return LevelError, fmt.Errorf("not a valid Level: %q", name)
}

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Any is for values without a typed constructor, such as addresses and
// connection states.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err returns the "error" field. graceful/zap encodes it as a zap error.
func Err(err error) Field { return Field{Key: "error", Value: err} }
