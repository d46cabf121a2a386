package telemetry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level string
	// File, when set, receives a copy of every log line with size-based rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu     sync.RWMutex
	logger = newLogger(Options{})
)

// Init replaces the process logger. It is safe to call more than once.
func Init(opts Options) {
	SetLogger(newLogger(opts))
}

// SetLogger installs a preconfigured zap logger, mostly useful in tests.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	if prev != nil {
		_ = prev.Sync()
	}
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	current().Info(msg, toFields(fields)...)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	current().Warn(msg, toFields(fields)...)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	current().Error(msg, toFields(fields)...)
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func toFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case error:
			out = append(out, zap.String(k, v.Error()))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

func newLogger(opts Options) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	level := parseLevel(opts.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    defaultInt(opts.MaxSizeMB, 100),
			MaxBackups: defaultInt(opts.MaxBackups, 3),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}
	return zap.New(zapcore.NewTee(cores...))
}

func parseLevel(raw string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err != nil || strings.TrimSpace(raw) == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
