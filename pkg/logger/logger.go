package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled process-wide logger backed by zap.
// - JSON output on stdout, ISO8601 timestamps
// - provides Debug/Info/Warn/Error/Fatal variants and Init(level)

var (
	mu     sync.RWMutex
	atom   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger(zapcore.AddSync(os.Stdout))
)

func newLogger(ws zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, atom)
	return zap.New(core, zap.AddCaller())
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		atom.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		atom.SetLevel(zapcore.WarnLevel)
	case "error":
		atom.SetLevel(zapcore.ErrorLevel)
	case "fatal":
		atom.SetLevel(zapcore.FatalLevel)
	default:
		atom.SetLevel(zapcore.InfoLevel)
	}
}

// L returns the underlying zap logger for structured fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetCore swaps the output core (tests use an observer core). The returned
// func restores the previous logger.
func SetCore(core zapcore.Core) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := logger
	logger = zap.New(core, zap.AddCaller())
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Enabled reports whether the given level is currently logged.
func Enabled(l zapcore.Level) bool { return atom.Enabled(l) }

// sugar skips the package's own wrapper frame so entries point at the caller.
func sugar() *zap.SugaredLogger { return L().WithOptions(zap.AddCallerSkip(1)).Sugar() }

func logAt(l zapcore.Level, v string) {
	if !Enabled(l) {
		return
	}
	L().WithOptions(zap.AddCallerSkip(2)).Log(l, v)
}

func Debugf(format string, v ...interface{}) {
	if !Enabled(zapcore.DebugLevel) {
		return
	}
	sugar().Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	if !Enabled(zapcore.InfoLevel) {
		return
	}
	sugar().Infof(format, v...)
}

func Warnf(format string, v ...interface{}) {
	if !Enabled(zapcore.WarnLevel) {
		return
	}
	sugar().Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	if !Enabled(zapcore.ErrorLevel) {
		return
	}
	sugar().Errorf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	sugar().Fatalf(format, v...)
}

// Println kept for brief messages (maps to Info)
func Println(v ...interface{}) {
	if !Enabled(zapcore.InfoLevel) {
		return
	}
	sugar().Info(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Debug/Info/Warn/Error helpers that accept a single string
func Debug(v string) { logAt(zapcore.DebugLevel, v) }
func Info(v string)  { logAt(zapcore.InfoLevel, v) }
func Warn(v string)  { logAt(zapcore.WarnLevel, v) }
func Error(v string) { logAt(zapcore.ErrorLevel, v) }

// LevelString returns the current level as text.
func LevelString() string {
	switch atom.Level() {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.WarnLevel:
		return "warn"
	case zapcore.ErrorLevel:
		return "error"
	case zapcore.FatalLevel:
		return "fatal"
	}
	return "info"
}
