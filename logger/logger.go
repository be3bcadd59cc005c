package logger

import (
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	// FATAL keeps only fatal entries, which silences the logger.
	FATAL
)

// Logger is the structured JSON logger shared by every component.
type Logger struct {
	level Level
	zl    *zap.Logger
}

// New creates a new logger writing JSON lines to output (stdout when nil).
func New(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	lvl := parseLevel(level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.LevelKey = "level"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(output)),
		zapLevel(lvl),
	)

	return &Logger{level: lvl, zl: zap.New(core)}
}

// FromZap wraps an already configured zap logger.
func FromZap(zl *zap.Logger) *Logger {
	return &Logger{level: DEBUG, zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return FromZap(zap.NewNop())
}

// Zap exposes the underlying zap logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// parseLevel converts string to Level (internal function)
func parseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// toZapFields converts the map based field style into zap fields, sorted by
// key so log lines are stable.
func toZapFields(fields []map[string]any) []zap.Field {
	if len(fields) == 0 || fields[0] == nil {
		return nil
	}
	f := fields[0]

	out := make([]zap.Field, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.String(k, v.Error()))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

// Core logging methods - always structured
func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.zl.Debug(message, toZapFields(fields)...)
}

func (l *Logger) Info(message string, fields ...map[string]any) {
	l.zl.Info(message, toZapFields(fields)...)
}

func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.zl.Warn(message, toZapFields(fields)...)
}

func (l *Logger) Error(message string, fields ...map[string]any) {
	l.zl.Error(message, toZapFields(fields)...)
}

// Specialized logging methods
func (l *Logger) Task(taskID, message string, fields ...map[string]any) {
	allFields := map[string]any{
		"task_id": taskID,
		"type":    "task",
	}

	if len(fields) > 0 && fields[0] != nil {
		maps.Copy(allFields, fields[0])
	}

	l.zl.Info(message, toZapFields([]map[string]any{allFields})...)
}

func (l *Logger) HTTP(method, path string, statusCode int, duration time.Duration, fields ...map[string]any) {
	allFields := map[string]any{
		"http_method": method,
		"http_path":   path,
		"http_status": statusCode,
		"duration_ns": duration.Nanoseconds(),
		"type":        "http_request",
	}

	if len(fields) > 0 && fields[0] != nil {
		maps.Copy(allFields, fields[0])
	}

	l.zl.Info("HTTP request completed", toZapFields([]map[string]any{allFields})...)
}
