package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with a small structured-field API so callers do not
// depend on the underlying library directly.
type Logger struct {
	log zerolog.Logger
}

// Field is a typed key/value pair attached to a log entry.
type Field interface {
	AddTo(e *zerolog.Event)
}

type StringField struct {
	Key   string
	Value string
}

func (f StringField) AddTo(e *zerolog.Event) { e.Str(f.Key, f.Value) }

type IntField struct {
	Key   string
	Value int
}

func (f IntField) AddTo(e *zerolog.Event) { e.Int(f.Key, f.Value) }

type Int64Field struct {
	Key   string
	Value int64
}

func (f Int64Field) AddTo(e *zerolog.Event) { e.Int64(f.Key, f.Value) }

type Float64Field struct {
	Key   string
	Value float64
}

func (f Float64Field) AddTo(e *zerolog.Event) { e.Float64(f.Key, f.Value) }

type BoolField struct {
	Key   string
	Value bool
}

func (f BoolField) AddTo(e *zerolog.Event) { e.Bool(f.Key, f.Value) }

type ErrorField struct {
	Value error
}

func (f ErrorField) AddTo(e *zerolog.Event) { e.Err(f.Value) }

type AnyField struct {
	Key   string
	Value any
}

func (f AnyField) AddTo(e *zerolog.Event) { e.Interface(f.Key, f.Value) }

func String(key, value string) Field          { return StringField{Key: key, Value: value} }
func Int(key string, value int) Field         { return IntField{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Int64Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Float64Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return BoolField{Key: key, Value: value} }
func Error(err error) Field                   { return ErrorField{Value: err} }
func Any(key string, value any) Field         { return AnyField{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return StringField{Key: key, Value: value.String()}
}
func Strings(key string, value []string) Field {
	return StringField{Key: key, Value: strings.Join(value, ",")}
}

// New builds a Logger writing JSON to stdout at the given level. In the
// development environment it switches to a human-readable console writer.
func New(level, environment string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if environment == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(lvl).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	}

	return &Logger{log: log}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{log: zerolog.Nop()}
}

// With returns a child logger with the fields attached to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{log: l.log.Hook(fieldHook(fields))}
}

type fieldHook []Field

func (h fieldHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	for _, f := range h {
		f.AddTo(e)
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.log.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.log.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.log.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.log.Error(), msg, fields) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.emit(l.log.Fatal(), msg, fields) }

func (l *Logger) emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(e)
	}
	e.Msg(msg)
}
