package logger

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"codeberg.org/mutker/thermlog/internal/errors"
	"github.com/rs/zerolog"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// ParseLevel maps a configuration string onto a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, s)
	}
}

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Options selects the sinks of a logger. A logger with neither a file nor
// the console enabled discards everything.
type Options struct {
	File      string
	Console   bool
	Level     LogLevel
	IsService bool
}

type zlogger struct {
	l zerolog.Logger
}

// New builds a logger from opts. The returned closer releases the log file
// and must be called on shutdown; it is never nil.
func New(opts Options) (Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), defaultDirPerm); err != nil {
			return nil, nil, errors.New().Wrap(errors.ErrOpenLogFile, err)
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFilePerm)
		if err != nil {
			return nil, nil, errors.New().Wrap(errors.ErrOpenLogFile, err)
		}
		closer = f
		// The file gets everything down to debug, the console only what was asked for.
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: f},
			Level:  zerolog.DebugLevel,
		})
	}

	if opts.Console {
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: consoleWriter(opts.IsService)},
			Level:  zerolog.Level(opts.Level),
		})
	}

	if len(writers) == 0 {
		return Nop(), closer, nil
	}

	minLevel := zerolog.Level(opts.Level)
	if opts.File != "" {
		minLevel = zerolog.DebugLevel
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(minLevel).
		With().Timestamp().Logger()

	return &zlogger{l: l}, closer, nil
}

// Init builds a logger from opts and installs it as the package logger.
func Init(opts Options) (Logger, io.Closer, error) {
	l, closer, err := New(opts)
	if err != nil {
		return nil, nil, err
	}
	if zl, ok := l.(*zlogger); ok {
		log = zl.l
	} else {
		log = zerolog.Nop()
	}

	return l, closer, nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zlogger{l: zerolog.Nop()}
}

// Writer returns a logger that writes JSON lines to w. Used by tests.
func Writer(w io.Writer) Logger {
	return &zlogger{l: zerolog.New(w).Level(zerolog.DebugLevel)}
}

func consoleWriter(isService bool) zerolog.ConsoleWriter {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	return output
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

func (z *zlogger) Debug() *LogEvent {
	return &LogEvent{z.l.Debug()}
}

func (z *zlogger) Info() *LogEvent {
	return &LogEvent{z.l.Info()}
}

func (z *zlogger) Warn() *LogEvent {
	return &LogEvent{z.l.Warn()}
}

func (z *zlogger) Error() *LogEvent {
	return &LogEvent{z.l.Error()}
}

func (z *zlogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{z.l.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

func (z *zlogger) With(component string) Logger {
	return &zlogger{l: z.l.With().Str("component", component).Logger()}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.Fatal().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// Default returns a Logger backed by the package logger. It follows later
// calls to Init, so it can be handed to components built before the sinks
// are known.
func Default() Logger {
	return pkgLogger{}
}

type pkgLogger struct {
	component string
}

func (p pkgLogger) base() *zerolog.Logger {
	if p.component == "" {
		return &log
	}
	l := log.With().Str("component", p.component).Logger()

	return &l
}

func (p pkgLogger) Debug() *LogEvent {
	return &LogEvent{p.base().Debug()}
}

func (p pkgLogger) Info() *LogEvent {
	return &LogEvent{p.base().Info()}
}

func (p pkgLogger) Warn() *LogEvent {
	return &LogEvent{p.base().Warn()}
}

func (p pkgLogger) Error() *LogEvent {
	return &LogEvent{p.base().Error()}
}

func (p pkgLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{p.base().Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

func (p pkgLogger) With(component string) Logger {
	return pkgLogger{component: component}
}
