// Package logger provides the structured logger shared by the ragdesk services.
// A Logger is built once at start-up and passed to every component that logs.
// Console output is only produced in verbose mode; the optional daily file sink
// records everything as JSON so query pipelines can be inspected afterwards.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a Logger.
type Options struct {
	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer

	// Verbose enables debug, info and warning lines on the console.
	// Errors are always printed.
	Verbose bool

	// Dir enables the JSON file sink at Dir/rag_debug_YYYYMMDD.log.
	Dir string

	// Now overrides the clock used to name the daily log file.
	Now func() time.Time
}

// Logger writes pipeline diagnostics to the console and an optional file.
// The zero value is not usable; a nil *Logger discards everything.
type Logger struct {
	verbose atomic.Bool

	mu      sync.Mutex
	console io.Writer

	term *zap.Logger
	file *zap.Logger

	closer io.Closer
}

// New creates a Logger from the given options.
func New(opts Options) (*Logger, error) {
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Logger{console: opts.Console}
	l.verbose.Store(opts.Verbose)

	termCfg := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      bracketLevelEncoder,
		ConsoleSeparator: " ",
	}
	termEnabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel || l.verbose.Load()
	})
	termCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(termCfg),
		zapcore.AddSync(&lockedWriter{l: l}),
		termEnabler,
	)
	l.term = zap.New(termCore)

	l.file = zap.NewNop()
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName(opts.Now())),
			MaxSize:    50,
			MaxBackups: 5,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(rotator),
			zapcore.DebugLevel,
		)
		l.file = zap.New(fileCore)
		l.closer = rotator
	}

	return l, nil
}

// FileName returns the daily log file name for t.
func FileName(t time.Time) string {
	return "rag_debug_" + t.Format("20060102") + ".log"
}

// bracketLevelEncoder renders levels as [DEBUG], [INFO], [WARN], [ERROR].
func bracketLevelEncoder(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + lvl.CapitalString() + "]")
}

// lockedWriter serialises console writes with Section output.
type lockedWriter struct {
	l *Logger
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.console.Write(p)
}

// SetVerbose enables or disables verbose console output.
func (l *Logger) SetVerbose(v bool) {
	if l == nil {
		return
	}
	l.verbose.Store(v)
}

// IsVerbose returns true if verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	if l == nil {
		return false
	}
	return l.verbose.Load()
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(zapcore.DebugLevel, fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(zapcore.InfoLevel, fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) {
	l.log(zapcore.WarnLevel, fmt.Sprintf(format, args...))
}

// Error logs an error. Errors reach the console even without verbose mode.
func (l *Logger) Error(format string, args ...any) {
	l.log(zapcore.ErrorLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) log(lvl zapcore.Level, msg string, fields ...zap.Field) {
	if l == nil {
		return
	}
	if ce := l.term.Check(lvl, msg); ce != nil {
		ce.Write()
	}
	if ce := l.file.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l == nil {
		return
	}
	if l.verbose.Load() {
		l.mu.Lock()
		fmt.Fprintf(l.console, "\n=== %s ===\n", name)
		l.mu.Unlock()
	}
	l.file.Info("section", zap.String("name", name))
}

// Metric records a named measurement with its context.
func (l *Logger) Metric(name string, value float64, context map[string]any) {
	if l == nil {
		return
	}
	ctx := "{}"
	if len(context) > 0 {
		if data, err := json.Marshal(context); err == nil {
			ctx = string(data)
		}
	}
	msg := fmt.Sprintf("METRIC: %s = %.4f | Context: %s", name, value, ctx)
	l.log(zapcore.InfoLevel, msg,
		zap.String("metric", name),
		zap.Float64("value", value),
		zap.Any("context", context),
	)
}

// QueryStart records the beginning of a query.
func (l *Logger) QueryStart(queryID, question string) {
	l.log(zapcore.InfoLevel,
		fmt.Sprintf("QUERY_START [%s]: %s", queryID, truncate(question, 100)),
		zap.String("query_id", queryID),
	)
}

// QueryComplete records the end of a query.
func (l *Logger) QueryComplete(queryID string, total time.Duration, chunks int) {
	l.log(zapcore.InfoLevel,
		fmt.Sprintf("QUERY_COMPLETE [%s]: %.3fs, %d chunks", queryID, total.Seconds(), chunks),
		zap.String("query_id", queryID),
		zap.Duration("total", total),
		zap.Int("chunks", chunks),
	)
}

// Sync flushes buffered entries and closes the file sink.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	_ = l.term.Sync()
	_ = l.file.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
