// Package log provides the engine's structured diagnostic logger.
//
// It is a thin wrapper over log/slog, in the same shape the teacher
// codebase's own log package uses: a Logger handle carrying bound
// key/value context, package-level helpers bound to a swappable root
// logger, and a terminal handler producing a fixed-width, grep-friendly
// line format. The VM's console built-in also writes script output
// through it (see internal/vm/builtins_console.go).
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Logger is a structured logger bound to a fixed set of key/value pairs.
type Logger struct {
	inner *slog.Logger
}

// New returns a Logger derived from the root logger with ctx appended
// as bound key/value pairs.
func New(ctx ...any) Logger {
	return root.With(ctx...)
}

// With returns a derived Logger with additional bound key/value pairs.
func (l Logger) With(ctx ...any) Logger {
	return Logger{inner: l.inner.With(ctx...)}
}

func (l Logger) Trace(msg string, ctx ...any) { l.log(levelTrace, msg, ctx) }
func (l Logger) Debug(msg string, ctx ...any) { l.log(slog.LevelDebug, msg, ctx) }
func (l Logger) Info(msg string, ctx ...any)  { l.log(slog.LevelInfo, msg, ctx) }
func (l Logger) Warn(msg string, ctx ...any)  { l.log(slog.LevelWarn, msg, ctx) }
func (l Logger) Error(msg string, ctx ...any) { l.log(slog.LevelError, msg, ctx) }

func (l Logger) log(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

// levelTrace is one notch below slog.LevelDebug, matching the teacher's
// five-level scheme (Trace/Debug/Info/Warn/Error/Crit collapsed here to
// the four slog exposes plus Trace).
const levelTrace = slog.Level(-8)

var (
	rootMu sync.RWMutex
	root   Logger
)

func init() {
	root = Logger{inner: slog.New(NewTerminalHandler(os.Stderr, false))}
}

// Root returns the current root logger.
func Root() Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// SetDefault replaces the root logger used by the package-level helpers.
func SetDefault(l Logger) {
	rootMu.Lock()
	defer rootMu.Unlock()
	root = l
}

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }

// terminalHandler renders records as
//   LVL [01-02|15:04:05.000] message                         k=v k=v
var levelNames = map[slog.Level]string{
	levelTrace:      "TRCE",
	slog.LevelDebug: "DBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "EROR",
}

type terminalHandler struct {
	mu     sync.Mutex
	out    io.Writer
	useColor bool
	minLevel atomic.Int64
	attrs  []slog.Attr
}

// NewTerminalHandler returns an slog.Handler producing the teacher's
// fixed-width terminal line format.
func NewTerminalHandler(out io.Writer, useColor bool) slog.Handler {
	h := &terminalHandler{out: out, useColor: useColor}
	h.minLevel.Store(int64(slog.LevelInfo))
	return h
}

// NewTerminalHandlerWithLevel returns a terminal handler with an initial
// minimum level.
func NewTerminalHandlerWithLevel(out io.Writer, level slog.Level, useColor bool) *terminalHandler {
	h := &terminalHandler{out: out, useColor: useColor}
	h.minLevel.Store(int64(level))
	return h
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return int64(level) >= h.minLevel.Load()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	name, ok := levelNames[r.Level]
	if !ok {
		name = r.Level.String()
	}
	b.WriteString(name)
	b.WriteString(" [")
	b.WriteString(r.Time.Format("01-02|15:04:05.000"))
	b.WriteString("] ")
	b.WriteString(r.Message)

	var kv []string
	for _, a := range h.attrs {
		kv = append(kv, fmt.Sprintf("%s=%v", a.Key, a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		kv = append(kv, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	})

	if len(kv) > 0 {
		pad := 40 - b.Len()
		if pad < 1 {
			pad = 1
		}
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(strings.Join(kv, " "))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &terminalHandler{out: h.out, useColor: h.useColor}
	n.minLevel.Store(h.minLevel.Load())
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return n
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler { return h }

// Verbosity sets the minimum level reported by the handler.
func (h *terminalHandler) Verbosity(level slog.Level) { h.minLevel.Store(int64(level)) }

// JSONHandler returns an slog.Handler writing newline-delimited JSON at
// the default (debug) level, for hosts that want machine-readable logs.
func JSONHandler(out io.Writer) slog.Handler {
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// JSONHandlerWithLevel returns a JSON handler with an explicit minimum level.
func JSONHandlerWithLevel(out io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
}

// NewLogger wraps an arbitrary slog.Handler as a Logger.
func NewLogger(h slog.Handler) Logger {
	return Logger{inner: slog.New(h)}
}
