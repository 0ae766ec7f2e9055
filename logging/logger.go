package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface used throughout the
// orchestrator. This allows users to provide their own logger implementation
// or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for testing or when logging is
// disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of an OrchestratorLogger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	SessionID string
}

// DefaultConfig returns a baseline JSON info level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// OrchestratorLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It is cheap to copy via the With* methods.
type OrchestratorLogger struct {
	logger    *slog.Logger
	component string
	sessionID string
}

// New builds an OrchestratorLogger from a config (or defaults if nil).
func New(cfg *Config) *OrchestratorLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &OrchestratorLogger{logger: slog.New(handler), component: cfg.Component, sessionID: cfg.SessionID}
}

// WithComponent returns a copy bound to the logical component (spawner,
// registry, session, etc.).
func (l *OrchestratorLogger) WithComponent(c string) *OrchestratorLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithSession returns a copy bound to a session identifier.
func (l *OrchestratorLogger) WithSession(sid string) *OrchestratorLogger {
	nl := *l
	nl.sessionID = sid
	return &nl
}

func (l *OrchestratorLogger) attrs(extra []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(extra)+2)
	if l.component != "" {
		out = append(out, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		out = append(out, slog.String("session_id", l.sessionID))
	}
	return append(out, extra...)
}

func (l *OrchestratorLogger) log(level slog.Level, msg string, args ...any) {
	l.logger.LogAttrs(context.Background(), level, msg, l.attrs(argsToAttrs(args))...)
}

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}

// Debug logs at debug level.
func (l *OrchestratorLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *OrchestratorLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *OrchestratorLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *OrchestratorLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogModelCall records completion call latency, attempt number and success.
func (l *OrchestratorLogger) LogModelCall(model string, attempt int, dur time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("model", model),
		slog.Int("attempt", attempt),
		slog.Duration("duration", dur),
		slog.Bool("success", err == nil),
	}
	level := slog.LevelInfo
	msg := "Completion call finished"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelWarn
		msg = "Completion call failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.attrs(attrs)...)
}

// LogToolCall records execution details for a tool invocation.
func (l *OrchestratorLogger) LogToolCall(server, tool string, dur time.Duration, success bool) {
	attrs := []slog.Attr{
		slog.String("server_id", server),
		slog.String("tool_name", tool),
		slog.Duration("duration", dur),
		slog.Bool("success", success),
	}
	level := slog.LevelInfo
	msg := "Tool execution completed"
	if !success {
		level = slog.LevelWarn
		msg = "Tool execution failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.attrs(attrs)...)
}

// LogSpawn records the outcome of one delegated session.
func (l *OrchestratorLogger) LogSpawn(persona, sessionID string, calls int, dur time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("persona", persona),
		slog.String("spawned_session", sessionID),
		slog.Int("calls", calls),
		slog.Duration("duration", dur),
		slog.Bool("success", err == nil),
	}
	level := slog.LevelInfo
	msg := "Sub-agent completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "Sub-agent failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.attrs(attrs)...)
}
