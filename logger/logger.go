// Package logger defines the logging surface the library writes to. Callers
// plug in their own implementation; the default is NoopLogger, so the
// library stays silent unless configured otherwise.
package logger

// Logger accepts leveled messages with structured fields.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// NoopLogger discards every message.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}

// OrNoop returns l, or NoopLogger when l is nil. Constructors use it so a
// nil logger argument is always safe.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
