package types

// Logger defines methods for structured logging.
//
// All methods accept alternating key-value pairs for structured fields, the
// convention used by log/slog and zap.SugaredLogger.
type Logger interface {
	// Debug logs a message at DebugLevel. Per-round and per-operator progress is
	// reported at this level.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and terminates the process.
	//
	// The library itself never calls Fatal; failures are returned as errors.
	Fatal(msg string, keysAndValues ...any)
}
