package logging

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/pactl/types"
)

// TestLogger writes through testing.TB and keeps every line for assertions.
//
// It is safe for concurrent use, so partition workers may share it.
type TestLogger struct {
	t     testing.TB
	mu    sync.Mutex
	lines []string
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a test logger writing to t.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NewTest(t)
//	    cfg.ValidateWithWarnings(logger)
//	    require.True(t, logger.Contains("WARN"))
//	}
func NewTest(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *TestLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *TestLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *TestLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// Fatal logs the message and fails the test.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.log("FATAL", msg, keysAndValues)
	l.t.FailNow()
}

// Lines returns a copy of every logged line.
func (l *TestLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.lines...)
}

// Contains reports whether any logged line contains substr.
func (l *TestLogger) Contains(substr string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}

	return false
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	line := strings.TrimSpace(fmt.Sprintf("%s: %s %s", level, msg, formatKeyValues(keysAndValues)))

	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()

	l.t.Log(line)
}

// formatKeyValues formats key-value pairs for logging.
func formatKeyValues(keysAndValues []any) string {
	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, "%v=<missing>", keysAndValues[i])
		}
	}

	return sb.String()
}
