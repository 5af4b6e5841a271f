package logging

import "github.com/arloliu/pactl/types"

// NopLogger discards all log messages. It is the default logger of the checker
// and the transports.
type NopLogger struct{}

// Compile-time assertion that NopLogger implements Logger.
var _ types.Logger = (*NopLogger)(nil)

// NewNop creates a logger that discards all messages.
func NewNop() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(_ /* msg */ string, _ /* keysAndValues */ ...any) {}
func (n *NopLogger) Info(_ /* msg */ string, _ /* keysAndValues */ ...any)  {}
func (n *NopLogger) Warn(_ /* msg */ string, _ /* keysAndValues */ ...any)  {}
func (n *NopLogger) Error(_ /* msg */ string, _ /* keysAndValues */ ...any) {}

// Fatal discards the message and does not exit.
func (n *NopLogger) Fatal(_ /* msg */ string, _ /* keysAndValues */ ...any) {}
