package pactl

import (
	"github.com/nats-io/nats.go"

	"github.com/arloliu/pactl/comm"
)

// Option configures a Checker with optional dependencies.
type Option func(*checkerOptions)

// checkerOptions holds optional Checker configuration.
type checkerOptions struct {
	hooks     *Hooks
	metrics   MetricsCollector
	logger    Logger
	transport comm.Transport
	nc        *nats.Conn
}

// WithHooks sets verification event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewChecker
//
// Example:
//
//	hooks := &pactl.Hooks{
//	    OnFormulaEvaluated: func(ctx context.Context, key string, d time.Duration) error {
//	        log.Printf("%s took %v", key, d)
//	        return nil
//	    },
//	}
//	checker, _ := pactl.NewChecker(fragments, solvers, &cfg, pactl.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *checkerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewChecker and FindTerminalComponents
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "pactl")
//	checker, _ := pactl.NewChecker(fragments, solvers, &cfg, pactl.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *checkerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger. Without it, nothing is logged.
//
// Parameters:
//   - logger: Logger taking slog-style key/value pairs (examples/basic adapts a *slog.Logger)
//
// Returns:
//   - Option: Functional option for NewChecker and FindTerminalComponents
func WithLogger(logger Logger) Option {
	return func(o *checkerOptions) {
		o.logger = logger
	}
}

// WithTransport sets the transport that opens one session per Verify call.
//
// The default is the shared-memory barrier transport, with Config.BufferPoolSize
// idle buffers per session.
//
// Parameters:
//   - transport: comm.Transport implementation
//
// Returns:
//   - Option: Functional option for NewChecker
func WithTransport(transport comm.Transport) Option {
	return func(o *checkerOptions) {
		o.transport = transport
	}
}

// WithNATS exchanges deltas over NATS, configured by Config.Transport.
//
// Partitions register in a JetStream KV bucket, so the server must have
// JetStream enabled. WithTransport takes precedence when both are given.
//
// Parameters:
//   - nc: Connected NATS connection
//
// Returns:
//   - Option: Functional option for NewChecker
//
// Example:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	checker, _ := pactl.NewChecker(fragments, solvers, &cfg, pactl.WithNATS(nc))
func WithNATS(nc *nats.Conn) Option {
	return func(o *checkerOptions) {
		o.nc = nc
	}
}
