package pactl

import (
	"context"
	"fmt"

	"github.com/arloliu/pactl/attractor"
)

// FindTerminalComponents reports the terminal strongly connected components of
// g for every color, using a work pool configured by cfg.
//
// onComponent receives each component as the map from its states to the colors
// for which it is terminal. Sinks are reported first, one per call.
//
// Parameters:
//   - ctx: Context for cancellation
//   - g: The whole transition system (not a fragment)
//   - s: Solver of g's colors; wrapped with solver.Synchronized internally
//   - cfg: Configuration (nil means DefaultConfig)
//   - onComponent: Callback; an error stops the decomposition with ErrCallbackFailed
//   - opts: WithLogger and WithMetrics are honored
//
// Returns:
//   - error: Configuration, cancellation or callback error; a panic in g or s
//     surfaces as ErrInvariantViolation
func FindTerminalComponents[C any](
	ctx context.Context,
	g Graph[C],
	s Solver[C],
	cfg *Config,
	onComponent func(component StateMap[C]) error,
	opts ...Option,
) error {
	config := DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	SetDefaults(&config)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	options := &checkerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	decomposerOpts := []attractor.Option{attractor.WithPool(config.workPool())}
	if options.logger != nil {
		decomposerOpts = append(decomposerOpts, attractor.WithLogger(options.logger))
	}
	if options.metrics != nil {
		decomposerOpts = append(decomposerOpts, attractor.WithMetrics(options.metrics))
	}

	d := attractor.NewDecomposer(g, s, decomposerOpts...)

	return d.FindComponents(ctx, func(component StateMap[C]) error {
		return onComponent(component)
	})
}
