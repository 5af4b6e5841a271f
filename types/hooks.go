package types

import (
	"context"
	"time"
)

// Hooks defines callbacks for Checker events.
//
// All hooks are optional. They are called synchronously from the goroutine running
// Verify, after the event completed. Hook errors are logged but never fail
// verification.
//
// Example:
//
//	hooks := &pactl.Hooks{
//	    OnFormulaEvaluated: func(ctx context.Context, key string, d time.Duration) error {
//	        progress.Add(1)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnFormulaEvaluated is called once per evaluated sub-formula with its canonical key.
	OnFormulaEvaluated func(ctx context.Context, key string, duration time.Duration) error

	// OnError is called when Verify fails.
	OnError func(ctx context.Context, err error) error
}
