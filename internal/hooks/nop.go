// Package hooks provides the default no-op checker hooks.
package hooks

import (
	"context"
	"time"

	"github.com/arloliu/pactl/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, string, time.Duration) error = (*NopHooks)(nil).OnFormulaEvaluated
	_ func(context.Context, error) error                 = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnFormulaEvaluated: h.OnFormulaEvaluated,
		OnError:            h.OnError,
	}
}

// Complete returns a copy of h whose nil callbacks are replaced with no-ops.
func Complete(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnFormulaEvaluated != nil {
		out.OnFormulaEvaluated = h.OnFormulaEvaluated
	}
	if h.OnError != nil {
		out.OnError = h.OnError
	}

	return out
}

// OnFormulaEvaluated is a no-op implementation.
func (h *NopHooks) OnFormulaEvaluated(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}
