package pactl

import "github.com/arloliu/pactl/types"

// Re-export sentinel errors from the types package.
//
// Use errors.Is to check for them; all errors returned by the library wrap one
// of these with context.
var (
	ErrInvalidConfig      = types.ErrInvalidConfig
	ErrInvalidParallelism = types.ErrInvalidParallelism
	ErrNoPartitions       = types.ErrNoPartitions
	ErrFragmentMismatch   = types.ErrFragmentMismatch
	ErrCommSizeMismatch   = types.ErrCommSizeMismatch

	ErrUnsupportedFormula = types.ErrUnsupportedFormula
	ErrUnboundVariable    = types.ErrUnboundVariable
	ErrInvariantViolation = types.ErrInvariantViolation
	ErrStateOutOfRange    = types.ErrStateOutOfRange
	ErrUnknownProposition = types.ErrUnknownProposition

	ErrBarrierBroken     = types.ErrBarrierBroken
	ErrProtocolViolation = types.ErrProtocolViolation
	ErrMalformedMessage  = types.ErrMalformedMessage
	ErrTransportClosed   = types.ErrTransportClosed

	ErrCallbackFailed = types.ErrCallbackFailed
)
