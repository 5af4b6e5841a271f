package types

import "errors"

// Sentinel errors for the pactl library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap them with context using fmt.Errorf("%s: %w", msg, err).

// Configuration errors - returned by constructors and Config.Validate.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidParallelism is returned when a parallelism setting is below 1.
	ErrInvalidParallelism = errors.New("parallelism must be at least 1")

	// ErrNoPartitions is returned when a checker is built without partitions.
	ErrNoPartitions = errors.New("at least one partition is required")

	// ErrFragmentMismatch is returned when fragments disagree on the state space
	// or their IDs do not form the range [0, n).
	ErrFragmentMismatch = errors.New("fragments do not describe one partitioned state space")

	// ErrCommSizeMismatch is returned when the number of communication endpoints
	// differs from the number of partitions.
	ErrCommSizeMismatch = errors.New("communicator size does not match partition count")
)

// Evaluation errors - returned by Checker.Verify and the fixed-point engine.
var (
	// ErrUnsupportedFormula is returned when a formula shape reaches the operator
	// resolver without being normalized first.
	ErrUnsupportedFormula = errors.New("unsupported formula")

	// ErrUnboundVariable is returned when a hybrid state variable is used outside
	// of a binder.
	ErrUnboundVariable = errors.New("unbound state variable")

	// ErrInvariantViolation signals a bug: an internal algorithmic invariant did not hold.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrStateOutOfRange is returned when a state id is not below StateCount.
	ErrStateOutOfRange = errors.New("state out of range")

	// ErrUnknownProposition is returned by Fragment.Eval for a proposition the
	// transition system does not define.
	ErrUnknownProposition = errors.New("unknown proposition")
)

// Communication errors - returned by comm transports.
var (
	// ErrBarrierBroken is returned by every participant once one of them failed or
	// the round was cancelled.
	ErrBarrierBroken = errors.New("synchronization barrier broken")

	// ErrProtocolViolation is returned when a peer breaks the round protocol.
	ErrProtocolViolation = errors.New("synchronization protocol violation")

	// ErrMalformedMessage is returned when a delta buffer cannot be decoded.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrTransportClosed is returned when a closed endpoint is used.
	ErrTransportClosed = errors.New("transport closed")
)

// Decomposition errors - returned by the attractor package.
var (
	// ErrCallbackFailed wraps an error returned by a component callback.
	ErrCallbackFailed = errors.New("component callback failed")
)
