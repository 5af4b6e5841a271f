package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking. Methods are called from partition worker
// goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	CheckerMetrics
	FixPointMetrics
	CommMetrics
	DecompositionMetrics
}

// CheckerMetrics defines metrics for whole verification runs.
type CheckerMetrics interface {
	// RecordVerify records one Verify call.
	//
	// Parameters:
	//   - duration: Time taken in seconds
	//   - success: true if verification produced a result
	RecordVerify(duration float64, success bool)

	// RecordCacheHit records a sub-formula served from the per-verify cache.
	RecordCacheHit()
}

// FixPointMetrics defines metrics for operator evaluations.
type FixPointMetrics interface {
	// RecordOperatorDuration records the evaluation time of one operator on one partition.
	//
	// Parameters:
	//   - operator: Operator name ("EF", "AU", "and", ...)
	//   - duration: Time taken in seconds
	RecordOperatorDuration(operator string, duration float64)

	// RecordRounds records the synchronization rounds a fixed point needed.
	RecordRounds(operator string, rounds int)
}

// CommMetrics defines metrics for cross-partition exchange.
type CommMetrics interface {
	// RecordDeltas records one outbound buffer.
	//
	// Parameters:
	//   - pairs: Number of (state, colors) pairs
	//   - bytes: Encoded size
	RecordDeltas(pairs int, bytes int)
}

// DecompositionMetrics defines metrics for terminal-component decomposition.
type DecompositionMetrics interface {
	// RecordComponent records one reported terminal component.
	RecordComponent(states int)

	// RecordReachPass records one forward or backward reachability pass.
	//
	// Parameters:
	//   - direction: "forward" or "backward"
	//   - duration: Time taken in seconds
	RecordReachPass(direction string, duration float64)
}
