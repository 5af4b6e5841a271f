// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/pactl/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the default collector of the checker.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// CheckerMetrics implementation

// RecordVerify discards the verify metric.
func (n *NopMetrics) RecordVerify(_ /* duration */ float64, _ /* success */ bool) {
	// No-op
}

// RecordCacheHit discards the cache hit metric.
func (n *NopMetrics) RecordCacheHit() {
	// No-op
}

// FixPointMetrics implementation

// RecordOperatorDuration discards the operator duration metric.
func (n *NopMetrics) RecordOperatorDuration(_ /* operator */ string, _ /* duration */ float64) {
	// No-op
}

// RecordRounds discards the round count metric.
func (n *NopMetrics) RecordRounds(_ /* operator */ string, _ /* rounds */ int) {
	// No-op
}

// CommMetrics implementation

// RecordDeltas discards the delta volume metric.
func (n *NopMetrics) RecordDeltas(_ /* pairs */ int, _ /* bytes */ int) {
	// No-op
}

// DecompositionMetrics implementation

// RecordComponent discards the component metric.
func (n *NopMetrics) RecordComponent(_ /* states */ int) {
	// No-op
}

// RecordReachPass discards the reachability pass metric.
func (n *NopMetrics) RecordReachPass(_ /* direction */ string, _ /* duration */ float64) {
	// No-op
}
