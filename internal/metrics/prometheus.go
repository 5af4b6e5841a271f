package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/pactl/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// collector that is never used leaves the registry untouched.
type PrometheusCollector struct {
	*NopMetrics

	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	verifyDuration   *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	operatorDuration *prometheus.HistogramVec
	rounds           *prometheus.HistogramVec
	deltaPairs       prometheus.Counter
	deltaBytes       prometheus.Counter
	components       prometheus.Counter
	componentStates  prometheus.Histogram
	reachDuration    *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "pactl" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "pactl"
	}

	return &PrometheusCollector{NopMetrics: NewNop(), reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.verifyDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "checker",
			Name:      "verify_duration_seconds",
			Help:      "Duration of Verify calls by result (success|failure).",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4.4min
		}, []string{"result"})

		p.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "checker",
			Name:      "cache_hits_total",
			Help:      "Sub-formulas served from the per-verify cache.",
		})

		p.operatorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "fixpoint",
			Name:      "operator_duration_seconds",
			Help:      "Per-partition evaluation time of one operator.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"operator"})

		p.rounds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "fixpoint",
			Name:      "rounds",
			Help:      "Synchronization rounds needed to reach a fixed point.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}, []string{"operator"})

		p.deltaPairs = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "delta_pairs_total",
			Help:      "State/color pairs sent to other partitions.",
		})

		p.deltaBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "delta_bytes_total",
			Help:      "Encoded bytes sent to other partitions.",
		})

		p.components = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "attractor",
			Name:      "components_total",
			Help:      "Terminal components reported.",
		})

		p.componentStates = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "attractor",
			Name:      "component_states",
			Help:      "Number of states in reported terminal components.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		})

		p.reachDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "attractor",
			Name:      "reach_duration_seconds",
			Help:      "Duration of reachability passes by direction (forward|backward).",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"direction"})

		p.reg.MustRegister(p.verifyDuration)
		p.reg.MustRegister(p.cacheHits)
		p.reg.MustRegister(p.operatorDuration)
		p.reg.MustRegister(p.rounds)
		p.reg.MustRegister(p.deltaPairs)
		p.reg.MustRegister(p.deltaBytes)
		p.reg.MustRegister(p.components)
		p.reg.MustRegister(p.componentStates)
		p.reg.MustRegister(p.reachDuration)
	})
}

// RecordVerify observes a Verify duration labelled by outcome.
func (p *PrometheusCollector) RecordVerify(duration float64, success bool) {
	p.ensureRegistered()
	result := "success"
	if !success {
		result = "failure"
	}
	p.verifyDuration.WithLabelValues(result).Observe(duration)
}

// RecordCacheHit increments the cache hit counter.
func (p *PrometheusCollector) RecordCacheHit() {
	p.ensureRegistered()
	p.cacheHits.Inc()
}

// RecordOperatorDuration observes one operator evaluation.
func (p *PrometheusCollector) RecordOperatorDuration(operator string, duration float64) {
	p.ensureRegistered()
	p.operatorDuration.WithLabelValues(operator).Observe(duration)
}

// RecordRounds observes the round count of one fixed point.
func (p *PrometheusCollector) RecordRounds(operator string, rounds int) {
	p.ensureRegistered()
	p.rounds.WithLabelValues(operator).Observe(float64(rounds))
}

// RecordDeltas adds one outbound buffer to the delta counters.
func (p *PrometheusCollector) RecordDeltas(pairs int, bytes int) {
	p.ensureRegistered()
	p.deltaPairs.Add(float64(pairs))
	p.deltaBytes.Add(float64(bytes))
}

// RecordComponent counts one terminal component.
func (p *PrometheusCollector) RecordComponent(states int) {
	p.ensureRegistered()
	p.components.Inc()
	p.componentStates.Observe(float64(states))
}

// RecordReachPass observes one reachability pass.
func (p *PrometheusCollector) RecordReachPass(direction string, duration float64) {
	p.ensureRegistered()
	p.reachDuration.WithLabelValues(direction).Observe(duration)
}
