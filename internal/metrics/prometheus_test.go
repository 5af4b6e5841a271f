package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_LazyRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)

	p.RecordCacheHit()

	families, err = reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestPrometheusCollector_Values(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordCacheHit()
	p.RecordCacheHit()
	require.InDelta(t, 2, testutil.ToFloat64(p.cacheHits), 0)

	p.RecordDeltas(3, 120)
	p.RecordDeltas(1, 40)
	require.InDelta(t, 4, testutil.ToFloat64(p.deltaPairs), 0)
	require.InDelta(t, 160, testutil.ToFloat64(p.deltaBytes), 0)

	p.RecordComponent(5)
	require.InDelta(t, 1, testutil.ToFloat64(p.components), 0)

	p.RecordVerify(0.5, true)
	p.RecordVerify(0.1, false)
	p.RecordOperatorDuration("EF", 0.01)
	p.RecordRounds("EF", 3)
	p.RecordReachPass("backward", 0.002)

	require.Equal(t, 2, testutil.CollectAndCount(p.verifyDuration))
	require.Equal(t, 1, testutil.CollectAndCount(p.rounds, "test_fixpoint_rounds"))
	require.Equal(t, 1, testutil.CollectAndCount(p.reachDuration))
}

func TestNewPrometheus_DefaultRegisterer(t *testing.T) {
	p := NewPrometheus(nil, "")
	require.Equal(t, prometheus.DefaultRegisterer, p.reg)
	require.Equal(t, "pactl", p.namespace)
}
