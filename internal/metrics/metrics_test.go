package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("refresh", "success")
	m.Observe("refresh", "success")
	m.Observe("revoke", "not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("refresh", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("revoke", "not_found")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("authenticate", "success")))

	count, err := testutil.GatherAndCount(reg, "credentials_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNew_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
