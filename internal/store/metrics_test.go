package store

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/service"
	"tasklist/internal/testutil"
)

func TestMetrics_CountOutcomesAndRollbacks(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeService()
	fake.AddTask("1", "Buy milk", false)
	fake.AddTask("2", "Walk dog", false)
	reg := prometheus.NewRegistry()
	st := New(fake, WithRegisterer(reg))

	require.NoError(t, st.Load(ctx))
	require.NoError(t, st.ToggleComplete(ctx, "1"))

	fake.CreateTaskErr = errors.New("boom")
	fake.DeleteTaskErr = errors.New("boom")
	require.Error(t, st.Add(ctx, service.Draft{Title: "x"}))
	require.Error(t, st.Delete(ctx, "2"))

	assert.Equal(t, 1.0, promtest.ToFloat64(st.metrics.operations.WithLabelValues("load", outcomeSuccess)))
	assert.Equal(t, 1.0, promtest.ToFloat64(st.metrics.operations.WithLabelValues("toggle", outcomeSuccess)))
	assert.Equal(t, 1.0, promtest.ToFloat64(st.metrics.operations.WithLabelValues("add", outcomeFailure)))
	assert.Equal(t, 1.0, promtest.ToFloat64(st.metrics.operations.WithLabelValues("delete", outcomeFailure)))
	assert.Equal(t, 1.0, promtest.ToFloat64(st.metrics.rollbacks.WithLabelValues("add", strategyRestore)))
	assert.Equal(t, 1.0, promtest.ToFloat64(st.metrics.rollbacks.WithLabelValues("delete", strategyResync)))
	assert.Equal(t, 0.0, promtest.ToFloat64(st.metrics.inflight))
}

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(testutil.NewFakeService(), WithRegisterer(reg))
	b := New(testutil.NewFakeService(), WithRegisterer(reg))

	require.NoError(t, a.Load(context.Background()))
	require.NoError(t, b.Load(context.Background()))

	assert.Equal(t, 2.0, promtest.ToFloat64(a.metrics.operations.WithLabelValues("load", outcomeSuccess)))
	count, err := promtest.GatherAndCount(reg, "tasklist_store_operations_total", "tasklist_store_inflight_actions")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
