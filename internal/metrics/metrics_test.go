package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Mutation("create_note")
	m.Mutation("create_note")
	m.DocumentProcessed("completed")
	m.ChatQuery()
	m.PersistError("notes", "save")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeMutations.WithLabelValues("create_note")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documentsProcessed.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatQueries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistErrors.WithLabelValues("notes", "save")))

	n, err := testutil.GatherAndCount(reg, "folio_store_mutations_total", "folio_chat_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Mutation("x")
		m.DocumentProcessed("error")
		m.ChatQuery()
		m.PersistError("chat", "load")
	})
}

func TestEventClientsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	open := 3
	EventClients(reg, func() int { return open })

	n, err := testutil.GatherAndCount(reg, "folio_event_clients")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, 3.0, families[0].GetMetric()[0].GetGauge().GetValue())
}
