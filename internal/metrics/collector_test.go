package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("colloquy", reg, nil), reg
}

func TestRecordTurn(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordTurn("alice", "ok", 2*time.Second)
	c.RecordTurn("alice", "ok", time.Second)
	c.RecordTurn("bob", "cancelled", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.turnsTotal.WithLabelValues("alice", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.turnsTotal.WithLabelValues("bob", "cancelled")))
}

func TestRecordBlockedAndCompression(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordBlocked("alice")
	c.RecordCompression()
	c.RecordCompression()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.blockedTotal.WithLabelValues("alice")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.compressionsTotal))
}

func TestStateTransitionAndGauges(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordStateTransition("alice", "active", "paused")
	c.SetActiveAgents(3)
	c.SetMessageRate(1.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.stateTransitions.WithLabelValues("alice", "active", "paused")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.activeAgents))
	assert.Equal(t, 1.5, testutil.ToFloat64(c.messageRateMultiple))
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	require.NotPanics(t, func() {
		NewCollector("colloquy", reg1, nil)
		NewCollector("colloquy", reg2, nil)
	})
}
