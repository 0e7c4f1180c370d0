// Package metrics provides internal metrics collection for the session
// controller. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records session and agent metrics.
type Collector struct {
	turnsTotal          *prometheus.CounterVec
	turnDuration        *prometheus.HistogramVec
	messagesTotal       *prometheus.CounterVec
	blockedTotal        *prometheus.CounterVec
	compressionsTotal   prometheus.Counter
	memoryWritesTotal   *prometheus.CounterVec
	stateTransitions    *prometheus.CounterVec
	activeAgents        prometheus.Gauge
	llmRequestsTotal    *prometheus.CounterVec
	llmRequestDuration  *prometheus.HistogramVec
	llmTokensUsed       *prometheus.CounterVec
	toolInvocations     *prometheus.CounterVec
	messageRateMultiple prometheus.Gauge

	logger *zap.Logger
}

// NewCollector registers the collector's metrics on reg. Pass
// prometheus.DefaultRegisterer outside tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of agent turns taken",
		},
		[]string{"agent", "status"}, // status: ok, cancelled, skipped
	)

	c.turnDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Agent turn duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	c.messagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of messages appended to session history",
		},
		[]string{"sender_kind"}, // agent, admin, system
	)

	c.blockedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_blocked_total",
			Help:      "Total number of messages blocked by the content filter",
		},
		[]string{"agent"},
	)

	c.compressionsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_compressions_total",
			Help:      "Total number of session history compressions",
		},
	)

	c.memoryWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_writes_total",
			Help:      "Total number of long-term memory writes",
		},
		[]string{"agent"},
	)

	c.stateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_state_transitions_total",
			Help:      "Total number of agent state transitions",
		},
		[]string{"agent", "from_state", "to_state"},
	)

	c.activeAgents = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_agents",
			Help:      "Number of agents currently in state active",
		},
	)

	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: prompt, completion
	)

	c.toolInvocations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Total number of tool invocations",
		},
		[]string{"agent", "tool", "status"}, // status: ok, error, rejected
	)

	c.messageRateMultiple = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "message_rate_multiplier",
			Help:      "Current session pacing multiplier",
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordTurn records one agent turn.
func (c *Collector) RecordTurn(agent, status string, duration time.Duration) {
	c.turnsTotal.WithLabelValues(agent, status).Inc()
	c.turnDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordMessage records one message appended to history.
func (c *Collector) RecordMessage(senderKind string) {
	c.messagesTotal.WithLabelValues(senderKind).Inc()
}

// RecordBlocked records one message blocked by the content filter.
func (c *Collector) RecordBlocked(agent string) {
	c.blockedTotal.WithLabelValues(agent).Inc()
}

// RecordCompression records one history compression.
func (c *Collector) RecordCompression() {
	c.compressionsTotal.Inc()
}

// RecordMemoryWrite records one long-term memory write.
func (c *Collector) RecordMemoryWrite(agent string) {
	c.memoryWritesTotal.WithLabelValues(agent).Inc()
}

// RecordStateTransition records one agent state transition.
func (c *Collector) RecordStateTransition(agent, fromState, toState string) {
	c.stateTransitions.WithLabelValues(agent, fromState, toState).Inc()
}

// SetActiveAgents records the current number of active agents.
func (c *Collector) SetActiveAgents(n int) {
	c.activeAgents.Set(float64(n))
}

// RecordLLMRequest records one LLM request.
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RecordToolInvocation records one tool invocation.
func (c *Collector) RecordToolInvocation(agent, tool, status string) {
	c.toolInvocations.WithLabelValues(agent, tool, status).Inc()
}

// SetMessageRate records the current pacing multiplier.
func (c *Collector) SetMessageRate(rate float64) {
	c.messageRateMultiple.Set(rate)
}
