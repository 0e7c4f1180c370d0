package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BaSui01/colloquy/agent"
	"github.com/BaSui01/colloquy/control"
	"github.com/BaSui01/colloquy/filter"
	"github.com/BaSui01/colloquy/history"
	"github.com/BaSui01/colloquy/internal/metrics"
	"github.com/BaSui01/colloquy/internal/telemetry"
	"github.com/BaSui01/colloquy/types"
)

// Mode selects the minimum viable roster for a session.
type Mode string

const (
	// ModeSolo runs a single agent talking to itself (or to injected input).
	ModeSolo Mode = "solo"

	// ModePeer requires at least two agents conversing with each other.
	ModePeer Mode = "peer"
)

// Config configures the session controller.
type Config struct {
	// Mode determines the roster size check at Start. Defaults to peer.
	Mode Mode `yaml:"mode" json:"mode"`

	// LastMessages bounds the recent-message window exposed by Status.
	LastMessages int `yaml:"last_messages" json:"last_messages"`

	// BaseTurnDelay is the pause between consecutive turns at rate 1.0.
	BaseTurnDelay time.Duration `yaml:"base_turn_delay" json:"base_turn_delay"`

	// MinRate and MaxRate clamp SetMessageRate.
	MinRate float64 `yaml:"min_rate" json:"min_rate"`
	MaxRate float64 `yaml:"max_rate" json:"max_rate"`

	// DelayFloor bounds how short the inter-turn delay can get at high rates.
	DelayFloor time.Duration `yaml:"delay_floor" json:"delay_floor"`

	// MemoryFanout bounds concurrent memory writes during a broadcast.
	MemoryFanout int `yaml:"memory_fanout" json:"memory_fanout"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Mode:          ModePeer,
		LastMessages:  8,
		BaseTurnDelay: 2 * time.Second,
		MinRate:       0.1,
		MaxRate:       5.0,
		DelayFloor:    50 * time.Millisecond,
		MemoryFanout:  4,
	}
}

// Status is a consistent snapshot of the session.
type Status struct {
	SessionID    string                      `json:"session_id"`
	Topic        string                      `json:"topic"`
	Running      bool                        `json:"running"`
	StartedAt    time.Time                   `json:"started_at"`
	MessageCount int                         `json:"message_count"`
	HistoryLen   int                         `json:"history_len"`
	Rate         float64                     `json:"rate"`
	LastMessages []types.Message             `json:"last_messages"`
	Agents       map[string]control.Snapshot `json:"agents"`
}

// Options wires the controller's collaborators. Agents take turns in slice
// order. Compressor, Transcripts and Metrics may be nil.
type Options struct {
	Config      Config
	Agents      []*agent.Runtime
	Tracker     *control.Tracker
	Filter      *filter.Filter
	Compressor  *history.Compressor
	Transcripts TranscriptStore
	Metrics     *metrics.Collector
	Logger      *zap.Logger
}

// Controller drives a rotating multi-agent conversation. One loop goroutine
// takes turns in roster order; all mutation of shared session state happens
// under a single mutex held only for discrete operations, never across an LLM
// call.
type Controller struct {
	cfg         Config
	agents      []*agent.Runtime
	tracker     *control.Tracker
	filter      *filter.Filter
	compressor  *history.Compressor
	transcripts TranscriptStore
	metrics     *metrics.Collector
	logger      *zap.Logger
	limiter     *rate.Limiter

	mu        sync.Mutex
	running   bool
	sessionID string
	topic     string
	startedAt time.Time
	hist      []types.Message
	last      []types.Message
	total     int
	rateMult  float64
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a Controller. Roster size is validated at Start, not here, so a
// controller can be built before its agents are finalized.
func New(opts Options) *Controller {
	cfg := opts.Config
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.LastMessages <= 0 {
		cfg.LastMessages = def.LastMessages
	}
	if cfg.BaseTurnDelay <= 0 {
		cfg.BaseTurnDelay = def.BaseTurnDelay
	}
	if cfg.MinRate <= 0 {
		cfg.MinRate = def.MinRate
	}
	if cfg.MaxRate <= 0 {
		cfg.MaxRate = def.MaxRate
	}
	if cfg.DelayFloor <= 0 {
		cfg.DelayFloor = def.DelayFloor
	}
	if cfg.MemoryFanout <= 0 {
		cfg.MemoryFanout = def.MemoryFanout
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	f := opts.Filter
	if f == nil {
		f = filter.New(filter.Config{})
	}

	c := &Controller{
		cfg:         cfg,
		agents:      opts.Agents,
		tracker:     opts.Tracker,
		filter:      f,
		compressor:  opts.Compressor,
		transcripts: opts.Transcripts,
		metrics:     opts.Metrics,
		logger:      logger.With(zap.String("component", "session_controller")),
		limiter:     rate.NewLimiter(rate.Every(cfg.BaseTurnDelay), 1),
		rateMult:    1.0,
	}
	for _, rt := range c.agents {
		c.tracker.Register(rt.Name())
	}
	return c
}

// Start begins a new session on the topic. Returns false with a nil error
// when a session is already running. Roster problems are reported as a
// configuration error.
func (c *Controller) Start(topic string) (bool, error) {
	if strings.TrimSpace(topic) == "" {
		return false, types.NewConfigError("session topic is required")
	}
	if err := c.checkRoster(); err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return false, nil
	}
	c.sessionID = uuid.NewString()
	c.topic = topic
	c.startedAt = time.Now()
	c.hist = nil
	c.last = nil
	c.total = 0
	c.running = true
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	c.stopCh = stopCh
	c.doneCh = doneCh
	sessionID := c.sessionID
	c.mu.Unlock()

	c.tracker.ResetAll()
	c.logger.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("topic", topic),
		zap.Int("agents", len(c.agents)))

	go c.loop(stopCh, doneCh)
	return true, nil
}

func (c *Controller) checkRoster() error {
	min := 2
	if c.cfg.Mode == ModeSolo {
		min = 1
	}
	if len(c.agents) < min {
		return types.NewConfigError("%s mode requires at least %d agent(s), have %d", c.cfg.Mode, min, len(c.agents))
	}
	return nil
}

// Stop ends the session. The in-flight turn is allowed to complete and its
// message is appended; no further turns are taken. Returns false when no
// session is running.
func (c *Controller) Stop() bool {
	return c.halt(false)
}

// Pause suspends the loop, keeping topic and history so Resume can continue
// the same session. The in-flight turn completes first.
func (c *Controller) Pause() bool {
	return c.halt(true)
}

func (c *Controller) halt(keepSession bool) bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	c.running = false
	close(c.stopCh)
	done := c.doneCh
	sessionID := c.sessionID
	c.mu.Unlock()

	<-done

	if !keepSession {
		c.mu.Lock()
		c.topic = ""
		c.mu.Unlock()
		c.logger.Info("session stopped", zap.String("session_id", sessionID))
	} else {
		c.logger.Info("session paused", zap.String("session_id", sessionID))
	}
	return true
}

// Resume restarts a paused session's loop. Returns false when already running
// or when there is no paused session to resume.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	if c.running || c.topic == "" {
		c.mu.Unlock()
		return false
	}
	c.running = true
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	c.stopCh = stopCh
	c.doneCh = doneCh
	sessionID := c.sessionID
	c.mu.Unlock()

	c.logger.Info("session resumed", zap.String("session_id", sessionID))
	go c.loop(stopCh, doneCh)
	return true
}

// loop is the single turn-taking goroutine. It walks the roster in order,
// skipping agents the tracker reports as not active, and paces turns through
// the limiter.
func (c *Controller) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		took := false
		for _, rt := range c.passRoster() {
			select {
			case <-stopCh:
				return
			default:
			}
			if c.takeTurn(rt) {
				took = true
				if !c.waitTurnDelay(stopCh) {
					return
				}
			}
		}
		if !took {
			// Everyone paused, stopped or finished; idle until control
			// calls change that or the session halts.
			if !c.waitTurnDelay(stopCh) {
				return
			}
		}
	}
}

// passRoster snapshots the agents active at the moment a pass begins. An
// agent resumed mid-pass waits for the next pass; one paused mid-pass is
// still skipped by the turn gate in takeTurn.
func (c *Controller) passRoster() []*agent.Runtime {
	out := make([]*agent.Runtime, 0, len(c.agents))
	for _, rt := range c.agents {
		if c.tracker.IsActive(rt.Name()) {
			out = append(out, rt)
		}
	}
	return out
}

// takeTurn runs one agent turn end to end. Reports whether a turn was
// actually attempted (the agent was active).
func (c *Controller) takeTurn(rt *agent.Runtime) bool {
	name := rt.Name()
	turnCtx, end, ok := c.tracker.BeginTurn(context.Background(), name)
	if !ok {
		return false
	}
	defer end()

	c.mu.Lock()
	topic := c.topic
	sessionID := c.sessionID
	snapshot := append([]types.Message(nil), c.hist...)
	c.mu.Unlock()

	turnCtx, span := telemetry.Tracer().Start(turnCtx, "session.turn")
	span.SetAttributes(
		attribute.String("agent", name),
		attribute.String("session_id", sessionID),
	)
	defer span.End()

	start := time.Now()
	u := rt.Generate(turnCtx, topic, snapshot)
	elapsed := time.Since(start)

	if turnCtx.Err() != nil {
		// Pause/stop landed mid-generation; the partial result is discarded.
		c.logger.Info("turn cancelled", zap.String("agent", name))
		if c.metrics != nil {
			c.metrics.RecordTurn(name, "cancelled", elapsed)
		}
		return true
	}

	verdict := c.filter.Evaluate(u.Text)
	if !verdict.Allowed {
		c.logger.Warn("utterance blocked",
			zap.String("agent", name),
			zap.Strings("matched", verdict.Matched))
		if c.metrics != nil {
			c.metrics.RecordBlocked(name)
			c.metrics.RecordTurn(name, "blocked", elapsed)
		}
		return true
	}
	if verdict.Action == filter.ActionWarn {
		c.logger.Warn("utterance flagged", zap.String("agent", name), zap.String("detail", verdict.Message))
	}

	msg := types.NewMessage(rt.DisplayName(), verdict.Content).WithAudio(u.Audio)
	c.appendMessage(msg, "agent")
	c.broadcastMemory(sessionID, topic, msg)
	c.maybeCompress()

	if c.metrics != nil {
		c.metrics.RecordTurn(name, "ok", elapsed)
	}
	c.logger.Debug("turn completed",
		zap.String("agent", name),
		zap.Duration("took", elapsed))
	return true
}

// appendMessage adds the message to the bounded history and the recent
// window, and persists it to the transcript store.
func (c *Controller) appendMessage(msg types.Message, senderKind string) {
	c.mu.Lock()
	c.hist = append(c.hist, msg)
	c.last = append(c.last, msg)
	if len(c.last) > c.cfg.LastMessages {
		c.last = c.last[len(c.last)-c.cfg.LastMessages:]
	}
	c.total++
	sessionID := c.sessionID
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordMessage(senderKind)
	}
	if c.transcripts != nil {
		if err := c.transcripts.Append(context.Background(), sessionID, msg); err != nil {
			c.logger.Warn("transcript append failed", zap.Error(err))
		}
	}
}

// broadcastMemory writes the message into every agent's long-term memory, not
// just the speaker's, so each agent can later recall what the others said.
func (c *Controller) broadcastMemory(sessionID, topic string, msg types.Message) {
	var g errgroup.Group
	g.SetLimit(c.cfg.MemoryFanout)
	for _, rt := range c.agents {
		rt := rt
		g.Go(func() error {
			rt.RememberMessage(context.Background(), msg.Sender, msg.Content, sessionID, topic)
			if c.metrics != nil {
				c.metrics.RecordMemoryWrite(rt.Name())
			}
			return nil
		})
	}
	g.Wait() // writes never return errors; this is a barrier
}

// maybeCompress folds the oldest half of the history into a summary when it
// has grown past the threshold. The LLM summarization call runs outside the
// lock; messages appended meanwhile are re-attached afterwards.
func (c *Controller) maybeCompress() {
	if c.compressor == nil {
		return
	}

	c.mu.Lock()
	snapshot := append([]types.Message(nil), c.hist...)
	c.mu.Unlock()

	if !c.compressor.ShouldCompress(snapshot) {
		return
	}
	compressed, ok := c.compressor.Compress(context.Background(), snapshot)
	if !ok {
		return
	}

	c.mu.Lock()
	if len(c.hist) < len(snapshot) {
		// ClearHistory ran while the summary was being generated; the
		// result no longer describes the live history.
		c.mu.Unlock()
		c.logger.Info("compression result discarded, history shrank during summarization")
		return
	}
	tail := c.hist[len(snapshot):]
	c.hist = append(compressed, tail...)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordCompression()
	}
}

// waitTurnDelay paces the loop. Returns false when the session halted during
// the wait.
func (c *Controller) waitTurnDelay(stopCh chan struct{}) bool {
	r := c.limiter.Reserve()
	if !r.OK() {
		return true
	}
	d := r.Delay()
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stopCh:
		r.Cancel()
		return false
	}
}

// SetMessageRate adjusts the pacing multiplier: 2.0 halves the inter-turn
// delay, 0.5 doubles it. The requested value is clamped and the applied value
// returned.
func (c *Controller) SetMessageRate(mult float64) float64 {
	if mult < c.cfg.MinRate {
		mult = c.cfg.MinRate
	}
	if mult > c.cfg.MaxRate {
		mult = c.cfg.MaxRate
	}

	interval := time.Duration(float64(c.cfg.BaseTurnDelay) / mult)
	if interval < c.cfg.DelayFloor {
		interval = c.cfg.DelayFloor
	}
	c.limiter.SetLimit(rate.Every(interval))

	c.mu.Lock()
	c.rateMult = mult
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetMessageRate(mult)
	}
	c.logger.Info("message rate set",
		zap.Float64("multiplier", mult),
		zap.Duration("interval", interval))
	return mult
}

// InjectMessage appends an operator message to the conversation. An empty
// sender defaults to Admin. The message is broadcast to every agent's memory
// like any other.
func (c *Controller) InjectMessage(sender, content string) error {
	if strings.TrimSpace(content) == "" {
		return types.NewConfigError("injected message content is required")
	}
	if sender == "" {
		sender = types.SenderAdmin
	}

	c.mu.Lock()
	if c.topic == "" {
		c.mu.Unlock()
		return types.NewConfigError("no session to inject into")
	}
	sessionID := c.sessionID
	topic := c.topic
	c.mu.Unlock()

	msg := types.NewMessage(sender, content)
	c.appendMessage(msg, "admin")
	c.broadcastMemory(sessionID, topic, msg)

	c.logger.Info("message injected", zap.String("sender", sender))
	return nil
}

// SwitchTopic redirects the conversation. A system note marks the switch in
// the history so agents see it in their rendered context.
func (c *Controller) SwitchTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return types.NewConfigError("topic is required")
	}

	c.mu.Lock()
	if c.topic == "" {
		c.mu.Unlock()
		return types.NewConfigError("no session to switch")
	}
	c.topic = topic
	sessionID := c.sessionID
	c.mu.Unlock()

	note := types.NewSystemMessage("Context switched to: " + topic)
	c.appendMessage(note, "system")
	c.broadcastMemory(sessionID, topic, note)

	c.logger.Info("topic switched", zap.String("topic", topic))
	return nil
}

// ClearHistory empties the short-term conversation history and the recent
// window. Long-term memory and the persisted transcript are untouched; use
// PurgeMemory for the former.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	c.hist = nil
	c.last = nil
	c.mu.Unlock()
	c.logger.Info("history cleared")
}

// PurgeMemory deletes long-term memory for the current session. An empty
// agentName purges every agent's namespace.
func (c *Controller) PurgeMemory(ctx context.Context, agentName string) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	for _, rt := range c.agents {
		if agentName != "" && rt.Name() != agentName {
			continue
		}
		if err := rt.PurgeMemory(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// Status returns a consistent snapshot of the session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{
		SessionID:    c.sessionID,
		Topic:        c.topic,
		Running:      c.running,
		StartedAt:    c.startedAt,
		MessageCount: c.total,
		HistoryLen:   len(c.hist),
		Rate:         c.rateMult,
		LastMessages: append([]types.Message(nil), c.last...),
	}
	c.mu.Unlock()

	st.Agents = c.tracker.States()
	return st
}

// PauseAgent suspends one agent, cancelling its in-flight turn.
func (c *Controller) PauseAgent(name, reason string) bool {
	return c.tracker.Pause(name, reason)
}

// ResumeAgent returns a paused agent to the rotation.
func (c *Controller) ResumeAgent(name string) bool {
	return c.tracker.Resume(name)
}

// StopAgent halts one agent until restarted.
func (c *Controller) StopAgent(name, reason string) bool {
	return c.tracker.Stop(name, reason)
}

// FinishAgent marks one agent as done with the conversation.
func (c *Controller) FinishAgent(name, reason string) bool {
	return c.tracker.Finish(name, reason)
}

// RestartAgent returns a stopped or finished agent to the rotation.
func (c *Controller) RestartAgent(name string) bool {
	return c.tracker.Restart(name)
}
