package control

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is an agent's conversation control state.
type State string

const (
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateStopped  State = "stopped"
	StateFinished State = "finished"
)

// Snapshot is a stable copy of one agent's control state.
type Snapshot struct {
	State     State     `json:"state"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason,omitempty"`
	Busy      bool      `json:"busy"` // a turn is in flight
}

// Config configures the tracker.
type Config struct {
	// CancelWait bounds how long Stop/Finish wait for a cancelled turn to
	// acknowledge before dropping the handle. Default 5s.
	CancelWait time.Duration

	// OnTransition is an optional hook invoked after every state change,
	// outside any tracker lock.
	OnTransition func(name string, from, to State, reason string)

	// Now is for tests. Defaults to time.Now.
	Now func() time.Time
}

type turnHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type agentEntry struct {
	mu        sync.Mutex
	state     State
	changedAt time.Time
	reason    string
	turn      *turnHandle
}

// Tracker owns the control state of every agent registered in a session.
type Tracker struct {
	mu     sync.RWMutex
	agents map[string]*agentEntry
	cfg    Config
	logger *zap.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(cfg Config, logger *zap.Logger) *Tracker {
	if cfg.CancelWait <= 0 {
		cfg.CancelWait = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		agents: make(map[string]*agentEntry),
		cfg:    cfg,
		logger: logger.With(zap.String("component", "agent_tracker")),
	}
}

// Register adds an agent in state active. Idempotent: registering an existing
// agent is a no-op and does not reset its state.
func (t *Tracker) Register(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.agents[name]; ok {
		return
	}
	t.agents[name] = &agentEntry{state: StateActive, changedAt: t.cfg.Now()}
	t.logger.Debug("agent registered", zap.String("agent", name))
}

func (t *Tracker) entry(name string) (*agentEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.agents[name]
	return e, ok
}

// BeginTurn binds a cancellable context to the agent's current turn. It
// returns false when the agent is not active. The returned end function must
// be called exactly once when the turn completes (successfully or not); it
// releases the handle so later control calls do not wait on a finished turn.
func (t *Tracker) BeginTurn(ctx context.Context, name string) (context.Context, func(), bool) {
	e, ok := t.entry(name)
	if !ok {
		return nil, nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return nil, nil, false
	}

	turnCtx, cancel := context.WithCancel(ctx)
	h := &turnHandle{cancel: cancel, done: make(chan struct{})}
	e.turn = h

	var once sync.Once
	end := func() {
		once.Do(func() {
			e.mu.Lock()
			if e.turn == h {
				e.turn = nil
			}
			e.mu.Unlock()
			cancel()
			close(h.done)
		})
	}
	return turnCtx, end, true
}

// Pause transitions active -> paused and cancels any in-flight turn without
// waiting for it. Returns false for unknown agents or any other state.
func (t *Tracker) Pause(name, reason string) bool {
	e, ok := t.entry(name)
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return false
	}
	from := e.state
	h := e.turn
	e.turn = nil
	e.state = StatePaused
	e.reason = reason
	e.changedAt = t.cfg.Now()
	e.mu.Unlock()

	if h != nil {
		h.cancel()
	}
	t.transition(name, from, StatePaused, reason)
	return true
}

// Resume transitions paused -> active and clears the pause reason.
func (t *Tracker) Resume(name string) bool {
	e, ok := t.entry(name)
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.state != StatePaused {
		e.mu.Unlock()
		return false
	}
	from := e.state
	e.state = StateActive
	e.reason = ""
	e.changedAt = t.cfg.Now()
	e.mu.Unlock()

	t.transition(name, from, StateActive, "")
	return true
}

// Stop transitions active|paused -> stopped, cancels any in-flight turn and
// waits up to CancelWait for it to acknowledge. On timeout the handle is
// dropped and the agent is stopped anyway.
func (t *Tracker) Stop(name, reason string) bool {
	return t.halt(name, reason, StateStopped)
}

// Finish transitions active|paused|stopped -> finished with the same
// cancellation behavior as Stop. Finished means "currently inactive": the
// only transition out is Restart.
func (t *Tracker) Finish(name, reason string) bool {
	return t.halt(name, reason, StateFinished)
}

func (t *Tracker) halt(name, reason string, to State) bool {
	e, ok := t.entry(name)
	if !ok {
		return false
	}

	e.mu.Lock()
	valid := e.state == StateActive || e.state == StatePaused ||
		(to == StateFinished && e.state == StateStopped)
	if !valid {
		e.mu.Unlock()
		return false
	}
	from := e.state
	h := e.turn
	e.turn = nil
	e.state = to
	e.reason = reason
	e.changedAt = t.cfg.Now()
	e.mu.Unlock()

	if h != nil {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(t.cfg.CancelWait):
			t.logger.Warn("in-flight turn did not acknowledge cancellation",
				zap.String("agent", name),
				zap.Duration("waited", t.cfg.CancelWait))
		}
	}
	t.transition(name, from, to, reason)
	return true
}

// Restart transitions stopped|finished -> active.
func (t *Tracker) Restart(name string) bool {
	e, ok := t.entry(name)
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.state != StateStopped && e.state != StateFinished {
		e.mu.Unlock()
		return false
	}
	from := e.state
	e.state = StateActive
	e.reason = ""
	e.changedAt = t.cfg.Now()
	e.mu.Unlock()

	t.transition(name, from, StateActive, "")
	return true
}

// IsActive reports whether the agent exists and is in state active.
func (t *Tracker) IsActive(name string) bool {
	e, ok := t.entry(name)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateActive
}

// ActiveAgents returns the sorted names of all agents in state active.
func (t *Tracker) ActiveAgents() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.agents))
	for name, e := range t.agents {
		e.mu.Lock()
		if e.state == StateActive {
			names = append(names, name)
		}
		e.mu.Unlock()
	}
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}

// States returns a stable copy of every agent's state.
func (t *Tracker) States() map[string]Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Snapshot, len(t.agents))
	for name, e := range t.agents {
		e.mu.Lock()
		out[name] = Snapshot{
			State:     e.state,
			ChangedAt: e.changedAt,
			Reason:    e.reason,
			Busy:      e.turn != nil,
		}
		e.mu.Unlock()
	}
	return out
}

// ResetAll cancels every in-flight turn and returns every agent to active.
// Used when starting a fresh session that reuses the tracker.
func (t *Tracker) ResetAll() {
	t.mu.RLock()
	entries := make(map[string]*agentEntry, len(t.agents))
	for name, e := range t.agents {
		entries[name] = e
	}
	t.mu.RUnlock()

	for name, e := range entries {
		e.mu.Lock()
		from := e.state
		h := e.turn
		e.turn = nil
		e.state = StateActive
		e.reason = ""
		e.changedAt = t.cfg.Now()
		e.mu.Unlock()

		if h != nil {
			h.cancel()
		}
		if from != StateActive {
			t.transition(name, from, StateActive, "reset")
		}
	}
}

func (t *Tracker) transition(name string, from, to State, reason string) {
	t.logger.Info("agent state changed",
		zap.String("agent", name),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason))
	if t.cfg.OnTransition != nil {
		t.cfg.OnTransition(name, from, to, reason)
	}
}
