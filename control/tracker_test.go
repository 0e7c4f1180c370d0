package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return NewTracker(Config{CancelWait: 100 * time.Millisecond}, nil)
}

func TestRegisterIsIdempotent(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")
	require.True(t, tr.Pause("alice", "x"))

	// Re-registering must not reset the paused state.
	tr.Register("alice")
	assert.Equal(t, StatePaused, tr.States()["alice"].State)
}

func TestPauseOnlyFromActive(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")

	assert.True(t, tr.Pause("alice", "thinking"))
	assert.False(t, tr.Pause("alice", "again"), "pausing a paused agent is a no-op")
	assert.False(t, tr.Pause("ghost", "x"), "unknown agent")

	snap := tr.States()["alice"]
	assert.Equal(t, StatePaused, snap.State)
	assert.Equal(t, "thinking", snap.Reason)
}

func TestResumeClearsReason(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")
	require.True(t, tr.Pause("alice", "thinking"))

	assert.True(t, tr.Resume("alice"))
	assert.False(t, tr.Resume("alice"), "resuming an active agent is a no-op")

	snap := tr.States()["alice"]
	assert.Equal(t, StateActive, snap.State)
	assert.Empty(t, snap.Reason)
}

func TestStopFromActiveAndPaused(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")
	tr.Register("bob")

	assert.True(t, tr.Stop("alice", "done"))
	require.True(t, tr.Pause("bob", "x"))
	assert.True(t, tr.Stop("bob", "done"))

	assert.False(t, tr.Resume("alice"), "stopped agents do not resume")
	assert.True(t, tr.Restart("alice"))
	assert.True(t, tr.IsActive("alice"))
}

func TestFinishFromStopped(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")

	require.True(t, tr.Stop("alice", "x"))
	assert.True(t, tr.Finish("alice", "wrapped up"))
	assert.Equal(t, StateFinished, tr.States()["alice"].State)

	// Finished means currently inactive, not terminal.
	assert.True(t, tr.Restart("alice"))
	assert.True(t, tr.IsActive("alice"))
}

func TestBeginTurnOnlyWhenActive(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")
	require.True(t, tr.Pause("alice", "x"))

	_, _, ok := tr.BeginTurn(context.Background(), "alice")
	assert.False(t, ok)

	_, _, ok = tr.BeginTurn(context.Background(), "ghost")
	assert.False(t, ok)
}

func TestPauseCancelsInFlightTurn(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")

	turnCtx, end, ok := tr.BeginTurn(context.Background(), "alice")
	require.True(t, ok)
	defer end()

	assert.True(t, tr.States()["alice"].Busy)
	require.True(t, tr.Pause("alice", "interrupt"))

	select {
	case <-turnCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("pause must cancel the in-flight turn context")
	}
}

func TestStopWaitsForTurnAcknowledgement(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")

	turnCtx, end, ok := tr.BeginTurn(context.Background(), "alice")
	require.True(t, ok)

	go func() {
		<-turnCtx.Done()
		time.Sleep(10 * time.Millisecond)
		end()
	}()

	start := time.Now()
	require.True(t, tr.Stop("alice", "x"))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "stop waits for the turn to end")
	assert.Equal(t, StateStopped, tr.States()["alice"].State)
}

func TestStopTimesOutOnUnresponsiveTurn(t *testing.T) {
	tr := NewTracker(Config{CancelWait: 20 * time.Millisecond}, nil)
	tr.Register("alice")

	_, _, ok := tr.BeginTurn(context.Background(), "alice")
	require.True(t, ok)
	// end is never called; Stop must still complete after CancelWait.

	done := make(chan bool, 1)
	go func() { done <- tr.Stop("alice", "x") }()

	select {
	case stopped := <-done:
		assert.True(t, stopped)
	case <-time.After(time.Second):
		t.Fatal("stop must not hang on an unresponsive turn")
	}
}

func TestEndIsSafeToCallAfterPause(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")

	_, end, ok := tr.BeginTurn(context.Background(), "alice")
	require.True(t, ok)
	require.True(t, tr.Pause("alice", "x"))

	assert.NotPanics(t, func() {
		end()
		end() // idempotent
	})
}

func TestActiveAgentsSorted(t *testing.T) {
	tr := newTestTracker()
	for _, name := range []string{"carol", "alice", "bob"} {
		tr.Register(name)
	}
	require.True(t, tr.Pause("bob", "x"))

	assert.Equal(t, []string{"alice", "carol"}, tr.ActiveAgents())
}

func TestResetAllReturnsEveryoneToActive(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")
	tr.Register("bob")
	require.True(t, tr.Pause("alice", "x"))
	require.True(t, tr.Finish("bob", "y"))

	tr.ResetAll()

	for name, snap := range tr.States() {
		assert.Equal(t, StateActive, snap.State, name)
	}
}

func TestOnTransitionHook(t *testing.T) {
	var mu sync.Mutex
	var transitions []string
	tr := NewTracker(Config{
		OnTransition: func(name string, from, to State, reason string) {
			mu.Lock()
			transitions = append(transitions, name+":"+string(from)+"->"+string(to))
			mu.Unlock()
		},
	}, nil)
	tr.Register("alice")

	require.True(t, tr.Pause("alice", "x"))
	require.True(t, tr.Resume("alice"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alice:active->paused", "alice:paused->active"}, transitions)
}

func TestConcurrentControlCalls(t *testing.T) {
	tr := newTestTracker()
	tr.Register("alice")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.Pause("alice", "x")
		}()
		go func() {
			defer wg.Done()
			tr.Resume("alice")
		}()
	}
	wg.Wait()

	state := tr.States()["alice"].State
	assert.Contains(t, []State{StateActive, StatePaused}, state)
}
