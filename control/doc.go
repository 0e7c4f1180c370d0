// Package control tracks per-agent conversation state: a small finite-state
// machine (active/paused/stopped/finished) with a cancellable handle to the
// agent's in-flight turn. Pausing or stopping an agent cancels whatever that
// agent is generating right now; stop and finish additionally wait a bounded
// time for the cancellation to be observed.
//
// All operations are safe to call concurrently across agents. Each agent's
// state is independently locked; the tracker's map is guarded separately and
// no lock is held across a wait on an in-flight turn.
package control
