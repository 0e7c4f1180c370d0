// Package session implements the conversation controller: the rotating
// turn-taking loop over a roster of agents, plus the operator surface for
// pausing, resuming, injecting messages, switching topics and pacing.
//
// A single goroutine owns the loop. Shared session state (history, recent
// window, counters) is mutated only under the controller mutex, held for
// discrete operations and never across a model call, so control operations
// stay responsive while a turn is in flight.
package session
