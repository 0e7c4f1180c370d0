package types

import "time"

// MemoryEntry is one record in an agent's long-term memory namespace.
// Entries are created for every accepted utterance and queried by semantic
// similarity with optional exact-match filters on SessionID/AgentID.
type MemoryEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}
