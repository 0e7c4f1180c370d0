package types

import "time"

// Well-known sender names. Agent utterances use the persona's display name;
// these two are reserved for synthetic and operator-injected entries.
const (
	SenderSystem = "System"
	SenderAdmin  = "Admin"
)

// Message is a single entry in a session's conversation history.
// Messages are immutable once appended; they are only removed en masse by
// history compression or an explicit clear.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Audio     string    `json:"audio,omitempty"` // path or URL of synthesized speech, empty if none
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(sender, content string) Message {
	return Message{
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage creates a synthetic system message.
func NewSystemMessage(content string) Message {
	return NewMessage(SenderSystem, content)
}

// WithAudio attaches an audio reference to the message.
func (m Message) WithAudio(ref string) Message {
	m.Audio = ref
	return m
}
