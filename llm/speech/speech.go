// Package speech defines the text-to-speech collaborator boundary. Synthesis
// failures must be caught by the agent runtime and turned into a null audio
// reference; a broken voice never fails a turn.
package speech

import (
	"context"
	"io"
	"time"
)

// Request describes one synthesis call.
type Request struct {
	Text   string
	Voice  string
	Model  string
	Format string  // mp3, opus, wav
	Speed  float64 // 0 means provider default
}

// Response carries the audio stream. The caller owns closing Audio.
type Response struct {
	Provider  string
	Model     string
	Audio     io.ReadCloser
	Format    string
	CharCount int
	CreatedAt time.Time
}

// Synthesizer converts text to speech.
type Synthesizer interface {
	// Synthesize converts text to an audio stream.
	Synthesize(ctx context.Context, req *Request) (*Response, error)

	// SynthesizeToFile converts text to speech and writes it to path.
	SynthesizeToFile(ctx context.Context, req *Request, path string) error

	// Name returns the synthesizer's unique identifier.
	Name() string
}
