package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/BaSui01/colloquy/llm/speech"
)

// FakeSynthesizer records synthesis requests without touching the filesystem
// or the network.
type FakeSynthesizer struct {
	mu       sync.Mutex
	requests []speech.Request
	paths    []string
	err      error
}

// NewFakeSynthesizer creates a synthesizer that always succeeds.
func NewFakeSynthesizer() *FakeSynthesizer {
	return &FakeSynthesizer{}
}

// Fail makes every subsequent call return err.
func (f *FakeSynthesizer) Fail(err error) *FakeSynthesizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Synthesize implements speech.Synthesizer.
func (f *FakeSynthesizer) Synthesize(ctx context.Context, req *speech.Request) (*speech.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &speech.Response{
		Audio:  io.NopCloser(bytes.NewReader([]byte("audio"))),
		Format: req.Format,
	}, nil
}

// SynthesizeToFile implements speech.Synthesizer. No file is written; the
// path is recorded instead.
func (f *FakeSynthesizer) SynthesizeToFile(ctx context.Context, req *speech.Request, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, *req)
	f.paths = append(f.paths, path)
	return nil
}

// Name implements speech.Synthesizer.
func (f *FakeSynthesizer) Name() string { return "fake-tts" }

// Calls returns how many synthesis requests succeeded or were recorded.
func (f *FakeSynthesizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Paths returns the file paths passed to SynthesizeToFile.
func (f *FakeSynthesizer) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.paths))
	copy(out, f.paths)
	return out
}
