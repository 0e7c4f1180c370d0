package mocks

import (
	"context"
	"hash/fnv"
)

// FakeEmbedder produces deterministic vectors from a hash of the input text.
// Identical texts embed identically, so cosine similarity over its output is
// stable across runs.
type FakeEmbedder struct {
	dims int
}

// NewFakeEmbedder creates an embedder with the given dimensionality.
func NewFakeEmbedder(dims int) *FakeEmbedder {
	if dims <= 0 {
		dims = 8
	}
	return &FakeEmbedder{dims: dims}
}

// EmbedQuery implements embedding.Embedder.
func (f *FakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return f.embed(text), nil
}

// EmbedDocuments implements embedding.Embedder.
func (f *FakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

// Dimensions implements embedding.Embedder.
func (f *FakeEmbedder) Dimensions() int { return f.dims }

// Name implements embedding.Embedder.
func (f *FakeEmbedder) Name() string { return "fake-embedder" }

func (f *FakeEmbedder) embed(text string) []float64 {
	vec := make([]float64, f.dims)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float64(int64(seed>>33)) / float64(1<<31)
	}
	return vec
}
