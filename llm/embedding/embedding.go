// Package embedding defines the embedding collaborator boundary: one vector
// per input text, used by the long-term memory store for similarity retrieval.
package embedding

import "context"

// Embedder converts texts to vectors.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// EmbedDocuments embeds a batch of documents, one vector per input.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the vector dimensionality this embedder produces.
	Dimensions() int

	// Name returns the embedder's unique identifier.
	Name() string
}
