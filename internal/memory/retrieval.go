// ABOUTME: Top-k semantic retrieval of fact chunks above a relevance threshold
// ABOUTME: Read-only; an empty query short-circuits without a provider call
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jekbot/jek/internal/models"
)

// Retriever embeds a query and delegates to the store's similarity query.
type Retriever struct {
	embedder  Embedder
	store     VectorStore
	threshold float64
	limit     int
}

// NewRetriever creates a Retriever with a fixed relevance threshold and
// result cap.
func NewRetriever(embedder Embedder, store VectorStore, threshold float64, limit int) *Retriever {
	return &Retriever{
		embedder:  embedder,
		store:     store,
		threshold: threshold,
		limit:     limit,
	}
}

// Retrieve returns the user's most relevant chunks for the query, best
// first, possibly empty. Every returned similarity is >= the threshold and
// at most limit chunks come back.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string) ([]models.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Query(userID, queryVector, r.threshold, r.limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	return results, nil
}
