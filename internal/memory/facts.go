// ABOUTME: Fact ingestion pipeline: embed whole fact, dedup, chunk, persist
// ABOUTME: Duplicates are silently discarded; that is a success, not an error
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jekbot/jek/internal/models"
)

// Embedder generates vectors via the external provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore is the persistence the pipeline writes through.
type VectorStore interface {
	Save(emb *models.Embedding) error
	VectorsByUser(userID string) ([][]float64, error)
	Query(userID string, queryVector []float64, threshold float64, limit int) ([]models.RetrievedChunk, error)
}

// FactStore decides whether a candidate fact is materially new and, if so,
// persists its chunks with their embeddings.
type FactStore struct {
	embedder       Embedder
	store          VectorStore
	dedupThreshold float64
	log            zerolog.Logger
}

// NewFactStore creates the ingestion pipeline.
func NewFactStore(embedder Embedder, store VectorStore, dedupThreshold float64, log zerolog.Logger) *FactStore {
	return &FactStore{
		embedder:       embedder,
		store:          store,
		dedupThreshold: dedupThreshold,
		log:            log,
	}
}

// Ingest runs the pipeline for one candidate fact. Returns true when the
// fact was stored, false when it was discarded as a duplicate or empty.
func (f *FactStore) Ingest(ctx context.Context, userID, fact string) (bool, error) {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return false, nil
	}

	// The dedup comparison uses one vector for the whole fact, not the
	// per-chunk vectors that get persisted.
	candidate, err := f.embedder.Embed(ctx, fact)
	if err != nil {
		return false, fmt.Errorf("failed to embed candidate fact: %w", err)
	}

	existing, err := f.store.VectorsByUser(userID)
	if err != nil {
		return false, fmt.Errorf("failed to load existing vectors: %w", err)
	}

	if IsDuplicate(candidate, existing, f.dedupThreshold) {
		f.log.Debug().Str("user", userID).Msg("candidate fact discarded as duplicate")
		return false, nil
	}

	chunks := ChunkFact(fact)
	if len(chunks) == 0 {
		return false, nil
	}

	vectors, err := f.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return false, fmt.Errorf("failed to embed chunks: %w", err)
	}

	now := time.Now().UTC()
	for i, chunk := range chunks {
		emb := &models.Embedding{
			ID:        fmt.Sprintf("emb_%s", uuid.New().String()),
			UserID:    userID,
			Content:   chunk,
			Vector:    vectors[i],
			CreatedAt: now,
		}
		if err := f.store.Save(emb); err != nil {
			return false, fmt.Errorf("failed to save chunk embedding: %w", err)
		}
	}

	f.log.Info().Str("user", userID).Int("chunks", len(chunks)).Msg("fact stored")
	return true, nil
}
