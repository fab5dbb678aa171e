// ABOUTME: Embedding storage operations for SQLite
// ABOUTME: Vectors as BLOBs with a per-user cosine similarity query
package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jekbot/jek/internal/memory"
	"github.com/jekbot/jek/internal/models"
)

// EmbeddingStore handles (chunk, embedding) persistence.
type EmbeddingStore struct {
	db        *DB
	dimension int
}

// NewEmbeddingStore creates a new EmbeddingStore validating the given
// vector dimension. A dimension of 0 disables validation (tests use small
// vectors).
func NewEmbeddingStore(db *DB, dimension int) *EmbeddingStore {
	return &EmbeddingStore{db: db, dimension: dimension}
}

// Save persists one chunk with its vector, bound to a user.
func (s *EmbeddingStore) Save(emb *models.Embedding) error {
	if s.dimension > 0 && len(emb.Vector) != s.dimension {
		return fmt.Errorf("invalid embedding dimension: expected %d, got %d", s.dimension, len(emb.Vector))
	}
	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO embeddings (id, user_id, content, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, emb.ID, emb.UserID, emb.Content, vectorToBlob(emb.Vector), emb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// VectorsByUser returns every stored vector for a user, for the dedup check.
func (s *EmbeddingStore) VectorsByUser(userID string) ([][]float64, error) {
	rows, err := s.db.Query(`SELECT vector FROM embeddings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vectors [][]float64
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		vectors = append(vectors, blobToVector(blob))
	}
	return vectors, rows.Err()
}

// Query runs a client-side cosine scan over the user's embeddings and
// returns up to limit chunks at or above threshold, best first.
func (s *EmbeddingStore) Query(userID string, queryVector []float64, threshold float64, limit int) ([]models.RetrievedChunk, error) {
	rows, err := s.db.Query(`SELECT content, vector FROM embeddings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.RetrievedChunk
	for rows.Next() {
		var (
			content string
			blob    []byte
		)
		if err := rows.Scan(&content, &blob); err != nil {
			return nil, err
		}

		similarity := memory.CosineSimilarity(queryVector, blobToVector(blob))
		if similarity >= threshold {
			results = append(results, models.RetrievedChunk{Content: content, Similarity: similarity})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CountByUser returns how many chunks a user owns.
func (s *EmbeddingStore) CountByUser(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM embeddings WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// DeleteByUser removes all of a user's embeddings.
func (s *EmbeddingStore) DeleteByUser(userID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM embeddings WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByUserMatching removes a user's chunks whose content contains the
// keyword, for explicit forget requests.
func (s *EmbeddingStore) DeleteByUserMatching(userID, keyword string) (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM embeddings WHERE user_id = ? AND content LIKE ?
	`, userID, "%"+keyword+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to delete matching embeddings: %w", err)
	}
	return res.RowsAffected()
}

// vectorToBlob converts a float64 slice to a binary blob.
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to a float64 slice.
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}
