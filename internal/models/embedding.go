// ABOUTME: Embedding row binding a chunk of fact text to its vector
// ABOUTME: The (chunk, embedding) pair is the unit of storage and retrieval
package models

import "time"

// Embedding is one persisted chunk with its vector, owned by a user.
// Vectors are never mutated, only inserted or deleted with their chunk.
type Embedding struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Vector    []float64 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievedChunk is a similarity-search hit.
type RetrievedChunk struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
