// ABOUTME: Cosine similarity and the duplicate-fact decision
// ABOUTME: Zero-norm vectors are treated as non-similar, never a divide by zero
package memory

import "math"

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched lengths or an all-zero vector yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IsDuplicate reports whether candidate exceeds the dedup threshold against
// any existing vector. Raising the threshold can only shrink the duplicate
// set.
func IsDuplicate(candidate []float64, existing [][]float64, threshold float64) bool {
	for _, vec := range existing {
		if CosineSimilarity(candidate, vec) > threshold {
			return true
		}
	}
	return false
}
