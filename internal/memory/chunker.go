// ABOUTME: Sentence-level chunking of fact text for embedding granularity
// ABOUTME: Splitting identical input always yields identical chunks
package memory

import "strings"

// ChunkFact splits a fact into trimmed, non-empty sentence chunks on the
// period character. Empty or whitespace-only input yields no chunks.
func ChunkFact(text string) []string {
	parts := strings.Split(strings.TrimSpace(text), ".")

	var chunks []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks
}
