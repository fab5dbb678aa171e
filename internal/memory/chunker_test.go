// ABOUTME: Unit tests for sentence-level fact chunking
package memory

import (
	"reflect"
	"testing"
)

func TestChunkFact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single sentence", "Saya alergi kacang", []string{"Saya alergi kacang"}},
		{"two sentences", "Saya alergi kacang. Saya tinggal di Jakarta.", []string{"Saya alergi kacang", "Saya tinggal di Jakarta"}},
		{"trailing period", "Suka kopi.", []string{"Suka kopi"}},
		{"extra whitespace", "  Suka kopi .  Benci teh  ", []string{"Suka kopi", "Benci teh"}},
		{"empty", "", nil},
		{"only periods", "...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkFact(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkFact(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestChunkFactIdempotent(t *testing.T) {
	chunks := ChunkFact("Saya alergi kacang. Saya tinggal di Jakarta.")
	for _, chunk := range chunks {
		rechunked := ChunkFact(chunk)
		if len(rechunked) != 1 || rechunked[0] != chunk {
			t.Errorf("ChunkFact(%q) = %v, want the chunk unchanged", chunk, rechunked)
		}
	}
}
