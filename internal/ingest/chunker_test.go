package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func wordText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunkerEmpty(t *testing.T) {
	c := NewChunker(10, 2)
	if got := c.Chunk(""); got != nil {
		t.Errorf("got %v, want nil", got)
	}
	if got := c.Chunk("   "); got != nil {
		t.Errorf("got %v for whitespace, want nil", got)
	}
}

func TestChunkerSingleChunk(t *testing.T) {
	c := NewChunker(10, 2)
	got := c.Chunk("only three words")
	if len(got) != 1 || got[0] != "only three words" {
		t.Errorf("got %v", got)
	}
}

func TestChunkerOverlap(t *testing.T) {
	c := NewChunker(4, 2)
	got := c.Chunk(wordText(8))
	// step = 2: windows [0:4] [2:6] [4:8]
	want := []string{"w0 w1 w2 w3", "w2 w3 w4 w5", "w4 w5 w6 w7"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkerPartialTail(t *testing.T) {
	c := NewChunker(4, 2)
	got := c.Chunk(wordText(5))
	// windows [0:4] [2:5]
	if len(got) != 2 {
		t.Fatalf("got %d chunks: %v", len(got), got)
	}
	if got[1] != "w2 w3 w4" {
		t.Errorf("tail chunk = %q", got[1])
	}
}

func TestChunkerDegenerateOverlap(t *testing.T) {
	// overlap >= size must still advance.
	c := NewChunker(2, 5)
	got := c.Chunk(wordText(4))
	if len(got) == 0 {
		t.Fatal("no chunks")
	}
	for _, chunk := range got {
		if len(strings.Fields(chunk)) > 2 {
			t.Errorf("oversized chunk %q", chunk)
		}
	}
}
