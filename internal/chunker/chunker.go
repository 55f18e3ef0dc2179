// Package chunker splits extracted document text into overlapping
// fixed-size segments for retrieval indexing.
package chunker

import (
	"github.com/S1nghAryan/pbl-4/internal/document"
)

// Chunker splits text into chunks of at most ChunkSize runes, carrying
// Overlap runes from the tail of each chunk into the head of the next.
// Breaks prefer paragraph boundaries, then sentence boundaries, then a
// hard cut. Invariant: Overlap < ChunkSize.
type Chunker struct {
	size    int
	overlap int
}

func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{size: chunkSize, overlap: overlap}
}

// SplitPages chunks each page independently, preserving page order and
// assigning sequential chunk indexes across the whole document.
func (c *Chunker) SplitPages(pages []document.Page) []document.Chunk {
	var chunks []document.Chunk
	for _, page := range pages {
		for _, part := range c.Split(page.Text) {
			chunks = append(chunks, document.Chunk{
				Index: len(chunks),
				Page:  page.Number,
				Text:  part,
			})
		}
	}
	return chunks
}

// Split chunks a single text. Every rune of the input appears in at
// least one chunk; dropping the first Overlap runes of every chunk
// after the first reconstructs the input exactly.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var out []string
	start := 0
	for {
		if n-start <= c.size {
			out = append(out, string(runes[start:]))
			return out
		}
		end := c.breakPoint(runes, start)
		out = append(out, string(runes[start:end]))
		start = end - c.overlap
	}
}

// breakPoint picks where the chunk starting at start should end.
// It scans backwards from the hard limit for a paragraph break, then a
// sentence break, refusing to shrink the chunk below half the target
// size (or below overlap+1, which would stall progress).
func (c *Chunker) breakPoint(runes []rune, start int) int {
	hardEnd := start + c.size
	minEnd := start + c.size/2
	if floor := start + c.overlap + 1; minEnd < floor {
		minEnd = floor
	}

	// Paragraph boundary: cut just after a blank line.
	for i := hardEnd; i >= minEnd; i-- {
		if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}

	// Sentence boundary: cut just after ". ", "! ", "? " or end-of-line.
	for i := hardEnd; i >= minEnd; i-- {
		if i < 2 {
			break
		}
		p := runes[i-2]
		if (p == '.' || p == '!' || p == '?') && (runes[i-1] == ' ' || runes[i-1] == '\n') {
			return i
		}
	}

	return hardEnd
}
