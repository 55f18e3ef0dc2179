package index

import (
	"context"

	"github.com/S1nghAryan/pbl-4/internal/document"
)

// TruncationBuilder builds the naive retrieval variant: chunks are kept
// verbatim in order and "search" is a fixed-size prefix of the
// concatenated text. Cheap, quality-poor, a stand-in for real retrieval.
type TruncationBuilder struct {
	maxChars int
}

func NewTruncationBuilder(maxChars int) *TruncationBuilder {
	if maxChars <= 0 {
		maxChars = 3000
	}
	return &TruncationBuilder{maxChars: maxChars}
}

func (b *TruncationBuilder) Build(_ context.Context, chunks []document.Chunk) (Index, error) {
	if len(chunks) == 0 {
		return nil, &BuildError{Stage: "chunks", Err: ErrNoChunks}
	}
	owned := make([]document.Chunk, len(chunks))
	copy(owned, chunks)
	return &truncationIndex{chunks: owned, maxChars: b.maxChars}, nil
}

type truncationIndex struct {
	chunks   []document.Chunk
	maxChars int
}

// Query ignores the query text: it returns chunks in document order,
// capped at k chunks and maxChars total runes, truncating the final
// chunk to the remaining budget.
func (t *truncationIndex) Query(_ context.Context, _ string, k int) ([]document.Chunk, error) {
	if k <= 0 || k > len(t.chunks) {
		k = len(t.chunks)
	}

	var out []document.Chunk
	budget := t.maxChars
	for _, ch := range t.chunks[:k] {
		if budget <= 0 {
			break
		}
		runes := []rune(ch.Text)
		if len(runes) > budget {
			ch.Text = string(runes[:budget])
		}
		budget -= len([]rune(ch.Text))
		out = append(out, ch)
	}
	return out, nil
}

func (t *truncationIndex) Len() int {
	return len(t.chunks)
}
