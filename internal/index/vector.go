package index

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/S1nghAryan/pbl-4/internal/document"
	"github.com/philippgille/chromem-go"
)

// VectorBuilder builds the similarity-search variant: one embedding per
// chunk stored in an in-memory chromem collection.
type VectorBuilder struct {
	embed chromem.EmbeddingFunc
}

func NewVectorBuilder(embed chromem.EmbeddingFunc) *VectorBuilder {
	return &VectorBuilder{embed: embed}
}

func (b *VectorBuilder) Build(ctx context.Context, chunks []document.Chunk) (Index, error) {
	if len(chunks) == 0 {
		return nil, &BuildError{Stage: "chunks", Err: ErrNoChunks}
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection("chunks", nil, b.embed)
	if err != nil {
		return nil, &BuildError{Stage: "collection", Err: err}
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("chunk-%06d", ch.Index),
			Content: ch.Text,
			Metadata: map[string]string{
				"index": strconv.Itoa(ch.Index),
				"page":  strconv.Itoa(ch.Page),
			},
		}
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, &BuildError{Stage: "embed", Err: err}
	}

	owned := make([]document.Chunk, len(chunks))
	copy(owned, chunks)
	return &vectorIndex{coll: coll, chunks: owned}, nil
}

type vectorIndex struct {
	coll   *chromem.Collection
	chunks []document.Chunk
}

func (v *vectorIndex) Query(ctx context.Context, text string, k int) ([]document.Chunk, error) {
	if k <= 0 || k > len(v.chunks) {
		k = len(v.chunks)
	}

	results, err := v.coll.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	type scored struct {
		chunk      document.Chunk
		similarity float32
	}
	ranked := make([]scored, 0, len(results))
	for _, r := range results {
		i, err := strconv.Atoi(r.Metadata["index"])
		if err != nil || i < 0 || i >= len(v.chunks) {
			return nil, fmt.Errorf("vector query: bad chunk id %q", r.ID)
		}
		ranked = append(ranked, scored{chunk: v.chunks[i], similarity: r.Similarity})
	}

	// chromem orders by similarity but leaves ties unspecified; re-sort
	// so equal scores fall back to original chunk order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].similarity != ranked[j].similarity {
			return ranked[i].similarity > ranked[j].similarity
		}
		return ranked[i].chunk.Index < ranked[j].chunk.Index
	})

	out := make([]document.Chunk, len(ranked))
	for i, s := range ranked {
		out[i] = s.chunk
	}
	return out, nil
}

func (v *vectorIndex) Len() int {
	return len(v.chunks)
}
