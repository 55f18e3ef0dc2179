// Package index builds per-session searchable structures over document
// chunks. Two strategies exist: naive prefix truncation and vector
// similarity search. Built indexes are immutable; Query never mutates.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/S1nghAryan/pbl-4/internal/document"
)

// ErrNoChunks is returned when an index is built over an empty chunk set.
var ErrNoChunks = errors.New("no chunks to index")

// BuildError wraps a failure while building an index, either from the
// chunk set itself or from the embedding collaborator.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build index (%s): %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Index answers relevance queries over a fixed chunk set.
// Query returns at most k chunks ordered by descending relevance; if
// fewer than k chunks exist it returns all of them. Ties are broken by
// original chunk order.
type Index interface {
	Query(ctx context.Context, text string, k int) ([]document.Chunk, error)
	Len() int
}

// Builder constructs an Index from a chunk set. Implementations fail
// with *BuildError for empty input or collaborator errors.
type Builder interface {
	Build(ctx context.Context, chunks []document.Chunk) (Index, error)
}
