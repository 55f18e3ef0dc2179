// Package document holds the shared types that flow through the
// upload pipeline: extracted pages, retrieval chunks, and chat turns.
package document

// Page is one segment of extracted document text, usually a PDF page.
type Page struct {
	Number int
	Text   string
}

// Chunk is a bounded slice of document text with a fixed overlap to
// its neighbor. Index is the position in the original chunk sequence
// and is used for stable tie-breaking during retrieval.
type Chunk struct {
	Index int
	Page  int
	Text  string
}

// Turn is one completed question/answer pair in a session's history.
type Turn struct {
	User      string
	Assistant string
}
