// Package rag wires the upload and chat pipelines: chunking, index
// building, session state, history rewriting and answer generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/S1nghAryan/pbl-4/internal/chunker"
	"github.com/S1nghAryan/pbl-4/internal/config"
	"github.com/S1nghAryan/pbl-4/internal/document"
	"github.com/S1nghAryan/pbl-4/internal/extract"
	"github.com/S1nghAryan/pbl-4/internal/index"
	"github.com/S1nghAryan/pbl-4/internal/llm"
	"github.com/S1nghAryan/pbl-4/internal/session"
)

// Pipeline orchestrates the retrieval-and-answer flow per request.
type Pipeline struct {
	cfg       config.Config
	llm       *llm.Client
	extractor extract.Extractor
	builder   index.Builder
	sessions  *session.Store
	chunker   *chunker.Chunker
	log       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPipeline(cfg config.Config, llmClient *llm.Client, extractor extract.Extractor, builder index.Builder, log *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		llm:       llmClient,
		extractor: extractor,
		builder:   builder,
		sessions:  session.NewStore(cfg.SessionTTL),
		chunker:   chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		log:       log,
	}
}

// Start launches the session eviction loop.
func (p *Pipeline) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				p.sessions.Cleanup()
			}
		}
	}()
}

// Stop shuts down background work.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// UploadResult reports a successfully indexed document.
type UploadResult struct {
	SessionID string
	Filename  string
}

// Upload runs extract -> chunk -> build -> create session and returns
// the new session identifier. The raw bytes are not retained.
func (p *Pipeline) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	if filename == "" || len(data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: a non-empty file is required", ErrValidation)
	}
	if !extract.IsPDF(filename) {
		return UploadResult{}, fmt.Errorf("%w: only PDF files are supported", extract.ErrUnsupportedFormat)
	}

	pages, err := p.extractor.Extract(ctx, data, filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return UploadResult{}, err
		}
		return UploadResult{}, &index.BuildError{Stage: "extract", Err: err}
	}

	chunks := p.chunker.SplitPages(pages)
	idx, err := p.builder.Build(ctx, chunks)
	if err != nil {
		return UploadResult{}, err
	}

	id := p.sessions.Create(idx, filename)
	p.log.Info("document indexed",
		"session_id", id,
		"filename", filename,
		"pages", len(pages),
		"chunks", len(chunks),
	)
	return UploadResult{SessionID: id, Filename: filename}, nil
}

// Chat answers one question for a session: retrieve relevant chunks
// (optionally via a history-rewritten query), generate an answer, then
// append the turn. Nothing is appended on failure.
func (p *Pipeline) Chat(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: session_id and message are required", ErrValidation)
	}

	sess, err := p.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	history := sess.History()

	query := message
	if p.cfg.HistoryAware && len(history) > 0 {
		rewritten, err := p.rewriteQuery(ctx, history, message)
		if err != nil {
			// Fallback policy: retrieval proceeds with the raw question.
			p.log.Warn("history rewrite failed, using raw question",
				"session_id", sessionID, "error", err)
		} else {
			query = rewritten
		}
	}

	chunks, err := sess.Index().Query(ctx, query, p.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := p.generateAnswer(ctx, history, chunks, message)
	if err != nil {
		return "", err
	}

	if err := p.sessions.AppendTurn(sessionID, document.Turn{User: message, Assistant: answer}); err != nil {
		return "", err
	}
	return answer, nil
}

// HistoryMessage is one half of a turn in the wire format the history
// endpoint exposes.
type HistoryMessage struct {
	Type    string `json:"type"` // "human" or "ai"
	Content string `json:"content"`
}

// History returns the session transcript as alternating human/ai
// messages. Unknown sessions yield an empty list, not an error.
func (p *Pipeline) History(sessionID string) []HistoryMessage {
	messages := []HistoryMessage{}
	sess, err := p.sessions.Get(sessionID)
	if err != nil {
		return messages
	}
	for _, turn := range sess.History() {
		messages = append(messages,
			HistoryMessage{Type: "human", Content: turn.User},
			HistoryMessage{Type: "ai", Content: turn.Assistant},
		)
	}
	return messages
}

// Delete removes a session; deleting twice is a no-op.
func (p *Pipeline) Delete(sessionID string) {
	p.sessions.Delete(sessionID)
}

// SessionCount reports the number of live sessions.
func (p *Pipeline) SessionCount() int {
	return p.sessions.Len()
}
