package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/S1nghAryan/pbl-4/internal/config"
	"github.com/S1nghAryan/pbl-4/internal/document"
	"github.com/S1nghAryan/pbl-4/internal/extract"
	"github.com/S1nghAryan/pbl-4/internal/index"
	"github.com/S1nghAryan/pbl-4/internal/llm"
	"github.com/S1nghAryan/pbl-4/internal/rag"
)

// pageTextExtractor treats the uploaded bytes as the document text,
// split into pages on form feeds.
type pageTextExtractor struct{}

func (pageTextExtractor) Extract(_ context.Context, data []byte, _ string) ([]document.Page, error) {
	return extract.SplitPages(string(data)), nil
}

func testServerConfig() config.Config {
	return config.Config{
		GroqAPIKey:      "test-key",
		GroqModel:       "test-model",
		Strategy:        config.StrategyTruncation,
		TopK:            4,
		MaxContextChars: 3000,
		HistoryAware:    true,
		ChunkSize:       1000,
		ChunkOverlap:    200,
		MaxUploadBytes:  16 << 20,
		SessionTTL:      time.Hour,
		LLMTimeout:      5 * time.Second,
	}
}

func newServerWith(t *testing.T, llmURL string, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := llm.NewClient(llmURL, cfg.GroqAPIKey, cfg.GroqModel)
	pipeline := rag.NewPipeline(cfg, client, pageTextExtractor{}, index.NewTruncationBuilder(cfg.MaxContextChars), log)
	return NewServer(pipeline, client, log, cfg)
}

func newTestServer(t *testing.T, llmURL string) *Server {
	t.Helper()
	return newServerWith(t, llmURL, testServerConfig())
}

func newStubLLM(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func uploadPDF(t *testing.T, srv *Server, filename, content string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
	if body["message"] != "RAG API is running" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestUpload(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, body := uploadPDF(t, srv, "report.pdf", "Quarterly results were strong.")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["session_id"] == "" || body["session_id"] == nil {
		t.Error("expected session_id in response")
	}
	if body["filename"] != "report.pdf" {
		t.Errorf("expected filename echoed, got %v", body["filename"])
	}
	if body["message"] != "File uploaded and processed successfully" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestUpload_NoFile(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No file provided") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestUpload_OversizeIs413(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	cfg := testServerConfig()
	cfg.MaxUploadBytes = 1024
	srv := newServerWith(t, stub.URL, cfg)

	// Far past the request body limit: the multipart parse itself is cut
	// off, which must still surface as 413, not a 400 parse error.
	rec, body := uploadPDF(t, srv, "big.pdf", strings.Repeat("a", 2<<20))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize body, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["error"] == nil {
		t.Error("expected error field in response")
	}

	// Just over the file limit but within the form overhead allowance:
	// the parse succeeds and the size check fires.
	rec, _ = uploadPDF(t, srv, "big.pdf", strings.Repeat("a", 2048))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for file over limit, got %d: %s", rec.Code, rec.Body.String())
	}

	// At the limit exactly the upload goes through.
	rec, _ = uploadPDF(t, srv, "ok.pdf", strings.Repeat("a", 1024))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 at the size limit, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, body := uploadPDF(t, srv, "notes.txt", "plain text")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body["error"] == nil {
		t.Error("expected error field in response")
	}
}

func TestChat(t *testing.T) {
	stub := newStubLLM("The report covers quarterly results.")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	_, up := uploadPDF(t, srv, "report.pdf", "Quarterly results were strong.")
	sessionID, _ := up["session_id"].(string)
	if sessionID == "" {
		t.Fatal("upload did not return a session id")
	}

	rec, body := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"session_id": sessionID,
		"message":    "What does the report cover?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["answer"] != "The report covers quarterly results." {
		t.Errorf("unexpected answer %v", body["answer"])
	}
	if body["session_id"] != sessionID {
		t.Errorf("expected session id echoed, got %v", body["session_id"])
	}
}

func TestChat_MissingMessage(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"session_id": "some-session",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body["error"] == nil {
		t.Error("expected error field in response")
	}
}

func TestChat_UnknownSession(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"session_id": "no-such-session",
		"message":    "hello?",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChat_InvalidJSON(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	stub := newStubLLM("an answer")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	_, up := uploadPDF(t, srv, "doc.pdf", "Some content.")
	sessionID := up["session_id"].(string)

	doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"session_id": sessionID,
		"message":    "a question",
	})

	rec, body := doJSON(t, srv, http.MethodGet, "/api/chat/history/"+sessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	messages, ok := body["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %v", body["messages"])
	}
	first := messages[0].(map[string]any)
	if first["type"] != "human" || first["content"] != "a question" {
		t.Errorf("unexpected first message %v", first)
	}
	second := messages[1].(map[string]any)
	if second["type"] != "ai" || second["content"] != "an answer" {
		t.Errorf("unexpected second message %v", second)
	}
}

func TestHistory_UnknownSession(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/chat/history/unknown", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown session, got %d", rec.Code)
	}
	messages, ok := body["messages"].([]any)
	if !ok {
		t.Fatalf("expected messages array, got %v", body["messages"])
	}
	if len(messages) != 0 {
		t.Errorf("expected empty history, got %v", messages)
	}
}

func TestDeleteSession(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	_, up := uploadPDF(t, srv, "doc.pdf", "Some content.")
	sessionID := up["session_id"].(string)

	rec, body := doJSON(t, srv, http.MethodDelete, "/api/sessions/"+sessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["message"] != "Session deleted successfully" {
		t.Errorf("unexpected message %v", body["message"])
	}

	// Deleting again still succeeds.
	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/sessions/"+sessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat delete, got %d", rec.Code)
	}

	// The session is gone for chat purposes.
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/chat", map[string]string{
		"session_id": sessionID,
		"message":    "still there?",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	stub := newStubLLM("ok")
	defer stub.Close()
	srv := newTestServer(t, stub.URL)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/stats/llm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["model"] != "test-model" {
		t.Errorf("expected model name, got %v", body["model"])
	}
	if body["stats"] == nil {
		t.Error("expected stats payload")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/file.pdf", "file.pdf"},
		{"", "unnamed"},
		{".", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
