package api

import (
	"log/slog"
	"net/http"

	"github.com/S1nghAryan/pbl-4/internal/config"
	"github.com/S1nghAryan/pbl-4/internal/llm"
	"github.com/S1nghAryan/pbl-4/internal/rag"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for the RAG service.
type Server struct {
	router   chi.Router
	pipeline *rag.Pipeline
	llm      *llm.Client
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(pipeline *rag.Pipeline, llmClient *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		pipeline: pipeline,
		llm:      llmClient,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/health", s.handleHealth)

	r.Post("/api/upload", s.handleUpload)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/history/{sessionID}", s.handleHistory)
	r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)

	r.Get("/api/stats/llm", s.handleLLMStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "RAG API is running",
	})
}
