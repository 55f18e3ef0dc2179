package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/S1nghAryan/pbl-4/internal/extract"
	"github.com/S1nghAryan/pbl-4/internal/index"
	"github.com/S1nghAryan/pbl-4/internal/rag"
	"github.com/S1nghAryan/pbl-4/internal/session"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	answer, err := s.pipeline.Chat(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"answer":     answer,
		"session_id": payload.SessionID,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": s.pipeline.History(sessionID),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.pipeline.Delete(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Session deleted successfully",
	})
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil || s.llm.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.llm.Model(),
		"stats": s.llm.Stats.Snapshot(),
	})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var buildErr *index.BuildError
	switch {
	case errors.Is(err, rag.ErrValidation),
		errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rag.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &buildErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
