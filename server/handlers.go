package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	cerrors "github.com/clauselens/clauselens/errors"
)

type turnRequest struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Passages  int    `json:"passages"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.logger.Error("session creation failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxDocumentSize))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	if len(raw) == 0 {
		s.respondError(w, http.StatusBadRequest, "empty document")
		return
	}

	count, err := s.sessions.UploadDocument(r.Context(), id, raw, source)
	if err != nil {
		switch {
		case errors.Is(err, cerrors.ErrSessionNotFound):
			s.respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, cerrors.ErrNoExtractableText):
			s.respondError(w, http.StatusUnprocessableEntity, "no extractable text in document")
		default:
			s.logger.Error("document upload failed", "session_id", id, "error", err)
			s.respondError(w, http.StatusInternalServerError, "indexing failed")
		}
		return
	}

	s.respondJSON(w, http.StatusCreated, uploadResponse{
		SessionID: id,
		Source:    source,
		Passages:  count,
	})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.sessions.HandleTurn(r.Context(), id, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, cerrors.ErrSessionNotFound):
			s.respondError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, cerrors.ErrInvalidInput):
			s.respondError(w, http.StatusBadRequest, "message must not be empty")
		default:
			s.logger.Error("turn failed", "session_id", id, "error", err)
			s.respondError(w, http.StatusInternalServerError, "turn failed")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	data, err := sess.Export()
	if err != nil {
		s.logger.Error("export failed", "session_id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxDocumentSize))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "export too large")
		return
	}
	if err := sess.Import(data); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid session export")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
