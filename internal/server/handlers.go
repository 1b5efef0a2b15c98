package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ahrav/go-triad/internal/domain"
)

// Client-facing error texts.
const (
	msgQuestionRequired = "Question is required"
	msgInvalidBody      = "Invalid request body"
	msgProcessingFailed = "Failed to process request"
)

type askRequest struct {
	Question string `json:"question"`
}

// responseRecord is the wire form of a ModelResult. The UI keys columns by
// provider and expects loading=false on every settled record.
type responseRecord struct {
	Provider string `json:"provider"`
	Content  string `json:"content"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration"`
}

type personaRecord struct {
	ID    domain.PersonaID `json:"id"`
	Label string           `json:"label"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toRecords(batch domain.ComparisonBatch) []responseRecord {
	out := make([]responseRecord, len(batch))
	for i, r := range batch {
		out[i] = responseRecord{
			Provider: string(r.PersonaID),
			Content:  r.Content,
			Error:    r.Error,
			Duration: r.DurationMillis,
		}
	}
	return out
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	batch, err := s.comparer.CompareAll(r.Context(), req.Question)
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		writeError(w, http.StatusBadRequest, msgQuestionRequired)
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "comparison failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgProcessingFailed)
		return
	}

	writeJSON(w, http.StatusOK, toRecords(batch))
}

func (s *Server) handlePersonas(w http.ResponseWriter, _ *http.Request) {
	personas := s.comparer.Personas()
	out := make([]personaRecord, len(personas))
	for i, p := range personas {
		out[i] = personaRecord{ID: p.ID, Label: p.Label}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
