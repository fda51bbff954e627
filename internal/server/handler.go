package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"document-qa/internal/config"
	"document-qa/internal/index"
	"document-qa/internal/models"
	"document-qa/internal/rag"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
)

// client-facing 500 messages; the cause is only logged
const (
	errIndexUnavailable = "document index is unavailable"
	errAnswerFailed     = "failed to answer message"
)

type MessageRequest struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	AI string `json:"ai"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler answers chat messages against the shared index.
type Handler struct {
	index *index.Handle
	llm   llms.Model
	cfg   *config.Config
}

func NewHandler(h *index.Handle, llm llms.Model, cfg *config.Config) *Handler {
	return &Handler{index: h, llm: llm, cfg: cfg}
}

func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	// a missing body reads as {}
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Msg("Malformed message body")
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	idx, err := h.index.Wait(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Index unavailable")
		writeError(w, http.StatusInternalServerError, errIndexUnavailable)
		return
	}

	resp, err := rag.NewRAG(idx, h.llm, h.cfg).Query(r.Context(), req.Message, models.DefaultHistory())
	if err != nil {
		log.Error().Err(err).Str("message", req.Message).Msg("Failed to answer message")
		writeError(w, http.StatusInternalServerError, errAnswerFailed)
		return
	}

	log.Info().Str("message", req.Message).Strs("sources", resp.Sources).Msg("Answered message")
	writeJSON(w, http.StatusOK, MessageResponse{AI: resp.Content})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, ErrorResponse{Error: msg})
}
