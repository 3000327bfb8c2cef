package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

const maxTranscriptLimit = 200

// Handler exposes the dialog over HTTP for operators and integration tests.
type Handler struct {
	processor   Processor
	transcripts TranscriptLister
	logger      *logging.Logger
}

// NewHandler creates a conversation handler. transcripts may be nil.
func NewHandler(processor Processor, transcripts TranscriptLister, logger *logging.Logger) *Handler {
	if processor == nil {
		panic("conversation: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{processor: processor, transcripts: transcripts, logger: logger}
}

// Process handles POST /api/conversations/process. It runs one turn
// synchronously and returns the reply with its SMS segments; nothing is sent.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode process request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resp, err := h.processor.ProcessMessage(r.Context(), req)
	if errors.Is(err, ErrPhoneRequired) {
		http.Error(w, "phoneNumber is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to process message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Transcript handles GET /api/conversations/{phone}/transcript.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		http.Error(w, "Transcripts are not enabled", http.StatusNotFound)
		return
	}
	phone := strings.TrimSpace(chi.URLParam(r, "phone"))
	if phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxTranscriptLimit)
	}
	msgs, err := h.transcripts.List(r.Context(), phone, limit)
	if err != nil {
		h.logger.Error("failed to list transcript", "error", err, "phone", logging.MaskPhone(phone))
		http.Error(w, "Failed to load transcript", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []TranscriptMessage{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"phoneNumber": phone, "messages": msgs})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
