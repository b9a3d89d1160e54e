package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crosswars/api/internal/crossword"
)

// CrosswordHandler handles puzzle generation endpoints.
type CrosswordHandler struct {
	generator *crossword.Generator
}

// NewCrosswordHandler creates a CrosswordHandler.
func NewCrosswordHandler(generator *crossword.Generator) *CrosswordHandler {
	return &CrosswordHandler{generator: generator}
}

// Generate handles POST /crossword/generate.
func (h *CrosswordHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Theme = strings.TrimSpace(req.Theme)
	if req.Theme == "" {
		writeError(w, http.StatusBadRequest, `request JSON must include {"theme":"..."}`)
		return
	}

	puzzle, err := h.generator.Build(r.Context(), req.Theme)
	if err != nil {
		writeServiceError(w, err, "Failed to generate crossword")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": puzzle})
}

// Latest handles GET /crossword/latest.
func (h *CrosswordHandler) Latest(w http.ResponseWriter, r *http.Request) {
	puzzle, err := h.generator.Latest(r.Context())
	if err != nil {
		if errors.Is(err, crossword.ErrNoPuzzle) {
			writeError(w, http.StatusNotFound, "no crossword generated yet")
			return
		}
		writeServiceError(w, err, "Failed to get latest crossword")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": puzzle})
}
