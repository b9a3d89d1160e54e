package handler

import (
	"net/http"

	"github.com/crosswars/api/internal/auth"
	"github.com/crosswars/api/internal/service"
)

// StatsHandler handles per-user stats endpoints.
type StatsHandler struct {
	statsSvc *service.StatsService
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(statsSvc *service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// CreateUserStats handles POST /stats/create_user_stats. Idempotent:
// returns the existing row when the user already has stats.
func (h *StatsHandler) CreateUserStats(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var req struct {
		DisplayName string `json:"display_name"`
	}
	// An empty body is fine; the display name falls back to the principal.
	_ = decodeJSON(r, &req)
	if req.DisplayName == "" {
		req.DisplayName = principal.Username
	}

	stats, existed, err := h.statsSvc.CreateUserStats(r.Context(), principal.UserID, req.DisplayName)
	if err != nil {
		writeServiceError(w, err, "Failed to create user stats")
		return
	}

	resp := map[string]any{"success": true, "data": stats}
	if existed {
		resp["message"] = "Stats already exist"
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUserStats handles GET /stats/get_user_stats/{user_id}.
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsSvc.GetUserStats(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get user stats")
		return
	}
	if stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false, "data": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "data": stats})
}

// UpdateBattleStats handles PUT /stats/update_battle_stats.
func (h *StatsHandler) UpdateBattleStats(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var upd service.BattleStatsUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stats, err := h.statsSvc.UpdateBattleStats(r.Context(), principal.UserID, upd)
	if err != nil {
		writeServiceError(w, err, "Failed to update battle stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated_data": stats})
}

// UpdateUserStats handles PUT /stats/update_user_stats.
func (h *StatsHandler) UpdateUserStats(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	var upd service.UserStatsUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stats, err := h.statsSvc.UpdateUserStats(r.Context(), principal.UserID, upd)
	if err != nil {
		writeServiceError(w, err, "Failed to update user stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated_data": stats})
}
