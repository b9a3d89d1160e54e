package handler

import (
	"fmt"
	"net/http"

	"github.com/crosswars/api/internal/service"
)

// BattleHandler handles game room endpoints (fetch, ready, start, complete).
type BattleHandler struct {
	battleSvc *service.BattleService
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(battleSvc *service.BattleService) *BattleHandler {
	return &BattleHandler{battleSvc: battleSvc}
}

// GetBattle handles GET /battles/{id}.
func (h *BattleHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	battle, err := h.battleSvc.GetBattle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "Failed to get battle")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"battle":  battle,
	})
}

// MarkReady handles POST /battles/{id}/ready.
func (h *BattleHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	side, err := h.battleSvc.MarkReady(r.Context(), r.PathValue("id"), callerFromRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to mark player as ready")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%s marked as ready.", side),
	})
}

// Start handles POST /battles/{id}/start.
func (h *BattleHandler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.battleSvc.Start(r.Context(), r.PathValue("id"), callerFromRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to start battle")
		return
	}

	message := "Battle started"
	if res.AlreadyStarted {
		message = "Battle already in progress."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         message,
		"started_at":      res.StartedAt,
		"already_started": res.AlreadyStarted,
	})
}

// Complete handles POST /battles/{id}/complete.
func (h *BattleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	res, err := h.battleSvc.Complete(r.Context(), r.PathValue("id"), callerFromRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to mark battle as complete")
		return
	}

	message := "Battle marked as complete."
	if res.AlreadyCompleted {
		message = "Battle already complete."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           message,
		"completed_at":      res.CompletedAt,
		"winner_id":         res.WinnerID,
		"winner":            res.Winner,
		"is_tie":            res.IsTie,
		"already_completed": res.AlreadyCompleted,
	})
}
