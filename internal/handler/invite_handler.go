package handler

import (
	"net/http"

	"github.com/crosswars/api/internal/auth"
	"github.com/crosswars/api/internal/service"
)

// InviteHandler handles invite creation and acceptance endpoints.
type InviteHandler struct {
	inviteSvc *service.InviteService
}

// NewInviteHandler creates an InviteHandler.
func NewInviteHandler(inviteSvc *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteSvc: inviteSvc}
}

// CreateInvite handles POST /invites/create. Registered users only.
func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	res, err := h.inviteSvc.CreateInvite(r.Context(), principal.UserID)
	if err != nil {
		writeServiceError(w, err, "Failed to create invite")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"invite_token": res.Token,
		"battle_id":    res.BattleID,
	})
}

// AcceptInvite handles POST /invites/accept/{token}. Works for logged-in
// users and guests.
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	res, err := h.inviteSvc.AcceptInvite(r.Context(), token, callerFromRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to accept invite")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"battle_id": res.BattleID,
		"is_guest":  res.IsGuest,
	})
}
