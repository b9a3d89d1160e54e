package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/auth"
	"github.com/crosswars/api/internal/service"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a domain error to its HTTP status. Unrecognized
// errors are persistence failures: they are logged and surfaced with the
// fallback detail so internal store error text never leaks.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInviteNotFound),
		errors.Is(err, service.ErrBattleNotFound),
		errors.Is(err, service.ErrStatsNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInviteExpired),
		errors.Is(err, service.ErrSelfAccept),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrPlayersNotReady):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyAccepted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrGuestAccessDenied):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// callerFromRequest builds the service-level caller from the resolved
// principal: registered when the optional auth middleware verified a
// token, guest otherwise.
func callerFromRequest(r *http.Request) service.Caller {
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		return service.Registered(p.UserID)
	}
	return service.GuestCaller
}
