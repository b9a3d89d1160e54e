package auth

import (
	"net/http"
	"strings"
)

// Middleware returns an HTTP middleware that requires a valid bearer
// token. The resolved principal is stored in the request context.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, `{"error":"Authorization header missing"}`, http.StatusUnauthorized)
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalMiddleware resolves a principal when a valid bearer token is
// present and treats everything else as a guest. Absent and invalid
// credentials are equivalent: no error is surfaced either way, only a
// provider-confirmed token yields a registered principal.
func OptionalMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns false when the header is absent or empty.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		// Malformed Bearer-prefix forms still count as a supplied
		// credential; the verifier will reject the raw value.
		return strings.TrimSpace(header), true
	}
	return strings.TrimSpace(parts[1]), true
}
