package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// principalEcho records the principal the middleware resolved.
func principalEcho(got **Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareRequiresToken(t *testing.T) {
	m := NewJWTManager("test-secret")
	var got *Principal
	h := Middleware(m)(principalEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Authorization header missing") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	m := NewJWTManager("test-secret")
	var got *Principal
	h := Middleware(m)(principalEcho(&got))

	for _, header := range []string{"Bearer bogus", "bogus-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid or expired token") {
			t.Errorf("header %q: unexpected body %q", header, rec.Body.String())
		}
	}
}

func TestMiddlewareResolvesPrincipal(t *testing.T) {
	m := NewJWTManager("test-secret")
	token, err := m.Sign("user-1", "alice", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	var got *Principal
	h := Middleware(m)(principalEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.UserID != "user-1" {
		t.Errorf("expected principal user-1, got %+v", got)
	}
}

func TestOptionalMiddlewareGuest(t *testing.T) {
	m := NewJWTManager("test-secret")
	var got *Principal
	h := OptionalMiddleware(m)(principalEcho(&got))

	// No credential: guest passes through.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != nil {
		t.Errorf("guest request should carry no principal, got %+v", got)
	}

	// Invalid credential: also a guest, never an error.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for invalid token, got %d", rec.Code)
	}
	if got != nil {
		t.Errorf("invalid token should degrade to guest, got %+v", got)
	}
}

func TestOptionalMiddlewareRegistered(t *testing.T) {
	m := NewJWTManager("test-secret")
	token, _ := m.Sign("user-1", "", "")

	var got *Principal
	h := OptionalMiddleware(m)(principalEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got == nil || got.UserID != "user-1" {
		t.Errorf("expected principal user-1, got %+v", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"abc", "abc", true},
		{"Basic abc", "Basic abc", true}, // wrong scheme passes through for the verifier to reject
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if ok != tt.ok || got != tt.want {
			t.Errorf("bearerToken(%q) = (%q, %t), want (%q, %t)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
