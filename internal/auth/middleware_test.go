package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type stubValidator struct {
	session *domain.Session
	err     error
}

func (s *stubValidator) Validate(_ context.Context, token string) (*domain.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.session != nil && s.session.Token == token {
		return s.session, nil
	}
	return nil, ErrSessionNotFound
}

func TestRequireSession(t *testing.T) {
	session := &domain.Session{
		Token:     "token-1",
		ProfileID: "profile-1",
		UserType:  domain.UserTypeBuyer,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	t.Run("passes the session to the wrapped handler", func(t *testing.T) {
		validator := &stubValidator{session: session}

		var got *domain.Session
		handler := RequireSession(validator, func(w http.ResponseWriter, r *http.Request) {
			got, _ = SessionFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer token-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got == nil || got.ProfileID != "profile-1" {
			t.Fatalf("expected session in context, got %+v", got)
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		handler := RequireSession(&stubValidator{session: session}, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		handler := RequireSession(&stubValidator{session: session}, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "token-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		handler := RequireSession(&stubValidator{session: session}, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer other-token")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects expired session", func(t *testing.T) {
		handler := RequireSession(&stubValidator{err: errors.New("session expired")}, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer token-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("accepts lowercase bearer scheme", func(t *testing.T) {
		handler := RequireSession(&stubValidator{session: session}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "bearer token-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
