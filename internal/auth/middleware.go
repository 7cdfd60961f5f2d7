package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type contextKey struct{}

var sessionKey contextKey

// SessionValidator resolves a bearer token to a session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*domain.Session, error)
}

// SessionFrom returns the session attached by RequireSession.
func SessionFrom(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*domain.Session)
	return session, ok
}

// ContextWithSession attaches a session to ctx the way RequireSession does.
func ContextWithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// RequireSession rejects requests without a valid bearer token and passes
// the resolved session to the wrapped handler via the request context.
func RequireSession(validator SessionValidator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, "missing bearer token")
			return
		}

		session, err := validator.Validate(r.Context(), token)
		if err != nil {
			writeAuthError(w, "invalid or expired session")
			return
		}

		next(w, r.WithContext(ContextWithSession(r.Context(), session)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
