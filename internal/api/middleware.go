package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tradeforge/propdesk/internal/apperrors"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the verified caller identity.
type Identity struct {
	UserID int
	Role   string
}

// TokenVerifier turns an opaque token into an identity. Token issuance
// and cookie plumbing live outside this service.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the verified identity stored on the request context.
func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// authenticate extracts and verifies the bearer token (or session
// cookie) and stores the identity on the context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, h.log, h.devMode, apperrors.NewAuthError("missing credentials"))
			return
		}

		identity, err := h.verifier.Verify(token)
		if err != nil {
			respondError(w, h.log, h.devMode, apperrors.NewAuthError("invalid credentials"))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCronOrAdmin admits callers presenting the shared cron secret
// header, or an authenticated admin.
func (h *Handler) requireCronOrAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cronSecret != "" && r.Header.Get("x-cron-secret") == h.cronSecret {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			respondError(w, h.log, h.devMode, apperrors.NewAuthError("missing credentials"))
			return
		}
		identity, err := h.verifier.Verify(token)
		if err != nil {
			respondError(w, h.log, h.devMode, apperrors.NewAuthError("invalid credentials"))
			return
		}
		if identity.Role != RoleAdmin {
			respondError(w, h.log, h.devMode, apperrors.NewForbiddenError("admin role required"))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}
