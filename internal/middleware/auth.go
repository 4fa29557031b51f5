package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/auth"
	"github.com/martagil/gestor-be/internal/http/respond"
	"github.com/martagil/gestor-be/internal/models"
	"github.com/martagil/gestor-be/internal/storage"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator validates request tokens and resolves the calling principal.
type Authenticator struct {
	tokens *auth.TokenManager
	users  storage.UserStore
	logger *zap.Logger
}

// NewAuthenticator constructs the auth gate.
func NewAuthenticator(tokens *auth.TokenManager, users storage.UserStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

// Principal returns the authenticated user stored in the request context.
func Principal(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(principalKey).(models.User)
	return user, ok
}

func (a *Authenticator) resolve(r *http.Request) (models.User, error) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return models.User{}, auth.ErrInvalidToken
	}
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return models.User{}, err
	}
	user, err := a.users.GetUser(r.Context(), claims.Subject)
	if err != nil {
		return models.User{}, err
	}
	if !user.Active {
		return models.User{}, auth.ErrInvalidToken
	}
	return user, nil
}

// RequireAuth rejects requests that do not carry a valid token for an
// existing, active user.
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey, user)))
	}
}

// RequireAdmin rejects requests whose principal lacks the admin role.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user, _ := Principal(r.Context())
		if !user.IsAdmin() {
			a.logger.Warn("admin route denied", zap.String("username", user.Username))
			respond.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	})
}

// WithPrincipal attaches the principal when a valid token is present but does
// not reject anonymous requests. Used by routes that behave differently for
// authenticated callers, like open registration.
func (a *Authenticator) WithPrincipal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user, err := a.resolve(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), principalKey, user))
		}
		next(w, r)
	}
}
