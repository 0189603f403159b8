package middleware

import (
	"context"
	"errors"
	"net/http"

	"randomchallenge/api/internal/auth"
	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/sessions"
	"randomchallenge/api/internal/utils"

	"go.uber.org/zap"
)

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// UserLookup resolves the subject of a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

var errSessionRevoked = errors.New("session revoked")

// Authenticator turns bearer tokens into users on the request context.
type Authenticator struct {
	issuer   *auth.Issuer
	sessions sessions.Store
	users    UserLookup
	logger   *zap.Logger
}

func NewAuthenticator(issuer *auth.Issuer, store sessions.Store, users UserLookup, logger *zap.Logger) *Authenticator {
	return &Authenticator{issuer: issuer, sessions: store, users: users, logger: logger}
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, *auth.Claims, error) {
	token, err := auth.BearerToken(r)
	if err != nil {
		return nil, nil, err
	}
	claims, err := a.issuer.Verify(token)
	if err != nil {
		return nil, nil, err
	}
	active, err := a.sessions.Active(r.Context(), claims.UserID(), claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if !active {
		return nil, nil, errSessionRevoked
	}
	user, err := a.users.GetUserByID(r.Context(), claims.UserID())
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, auth.ErrInvalidToken
	}
	return user, claims, nil
}

func withUser(r *http.Request, user *models.User, claims *auth.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), userKey, user)
	ctx = context.WithValue(ctx, claimsKey, claims)
	return r.WithContext(ctx)
}

// RequireAuth rejects requests without a valid, unrevoked token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims, err := a.authenticate(r)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingAuthHeader):
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized", "Access token is required")
			case errors.Is(err, models.ErrStoreUnavailable):
				a.logger.Error("auth lookup failed", zap.Error(err))
				utils.JSONError(w, http.StatusServiceUnavailable, "store_unavailable", "Service temporarily unavailable")
			default:
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			}
			return
		}
		next.ServeHTTP(w, withUser(r, user, claims))
	})
}

// OptionalAuth attaches the user when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, claims, err := a.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, user, claims))
	})
}

// Authorize admits only users holding one of roles. It must run after RequireAuth.
func Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized", "Access token is required")
				return
			}
			if !user.HasRole(roles...) {
				utils.JSONError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// ClaimsFromContext returns the claims of the token used on this request, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}
