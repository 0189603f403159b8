package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"randomchallenge/api/internal/auth"
	"randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"
	"randomchallenge/api/internal/sessions"
	"randomchallenge/api/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthHandler manages authentication and profile endpoints.
type AuthHandler struct {
	users    repositories.UserRepository
	hasher   PasswordHasher
	issuer   *auth.Issuer
	sessions sessions.Store
	logger   *zap.Logger
}

func NewAuthHandler(users repositories.UserRepository, hasher PasswordHasher, issuer *auth.Issuer, store sessions.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, hasher: hasher, issuer: issuer, sessions: store, logger: logger}
}

// startSession issues a token for user and registers its id as live.
func (h *AuthHandler) startSession(ctx context.Context, user *models.User) (string, error) {
	token, claims, err := h.issuer.Issue(user)
	if err != nil {
		return "", err
	}
	if err := h.sessions.Add(ctx, user.ID, claims.ID, claims.ExpiresAt.Time); err != nil {
		return "", err
	}
	return token, nil
}

func (h *AuthHandler) sessionFailed(w http.ResponseWriter, err error) {
	h.logger.Error("failed to start session", zap.Error(err))
	utils.JSONError(w, http.StatusServiceUnavailable, "session_unavailable", "Could not start a session, please try again")
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.RegisterRequest](r)

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         models.RoleUser,
		IsActive:     true,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			utils.JSONError(w, http.StatusConflict, "user_exists", "A user with this email or username already exists")
			return
		}
		writeError(w, h.logger, err, "")
		return
	}

	token, err := h.startSession(r.Context(), user)
	if err != nil {
		h.sessionFailed(w, err)
		return
	}
	h.logger.Info("user registered", zap.String("user_id", user.ID))
	utils.JSON(w, http.StatusCreated, models.AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.LoginRequest](r)

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		writeError(w, h.logger, err, "")
		return
	}
	if user == nil || h.hasher.Compare(user.PasswordHash, req.Password) != nil {
		utils.JSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if !user.IsActive {
		utils.JSONError(w, http.StatusUnauthorized, "account_disabled", "Account is disabled")
		return
	}

	token, err := h.startSession(r.Context(), user)
	if err != nil {
		h.sessionFailed(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.AuthResponse{User: user, Token: token})
}

// LogoutHandler revokes the token used on this request.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if err := h.sessions.Remove(r.Context(), claims.UserID(), claims.ID); err != nil {
		h.logger.Error("failed to revoke session", zap.Error(err))
		utils.JSONError(w, http.StatusServiceUnavailable, "session_unavailable", "Could not end the session, please try again")
		return
	}
	utils.JSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

// LogoutAllHandler revokes every token of the user.
func (h *AuthHandler) LogoutAllHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := h.sessions.RemoveAll(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to revoke sessions", zap.Error(err))
		utils.JSONError(w, http.StatusServiceUnavailable, "session_unavailable", "Could not end the sessions, please try again")
		return
	}
	utils.JSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out from all devices"})
}

func (h *AuthHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}

func (h *AuthHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	req := middleware.GetValidatedRequest[*models.UpdateProfileRequest](r)

	updated, err := h.users.Update(r.Context(), user.ID, req.Apply(user.Preferences))
	if err != nil {
		writeError(w, h.logger, err, "User not found")
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

// ChangePasswordHandler replaces the password, revokes every existing
// session and returns a fresh token.
func (h *AuthHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	req := middleware.GetValidatedRequest[*models.ChangePasswordRequest](r)

	if err := h.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_password", "Current password is incorrect")
		return
	}
	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	updated, err := h.users.Update(r.Context(), user.ID, models.UserPatch{PasswordHash: &hash})
	if err != nil {
		writeError(w, h.logger, err, "User not found")
		return
	}

	if err := h.sessions.RemoveAll(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to revoke sessions after password change", zap.Error(err))
	}
	token, err := h.startSession(r.Context(), updated)
	if err != nil {
		h.sessionFailed(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.AuthResponse{User: updated, Token: token})
}
