package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"randomchallenge/api/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registerBody = `{"username":"Alice_01","email":"Alice@Example.com","password":"Secret123","name":"Alice"}`

func TestRegisterAndProfile(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/auth/register", registerBody, "")
	expectStatus(t, rr, http.StatusCreated)
	got := decode[models.AuthResponse](t, rr)
	require.NotEmpty(t, got.Token)
	assert.Equal(t, "alice_01", got.User.Username)
	assert.Equal(t, "alice@example.com", got.User.Email)
	assert.Equal(t, models.RoleUser, got.User.Role)
	assert.NotContains(t, rr.Body.String(), "Secret123")

	rr = env.do(t, http.MethodGet, "/api/v1/auth/profile", "", got.Token)
	expectStatus(t, rr, http.StatusOK)
	profile := decode[models.User](t, rr)
	assert.Equal(t, got.User.ID, profile.ID)
	assert.Equal(t, models.DefaultPreferences().DailyGoal, profile.Preferences.DailyGoal)

	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/register", registerBody, ""), http.StatusConflict, "user_exists")
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv(t)
	cases := map[string]string{
		"short username": `{"username":"al","email":"al@example.com","password":"Secret123"}`,
		"bad email":      `{"username":"alice","email":"not-an-email","password":"Secret123"}`,
		"weak password":  `{"username":"alice","email":"alice@example.com","password":"secret"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/register", body, ""), http.StatusBadRequest, "validation_error")
		})
	}
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/register", `{"username":`, ""), http.StatusBadRequest, "invalid_json")
}

func TestLogin(t *testing.T) {
	env := newEnv(t)
	user, _ := env.login(t, "alice", models.RoleUser)

	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Wrong123"}`, ""), http.StatusUnauthorized, "invalid_credentials")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"nobody@example.com","password":"Secret123"}`, ""), http.StatusUnauthorized, "invalid_credentials")

	rr := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"ALICE@example.com","password":"Secret123"}`, "")
	expectStatus(t, rr, http.StatusOK)
	got := decode[models.AuthResponse](t, rr)
	assert.Equal(t, user.ID, got.User.ID)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", got.Token), http.StatusOK)
}

func TestLoginDisabledAccount(t *testing.T) {
	env := newEnv(t)
	hash, err := env.hasher.Hash("Secret123")
	require.NoError(t, err)
	require.NoError(t, env.store.Users().Create(context.Background(), &models.User{
		ID: uuid.NewString(), Username: "alice", Email: "alice@example.com", PasswordHash: hash,
		Role: models.RoleUser, IsActive: false, Preferences: models.DefaultPreferences(),
	}))

	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Secret123"}`, ""), http.StatusUnauthorized, "account_disabled")
}

func TestLogoutRevokesOnlyThatToken(t *testing.T) {
	env := newEnv(t)
	_, first := env.login(t, "alice", models.RoleUser)
	rr := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Secret123"}`, "")
	second := decode[models.AuthResponse](t, rr).Token

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/auth/logout", "", first), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", first), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", second), http.StatusOK)
}

func TestLogoutAll(t *testing.T) {
	env := newEnv(t)
	_, first := env.login(t, "alice", models.RoleUser)
	rr := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Secret123"}`, "")
	second := decode[models.AuthResponse](t, rr).Token

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/auth/logout-all", "", second), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", first), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", second), http.StatusUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	env := newEnv(t)
	cat := env.category(t, "Active")
	_, token := env.login(t, "alice", models.RoleUser)

	body := `{"name":" Alice A ","avatar":"https://example.com/a.png","preferences":{"favoriteCategories":["` + cat.ID + `"],"dailyGoal":5}}`
	rr := env.do(t, http.MethodPatch, "/api/v1/auth/profile", body, token)
	expectStatus(t, rr, http.StatusOK)
	got := decode[models.User](t, rr)
	assert.Equal(t, "Alice A", got.Name)
	assert.Equal(t, "https://example.com/a.png", got.Avatar)
	assert.Equal(t, []string{cat.ID}, got.Preferences.FavoriteCategories)
	assert.Equal(t, 5, got.Preferences.DailyGoal)
	assert.Equal(t, models.DefaultPreferences().Difficulty, got.Preferences.Difficulty)

	expectCode(t, env.do(t, http.MethodPatch, "/api/v1/auth/profile", `{"preferences":{"dailyGoal":11}}`, token), http.StatusBadRequest, "validation_error")
	expectCode(t, env.do(t, http.MethodPatch, "/api/v1/auth/profile", `{"preferences":{"difficulty":"insane"}}`, token), http.StatusBadRequest, "validation_error")
	expectStatus(t, env.do(t, http.MethodPatch, "/api/v1/auth/profile", `{"name":"x"}`, ""), http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	env := newEnv(t)
	_, token := env.login(t, "alice", models.RoleUser)

	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/change-password", `{"currentPassword":"Wrong123","newPassword":"Better456"}`, token), http.StatusBadRequest, "invalid_password")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/change-password", `{"currentPassword":"Secret123","newPassword":"Secret123"}`, token), http.StatusBadRequest, "validation_error")

	rr := env.do(t, http.MethodPost, "/api/v1/auth/change-password", `{"currentPassword":"Secret123","newPassword":"Better456"}`, token)
	expectStatus(t, rr, http.StatusOK)
	fresh := decode[models.AuthResponse](t, rr).Token
	require.NotEmpty(t, fresh)

	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", token), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/auth/profile", "", fresh), http.StatusOK)

	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Secret123"}`, ""), http.StatusUnauthorized, "invalid_credentials")
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"Better456"}`, ""), http.StatusOK)
}
