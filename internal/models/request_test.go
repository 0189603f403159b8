package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validID = "7d8f1c1e-2b0a-4a8e-9c1d-3f6b2e4a5c7d"

func field(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	e, ok := err.(*ErrorResponse)
	require.True(t, ok, "expected *ErrorResponse, got %T", err)
	require.Len(t, e.Details, 1)
	return e.Details[0].Field
}

func TestRegisterRequestValidate(t *testing.T) {
	ok := RegisterRequest{Username: " Alice_01 ", Email: "Alice@Example.com", Password: "Secret1"}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "alice_01", ok.Username)
	assert.Equal(t, "alice@example.com", ok.Email)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "a@b.co", Password: "Secret1"}, "username"},
		{"bad username chars", RegisterRequest{Username: "al ice", Email: "a@b.co", Password: "Secret1"}, "username"},
		{"bad email", RegisterRequest{Username: "alice", Email: "nope", Password: "Secret1"}, "email"},
		{"email without domain dot", RegisterRequest{Username: "alice", Email: "a@localhost", Password: "Secret1"}, "email"},
		{"short password", RegisterRequest{Username: "alice", Email: "a@b.co", Password: "Se1"}, "password"},
		{"weak password", RegisterRequest{Username: "alice", Email: "a@b.co", Password: "secret12"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.field, field(t, tc.req.Validate()))
		})
	}
}

func TestChangePasswordRequestValidate(t *testing.T) {
	same := ChangePasswordRequest{CurrentPassword: "Secret1", NewPassword: "Secret1"}
	assert.Equal(t, "newPassword", field(t, same.Validate()))

	missing := ChangePasswordRequest{NewPassword: "Secret2"}
	assert.Equal(t, "currentPassword", field(t, missing.Validate()))

	ok := ChangePasswordRequest{CurrentPassword: "Secret1", NewPassword: "Secret2"}
	assert.NoError(t, ok.Validate())
}

func TestCreateChallengeRequestDefaults(t *testing.T) {
	req := CreateChallengeRequest{
		Text:       "  Take a ten minute walk outside  ",
		CategoryID: validID,
		Tags:       []string{"Outdoor", "outdoor ", "walk"},
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, Medium, req.Difficulty)
	assert.Equal(t, "Take a ten minute walk outside", req.Text)
	assert.Equal(t, []string{"outdoor", "walk"}, req.Tags)
}

func TestCreateChallengeRequestRejects(t *testing.T) {
	base := func() CreateChallengeRequest {
		return CreateChallengeRequest{Text: "Call an old friend today", CategoryID: validID}
	}

	short := base()
	short.Text = "too short"
	assert.Equal(t, "text", field(t, short.Validate()))

	long := base()
	long.Text = strings.Repeat("x", 501)
	assert.Equal(t, "text", field(t, long.Validate()))

	badCategory := base()
	badCategory.CategoryID = "not-an-id"
	assert.Equal(t, "categoryId", field(t, badCategory.Validate()))

	badDifficulty := base()
	badDifficulty.Difficulty = "extreme"
	assert.Equal(t, "difficulty", field(t, badDifficulty.Validate()))

	badEstimate := base()
	minutes := 181
	badEstimate.TimeEstimate = &minutes
	assert.Equal(t, "timeEstimate", field(t, badEstimate.Validate()))

	badTag := base()
	badTag.Tags = []string{"x"}
	assert.Equal(t, "tags", field(t, badTag.Validate()))
}

func TestRatingRequests(t *testing.T) {
	for _, r := range []int{0, 6, -1} {
		req := RatingRequest{Rating: r}
		assert.Equal(t, "rating", field(t, req.Validate()))
	}
	assert.NoError(t, (&RatingRequest{Rating: 3}).Validate())

	assert.NoError(t, (&CompleteRequest{}).Validate())
	bad := 9
	assert.Equal(t, "rating", field(t, (&CompleteRequest{Rating: &bad}).Validate()))
}

func TestCategoryRequestValidate(t *testing.T) {
	ok := CategoryRequest{Name: " Active ", Emoji: "🏃", Color: "#ff6b6b"}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "Active", ok.Name)

	short := CategoryRequest{Name: "Active", Emoji: "🏃", Color: "#abc"}
	assert.NoError(t, short.Validate())

	badColor := CategoryRequest{Name: "Active", Emoji: "🏃", Color: "red"}
	assert.Equal(t, "color", field(t, badColor.Validate()))

	noEmoji := CategoryRequest{Name: "Active", Color: "#ffffff"}
	assert.Equal(t, "emoji", field(t, noEmoji.Validate()))
}

func TestUpdateProfileRequestApply(t *testing.T) {
	goal := 5
	diff := "hard"
	req := UpdateProfileRequest{}
	req.Preferences = &struct {
		FavoriteCategories []string `json:"favoriteCategories"`
		Difficulty         *string  `json:"difficulty"`
		DailyGoal          *int     `json:"dailyGoal"`
	}{Difficulty: &diff, DailyGoal: &goal}
	require.NoError(t, req.Validate())

	patch := req.Apply(DefaultPreferences())
	require.NotNil(t, patch.Preferences)
	assert.Equal(t, "hard", patch.Preferences.Difficulty)
	assert.Equal(t, 5, patch.Preferences.DailyGoal)
	assert.Equal(t, []string{}, patch.Preferences.FavoriteCategories)
	assert.Nil(t, patch.Name)

	tooMany := 11
	req.Preferences.DailyGoal = &tooMany
	assert.Equal(t, "preferences.dailyGoal", field(t, req.Validate()))

	avatar := "not a url"
	bad := UpdateProfileRequest{Avatar: &avatar}
	assert.Equal(t, "avatar", field(t, bad.Validate()))
}

func TestUserHasRole(t *testing.T) {
	u := &User{Role: RoleModerator}
	assert.True(t, u.HasRole(RoleAdmin, RoleModerator))
	assert.False(t, u.HasRole(RoleAdmin))
}

func TestCreateChallengeRequestNewChallenge(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	req := CreateChallengeRequest{Text: "Read 20 pages of a book", CategoryID: validID}
	require.NoError(t, req.Validate())

	c := req.NewChallenge("c-1", "u-1", now)
	assert.Equal(t, Medium, c.Difficulty)
	assert.Equal(t, DefaultTimeEstimate, c.TimeEstimate)
	assert.Equal(t, []string{}, c.Tags)
	assert.True(t, c.IsActive)
	assert.Equal(t, "u-1", c.CreatedBy)
	assert.Equal(t, now, c.CreatedAt)
	assert.Zero(t, c.RatingCount)
}
