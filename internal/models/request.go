package models

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
	colorPattern    = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
)

// ValidID reports whether id has the shape of a record identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func invalid(field, reason string) *ErrorResponse {
	return &ErrorResponse{
		Code:    "validation_error",
		Message: reason,
		Details: []ValidationErrorDetail{{Field: field, Reason: reason}},
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)

	if n := len(r.Username); n < 3 || n > 30 {
		return invalid("username", "username must be between 3 and 30 characters")
	}
	if !usernamePattern.MatchString(r.Username) {
		return invalid("username", "username may only contain lowercase letters, digits, dashes and underscores")
	}
	if !validEmail(r.Email) {
		return invalid("email", "invalid email format")
	}
	if err := validatePassword("password", r.Password); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return invalid("name", "name must be at most 100 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(r.Email) {
		return invalid("email", "invalid email format")
	}
	if r.Password == "" {
		return invalid("password", "password is required")
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return invalid("currentPassword", "current password is required")
	}
	if err := validatePassword("newPassword", r.NewPassword); err != nil {
		return err
	}
	if r.NewPassword == r.CurrentPassword {
		return invalid("newPassword", "new password must differ from the current one")
	}
	return nil
}

type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Avatar      *string `json:"avatar"`
	Preferences *struct {
		FavoriteCategories []string `json:"favoriteCategories"`
		Difficulty         *string  `json:"difficulty"`
		DailyGoal          *int     `json:"dailyGoal"`
	} `json:"preferences"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
		if utf8.RuneCountInString(trimmed) > 100 {
			return invalid("name", "name must be at most 100 characters")
		}
	}
	if r.Avatar != nil {
		trimmed := strings.TrimSpace(*r.Avatar)
		r.Avatar = &trimmed
		if u, err := url.ParseRequestURI(trimmed); err != nil || u.Host == "" {
			return invalid("avatar", "avatar must be a valid URL")
		}
	}
	if p := r.Preferences; p != nil {
		for _, id := range p.FavoriteCategories {
			if !ValidID(id) {
				return invalid("preferences.favoriteCategories", "invalid category id")
			}
		}
		if p.Difficulty != nil {
			d := *p.Difficulty
			if d != PreferenceMixed && !Difficulty(d).Valid() {
				return invalid("preferences.difficulty", "difficulty must be one of: easy, medium, hard, mixed")
			}
		}
		if p.DailyGoal != nil && (*p.DailyGoal < 1 || *p.DailyGoal > 10) {
			return invalid("preferences.dailyGoal", "daily goal must be between 1 and 10")
		}
	}
	return nil
}

// Apply merges the request into the user's current preferences and
// returns the resulting patch.
func (r *UpdateProfileRequest) Apply(current Preferences) UserPatch {
	patch := UserPatch{Name: r.Name, Avatar: r.Avatar}
	if p := r.Preferences; p != nil {
		next := current
		if p.FavoriteCategories != nil {
			next.FavoriteCategories = p.FavoriteCategories
		}
		if p.Difficulty != nil {
			next.Difficulty = *p.Difficulty
		}
		if p.DailyGoal != nil {
			next.DailyGoal = *p.DailyGoal
		}
		patch.Preferences = &next
	}
	return patch
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (r *CategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Emoji = strings.TrimSpace(r.Emoji)
	r.Color = strings.TrimSpace(r.Color)
	r.Description = strings.TrimSpace(r.Description)

	if n := utf8.RuneCountInString(r.Name); n < 1 || n > 50 {
		return invalid("name", "category name must be between 1 and 50 characters")
	}
	if n := utf8.RuneCountInString(r.Emoji); n < 1 || n > 5 {
		return invalid("emoji", "emoji must be between 1 and 5 characters")
	}
	if !colorPattern.MatchString(r.Color) {
		return invalid("color", "color must be a HEX value like #ff6b6b")
	}
	if utf8.RuneCountInString(r.Description) > 200 {
		return invalid("description", "description must be at most 200 characters")
	}
	return nil
}

type CreateChallengeRequest struct {
	Text         string     `json:"text"`
	CategoryID   string     `json:"categoryId"`
	Difficulty   Difficulty `json:"difficulty"`
	TimeEstimate *int       `json:"timeEstimate"`
	Tags         []string   `json:"tags"`
}

func (r *CreateChallengeRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	if err := validateChallengeText(r.Text); err != nil {
		return err
	}
	if !ValidID(r.CategoryID) {
		return invalid("categoryId", "invalid category id")
	}
	if r.Difficulty == "" {
		r.Difficulty = Medium
	}
	if !r.Difficulty.Valid() {
		return invalid("difficulty", "difficulty must be one of: easy, medium, hard")
	}
	if r.TimeEstimate != nil {
		if err := validateTimeEstimate(*r.TimeEstimate); err != nil {
			return err
		}
	}
	tags, err := NormalizeTags(r.Tags)
	if err != nil {
		return err
	}
	r.Tags = tags
	return nil
}

// NewChallenge builds an active challenge from a validated request.
func (r *CreateChallengeRequest) NewChallenge(id, createdBy string, now time.Time) *Challenge {
	estimate := DefaultTimeEstimate
	if r.TimeEstimate != nil {
		estimate = *r.TimeEstimate
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Challenge{
		ID:           id,
		Text:         r.Text,
		CategoryID:   r.CategoryID,
		Difficulty:   r.Difficulty,
		TimeEstimate: estimate,
		Tags:         tags,
		IsActive:     true,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type UpdateChallengeRequest struct {
	Text         *string     `json:"text"`
	CategoryID   *string     `json:"categoryId"`
	Difficulty   *Difficulty `json:"difficulty"`
	TimeEstimate *int        `json:"timeEstimate"`
	Tags         []string    `json:"tags"`
	IsActive     *bool       `json:"isActive"`
}

func (r *UpdateChallengeRequest) Validate() error {
	if r.Text != nil {
		trimmed := strings.TrimSpace(*r.Text)
		r.Text = &trimmed
		if err := validateChallengeText(trimmed); err != nil {
			return err
		}
	}
	if r.CategoryID != nil && !ValidID(*r.CategoryID) {
		return invalid("categoryId", "invalid category id")
	}
	if r.Difficulty != nil && !r.Difficulty.Valid() {
		return invalid("difficulty", "difficulty must be one of: easy, medium, hard")
	}
	if r.TimeEstimate != nil {
		if err := validateTimeEstimate(*r.TimeEstimate); err != nil {
			return err
		}
	}
	if r.Tags != nil {
		tags, err := NormalizeTags(r.Tags)
		if err != nil {
			return err
		}
		r.Tags = tags
	}
	return nil
}

func (r *UpdateChallengeRequest) Patch() ChallengePatch {
	return ChallengePatch{
		Text:         r.Text,
		CategoryID:   r.CategoryID,
		Difficulty:   r.Difficulty,
		TimeEstimate: r.TimeEstimate,
		Tags:         r.Tags,
		IsActive:     r.IsActive,
	}
}

type RatingRequest struct {
	Rating int `json:"rating"`
}

func (r *RatingRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return invalid("rating", "rating must be between 1 and 5")
	}
	return nil
}

type CompleteRequest struct {
	Rating *int `json:"rating"`
}

func (r *CompleteRequest) Validate() error {
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return invalid("rating", "rating must be between 1 and 5")
	}
	return nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func validatePassword(field, p string) error {
	if len(p) < 6 {
		return invalid(field, "password must be at least 6 characters")
	}
	var lower, upper, digit bool
	for _, c := range p {
		switch {
		case unicode.IsLower(c):
			lower = true
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsDigit(c):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return invalid(field, "password must contain lowercase and uppercase letters and digits")
	}
	return nil
}

func validateChallengeText(text string) error {
	if n := utf8.RuneCountInString(text); n < 10 || n > 500 {
		return invalid("text", "challenge text must be between 10 and 500 characters")
	}
	return nil
}

func validateTimeEstimate(minutes int) error {
	if minutes < MinTimeEstimate || minutes > MaxTimeEstimate {
		return invalid("timeEstimate", "time estimate must be between 1 and 180 minutes")
	}
	return nil
}

// NormalizeTags lowercases and trims tags and drops duplicates.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if n := utf8.RuneCountInString(t); n < 2 || n > 20 {
			return nil, invalid("tags", "each tag must be between 2 and 20 characters")
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
