package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultData []byte

// ErrAlreadySeeded is returned when the store holds categories and no reset
// was requested.
var ErrAlreadySeeded = errors.New("store already contains data, use reset to reseed")

type Data struct {
	Categories []CategoryData `yaml:"categories"`
	Users      []UserData     `yaml:"users"`
}

type CategoryData struct {
	Name        string          `yaml:"name"`
	Emoji       string          `yaml:"emoji"`
	Color       string          `yaml:"color"`
	Description string          `yaml:"description"`
	Challenges  []ChallengeData `yaml:"challenges"`
}

type ChallengeData struct {
	Text         string            `yaml:"text"`
	Difficulty   models.Difficulty `yaml:"difficulty"`
	TimeEstimate int               `yaml:"timeEstimate"`
	Tags         []string          `yaml:"tags"`
}

type UserData struct {
	Username string      `yaml:"username"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Name     string      `yaml:"name"`
	Role     models.Role `yaml:"role"`
}

// PasswordHasher hashes the passwords of seeded accounts.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Result struct {
	Categories int
	Challenges int
	Users      int
}

// Default parses the embedded data set.
func Default() (*Data, error) {
	return Parse(defaultData)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &d, nil
}

// Seeder loads a data set into a store. Every record goes through the same
// validation as the matching API request.
type Seeder struct {
	store  repositories.Store
	hasher PasswordHasher
	logger *zap.Logger
	now    func() time.Time
}

func NewSeeder(store repositories.Store, hasher PasswordHasher, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, hasher: hasher, logger: logger, now: time.Now}
}

// Run seeds data. With reset the store is emptied first; without it a store
// that already has categories is left alone and ErrAlreadySeeded returned.
func (s *Seeder) Run(ctx context.Context, data *Data, reset bool) (*Result, error) {
	if reset {
		if err := s.store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset store: %w", err)
		}
		s.logger.Info("store cleared")
	}

	existing, err := s.store.Categories().List(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrAlreadySeeded
	}

	res := &Result{}
	now := s.now().UTC()
	for _, cd := range data.Categories {
		req := models.CategoryRequest{Name: cd.Name, Emoji: cd.Emoji, Color: cd.Color, Description: cd.Description}
		if err := req.Validate(); err != nil {
			return res, fmt.Errorf("category %q: %w", cd.Name, err)
		}
		cat := &models.Category{
			ID: uuid.NewString(), Name: req.Name, Emoji: req.Emoji, Color: req.Color,
			Description: req.Description, IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		if err := s.store.Categories().Create(ctx, cat); err != nil {
			return res, fmt.Errorf("create category %q: %w", cd.Name, err)
		}
		res.Categories++

		for _, ch := range cd.Challenges {
			creq := models.CreateChallengeRequest{
				Text: ch.Text, CategoryID: cat.ID, Difficulty: ch.Difficulty, Tags: ch.Tags,
			}
			if ch.TimeEstimate != 0 {
				creq.TimeEstimate = &ch.TimeEstimate
			}
			if err := creq.Validate(); err != nil {
				return res, fmt.Errorf("challenge %q: %w", ch.Text, err)
			}
			c := creq.NewChallenge(uuid.NewString(), "", now)
			if err := s.store.Challenges().Create(ctx, c); err != nil {
				return res, fmt.Errorf("create challenge %q: %w", ch.Text, err)
			}
			res.Challenges++
		}
	}

	for _, ud := range data.Users {
		req := models.RegisterRequest{Username: ud.Username, Email: ud.Email, Password: ud.Password, Name: ud.Name}
		if err := req.Validate(); err != nil {
			return res, fmt.Errorf("user %q: %w", ud.Username, err)
		}
		role := ud.Role
		if role == "" {
			role = models.RoleUser
		}
		if !role.Valid() {
			return res, fmt.Errorf("user %q: unknown role %q", ud.Username, role)
		}
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return res, fmt.Errorf("hash password for %q: %w", ud.Username, err)
		}
		u := &models.User{
			ID: uuid.NewString(), Username: req.Username, Email: req.Email, PasswordHash: hash,
			Name: req.Name, Role: role, IsActive: true, Preferences: models.DefaultPreferences(),
			CreatedAt: now, UpdatedAt: now,
		}
		if err := s.store.Users().Create(ctx, u); err != nil {
			return res, fmt.Errorf("create user %q: %w", ud.Username, err)
		}
		res.Users++
	}

	s.logger.Info("seed completed",
		zap.Int("categories", res.Categories),
		zap.Int("challenges", res.Challenges),
		zap.Int("users", res.Users))
	return res, nil
}
