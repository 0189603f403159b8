package repositories

import (
	"context"
	"time"

	"randomchallenge/api/internal/models"
)

// ChallengeRepository is implemented by every store backend. Lookups of a
// missing record return models.ErrNotFound; driver failures are wrapped
// with models.StoreError.
type ChallengeRepository interface {
	Count(ctx context.Context, filter models.ChallengeFilter) (int64, error)
	// FindOne returns the challenge at offset in ascending id order.
	FindOne(ctx context.Context, filter models.ChallengeFilter, offset int64) (*models.Challenge, error)
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	// GetByIDs resolves ids, silently skipping the ones that no longer exist.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Challenge, error)
	List(ctx context.Context, filter models.ChallengeFilter, opts models.ListOptions) ([]models.Challenge, int64, error)
	Create(ctx context.Context, challenge *models.Challenge) error
	Update(ctx context.Context, id string, patch models.ChallengePatch) (*models.Challenge, error)
	SoftDelete(ctx context.Context, id string) error
	ApplyRating(ctx context.Context, id string, rating int, completed bool) (*models.Challenge, error)
	// CountByCategory counts active challenges per category id.
	CountByCategory(ctx context.Context) (map[string]int64, error)
	CountByDifficulty(ctx context.Context) (map[models.Difficulty]int64, error)
}

type CategoryRepository interface {
	// List returns categories ordered by name.
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error)
	SoftDelete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetUserByID loads the user together with their completion log.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	RecordCompletion(ctx context.Context, userID string, entry models.CompletionEntry, dayStart, dayEnd time.Time, advance models.StatsTransition) (models.UserStats, error)
	CountActive(ctx context.Context) (int64, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Challenges() ChallengeRepository
	Categories() CategoryRepository
	Users() UserRepository
	Ping(ctx context.Context) error
	// Reset removes every category, challenge and user.
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}
