package sqldb

import (
	"context"
	"errors"
	"time"

	"randomchallenge/api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return translate("create user", r.DB.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "get user", "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "get user by email", "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, op, cond string, arg string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).
		Preload("CompletedChallenges", func(db *gorm.DB) *gorm.DB { return db.Order("completed_at ASC") }).
		First(&u, cond, arg).Error
	if err != nil {
		return nil, translate(op, err)
	}
	return &u, nil
}

var userColumns = []string{"name", "avatar", "preferences", "password_hash", "updated_at"}

func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		u.Apply(patch)
		u.UpdatedAt = time.Now().UTC()
		return tx.Model(&u).Select(userColumns).Updates(&u).Error
	})
	if err != nil {
		return nil, translate("update user", err)
	}
	return r.GetUserByID(ctx, id)
}

// RecordCompletion locks the user row, re-checks the same-day rule, derives
// the new stats from the locked row and writes them with the entry in one
// transaction.
func (r *UserRepository) RecordCompletion(ctx context.Context, userID string, entry models.CompletionEntry, dayStart, dayEnd time.Time, advance models.StatsTransition) (models.UserStats, error) {
	var stats models.UserStats
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, "id = ?", userID).Error; err != nil {
			return err
		}

		var n int64
		err := tx.Model(&models.CompletionEntry{}).
			Where("user_id = ? AND challenge_id = ? AND completed_at >= ? AND completed_at < ?",
				userID, entry.ChallengeID, dayStart.UTC(), dayEnd.UTC()).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return models.ErrAlreadyCompletedToday
		}

		entry.UserID = userID
		entry.CompletedAt = entry.CompletedAt.UTC()
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		stats = advance(u.Stats)
		stats.TotalCompleted = u.Stats.TotalCompleted + 1
		var last *time.Time
		if stats.LastActivityDate != nil {
			t := stats.LastActivityDate.UTC()
			last = &t
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"stats_total_completed":    gorm.Expr("stats_total_completed + ?", 1),
			"stats_current_streak":     stats.CurrentStreak,
			"stats_longest_streak":     stats.LongestStreak,
			"stats_last_activity_date": last,
		}).Error
	})
	if errors.Is(err, models.ErrAlreadyCompletedToday) {
		return models.UserStats{}, err
	}
	if err != nil {
		return models.UserStats{}, translate("record completion", err)
	}
	return stats, nil
}

func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		return 0, models.StoreError("count users", err)
	}
	return n, nil
}
