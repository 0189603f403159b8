// Package tracker records challenge completions and keeps each user's
// streak and aggregate counters current.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"randomchallenge/api/internal/models"

	"github.com/google/uuid"
)

// UserStore is the user side of the store used by the tracker.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// RecordCompletion appends entry to the user's log and stores the stats
	// produced by advance from the stats current at write time, all in one
	// conditional write, and returns the stored stats. The write must fail
	// with models.ErrAlreadyCompletedToday if the log already holds an entry
	// for the same challenge with completedAt in [dayStart, dayEnd).
	RecordCompletion(ctx context.Context, userID string, entry models.CompletionEntry, dayStart, dayEnd time.Time, advance models.StatsTransition) (models.UserStats, error)
}

// RatingStore applies ratings to challenges with storage-level increments.
type RatingStore interface {
	// ApplyRating adds rating to ratingSum and bumps ratingCount, and also
	// completedCount when completed is set. Missing challenges yield
	// models.ErrNotFound.
	ApplyRating(ctx context.Context, challengeID string, rating int, completed bool) (*models.Challenge, error)
}

// Result describes what a completion changed.
type Result struct {
	Entry models.CompletionEntry
	Stats models.UserStats
	// RatingApplied is set when the rating reached the challenge.
	RatingApplied bool
	// ReferenceMissing is set when the challenge no longer exists; RatingErr
	// then wraps models.ErrReferenceMissing.
	ReferenceMissing bool
	// RatingErr holds a challenge-side failure. The user-side completion
	// has already been stored and is not rolled back.
	RatingErr error
}

type Tracker struct {
	users      UserStore
	challenges RatingStore
	now        func() time.Time
	loc        *time.Location
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the zone whose midnights delimit calendar days.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

func New(users UserStore, challenges RatingStore, opts ...Option) *Tracker {
	t := &Tracker{
		users:      users,
		challenges: challenges,
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CompleteChallenge records that userID completed challengeID now, with an
// optional 1..5 rating that is fed back into the challenge.
func (t *Tracker) CompleteChallenge(ctx context.Context, userID, challengeID string, rating *int) (*Result, error) {
	user, err := t.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := t.now().In(t.loc)
	dayStart, dayEnd := dayBounds(now, t.loc)

	if completedWithin(user.CompletedChallenges, challengeID, dayStart, dayEnd) {
		return nil, models.ErrAlreadyCompletedToday
	}

	entry := models.CompletionEntry{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		ChallengeID: challengeID,
		CompletedAt: now,
		Rating:      rating,
	}
	stats, err := t.users.RecordCompletion(ctx, user.ID, entry, dayStart, dayEnd, func(current models.UserStats) models.UserStats {
		return NextStats(current, now)
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Entry: entry, Stats: stats}
	if rating == nil {
		return res, nil
	}

	if _, err := t.challenges.ApplyRating(ctx, challengeID, *rating, true); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			res.ReferenceMissing = true
			res.RatingErr = fmt.Errorf("rate %s: %w", challengeID, models.ErrReferenceMissing)
		} else {
			res.RatingErr = err
		}
		return res, nil
	}
	res.RatingApplied = true
	return res, nil
}

// RateChallenge applies a standalone rating and returns the updated challenge.
func (t *Tracker) RateChallenge(ctx context.Context, challengeID string, rating int) (*models.Challenge, error) {
	return t.challenges.ApplyRating(ctx, challengeID, rating, false)
}

const (
	// activity later than this after the last one extends the streak
	streakContinue = 24 * time.Hour
	// activity later than this after the last one starts a new streak
	streakReset = 48 * time.Hour
)

// NextStats applies one completion at now to stats. The streak follows the
// time elapsed since the last activity: 24h up to and including 48h extends
// it, more than 48h resets it, anything shorter leaves it unchanged.
func NextStats(stats models.UserStats, now time.Time) models.UserStats {
	next := stats
	next.TotalCompleted++

	if stats.LastActivityDate == nil {
		next.CurrentStreak = 1
	} else {
		switch elapsed := now.Sub(*stats.LastActivityDate); {
		case elapsed > streakReset:
			next.CurrentStreak = 1
		case elapsed >= streakContinue:
			next.CurrentStreak = stats.CurrentStreak + 1
		}
	}
	// a stored streak of zero with prior activity only happens on legacy records
	if next.CurrentStreak < 1 {
		next.CurrentStreak = 1
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}

	last := now
	next.LastActivityDate = &last
	return next
}

func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := now.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func completedWithin(log []models.CompletionEntry, challengeID string, start, end time.Time) bool {
	for _, e := range log {
		if e.ChallengeID == challengeID && !e.CompletedAt.Before(start) && e.CompletedAt.Before(end) {
			return true
		}
	}
	return false
}
