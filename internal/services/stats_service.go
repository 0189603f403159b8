package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"
)

const (
	topListSize    = 10
	recentListSize = 10
)

// StatsService builds the general and per-user statistics. General stats
// are served from a snapshot that Refresh replaces; the first request
// computes it when no snapshot exists yet.
type StatsService struct {
	store      repositories.Store
	categories *CategoryCache
	now        func() time.Time

	mu       sync.RWMutex
	snapshot *models.GeneralStats
}

func NewStatsService(store repositories.Store, categories *CategoryCache) *StatsService {
	return &StatsService{store: store, categories: categories, now: time.Now}
}

// General returns the latest snapshot.
func (s *StatsService) General(ctx context.Context) (*models.GeneralStats, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the general stats and swaps the snapshot. A failed
// refresh leaves the previous snapshot in place.
func (s *StatsService) Refresh(ctx context.Context) (*models.GeneralStats, error) {
	stats, err := s.computeGeneral(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snapshot = stats
	s.mu.Unlock()
	return stats, nil
}

func (s *StatsService) computeGeneral(ctx context.Context) (*models.GeneralStats, error) {
	challenges := s.store.Challenges()
	stats := &models.GeneralStats{GeneratedAt: s.now().UTC()}

	var err error
	if stats.Overview.TotalChallenges, err = challenges.Count(ctx, models.ChallengeFilter{}); err != nil {
		return nil, err
	}
	if stats.Overview.TotalCategories, err = s.store.Categories().CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.Overview.TotalUsers, err = s.store.Users().CountActive(ctx); err != nil {
		return nil, err
	}

	byCategory, err := challenges.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(byCategory))
	for id := range byCategory {
		ids = append(ids, id)
	}
	cats, err := s.categories.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	stats.Distributions.ByCategory = make([]models.CategoryCount, 0, len(cats))
	for id, count := range byCategory {
		cat, ok := cats[id]
		if !ok {
			continue
		}
		stats.Distributions.ByCategory = append(stats.Distributions.ByCategory, models.CategoryCount{
			CategoryID:    id,
			CategoryName:  cat.Name,
			CategoryEmoji: cat.Emoji,
			Count:         count,
		})
	}
	sort.Slice(stats.Distributions.ByCategory, func(i, j int) bool {
		a, b := stats.Distributions.ByCategory[i], stats.Distributions.ByCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.CategoryName < b.CategoryName
	})

	byDifficulty, err := challenges.CountByDifficulty(ctx)
	if err != nil {
		return nil, err
	}
	stats.Distributions.ByDifficulty = make([]models.DifficultyCount, 0, len(models.Difficulties))
	for _, d := range models.Difficulties {
		stats.Distributions.ByDifficulty = append(stats.Distributions.ByDifficulty, models.DifficultyCount{Difficulty: d, Count: byDifficulty[d]})
	}

	if stats.TopLists.TopRated, err = s.topList(ctx, models.ListOptions{Sort: models.SortTopRated, Page: 1, Limit: topListSize, RatedOnly: true}); err != nil {
		return nil, err
	}
	if stats.TopLists.MostCompleted, err = s.topList(ctx, models.ListOptions{Sort: models.SortMostCompleted, Page: 1, Limit: topListSize}); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *StatsService) topList(ctx context.Context, opts models.ListOptions) ([]models.ChallengeResponse, error) {
	items, _, err := s.store.Challenges().List(ctx, models.ChallengeFilter{}, opts)
	if err != nil {
		return nil, err
	}
	return s.withCategories(ctx, items)
}

func (s *StatsService) withCategories(ctx context.Context, items []models.Challenge) ([]models.ChallengeResponse, error) {
	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.CategoryID)
	}
	cats, err := s.categories.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChallengeResponse, 0, len(items))
	for i := range items {
		out = append(out, models.NewChallengeResponse(&items[i], cats[items[i].CategoryID]))
	}
	return out, nil
}

// UserReport summarizes user's completion log. The weekday distribution
// uses loc; entries whose challenge was deleted count toward the weekday
// distribution and the mean rating but not toward category or difficulty.
func (s *StatsService) UserReport(ctx context.Context, user *models.User, loc *time.Location) (*models.UserStatsReport, error) {
	if loc == nil {
		loc = time.Local
	}
	log := user.CompletedChallenges

	ids := make([]string, 0, len(log))
	for _, e := range log {
		ids = append(ids, e.ChallengeID)
	}
	challenges, err := s.store.Challenges().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catIDs := make([]string, 0, len(challenges))
	for _, c := range challenges {
		catIDs = append(catIDs, c.CategoryID)
	}
	cats, err := s.categories.Lookup(ctx, catIDs)
	if err != nil {
		return nil, err
	}

	report := &models.UserStatsReport{}
	report.Overview.TotalCompleted = user.Stats.TotalCompleted
	report.Overview.CurrentStreak = user.Stats.CurrentStreak
	report.Overview.LongestStreak = user.Stats.LongestStreak
	report.Overview.MemberSince = user.CreatedAt
	report.Distributions.ByCategory = map[string]int64{}
	report.Distributions.ByDifficulty = map[models.Difficulty]int64{}
	for _, d := range models.Difficulties {
		report.Distributions.ByDifficulty[d] = 0
	}

	var ratingSum, rated int64
	for _, e := range log {
		report.Distributions.ByDayOfWeek[e.CompletedAt.In(loc).Weekday()]++
		if e.Rating != nil {
			ratingSum += int64(*e.Rating)
			rated++
		}
		c, ok := challenges[e.ChallengeID]
		if !ok {
			continue
		}
		report.Distributions.ByDifficulty[c.Difficulty]++
		if cat, ok := cats[c.CategoryID]; ok {
			report.Distributions.ByCategory[cat.Name]++
		}
	}
	report.Overview.AverageRating = models.AverageRating(ratingSum, rated)

	start := len(log) - recentListSize
	if start < 0 {
		start = 0
	}
	report.RecentActivity = make([]models.RecentActivity, 0, len(log)-start)
	for i := len(log) - 1; i >= start; i-- {
		e := log[i]
		item := models.RecentActivity{ChallengeID: e.ChallengeID, CompletedAt: e.CompletedAt, Rating: e.Rating}
		if c, ok := challenges[e.ChallengeID]; ok {
			resp := models.NewChallengeResponse(c, cats[c.CategoryID])
			item.Challenge = &resp
		}
		report.RecentActivity = append(report.RecentActivity, item)
	}
	return report, nil
}
