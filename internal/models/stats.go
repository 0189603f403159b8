package models

import "time"

type CategoryCount struct {
	CategoryID    string `json:"categoryId"`
	CategoryName  string `json:"categoryName"`
	CategoryEmoji string `json:"categoryEmoji"`
	Count         int64  `json:"count"`
}

type DifficultyCount struct {
	Difficulty Difficulty `json:"difficulty"`
	Count      int64      `json:"count"`
}

type GeneralStats struct {
	Overview struct {
		TotalChallenges int64 `json:"totalChallenges"`
		TotalCategories int64 `json:"totalCategories"`
		TotalUsers      int64 `json:"totalUsers"`
	} `json:"overview"`
	Distributions struct {
		ByCategory   []CategoryCount   `json:"byCategory"`
		ByDifficulty []DifficultyCount `json:"byDifficulty"`
	} `json:"distributions"`
	TopLists struct {
		TopRated      []ChallengeResponse `json:"topRated"`
		MostCompleted []ChallengeResponse `json:"mostCompleted"`
	} `json:"topLists"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type RecentActivity struct {
	// Challenge is nil when the referenced challenge no longer exists.
	Challenge   *ChallengeResponse `json:"challenge"`
	ChallengeID string             `json:"challengeId"`
	CompletedAt time.Time          `json:"completedAt"`
	Rating      *int               `json:"rating,omitempty"`
}

type UserStatsReport struct {
	Overview struct {
		TotalCompleted int64     `json:"totalCompleted"`
		CurrentStreak  int       `json:"currentStreak"`
		LongestStreak  int       `json:"longestStreak"`
		AverageRating  float64   `json:"averageRating"`
		MemberSince    time.Time `json:"memberSince"`
	} `json:"overview"`
	Distributions struct {
		ByCategory   map[string]int64     `json:"byCategory"`
		ByDifficulty map[Difficulty]int64 `json:"byDifficulty"`
		ByDayOfWeek  [7]int64             `json:"byDayOfWeek"`
	} `json:"distributions"`
	RecentActivity []RecentActivity `json:"recentActivity"`
}
