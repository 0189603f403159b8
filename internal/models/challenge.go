package models

import (
	"math"
	"time"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every valid difficulty in display order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

const (
	DefaultTimeEstimate = 15
	MinTimeEstimate     = 1
	MaxTimeEstimate     = 180
)

// Challenge is a single task a user can be handed. Counters are only ever
// changed through atomic increments in the store, never read-modify-write.
type Challenge struct {
	ID             string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Text           string     `json:"text" bson:"text" gorm:"type:text;not null"`
	CategoryID     string     `json:"categoryId" bson:"categoryId" gorm:"type:varchar(36);not null;index:idx_challenges_category_difficulty"`
	Difficulty     Difficulty `json:"difficulty" bson:"difficulty" gorm:"type:varchar(10);not null;index:idx_challenges_category_difficulty"`
	TimeEstimate   int        `json:"timeEstimate" bson:"timeEstimate"`
	Tags           []string   `json:"tags" bson:"tags" gorm:"serializer:json;type:text"`
	CompletedCount int64      `json:"completedCount" bson:"completedCount"`
	RatingSum      int64      `json:"ratingSum" bson:"ratingSum"`
	RatingCount    int64      `json:"ratingCount" bson:"ratingCount"`
	IsActive       bool       `json:"isActive" bson:"isActive" gorm:"index"`
	CreatedBy      string     `json:"createdBy,omitempty" bson:"createdBy,omitempty" gorm:"type:varchar(36)"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// AddRating folds one rating into the running mean.
func (c *Challenge) AddRating(rating int) {
	c.RatingSum += int64(rating)
	c.RatingCount++
}

// AverageRating is the running mean rounded half-up to one decimal place.
func (c *Challenge) AverageRating() float64 {
	return AverageRating(c.RatingSum, c.RatingCount)
}

func AverageRating(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return math.Floor(float64(sum)/float64(count)*10+0.5) / 10
}

// ChallengeFilter selects challenges. Inactive challenges are excluded
// unless IncludeInactive is set.
type ChallengeFilter struct {
	CategoryID      string
	Difficulty      Difficulty
	Tags            []string
	IncludeInactive bool
}

type ChallengeSort string

const (
	SortNewest         ChallengeSort = "-createdAt"
	SortOldest         ChallengeSort = "createdAt"
	SortMostCompleted  ChallengeSort = "-completedCount"
	SortTopRated       ChallengeSort = "-rating"
	SortLeastCompleted ChallengeSort = "completedCount"
)

func (s ChallengeSort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortMostCompleted, SortTopRated, SortLeastCompleted:
		return true
	}
	return false
}

// ListOptions controls paging and ordering of challenge listings.
type ListOptions struct {
	Sort  ChallengeSort
	Page  int
	Limit int
	// RatedOnly restricts the listing to challenges with at least one rating.
	RatedOnly bool
}

func (o ListOptions) Offset() int {
	if o.Page <= 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

// ChallengePatch carries the mutable fields of a challenge; nil means unchanged.
type ChallengePatch struct {
	Text         *string
	CategoryID   *string
	Difficulty   *Difficulty
	TimeEstimate *int
	Tags         []string
	IsActive     *bool
}

// Apply copies the set fields of p onto c.
func (c *Challenge) Apply(p ChallengePatch) {
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.CategoryID != nil {
		c.CategoryID = *p.CategoryID
	}
	if p.Difficulty != nil {
		c.Difficulty = *p.Difficulty
	}
	if p.TimeEstimate != nil {
		c.TimeEstimate = *p.TimeEstimate
	}
	if p.Tags != nil {
		c.Tags = p.Tags
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}
