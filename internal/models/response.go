package models

import "time"

// represents pagination parameters for queries
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// helper to calculate pagination metadata
func CalculatePaginationMeta(page, limit, total int) (totalPages int, hasNext, hasPrev bool) {
	if limit <= 0 {
		limit = 1 // avoid division by zero
	}
	totalPages = (total + limit - 1) / limit // ceiling division
	hasNext = page < totalPages
	hasPrev = page > 1
	return
}

// ChallengeResponse is the wire shape of a challenge, with the derived
// average rating and, when resolved, its category.
type ChallengeResponse struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	CategoryID     string     `json:"categoryId"`
	Category       *Category  `json:"category,omitempty"`
	Difficulty     Difficulty `json:"difficulty"`
	TimeEstimate   int        `json:"timeEstimate"`
	Tags           []string   `json:"tags"`
	CompletedCount int64      `json:"completedCount"`
	RatingCount    int64      `json:"ratingCount"`
	AverageRating  float64    `json:"averageRating"`
	IsActive       bool       `json:"isActive"`
	CreatedBy      string     `json:"createdBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func NewChallengeResponse(c *Challenge, category *Category) ChallengeResponse {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return ChallengeResponse{
		ID:             c.ID,
		Text:           c.Text,
		CategoryID:     c.CategoryID,
		Category:       category,
		Difficulty:     c.Difficulty,
		TimeEstimate:   c.TimeEstimate,
		Tags:           tags,
		CompletedCount: c.CompletedCount,
		RatingCount:    c.RatingCount,
		AverageRating:  c.AverageRating(),
		IsActive:       c.IsActive,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// represents the response structure for /challenges endpoint
type ChallengesResponse struct {
	Total      int                 `json:"total"`
	Items      []ChallengeResponse `json:"items"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"totalPages"`
	HasNext    bool                `json:"hasNext"`
	HasPrev    bool                `json:"hasPrev"`
}

type CategoryResponse struct {
	Category
	ChallengeCount int64 `json:"challengeCount"`
}

type CategoriesResponse struct {
	Count int                `json:"count"`
	Items []CategoryResponse `json:"items"`
}

type RatingResponse struct {
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

type CompletionResponse struct {
	Entry         CompletionEntry `json:"entry"`
	Stats         UserStats       `json:"stats"`
	RatingApplied bool            `json:"ratingApplied"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// uniform error payload
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// a single field error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
