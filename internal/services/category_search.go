package services

import (
	"randomchallenge/api/internal/models"

	"github.com/sahilm/fuzzy"
)

type categoryNames []models.Category

func (c categoryNames) String(i int) string { return c[i].Name }
func (c categoryNames) Len() int            { return len(c) }

// SearchCategories keeps the categories whose name fuzzily matches query,
// best match first. An empty query returns the input unchanged.
func SearchCategories(categories []models.Category, query string) []models.Category {
	if query == "" {
		return categories
	}
	matches := fuzzy.FindFrom(query, categoryNames(categories))
	out := make([]models.Category, 0, len(matches))
	for _, m := range matches {
		out = append(out, categories[m.Index])
	}
	return out
}
