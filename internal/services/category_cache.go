package services

import (
	"context"

	"randomchallenge/api/internal/models"
	"randomchallenge/api/internal/repositories"

	lru "github.com/hashicorp/golang-lru"
)

const defaultCategoryCacheSize = 256

// CategoryCache fronts category lookups by id with an LRU. Categories are
// read on every random pick and change rarely; writers call Invalidate.
type CategoryCache struct {
	repo  repositories.CategoryRepository
	cache *lru.Cache
}

func NewCategoryCache(repo repositories.CategoryRepository, size int) (*CategoryCache, error) {
	if size <= 0 {
		size = defaultCategoryCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CategoryCache{repo: repo, cache: cache}, nil
}

func (c *CategoryCache) Get(ctx context.Context, id string) (*models.Category, error) {
	if v, ok := c.cache.Get(id); ok {
		cat := *v.(*models.Category)
		return &cat, nil
	}
	cat, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stored := *cat
	c.cache.Add(id, &stored)
	return cat, nil
}

// Lookup resolves ids, leaving out the ones that no longer exist.
func (c *CategoryCache) Lookup(ctx context.Context, ids []string) (map[string]*models.Category, error) {
	out := make(map[string]*models.Category, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		cat, err := c.Get(ctx, id)
		if err == models.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = cat
	}
	return out, nil
}

func (c *CategoryCache) Invalidate(id string) { c.cache.Remove(id) }

func (c *CategoryCache) Purge() { c.cache.Purge() }

func (c *CategoryCache) Len() int { return c.cache.Len() }
