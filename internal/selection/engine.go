// Package selection picks one challenge uniformly at random from the set
// matching a filter without materialising that set.
package selection

import (
	"context"
	"errors"
	"math/rand/v2"

	"randomchallenge/api/internal/models"
)

// ChallengeReader is the read side of the challenge store the engine needs.
// FindOne must return the record at offset among matches under a stable
// ordering, and models.ErrNotFound when offset is past the end.
type ChallengeReader interface {
	Count(ctx context.Context, filter models.ChallengeFilter) (int64, error)
	FindOne(ctx context.Context, filter models.ChallengeFilter, offset int64) (*models.Challenge, error)
}

// Engine implements count-then-skip selection.
//
// The count and the fetch are separate round trips. A write landing between
// them can skew the distribution or, if the set shrank, yield ErrNotFound
// even though matches exist. This is accepted and not retried.
type Engine struct {
	store ChallengeReader
	intN  func(n int64) int64
}

type Option func(*Engine)

// WithRandom replaces the random source. intN must return a value in [0, n).
func WithRandom(intN func(n int64) int64) Option {
	return func(e *Engine) { e.intN = intN }
}

func NewEngine(store ChallengeReader, opts ...Option) *Engine {
	e := &Engine{store: store, intN: rand.Int64N}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SelectRandom returns one matching challenge, or models.ErrNotFound.
func (e *Engine) SelectRandom(ctx context.Context, filter models.ChallengeFilter) (*models.Challenge, error) {
	n, err := e.store.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, models.ErrNotFound
	}

	k := e.intN(n)
	challenge, err := e.store.FindOne(ctx, filter, k)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return challenge, nil
}
