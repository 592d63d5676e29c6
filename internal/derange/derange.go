// Package derange produces fixed-point-free permutations.
//
// Derange shuffles uniformly at random up to a bounded number of trials and
// accepts the first shuffle in which no element stays at its original index.
// The share of derangements among all permutations tends to 1/e, so a few
// trials almost always suffice. If every trial fails, the input rotated by
// one position is returned, which is a derangement for any n >= 2.
package derange

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DefaultMaxTrials bounds the number of random shuffles before falling back
// to rotation.
const DefaultMaxTrials = 200

// ErrNoDerangement is returned for fewer than two items.
var ErrNoDerangement = errors.New("no derangement exists for fewer than two items")

// ErrDuplicateItem is returned when the input contains an item twice.
var ErrDuplicateItem = errors.New("items must be distinct")

// Shuffler permutes n elements in place through swap, like rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// Result is a derangement together with how it was found.
type Result[T comparable] struct {
	// Permutation[i] is the item assigned to input[i].
	Permutation []T

	// Trials is the number of random shuffles attempted.
	Trials int

	// Fallback is true when all trials failed and the rotation was used.
	Fallback bool
}

type options struct {
	maxTrials int
	shuffle   Shuffler
}

// Option configures Derange.
type Option func(*options)

// WithMaxTrials sets the random trial bound. Zero or negative forces the
// rotation fallback.
func WithMaxTrials(n int) Option {
	return func(o *options) {
		o.maxTrials = n
	}
}

// WithShuffler replaces the random shuffle.
func WithShuffler(s Shuffler) Option {
	return func(o *options) {
		if s != nil {
			o.shuffle = s
		}
	}
}

// Derange returns a permutation of items with no fixed point.
// The input slice is never modified.
func Derange[T comparable](items []T, opts ...Option) (Result[T], error) {
	if len(items) < 2 {
		return Result[T]{}, ErrNoDerangement
	}

	seen := make(map[T]struct{}, len(items))
	for i, item := range items {
		if _, dup := seen[item]; dup {
			return Result[T]{}, fmt.Errorf("%w: %v at index %d", ErrDuplicateItem, item, i)
		}
		seen[item] = struct{}{}
	}

	o := options{maxTrials: DefaultMaxTrials, shuffle: rand.Shuffle}
	for _, opt := range opts {
		opt(&o)
	}

	candidate := make([]T, len(items))
	trials := 0
	for trials < o.maxTrials {
		trials++
		copy(candidate, items)
		o.shuffle(len(candidate), func(i, j int) {
			candidate[i], candidate[j] = candidate[j], candidate[i]
		})
		if IsDerangement(items, candidate) {
			return Result[T]{Permutation: candidate, Trials: trials}, nil
		}
	}

	return Result[T]{Permutation: Rotate(items), Trials: trials, Fallback: true}, nil
}

// Rotate returns a copy of items shifted left by one: out[i] = items[(i+1)%n].
func Rotate[T any](items []T) []T {
	n := len(items)
	out := make([]T, n)
	for i := range items {
		out[i] = items[(i+1)%n]
	}
	return out
}

// IsDerangement reports whether perm is a permutation of items in which no
// index keeps its original item.
func IsDerangement[T comparable](items, perm []T) bool {
	if len(items) != len(perm) {
		return false
	}
	counts := make(map[T]int, len(items))
	for i := range items {
		if items[i] == perm[i] {
			return false
		}
		counts[items[i]]++
		counts[perm[i]]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
