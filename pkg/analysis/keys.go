package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pthm/relnorm/pkg/schema"
)

const (
	// Levels smaller than this are tested inline; goroutine overhead would
	// dominate the closure work.
	minParallelLevel = 256

	// Sequential search polls the context once per this many subsets.
	ctxCheckInterval = 1024

	maxLevelPrealloc = 1 << 16
)

// FindCandidateKeys returns every minimal candidate key of u under fds,
// ordered by size and then by attribute names.
//
// Every attribute named by fds must belong to u (see ValidateDependencies).
// An empty universe has no candidate keys. A universe larger than the
// attribute ceiling (WithMaxAttributes) returns a *CapacityError without
// searching.
func FindCandidateKeys(ctx context.Context, u *schema.Universe, fds []schema.FunctionalDependency, opts ...Option) ([]schema.AttributeSet, error) {
	o := buildOptions(opts)

	e, err := NewEngine(u, fds)
	if err != nil {
		return nil, err
	}
	keys, err := e.candidateKeys(ctx, o)
	if err != nil {
		return nil, err
	}
	return keySets(u, keys), nil
}

// candidateKeys enumerates subsets of the universe in non-decreasing
// cardinality order. A subset is a key when its closure is the universe and no
// key from an earlier level is contained in it.
//
// Size order is what makes the subset check sufficient for minimality: when a
// subset of size k is examined, every key of size < k has already been
// accepted, and no two distinct sets of equal size contain each other.
// Subsets containing an accepted key are pruned before their closure is
// computed.
//
// Each level is tested in parallel and filtered only after the whole level is
// collected, so the result does not depend on the number of workers.
func (e *Engine) candidateKeys(ctx context.Context, o options) ([]schema.Bitset, error) {
	n := e.universe.Len()
	if n == 0 {
		return nil, nil
	}
	if n > o.maxAttributes {
		return nil, &CapacityError{Attributes: n, Limit: o.maxAttributes}
	}

	var keys []schema.Bitset
	for size := 1; size <= n; size++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := make([]schema.Bitset, 0, min(binomial(n, size), maxLevelPrealloc))
		forEachCombination(n, size, func(idx []int) bool {
			b := e.universe.Empty()
			for _, i := range idx {
				b.Set(i)
			}
			if !containsAny(b, keys) {
				candidates = append(candidates, b)
			}
			return true
		})
		if len(candidates) == 0 {
			o.logger.Debug("key level pruned", "size", size)
			continue
		}

		passed, err := e.testLevel(ctx, candidates, o.workers)
		if err != nil {
			return nil, err
		}
		accepted := 0
		for i, ok := range passed {
			if ok {
				keys = append(keys, candidates[i])
				accepted++
			}
		}
		o.logger.Debug("key level searched",
			"size", size, "candidates", len(candidates), "keys", accepted)
	}
	return keys, nil
}

// testLevel reports, for each candidate, whether it is a superkey.
func (e *Engine) testLevel(ctx context.Context, candidates []schema.Bitset, workers int) ([]bool, error) {
	passed := make([]bool, len(candidates))

	if workers <= 1 || len(candidates) < minParallelLevel {
		for i, c := range candidates {
			if i%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			passed[i] = e.IsSuperkey(c)
		}
		return passed, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers) // bounded parallelism

	chunk := (len(candidates) + workers*4 - 1) / (workers * 4)
	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				passed[i] = e.IsSuperkey(candidates[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return passed, nil
}

// containsAny reports whether any of keys is a subset of b.
func containsAny(b schema.Bitset, keys []schema.Bitset) bool {
	for _, k := range keys {
		if k.IsSubsetOf(b) {
			return true
		}
	}
	return false
}

func keySets(u *schema.Universe, keys []schema.Bitset) []schema.AttributeSet {
	out := make([]schema.AttributeSet, len(keys))
	for i, k := range keys {
		out[i] = u.Set(k)
	}
	schema.SortSets(out)
	return out
}
