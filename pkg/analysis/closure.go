package analysis

import (
	"fmt"

	"github.com/pthm/relnorm/pkg/schema"
)

// compiledDependency is a FunctionalDependency translated into bitsets of one
// Universe.
type compiledDependency struct {
	lhs schema.Bitset
	rhs schema.Bitset
}

// Engine computes attribute closures over a fixed universe and dependency list.
// Dependencies are compiled to bitsets once, so each closure costs a few word
// operations per dependency per pass.
//
// An Engine is read-only after construction and safe for concurrent use.
type Engine struct {
	universe *schema.Universe
	full     schema.Bitset
	fds      []compiledDependency
}

// NewEngine compiles fds against u. Every attribute named by fds must be part
// of u; callers holding unvalidated input should run ValidateDependencies
// first, or use Closure which widens the universe itself.
func NewEngine(u *schema.Universe, fds []schema.FunctionalDependency) (*Engine, error) {
	compiled := make([]compiledDependency, 0, len(fds))
	for i, fd := range fds {
		lhs, err := u.Bitset(fd.LHS)
		if err != nil {
			return nil, fmt.Errorf("dependency %d (%s) lhs: %w", i, fd, err)
		}
		rhs, err := u.Bitset(fd.RHS)
		if err != nil {
			return nil, fmt.Errorf("dependency %d (%s) rhs: %w", i, fd, err)
		}
		compiled = append(compiled, compiledDependency{lhs: lhs, rhs: rhs})
	}
	return &Engine{universe: u, full: u.Full(), fds: compiled}, nil
}

// Universe returns the universe the engine was compiled against.
func (e *Engine) Universe() *schema.Universe {
	return e.universe
}

// ClosureOf returns the smallest superset of attrs closed under every
// dependency. attrs is not modified.
//
// The computation is a fixpoint: each pass applies every dependency whose LHS
// is already contained in the result, and the loop stops after a pass that
// adds nothing. The result only grows and is bounded by the universe, so the
// loop runs at most |universe| productive passes. The fixpoint does not depend
// on dependency order.
func (e *Engine) ClosureOf(attrs schema.Bitset) schema.Bitset {
	result := attrs.Clone()
	for {
		changed := false
		for _, fd := range e.fds {
			if fd.lhs.IsSubsetOf(result) && result.UnionWith(fd.rhs) {
				changed = true
			}
		}
		if !changed {
			return result
		}
	}
}

// IsSuperkey reports whether the closure of attrs covers the whole universe.
func (e *Engine) IsSuperkey(attrs schema.Bitset) bool {
	return e.ClosureOf(attrs).Equal(e.full)
}

// Closure computes the closure of attrs under fds.
//
// Unlike Engine, Closure accepts any input: attributes of attrs or fds that
// belong to no declared universe are interned on the fly, so the result may
// name attributes that only appear in the dependencies. Dependencies with an
// empty LHS always fire.
func Closure(attrs schema.AttributeSet, fds []schema.FunctionalDependency) schema.AttributeSet {
	u := schema.NewUniverse(attrs.Union(schema.DependencyAttributes(fds)))

	// Every attribute is interned above, so neither call can fail.
	e, err := NewEngine(u, fds)
	if err != nil {
		panic(err)
	}
	start, err := u.Bitset(attrs)
	if err != nil {
		panic(err)
	}
	return u.Set(e.ClosureOf(start))
}
