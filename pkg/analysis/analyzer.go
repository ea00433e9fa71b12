// Package analysis computes attribute closures, minimal candidate keys and a
// naive third-normal-form decomposition from a schema's functional
// dependencies.
//
// # Pipeline
//
// Analyze runs one pass over a universe and a dependency list:
//
//  1. ValidateDependencies tags every dependency accepted or rejected
//     (empty side, attribute outside the universe). Rejected ones are logged
//     and dropped.
//  2. FindCandidateKeys enumerates subsets of the universe by increasing size
//     and keeps those whose closure is the universe and that contain no
//     smaller key.
//  3. Decompose turns each dependency into a relation and appends a key
//     relation when none of them is a candidate key.
//
// Typical usage:
//
//	u := schema.NewUniverse(table.Attributes)
//	res, err := analysis.NewAnalyzer(analysis.WithWorkers(4)).Analyze(ctx, u, fds)
//	if err != nil {
//		return err
//	}
//	for _, k := range res.CandidateKeys {
//		fmt.Println(k)
//	}
//
// # Cost
//
// Key enumeration tests up to 2^n subsets of an n-attribute universe. The
// search refuses universes above an attribute ceiling (DefaultMaxAttributes,
// see WithMaxAttributes) with a *CapacityError and honors context
// cancellation between subsets.
package analysis

import (
	"context"
	"fmt"

	"github.com/pthm/relnorm/pkg/schema"
)

// Result holds everything derived by one analysis pass.
type Result struct {
	Universe      schema.AttributeSet           `json:"universe"`
	Validations   []Validation                  `json:"validations"`
	Dependencies  []schema.FunctionalDependency `json:"dependencies"`
	CandidateKeys []schema.AttributeSet         `json:"candidate_keys"`
	Relations     []Relation                    `json:"relations"`
}

// IsCandidateKey reports whether set is one of the result's candidate keys.
func (r *Result) IsCandidateKey(set schema.AttributeSet) bool {
	for _, k := range r.CandidateKeys {
		if k.Equal(set) {
			return true
		}
	}
	return false
}

// Analyzer runs the analysis pipeline with fixed options.
// It holds no state between calls and is safe for concurrent use.
type Analyzer struct {
	opts options
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	return &Analyzer{opts: buildOptions(opts)}
}

// Analyze validates fds against u, enumerates candidate keys and decomposes.
//
// Key enumeration errors (capacity, cancellation) return a nil Result. A
// decomposition error, which only occurs for an empty universe, returns the
// Result filled up to the key step together with the error.
func (a *Analyzer) Analyze(ctx context.Context, u *schema.Universe, fds []schema.FunctionalDependency) (*Result, error) {
	log := a.opts.logger
	log.Debug("analysis started", "attributes", u.Len(), "dependencies", len(fds))

	validations := ValidateDependencies(u, fds)
	for _, v := range validations {
		if !v.IsAccepted() {
			log.Warn("dependency rejected",
				"index", v.Index, "dependency", v.Dependency.String(), "reason", string(v.Reason))
		}
	}
	accepted := AcceptedDependencies(validations)

	res := &Result{
		Universe:     u.Attributes(),
		Validations:  validations,
		Dependencies: accepted,
	}

	e, err := NewEngine(u, accepted)
	if err != nil {
		return nil, fmt.Errorf("compiling dependencies: %w", err)
	}
	keys, err := e.candidateKeys(ctx, a.opts)
	if err != nil {
		return nil, fmt.Errorf("finding candidate keys: %w", err)
	}
	res.CandidateKeys = keySets(u, keys)
	log.Debug("candidate keys found", "count", len(res.CandidateKeys))

	relations, err := Decompose(accepted, res.CandidateKeys)
	if err != nil {
		return res, fmt.Errorf("decomposing: %w", err)
	}
	res.Relations = relations
	log.Debug("decomposition complete", "relations", len(relations))

	return res, nil
}

// Analyze runs a one-off analysis with the given options.
func Analyze(ctx context.Context, u *schema.Universe, fds []schema.FunctionalDependency, opts ...Option) (*Result, error) {
	return NewAnalyzer(opts...).Analyze(ctx, u, fds)
}
