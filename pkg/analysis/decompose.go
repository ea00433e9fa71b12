package analysis

import (
	"fmt"

	"github.com/pthm/relnorm/pkg/schema"
)

// DefaultRelationPrefix names decomposed relations R1, R2, ...
const DefaultRelationPrefix = "R"

// Relation is one table produced by Decompose.
//
// PrimaryKey always equals Attributes. Decompose does not track which
// dependency determines a relation, so the whole attribute set is the only
// key it can vouch for.
type Relation struct {
	Name       string              `json:"name"`
	Attributes schema.AttributeSet `json:"attributes"`
	PrimaryKey schema.AttributeSet `json:"primary_key"`

	// KeyRelation is true for the relation appended to hold a candidate key.
	KeyRelation bool `json:"key_relation,omitempty"`
}

// Decompose groups dependencies into relations and makes sure at least one
// relation is a candidate key.
//
//  1. Each dependency yields a relation LHS ∪ RHS. Identical attribute sets
//     collapse into one relation, kept at the position of the first one.
//  2. If no relation equals one of keys exactly, a relation holding keys[0] is
//     appended.
//  3. Every relation's primary key spans all of its attributes.
//
// Relations are named R1, R2, ... in emission order. An empty keys list
// returns ErrNoCandidateKey.
func Decompose(fds []schema.FunctionalDependency, keys []schema.AttributeSet) ([]Relation, error) {
	if len(keys) == 0 {
		return nil, ErrNoCandidateKey
	}

	sets := make([]schema.AttributeSet, 0, len(fds))
	for _, fd := range fds {
		attrs := fd.Attributes()
		if !containsSet(sets, attrs) {
			sets = append(sets, attrs)
		}
	}

	covered := false
	for _, k := range keys {
		if containsSet(sets, k) {
			covered = true
			break
		}
	}

	relations := make([]Relation, 0, len(sets)+1)
	for _, s := range sets {
		relations = append(relations, Relation{Attributes: s, PrimaryKey: s})
	}
	if !covered {
		relations = append(relations, Relation{
			Attributes:  keys[0],
			PrimaryKey:  keys[0],
			KeyRelation: true,
		})
	}

	for i := range relations {
		relations[i].Name = fmt.Sprintf("%s%d", DefaultRelationPrefix, i+1)
	}
	return relations, nil
}

// RelationAttributes returns the union of every relation's attributes.
func RelationAttributes(relations []Relation) schema.AttributeSet {
	var out schema.AttributeSet
	for _, r := range relations {
		out = out.Union(r.Attributes)
	}
	return out
}

func containsSet(sets []schema.AttributeSet, s schema.AttributeSet) bool {
	for _, existing := range sets {
		if existing.Equal(s) {
			return true
		}
	}
	return false
}
