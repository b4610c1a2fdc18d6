package element

import (
	"fmt"
	"maps"
	"slices"
)

// Restriction selects the cell entity a tabulation is evaluated on.
// A nil Restriction means the whole cell.
type Restriction interface {
	fmt.Stringer
	restriction()
}

// EntityRef addresses a topological entity of a cell by (dimension, id)
type EntityRef struct {
	Dim int
	ID  int
}

func (e EntityRef) restriction() {}

func (e EntityRef) String() string {
	return fmt.Sprintf("(%d, %d)", e.Dim, e.ID)
}

// ProductDim is the dimension pair of an entity of a product cell
type ProductDim struct {
	D1, D2 int
}

func (d ProductDim) String() string {
	return fmt.Sprintf("(%d, %d)", d.D1, d.D2)
}

// ProductEntityRef addresses a sub-entity of a product cell
type ProductEntityRef struct {
	Dim ProductDim
	ID  int
}

func (e ProductEntityRef) restriction() {}

func (e ProductEntityRef) String() string {
	return fmt.Sprintf("(%s, %d)", e.Dim, e.ID)
}

// RestrictionKey renders r for use in cache keys; the whole cell is ""
func RestrictionKey(r Restriction) string {
	if r == nil {
		return ""
	}
	return r.String()
}

// DofMap maps entity dimension -> entity id -> ordered local dofs
type DofMap map[int]map[int][]int

// FlatDofMap is the DofMap of a flattened product element, keyed by flat
// dimension 0, 1 or 2
type FlatDofMap = DofMap

// ProductDofMap maps product dimension pair -> entity id -> ordered local dofs
type ProductDofMap map[ProductDim]map[int][]int

// Clone returns a deep copy of m
func (m DofMap) Clone() DofMap {
	out := make(DofMap, len(m))
	for d, ents := range m {
		out[d] = cloneEntities(ents)
	}
	return out
}

// Clone returns a deep copy of m
func (m ProductDofMap) Clone() ProductDofMap {
	out := make(ProductDofMap, len(m))
	for d, ents := range m {
		out[d] = cloneEntities(ents)
	}
	return out
}

// Count returns the number of dof slots across all entities
func (m DofMap) Count() int {
	n := 0
	for _, ents := range m {
		for _, dofs := range ents {
			n += len(dofs)
		}
	}
	return n
}

func cloneEntities(ents map[int][]int) map[int][]int {
	out := make(map[int][]int, len(ents))
	for id, dofs := range ents {
		out[id] = slices.Clone(dofs)
	}
	return out
}

// SortedIDs returns the entity ids of ents in ascending order
func SortedIDs(ents map[int][]int) []int {
	return slices.Sorted(maps.Keys(ents))
}
