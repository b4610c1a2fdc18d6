package gem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecipe reports a recipe whose free index list does not match
// its instructions
var ErrMalformedRecipe = errors.New("malformed recipe")

// Recipe is a deferred tensor computation. FreeIndices enumerates exactly
// the indices a consumer must bind; every other index appearing in the
// instructions is bound by an IndexSum.
type Recipe struct {
	FreeIndices  []*Index
	Instructions []Expr
	Parameters   []*Variable
}

// NewRecipe builds a recipe. The slices are copied; call Validate to check
// the free index invariant.
func NewRecipe(free []*Index, instructions []Expr, params []*Variable) *Recipe {
	return &Recipe{
		FreeIndices:  append([]*Index(nil), free...),
		Instructions: append([]Expr(nil), instructions...),
		Parameters:   append([]*Variable(nil), params...),
	}
}

// Validate checks the free index invariant:
//   - FreeIndices holds no duplicates
//   - every unsummed index of an instruction is listed in FreeIndices
//   - every listed free index appears unsummed in some instruction
//   - no summation binder is listed in FreeIndices
//   - every parameter is referenced by some instruction
func (r *Recipe) Validate() error {
	declared := make(map[*Index]bool, len(r.FreeIndices))
	for _, idx := range r.FreeIndices {
		if idx == nil {
			return fmt.Errorf("%w: nil free index", ErrMalformedRecipe)
		}
		if declared[idx] {
			return fmt.Errorf("%w: free index %s listed twice", ErrMalformedRecipe, idx)
		}
		declared[idx] = true
	}

	used := make(map[*Index]bool)
	referenced := make(map[*Variable]bool)
	for n, inst := range r.Instructions {
		for _, idx := range FreeIndices(inst) {
			if !declared[idx] {
				return fmt.Errorf("%w: instruction %d leaks unbound index %s",
					ErrMalformedRecipe, n, idx)
			}
			used[idx] = true
		}
		for _, idx := range Binders(inst) {
			if declared[idx] {
				return fmt.Errorf("%w: summation index %s is also free",
					ErrMalformedRecipe, idx)
			}
		}
		for _, v := range Variables(inst) {
			referenced[v] = true
		}
	}
	for _, idx := range r.FreeIndices {
		if !used[idx] {
			return fmt.Errorf("%w: free index %s unused by any instruction",
				ErrMalformedRecipe, idx)
		}
	}
	for _, p := range r.Parameters {
		if !referenced[p] {
			return fmt.Errorf("%w: parameter %s unused by any instruction",
				ErrMalformedRecipe, p)
		}
	}
	return nil
}

// Shape returns the extents of the free indices in order
func (r *Recipe) Shape() []int {
	shape := make([]int, len(r.FreeIndices))
	for i, idx := range r.FreeIndices {
		shape[i] = idx.Extent
	}
	return shape
}

func (r *Recipe) String() string {
	var sb strings.Builder
	sb.WriteString("Recipe(free=[")
	for i, idx := range r.FreeIndices {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s:%d", idx, idx.Extent))
	}
	sb.WriteString("], params=[")
	for i, p := range r.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString("])\n")
	for _, inst := range r.Instructions {
		sb.WriteString("  ")
		sb.WriteString(inst.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
