package topology

import (
	"fmt"

	"github.com/notargets/gofinat/element"
)

var (
	vertexDim   = element.ProductDim{D1: 0, D2: 0}
	xFacetDim   = element.ProductDim{D1: 0, D2: 1} // vertex of A x interval B
	yFacetDim   = element.ProductDim{D1: 1, D2: 0} // interval A x vertex of B
	interiorDim = element.ProductDim{D1: 1, D2: 1}
)

// facetDims is the order in which product facet families are concatenated
// into flat dimension 1. Flatten and Productise both read it.
var facetDims = [2]element.ProductDim{xFacetDim, yFacetDim}

// facetsPerFamily is the number of facets each family contributes on a
// quadrilateral: the two vertices of the interval factor
const facetsPerFamily = 2

// Flatten renumbers the entity dofs of an interval x interval element as
// the entity dofs of a quadrilateral:
//   - flat dimension 0 is the (0,0) map unchanged
//   - flat dimension 1 is the (0,1) dofs in ascending entity id followed by
//     the (1,0) dofs in ascending entity id, renumbered from 0
//   - flat dimension 2 is the (1,1) map unchanged
//
// The result shares no slices with dofs.
func Flatten(dofs element.ProductDofMap) (element.FlatDofMap, error) {
	for _, d := range []element.ProductDim{vertexDim, xFacetDim, yFacetDim, interiorDim} {
		if _, ok := dofs[d]; !ok {
			return nil, fmt.Errorf("%w: product dof map has no entry for %s",
				element.ErrInvalidTopology, d)
		}
	}
	for d := range dofs {
		if d.D1 < 0 || d.D1 > 1 || d.D2 < 0 || d.D2 > 1 {
			return nil, fmt.Errorf("%w: %s is not an interval x interval entity dimension",
				element.ErrInvalidTopology, d)
		}
	}

	src := dofs.Clone()
	flat := element.FlatDofMap{
		0: src[vertexDim],
		1: make(map[int][]int),
		2: src[interiorDim],
	}
	local := 0
	for _, d := range facetDims {
		for _, id := range element.SortedIDs(src[d]) {
			flat[1][local] = src[d][id]
			local++
		}
	}
	return flat, nil
}
