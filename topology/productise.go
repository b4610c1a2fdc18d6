package topology

import (
	"fmt"
	"slices"

	"github.com/notargets/gofinat/element"
)

// Productise maps an entity of the quadrilateral to the entity of the
// interval x interval cell that an underlying product element expects.
// A nil entity is the whole cell.
func Productise(entity *element.EntityRef) (element.ProductEntityRef, error) {
	if entity == nil {
		return element.ProductEntityRef{Dim: interiorDim, ID: 0}, nil
	}
	switch entity.Dim {
	case 2:
		if entity.ID != 0 {
			return element.ProductEntityRef{}, fmt.Errorf("%w: quadrilateral has one cell entity, got id %d",
				element.ErrInvalidEntity, entity.ID)
		}
		return element.ProductEntityRef{Dim: interiorDim, ID: 0}, nil
	case 1:
		if entity.ID < 0 || entity.ID >= len(facetDims)*facetsPerFamily {
			return element.ProductEntityRef{}, fmt.Errorf("%w: quadrilateral has %d facets, got id %d",
				element.ErrInvalidEntity, len(facetDims)*facetsPerFamily, entity.ID)
		}
		return element.ProductEntityRef{
			Dim: facetDims[entity.ID/facetsPerFamily],
			ID:  entity.ID % facetsPerFamily,
		}, nil
	case 0:
		if entity.ID < 0 {
			return element.ProductEntityRef{}, fmt.Errorf("%w: negative vertex id %d",
				element.ErrInvalidEntity, entity.ID)
		}
		return element.ProductEntityRef{Dim: vertexDim, ID: entity.ID}, nil
	default:
		return element.ProductEntityRef{}, fmt.Errorf("%w: illegal entity dimension %d",
			element.ErrInvalidEntity, entity.Dim)
	}
}

// Verify checks that flat is the flattening of product: vertex and interior
// maps are unchanged and every quadrilateral facet carries the dofs of the
// product entity Productise maps it to.
func Verify(product element.ProductDofMap, flat element.FlatDofMap) error {
	sameEntities := func(what string, want, got map[int][]int) error {
		if len(want) != len(got) {
			return fmt.Errorf("%w: %s has %d entities, expected %d",
				element.ErrInvalidTopology, what, len(got), len(want))
		}
		for id, dofs := range want {
			if !slices.Equal(dofs, got[id]) {
				return fmt.Errorf("%w: %s entity %d carries %v, expected %v",
					element.ErrInvalidTopology, what, id, got[id], dofs)
			}
		}
		return nil
	}
	if err := sameEntities("vertices", product[vertexDim], flat[0]); err != nil {
		return err
	}
	if err := sameEntities("interior", product[interiorDim], flat[2]); err != nil {
		return err
	}
	if len(flat[1]) != len(product[xFacetDim])+len(product[yFacetDim]) {
		return fmt.Errorf("%w: %d flat facets, expected %d", element.ErrInvalidTopology,
			len(flat[1]), len(product[xFacetDim])+len(product[yFacetDim]))
	}
	for f := range flat[1] {
		pe, err := Productise(&element.EntityRef{Dim: 1, ID: f})
		if err != nil {
			return err
		}
		if !slices.Equal(product[pe.Dim][pe.ID], flat[1][f]) {
			return fmt.Errorf("%w: facet %d carries %v, product entity %s carries %v",
				element.ErrInvalidTopology, f, flat[1][f], pe, product[pe.Dim][pe.ID])
		}
	}
	return nil
}
