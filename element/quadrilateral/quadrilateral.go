package quadrilateral

import (
	"fmt"
	"strings"
	"sync"

	"github.com/notargets/gofinat/element"
	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"github.com/notargets/gofinat/topology"
)

// Element wraps a tensor-product element on interval x interval so that it
// appears on a quadrilateral cell. Flattening renumbers entities only; dof
// count and function space properties are those of the product.
type Element struct {
	Product element.ProductElement

	cellOnce sync.Once
	cell     element.Cell

	dofsOnce sync.Once
	dofs     element.FlatDofMap
	dofsErr  error

	supportOnce sync.Once
	support     element.FlatDofMap
	supportErr  error
}

var _ element.Element = (*Element)(nil)

// New wraps product, which must live on a product of two intervals
func New(product element.ProductElement) *Element {
	return &Element{Product: product}
}

// Cell returns the reference quadrilateral
func (el *Element) Cell() element.Cell {
	el.cellOnce.Do(func() {
		el.cell = element.UFCQuadrilateral{}
	})
	return el.cell
}

// Degree returns the degree shared by both axes of the product
func (el *Element) Degree() (int, error) {
	degrees := el.Product.Degree()
	if len(degrees) != 2 {
		return 0, fmt.Errorf("%w: expected a degree per axis, got %v",
			element.ErrInconsistentDegree, degrees)
	}
	if degrees[0] != degrees[1] {
		return 0, fmt.Errorf("%w: axis degrees %d and %d differ",
			element.ErrInconsistentDegree, degrees[0], degrees[1])
	}
	return degrees[0], nil
}

func (el *Element) FormDegree() int { return el.Product.FormDegree() }

func (el *Element) SpaceDimension() int { return el.Product.SpaceDimension() }

func (el *Element) IndexShape() []int { return el.Product.IndexShape() }

func (el *Element) ValueShape() []int { return el.Product.ValueShape() }

func (el *Element) Mapping() element.Mapping { return el.Product.Mapping() }

// EntityDofs returns the flattened entity dofs of the product, computed on
// first use. The returned map is shared and must not be modified.
func (el *Element) EntityDofs() (element.FlatDofMap, error) {
	el.dofsOnce.Do(func() {
		el.dofs, el.dofsErr = flatten(el.Product.EntityDofs())
	})
	return el.dofs, el.dofsErr
}

// EntitySupportDofs returns the flattened support dofs of the product,
// computed on first use. The returned map is shared and must not be
// modified.
func (el *Element) EntitySupportDofs() (element.FlatDofMap, error) {
	el.supportOnce.Do(func() {
		el.support, el.supportErr = flatten(el.Product.EntitySupportDofs())
	})
	return el.support, el.supportErr
}

func flatten(product element.ProductDofMap) (element.FlatDofMap, error) {
	flat, err := topology.Flatten(product)
	if err != nil {
		return nil, err
	}
	if err = topology.Verify(product, flat); err != nil {
		return nil, err
	}
	return flat, nil
}

// productise checks entity against the quadrilateral and translates it
// into the product entity the wrapped element expects
func (el *Element) productise(entity *element.EntityRef) (element.ProductEntityRef, error) {
	if entity != nil {
		if err := element.ValidateEntity(el.Cell(), *entity); err != nil {
			return element.ProductEntityRef{}, err
		}
	}
	return topology.Productise(entity)
}

func (el *Element) BasisEvaluation(ctx session.Context, d element.Derivative, ps element.PointSet,
	entity *element.EntityRef) (*gem.Recipe, error) {
	pe, err := el.productise(entity)
	if err != nil {
		return nil, err
	}
	return el.Product.BasisEvaluation(ctx, d, ps, pe)
}

func (el *Element) PointEvaluation(ctx session.Context, d element.Derivative, point element.PointSet,
	entity *element.EntityRef) (*gem.Recipe, error) {
	pe, err := el.productise(entity)
	if err != nil {
		return nil, err
	}
	return el.Product.PointEvaluation(ctx, d, point, pe)
}

func (el *Element) FieldEvaluation(ctx session.Context, coefficient *gem.Variable, d element.Derivative,
	ps element.PointSet, entity *element.EntityRef) (*gem.Recipe, error) {
	pe, err := el.productise(entity)
	if err != nil {
		return nil, err
	}
	return el.Product.FieldEvaluation(ctx, coefficient, d, ps, pe)
}

// String returns a summary of the element and its flattened topology
func (el *Element) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("QuadrilateralElement(%v)\n", el.Product))
	if deg, err := el.Degree(); err != nil {
		sb.WriteString(fmt.Sprintf("  Degree: %v\n", err))
	} else {
		sb.WriteString(fmt.Sprintf("  Degree: %d\n", deg))
	}
	sb.WriteString(fmt.Sprintf("  Space dimension: %d\n", el.SpaceDimension()))
	dofs, err := el.EntityDofs()
	if err != nil {
		sb.WriteString(fmt.Sprintf("  Entity dofs: %v\n", err))
		return sb.String()
	}
	names := []string{"Vertices", "Facets", "Interior"}
	for d, name := range names {
		sb.WriteString(fmt.Sprintf("  %s:", name))
		for _, id := range element.SortedIDs(dofs[d]) {
			sb.WriteString(fmt.Sprintf(" %d%v", id, dofs[d][id]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
