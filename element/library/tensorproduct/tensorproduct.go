package tensorproduct

import (
	"fmt"

	"github.com/notargets/gofinat/builder"
	"github.com/notargets/gofinat/element"
	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"gonum.org/v1/gonum/mat"
)

// Factor is a one dimensional element that can be tabulated
type Factor interface {
	element.Element
	element.Tabulator
}

// Element is the tensor product A x B of two interval elements. Basis
// function a*nB+b is the product of basis function a of A and b of B.
type Element struct {
	A, B    Factor
	degrees []int
	cell    *element.TensorProduct
	dofs    element.ProductDofMap
	support element.ProductDofMap
}

var (
	_ element.ProductElement = (*Element)(nil)
	_ element.Tabulator      = (*Element)(nil)
)

// New creates the tensor product of a and b
func New(a, b Factor) (*Element, error) {
	for _, f := range []Factor{a, b} {
		if f.Cell().Dimension() != element.D1 {
			return nil, fmt.Errorf("%w: tensor product factor on %s, expected an interval",
				element.ErrInvalidTopology, f.Cell().Name())
		}
	}
	da, err := a.Degree()
	if err != nil {
		return nil, err
	}
	db, err := b.Degree()
	if err != nil {
		return nil, err
	}
	el := &Element{
		A:       a,
		B:       b,
		degrees: []int{da, db},
		cell:    element.NewTensorProduct(a.Cell(), b.Cell()),
	}
	if el.dofs, err = el.productDofs(func(f Factor) (element.FlatDofMap, error) {
		return f.EntityDofs()
	}); err != nil {
		return nil, err
	}
	if el.support, err = el.productDofs(func(f Factor) (element.FlatDofMap, error) {
		return f.EntitySupportDofs()
	}); err != nil {
		return nil, err
	}
	return el, nil
}

func (el *Element) Cell() element.Cell { return el.cell }

// Degree returns the degree of each factor
func (el *Element) Degree() []int { return append([]int(nil), el.degrees...) }

func (el *Element) FormDegree() int { return el.A.FormDegree() + el.B.FormDegree() }

func (el *Element) SpaceDimension() int { return el.A.SpaceDimension() * el.B.SpaceDimension() }

func (el *Element) IndexShape() []int { return []int{el.SpaceDimension()} }

func (el *Element) ValueShape() []int { return []int{} }

func (el *Element) Mapping() element.Mapping { return el.A.Mapping() }

// EntityDofs returns the product entity dofs. Entity (d1,d2) id i of the
// product is entity i/c of dimension d1 on A times entity i%c of dimension
// d2 on B, c being the number of dimension d2 entities of B.
func (el *Element) EntityDofs() element.ProductDofMap { return el.dofs.Clone() }

// EntitySupportDofs returns the product of the factors' support dofs
func (el *Element) EntitySupportDofs() element.ProductDofMap { return el.support.Clone() }

func (el *Element) productDofs(get func(Factor) (element.FlatDofMap, error)) (element.ProductDofMap, error) {
	dofsA, err := get(el.A)
	if err != nil {
		return nil, err
	}
	dofsB, err := get(el.B)
	if err != nil {
		return nil, err
	}
	nB := el.B.SpaceDimension()
	out := make(element.ProductDofMap)
	for d1 := 0; d1 <= 1; d1++ {
		for d2 := 0; d2 <= 1; d2++ {
			pd := element.ProductDim{D1: d1, D2: d2}
			ents := make(map[int][]int)
			countB := el.B.Cell().EntityCount(d2)
			for iA, a := range dofsA[d1] {
				for iB, b := range dofsB[d2] {
					dofs := make([]int, 0, len(a)*len(b))
					for _, da := range a {
						for _, db := range b {
							dofs = append(dofs, da*nB+db)
						}
					}
					ents[iA*countB+iB] = dofs
				}
			}
			out[pd] = ents
		}
	}
	return out, nil
}

// Tabulate evaluates the product basis at the points of ps on entity. The
// first d1 coordinates of each point lie on the A entity and the last d2
// on the B entity. Derivatives are taken in (x, y) of the product cell.
func (el *Element) Tabulate(order int, ps element.PointSet, entity element.Restriction) (element.Tabulation, error) {
	ent := element.ProductEntityRef{Dim: element.ProductDim{D1: 1, D2: 1}}
	if entity != nil {
		e, ok := entity.(element.ProductEntityRef)
		if !ok {
			return nil, fmt.Errorf("%w: product entity expected, got %s", element.ErrInvalidEntity, entity)
		}
		ent = e
	}
	if err := element.ValidateProductEntity(el.cell, ent); err != nil {
		return nil, err
	}
	npoints, dim := ps.Shape()
	if dim != ent.Dim.D1+ent.Dim.D2 {
		return nil, fmt.Errorf("%w: points of dimension %d on entity %s",
			element.ErrInvalidEntity, dim, ent)
	}

	psA, psB, err := split(ps, ent.Dim.D1)
	if err != nil {
		return nil, err
	}
	countB := el.B.Cell().EntityCount(ent.Dim.D2)
	tabA, err := el.A.Tabulate(order, psA, element.EntityRef{Dim: ent.Dim.D1, ID: ent.ID / countB})
	if err != nil {
		return nil, fmt.Errorf("factor A: %w", err)
	}
	tabB, err := el.B.Tabulate(order, psB, element.EntityRef{Dim: ent.Dim.D2, ID: ent.ID % countB})
	if err != nil {
		return nil, fmt.Errorf("factor B: %w", err)
	}

	nA, nB := el.A.SpaceDimension(), el.B.SpaceDimension()
	tab := make(element.Tabulation)
	for a1 := 0; a1 <= order; a1++ {
		for a2 := 0; a1+a2 <= order; a2++ {
			ta, err := tabA.Table(element.Alpha{a1})
			if err != nil {
				return nil, fmt.Errorf("factor A: %w", err)
			}
			tb, err := tabB.Table(element.Alpha{a2})
			if err != nil {
				return nil, fmt.Errorf("factor B: %w", err)
			}
			m := mat.NewDense(nA*nB, npoints, nil)
			for a := 0; a < nA; a++ {
				for b := 0; b < nB; b++ {
					for q := 0; q < npoints; q++ {
						m.Set(a*nB+b, q, ta.At(a, q)*tb.At(b, q))
					}
				}
			}
			tab[element.Alpha{a1, a2}] = m
		}
	}
	return tab, nil
}

// split separates the first d1 coordinates of every point from the rest
func split(ps element.PointSet, d1 int) (a, b *element.Points, err error) {
	npoints, dim := ps.Shape()
	ca := make([]float64, 0, npoints*d1)
	cb := make([]float64, 0, npoints*(dim-d1))
	for q := 0; q < npoints; q++ {
		for j := 0; j < dim; j++ {
			if j < d1 {
				ca = append(ca, ps.Coordinate(q, j))
			} else {
				cb = append(cb, ps.Coordinate(q, j))
			}
		}
	}
	if a, err = element.NewPoints(npoints, d1, ca); err != nil {
		return nil, nil, err
	}
	if b, err = element.NewPoints(npoints, dim-d1, cb); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (el *Element) BasisEvaluation(ctx session.Context, d element.Derivative, ps element.PointSet,
	entity element.ProductEntityRef) (*gem.Recipe, error) {
	return builder.BasisEvaluation(ctx, el, d, ps, entity)
}

func (el *Element) PointEvaluation(ctx session.Context, d element.Derivative, point element.PointSet,
	entity element.ProductEntityRef) (*gem.Recipe, error) {
	return builder.PointEvaluation(ctx, el, d, point, entity)
}

func (el *Element) FieldEvaluation(ctx session.Context, coefficient *gem.Variable, d element.Derivative,
	ps element.PointSet, entity element.ProductEntityRef) (*gem.Recipe, error) {
	return builder.FieldEvaluation(ctx, el, coefficient, d, ps, entity)
}

func (el *Element) String() string {
	return fmt.Sprintf("TensorProductElement(%v, %v)", el.A, el.B)
}
