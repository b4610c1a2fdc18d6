package lagrange

import (
	"fmt"

	"github.com/notargets/gofinat/builder"
	"github.com/notargets/gofinat/element"
	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"gonum.org/v1/gonum/mat"
)

// Element is the nodal Lagrange element of degree N on the reference
// interval [-1,1], with nodes at the Gauss-Lobatto-Legendre points.
// Dofs are ordered vertex -1, vertex 1, then interior nodes ascending.
type Element struct {
	N     int
	Nodes []float64 // reference coordinate of each dof
	Vinv  *mat.Dense
	cell  element.UFCInterval
}

var (
	_ element.Element   = (*Element)(nil)
	_ element.Tabulator = (*Element)(nil)
)

// New creates the Lagrange element of degree N >= 1
func New(N int) (*Element, error) {
	if N < 1 {
		return nil, fmt.Errorf("lagrange degree must be at least 1, got %d", N)
	}
	gll, err := JacobiGL(0, 0, N)
	if err != nil {
		return nil, err
	}
	nodes := make([]float64, 0, N+1)
	nodes = append(nodes, gll[0], gll[N])
	nodes = append(nodes, gll[1:N]...)

	var Vinv mat.Dense
	if err = Vinv.Inverse(Vandermonde1D(N, nodes)); err != nil {
		return nil, fmt.Errorf("lagrange degree %d: singular Vandermonde matrix: %w", N, err)
	}
	return &Element{N: N, Nodes: nodes, Vinv: &Vinv}, nil
}

func (el *Element) Cell() element.Cell { return el.cell }

func (el *Element) Degree() (int, error) { return el.N, nil }

func (el *Element) FormDegree() int { return 0 }

func (el *Element) SpaceDimension() int { return el.N + 1 }

func (el *Element) IndexShape() []int { return []int{el.N + 1} }

func (el *Element) ValueShape() []int { return []int{} }

func (el *Element) Mapping() element.Mapping { return element.Affine }

// EntityDofs returns one dof per vertex and N-1 interior dofs
func (el *Element) EntityDofs() (element.FlatDofMap, error) {
	interior := make([]int, 0, el.N-1)
	for k := 2; k <= el.N; k++ {
		interior = append(interior, k)
	}
	return element.FlatDofMap{
		0: {0: {0}, 1: {1}},
		1: {0: interior},
	}, nil
}

// EntitySupportDofs returns the dofs whose basis functions are nonzero on
// each entity. Nodal basis functions vanish at every other node, so a
// vertex supports only its own dof.
func (el *Element) EntitySupportDofs() (element.FlatDofMap, error) {
	all := make([]int, el.N+1)
	for k := range all {
		all[k] = k
	}
	return element.FlatDofMap{
		0: {0: {0}, 1: {1}},
		1: {0: all},
	}, nil
}

// EntityClosureDofs returns the dofs on the closure of each entity. The
// closure of the interval holds both vertices and the interior.
func (el *Element) EntityClosureDofs() (element.FlatDofMap, error) {
	closure, err := el.EntityDofs()
	if err != nil {
		return nil, err
	}
	all := make([]int, 0, el.N+1)
	all = append(all, closure[0][0]...)
	all = append(all, closure[0][1]...)
	all = append(all, closure[1][0]...)
	closure[1][0] = all
	return closure, nil
}

// Tabulate evaluates the basis and, for order 1, its derivative at the
// points of ps. Points on a vertex carry no coordinates.
func (el *Element) Tabulate(order int, ps element.PointSet, entity element.Restriction) (element.Tabulation, error) {
	if order < 0 || order > 1 {
		return nil, fmt.Errorf("%w: tabulation of order %d", element.ErrUnsupportedOperation, order)
	}
	r, err := el.coordinates(ps, entity)
	if err != nil {
		return nil, err
	}
	tab := element.Tabulation{
		{}: el.basis(Vandermonde1D(el.N, r)),
	}
	if order == 1 {
		tab[element.UnitAlpha(0)] = el.basis(GradVandermonde1D(el.N, r))
	}
	return tab, nil
}

// basis converts modal values at points into the (dof x point) nodal table
func (el *Element) basis(Vx *mat.Dense) *mat.Dense {
	var phi mat.Dense
	phi.Mul(Vx, el.Vinv)
	return mat.DenseCopyOf(phi.T())
}

// coordinates returns the interval coordinate of every point of ps
func (el *Element) coordinates(ps element.PointSet, entity element.Restriction) ([]float64, error) {
	npoints, dim := ps.Shape()
	ent := element.EntityRef{Dim: 1, ID: 0}
	if entity != nil {
		e, ok := entity.(element.EntityRef)
		if !ok {
			return nil, fmt.Errorf("%w: interval entity must be an EntityRef, got %s",
				element.ErrInvalidEntity, entity)
		}
		ent = e
	}
	if err := element.ValidateEntity(el.cell, ent); err != nil {
		return nil, err
	}
	if dim != ent.Dim {
		return nil, fmt.Errorf("%w: points of dimension %d on entity %s",
			element.ErrInvalidEntity, dim, ent)
	}
	if ent.Dim == 1 {
		return element.Columns(ps)[0], nil
	}
	r := make([]float64, npoints)
	for q := range r {
		r[q] = el.Nodes[ent.ID]
	}
	return r, nil
}

func (el *Element) restriction(entity *element.EntityRef) element.Restriction {
	if entity == nil {
		return nil
	}
	return *entity
}

func (el *Element) BasisEvaluation(ctx session.Context, d element.Derivative, ps element.PointSet,
	entity *element.EntityRef) (*gem.Recipe, error) {
	return builder.BasisEvaluation(ctx, el, d, ps, el.restriction(entity))
}

func (el *Element) PointEvaluation(ctx session.Context, d element.Derivative, point element.PointSet,
	entity *element.EntityRef) (*gem.Recipe, error) {
	return builder.PointEvaluation(ctx, el, d, point, el.restriction(entity))
}

func (el *Element) FieldEvaluation(ctx session.Context, coefficient *gem.Variable, d element.Derivative,
	ps element.PointSet, entity *element.EntityRef) (*gem.Recipe, error) {
	return builder.FieldEvaluation(ctx, el, coefficient, d, ps, el.restriction(entity))
}

func (el *Element) String() string {
	return fmt.Sprintf("Lagrange(%s, %d)", el.cell.Name(), el.N)
}
