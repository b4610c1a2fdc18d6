package element

import (
	"fmt"

	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"gonum.org/v1/gonum/mat"
)

// Alpha is a derivative multi-index in reference coordinates: Alpha{1,0,0}
// is d/dx, Alpha{0,1,0} is d/dy. Unused trailing axes are zero.
type Alpha [3]int

// Order returns the total derivative order of a
func (a Alpha) Order() int { return a[0] + a[1] + a[2] }

// UnitAlpha returns the first derivative multi-index along axis
func UnitAlpha(axis int) Alpha {
	var a Alpha
	a[axis] = 1
	return a
}

// Tabulation holds basis function values or derivatives at points. Each
// table has one row per basis function and one column per point.
type Tabulation map[Alpha]*mat.Dense

// Table returns the table for a, or an error if the collaborator did not
// tabulate it
func (t Tabulation) Table(a Alpha) (*mat.Dense, error) {
	m, ok := t[a]
	if !ok {
		return nil, fmt.Errorf("tabulation has no derivative %v", a)
	}
	return m, nil
}

// Mapping names how reference basis functions are pushed forward to
// physical cells
type Mapping string

const (
	Affine             Mapping = "affine"
	CovariantPiola     Mapping = "covariant piola"
	ContravariantPiola Mapping = "contravariant piola"
)

// Tabulator is the numeric collaborator of an element. It is the sole
// source of basis data.
type Tabulator interface {
	Cell() Cell
	SpaceDimension() int
	// Tabulate evaluates every derivative up to order at the points of ps,
	// which lie on entity (nil for the whole cell). Derivatives are taken in
	// the coordinates of the cell, not of the entity.
	Tabulate(order int, ps PointSet, entity Restriction) (Tabulation, error)
}

// Element is a finite element on a flat reference cell
type Element interface {
	Cell() Cell
	Degree() (int, error)
	FormDegree() int
	EntityDofs() (FlatDofMap, error)
	EntitySupportDofs() (FlatDofMap, error)
	SpaceDimension() int
	IndexShape() []int
	ValueShape() []int
	Mapping() Mapping

	// BasisEvaluation returns a recipe for the basis functions of the
	// element, or their derivative, at the points of ps on entity (nil for
	// the whole cell).
	BasisEvaluation(ctx session.Context, d Derivative, ps PointSet, entity *EntityRef) (*gem.Recipe, error)
	// PointEvaluation is BasisEvaluation at a single point
	PointEvaluation(ctx session.Context, d Derivative, point PointSet, entity *EntityRef) (*gem.Recipe, error)
	// FieldEvaluation contracts the basis with coefficient
	FieldEvaluation(ctx session.Context, coefficient *gem.Variable, d Derivative, ps PointSet, entity *EntityRef) (*gem.Recipe, error)
}

// ProductElement is a tensor-product element whose entities are addressed
// by dimension pairs of its product cell
type ProductElement interface {
	// Cell returns the product cell; it implements ProductCell
	Cell() Cell
	// Degree returns the polynomial degree along each factor
	Degree() []int
	FormDegree() int
	EntityDofs() ProductDofMap
	EntitySupportDofs() ProductDofMap
	SpaceDimension() int
	IndexShape() []int
	ValueShape() []int
	Mapping() Mapping

	BasisEvaluation(ctx session.Context, d Derivative, ps PointSet, entity ProductEntityRef) (*gem.Recipe, error)
	PointEvaluation(ctx session.Context, d Derivative, point PointSet, entity ProductEntityRef) (*gem.Recipe, error)
	FieldEvaluation(ctx session.Context, coefficient *gem.Variable, d Derivative, ps PointSet, entity ProductEntityRef) (*gem.Recipe, error)
}
