package builder

import (
	"fmt"

	"github.com/notargets/gofinat/element"
	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"gonum.org/v1/gonum/mat"
)

// BasisEvaluation builds the recipe evaluating every basis function of el,
// or its gradient, at the points of ps on entity (nil for the whole cell).
//
// Free indices are [basis function, point] for values and
// [dimension, basis function, point] for gradients. The single instruction
// subscripts the cached tabulation handle with those indices.
func BasisEvaluation(ctx session.Context, el element.Tabulator, d element.Derivative,
	ps element.PointSet, entity element.Restriction) (*gem.Recipe, error) {
	e, err := tabulation(ctx, el, d, ps, entity)
	if err != nil {
		return nil, err
	}
	ind, _, err := indices(ctx, el, d, ps)
	if err != nil {
		return nil, err
	}
	r := gem.NewRecipe(ind, []gem.Expr{e.Handle.At(ind...)}, nil)
	return finish(ctx, r)
}

// FieldEvaluation builds the recipe evaluating the field with the given
// coefficients, or its gradient, at the points of ps:
//
//	sum_i coefficient[i] * phi[alpha?, i, q]
//
// The basis function index is bound by the sum; free indices are [point]
// or [dimension, point].
func FieldEvaluation(ctx session.Context, el element.Tabulator, coefficient *gem.Variable,
	d element.Derivative, ps element.PointSet, entity element.Restriction) (*gem.Recipe, error) {
	if coefficient == nil {
		return nil, fmt.Errorf("field evaluation needs a coefficient variable")
	}
	e, err := tabulation(ctx, el, d, ps, entity)
	if err != nil {
		return nil, err
	}
	dataInd, i, err := indices(ctx, el, d, ps)
	if err != nil {
		return nil, err
	}
	free := make([]*gem.Index, 0, len(dataInd)-1)
	for _, idx := range dataInd {
		if idx != i {
			free = append(free, idx)
		}
	}
	inst := gem.Sum(i, gem.Mul(coefficient.At(i), e.Handle.At(dataInd...)))
	r := gem.NewRecipe(free, []gem.Expr{inst}, []*gem.Variable{coefficient})
	return finish(ctx, r)
}

// PointEvaluation is BasisEvaluation at a point set holding exactly one point
func PointEvaluation(ctx session.Context, el element.Tabulator, d element.Derivative,
	point element.PointSet, entity element.Restriction) (*gem.Recipe, error) {
	if n, _ := point.Shape(); n != 1 {
		return nil, fmt.Errorf("point evaluation needs a single point, got %d", n)
	}
	return BasisEvaluation(ctx, el, d, point, entity)
}

// indices mints the data indices of a tabulation in axis order and returns
// the basis function index among them
func indices(ctx session.Context, el element.Tabulator, d element.Derivative,
	ps element.PointSet) (ind []*gem.Index, i *gem.Index, err error) {
	npoints, _ := ps.Shape()
	i = ctx.Index(gem.BasisFunctionIndex, el.SpaceDimension())
	q := ctx.Index(gem.PointIndex, npoints)
	switch d {
	case element.NoDerivative:
		return []*gem.Index{i, q}, i, nil
	case element.Gradient:
		alpha := ctx.Index(gem.DimensionIndex, int(el.Cell().Dimension()))
		return []*gem.Index{alpha, i, q}, i, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s evaluation", element.ErrUnsupportedOperation, d)
	}
}

func finish(ctx session.Context, r *gem.Recipe) (*gem.Recipe, error) {
	if ctx.Config().Strict {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// tabulation returns the cached tabulation of el at ps, calling the
// collaborator on a miss
func tabulation(ctx session.Context, el element.Tabulator, d element.Derivative,
	ps element.PointSet, entity element.Restriction) (*session.Entry, error) {
	order, err := d.Order()
	if err != nil {
		return nil, err
	}
	key, err := session.NewKey(el, ps, d.String(), element.RestrictionKey(entity))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", element.ErrUnsupportedOperation, err)
	}
	prefix := ctx.Config().HandlePrefix
	if d != element.NoDerivative {
		prefix = ctx.Config().GradientPrefix
	}
	return ctx.Tabulation(key, prefix, func() (*session.Deferred[*gem.Literal], error) {
		tab, err := el.Tabulate(order, ps, entity)
		if err != nil {
			return nil, fmt.Errorf("failed to tabulate %s on %s: %w", d, el.Cell().Name(), err)
		}
		tables, err := selectTables(el, d, ps, tab)
		if err != nil {
			return nil, err
		}
		ctx.Logger().Debug("tabulated", "cell", el.Cell().Name(), "derivative", d.String(),
			"entity", element.RestrictionKey(entity), "tables", len(tables))
		return session.Defer(func() (*gem.Literal, error) {
			return literal(d, tables)
		}), nil
	})
}

// selectTables picks the tables d needs out of a tabulation and checks
// their shape against the element and point set
func selectTables(el element.Tabulator, d element.Derivative, ps element.PointSet,
	tab element.Tabulation) ([]*mat.Dense, error) {
	var alphas []element.Alpha
	switch d {
	case element.NoDerivative:
		alphas = []element.Alpha{{}}
	case element.Gradient:
		for axis := 0; axis < int(el.Cell().Dimension()); axis++ {
			alphas = append(alphas, element.UnitAlpha(axis))
		}
	default:
		return nil, fmt.Errorf("%w: %s evaluation", element.ErrUnsupportedOperation, d)
	}
	npoints, _ := ps.Shape()
	tables := make([]*mat.Dense, len(alphas))
	for n, a := range alphas {
		m, err := tab.Table(a)
		if err != nil {
			return nil, err
		}
		if r, c := m.Dims(); r != el.SpaceDimension() || c != npoints {
			return nil, fmt.Errorf("tabulation %v is %dx%d, expected %dx%d",
				a, r, c, el.SpaceDimension(), npoints)
		}
		tables[n] = m
	}
	return tables, nil
}

// literal copies the selected tables into a tensor shaped
// (basis function, point) or (dimension, basis function, point)
func literal(d element.Derivative, tables []*mat.Dense) (*gem.Literal, error) {
	copies := make([]*mat.Dense, len(tables))
	for n, m := range tables {
		copies[n] = mat.DenseCopyOf(m)
	}
	switch d {
	case element.NoDerivative:
		return gem.NewLiteral2(copies[0]), nil
	case element.Gradient:
		return gem.NewLiteral3(copies)
	default:
		return nil, fmt.Errorf("%w: %s evaluation", element.ErrUnsupportedOperation, d)
	}
}
