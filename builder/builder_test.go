package builder_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/notargets/gofinat/builder"
	"github.com/notargets/gofinat/element"
	"github.com/notargets/gofinat/element/library/lagrange"
	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// countingTabulator is a collaborator on a cell of dimension dim whose
// table for derivative axis k holds the value k+1 everywhere
type countingTabulator struct {
	cell  element.Cell
	n     int
	calls int
	fail  error
	rows  int // overrides the table row count when nonzero
}

func (c *countingTabulator) Cell() element.Cell  { return c.cell }
func (c *countingTabulator) SpaceDimension() int { return c.n }

func (c *countingTabulator) Tabulate(order int, ps element.PointSet,
	entity element.Restriction) (element.Tabulation, error) {
	c.calls++
	if c.fail != nil {
		return nil, c.fail
	}
	rows := c.n
	if c.rows != 0 {
		rows = c.rows
	}
	npoints, _ := ps.Shape()
	fill := func(v float64) *mat.Dense {
		data := make([]float64, rows*npoints)
		for i := range data {
			data[i] = v
		}
		return mat.NewDense(rows, npoints, data)
	}
	tab := element.Tabulation{{}: fill(0)}
	if order >= 1 {
		for k := 0; k < int(c.cell.Dimension()); k++ {
			tab[element.UnitAlpha(k)] = fill(float64(k + 1))
		}
	}
	return tab, nil
}

func quadPoints(t *testing.T) *element.Points {
	t.Helper()
	ps, err := element.NewPoints(3, 2, []float64{0, 0, 0.5, -0.5, 0.25, 0.75})
	require.NoError(t, err)
	return ps
}

func handle(t *testing.T, r *gem.Recipe) *gem.Variable {
	t.Helper()
	require.Len(t, r.Instructions, 1)
	switch inst := r.Instructions[0].(type) {
	case *gem.Indexed:
		return inst.Variable
	case *gem.IndexSum:
		prod, ok := inst.Body.(*gem.Product)
		require.True(t, ok)
		return prod.Factors[1].(*gem.Indexed).Variable
	}
	t.Fatalf("unexpected instruction %T", r.Instructions[0])
	return nil
}

func kinds(r *gem.Recipe) []gem.IndexKind {
	out := make([]gem.IndexKind, len(r.FreeIndices))
	for i, idx := range r.FreeIndices {
		out[i] = idx.Kind
	}
	return out
}

func TestBasisEvaluationCachesTabulation(t *testing.T) {
	s := session.New(session.Config{Strict: true})
	el := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4}
	ps := quadPoints(t)

	r1, err := builder.BasisEvaluation(s, el, element.NoDerivative, ps, nil)
	require.NoError(t, err)
	r2, err := builder.BasisEvaluation(s, el, element.NoDerivative, ps, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, el.calls)
	assert.Same(t, handle(t, r1), handle(t, r2))
	assert.Equal(t, session.Stats{Hits: 1, Misses: 1}, s.Stats())

	// Indices are minted per request
	assert.NotSame(t, r1.FreeIndices[0], r2.FreeIndices[0])
	assert.NotSame(t, r1.FreeIndices[1], r2.FreeIndices[1])

	// A different point set with equal coordinates is a different key
	_, err = builder.BasisEvaluation(s, el, element.NoDerivative, quadPoints(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, el.calls)
}

func TestBasisEvaluationIndices(t *testing.T) {
	s := session.New(session.Config{Strict: true})
	el := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4}
	ps := quadPoints(t)

	r, err := builder.BasisEvaluation(s, el, element.NoDerivative, ps, nil)
	require.NoError(t, err)
	require.Len(t, r.FreeIndices, 2)
	assert.Equal(t, []gem.IndexKind{gem.BasisFunctionIndex, gem.PointIndex}, kinds(r))
	assert.Equal(t, []int{4, 3}, r.Shape())
	assert.Empty(t, r.Parameters)
	assert.Equal(t, r.FreeIndices, r.Instructions[0].(*gem.Indexed).Indices)
	assert.Equal(t, "phi_e1", handle(t, r).Name)

	g, err := builder.BasisEvaluation(s, el, element.Gradient, ps, nil)
	require.NoError(t, err)
	require.Len(t, g.FreeIndices, 3)
	assert.Equal(t, []gem.IndexKind{gem.DimensionIndex, gem.BasisFunctionIndex, gem.PointIndex}, kinds(g))
	assert.Equal(t, []int{2, 4, 3}, g.Shape())
	assert.Equal(t, g.FreeIndices, g.Instructions[0].(*gem.Indexed).Indices)
	assert.NotSame(t, handle(t, r), handle(t, g))
	assert.Contains(t, handle(t, g).Name, "dphi")
	assert.Equal(t, 2, el.calls)
}

func TestFieldEvaluation(t *testing.T) {
	s := session.New(session.Config{Strict: true})
	el := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4}
	ps := quadPoints(t)
	w := s.Variable("w")

	r, err := builder.FieldEvaluation(s, el, w, element.NoDerivative, ps, nil)
	require.NoError(t, err)
	require.Len(t, r.FreeIndices, 1)
	assert.Equal(t, gem.PointIndex, r.FreeIndices[0].Kind)
	assert.Equal(t, []*gem.Variable{w}, r.Parameters)

	sum, ok := r.Instructions[0].(*gem.IndexSum)
	require.True(t, ok)
	assert.Equal(t, gem.BasisFunctionIndex, sum.Index.Kind)
	assert.NotContains(t, r.FreeIndices, sum.Index)

	g, err := builder.FieldEvaluation(s, el, w, element.Gradient, ps, nil)
	require.NoError(t, err)
	assert.Equal(t, []gem.IndexKind{gem.DimensionIndex, gem.PointIndex}, kinds(g))
	require.NoError(t, g.Validate())

	// Field and basis evaluation share the tabulation
	b, err := builder.BasisEvaluation(s, el, element.Gradient, ps, nil)
	require.NoError(t, err)
	assert.Same(t, handle(t, g), handle(t, b))
	assert.Equal(t, 2, el.calls)

	_, err = builder.FieldEvaluation(s, el, nil, element.NoDerivative, ps, nil)
	require.Error(t, err)
}

func TestUnsupportedDerivatives(t *testing.T) {
	s := session.New(session.Config{})
	el := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4}
	ps := quadPoints(t)
	w := s.Variable("w")
	for _, d := range []element.Derivative{element.Hessian, element.Divergence, element.Curl, element.Derivative(42)} {
		t.Run(d.String(), func(t *testing.T) {
			r, err := builder.BasisEvaluation(s, el, d, ps, nil)
			require.ErrorIs(t, err, element.ErrUnsupportedOperation)
			assert.Nil(t, r)
			_, err = builder.FieldEvaluation(s, el, w, d, ps, nil)
			require.ErrorIs(t, err, element.ErrUnsupportedOperation)
		})
	}
	assert.Zero(t, el.calls)
	assert.Empty(t, s.Entries())
}

func TestTabulationFailureIsAllOrNothing(t *testing.T) {
	s := session.New(session.Config{})
	boom := errors.New("collaborator failed")
	el := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4, fail: boom}
	ps := quadPoints(t)

	r, err := builder.BasisEvaluation(s, el, element.NoDerivative, ps, nil)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, r)
	assert.Empty(t, s.Entries())

	bad := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4, rows: 5}
	_, err = builder.BasisEvaluation(s, bad, element.NoDerivative, ps, nil)
	require.Error(t, err)
	assert.Empty(t, s.Entries())
}

func TestElementWithoutIdentity(t *testing.T) {
	s := session.New(session.Config{})
	el, err := lagrange.New(1)
	require.NoError(t, err)
	ps, err := element.NewPoints(1, 1, []float64{0})
	require.NoError(t, err)
	_, err = builder.BasisEvaluation(s, valueTabulator{el}, element.NoDerivative, ps, nil)
	require.ErrorIs(t, err, element.ErrUnsupportedOperation)
	require.ErrorIs(t, err, session.ErrNoIdentity)
}

// valueTabulator is a non-pointer collaborator, which has no identity to
// key a cache with
type valueTabulator struct{ *lagrange.Element }

func TestDeferredLiteral(t *testing.T) {
	s := session.New(session.Config{})
	el := &countingTabulator{cell: element.UFCQuadrilateral{}, n: 4}
	ps := quadPoints(t)

	_, err := builder.BasisEvaluation(s, el, element.Gradient, ps, nil)
	require.NoError(t, err)
	entries := s.Entries()
	require.Len(t, entries, 1)
	data := entries[0].Data
	assert.False(t, data.Forced())

	lit, err := data.Force()
	require.NoError(t, err)
	assert.True(t, data.Forced())
	assert.Equal(t, []int{2, 4, 3}, lit.Shape())
	assert.Equal(t, 1.0, lit.At(0, 3, 2))
	assert.Equal(t, 2.0, lit.At(1, 0, 0))

	again, err := data.Force()
	require.NoError(t, err)
	assert.Same(t, lit, again)
	assert.Equal(t, 1, el.calls)
}

func TestPointEvaluation(t *testing.T) {
	s := session.New(session.Config{Strict: true})
	el, err := lagrange.New(2)
	require.NoError(t, err)
	pt, err := element.NewPoints(1, 1, []float64{0.3})
	require.NoError(t, err)

	r, err := el.PointEvaluation(s, element.NoDerivative, pt, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, r.Shape())

	two, err := element.NewPoints(2, 1, []float64{0.3, 0.4})
	require.NoError(t, err)
	_, err = el.PointEvaluation(s, element.NoDerivative, two, nil)
	require.Error(t, err)
}

func TestLagrangeRecipeValues(t *testing.T) {
	s := session.New(session.Config{Strict: true})
	el, err := lagrange.New(1)
	require.NoError(t, err)
	ps, err := element.NewPoints(2, 1, []float64{-1, 0.5})
	require.NoError(t, err)

	r, err := el.BasisEvaluation(s, element.Gradient, ps, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2}, r.Shape())

	lit, err := s.Entries()[0].Data.Force()
	require.NoError(t, err)
	// Linear basis on [-1,1]: phi0 = (1-x)/2, phi1 = (1+x)/2
	assert.InDelta(t, -0.5, lit.At(0, 0, 1), 1e-12)
	assert.InDelta(t, 0.5, lit.At(0, 1, 0), 1e-12)

	// Vertex restriction keys a separate tabulation
	_, err = el.BasisEvaluation(s, element.NoDerivative, element.VertexPoints(1),
		&element.EntityRef{Dim: 0, ID: 1})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 2)
	lit, err = s.Entries()[1].Data.Force()
	require.NoError(t, err)
	assert.InDelta(t, 0, lit.At(0, 0), 1e-12)
	assert.InDelta(t, 1, lit.At(1, 0), 1e-12)
}

func TestSharedSessionEvaluation(t *testing.T) {
	sh := session.NewShared(session.Config{Strict: true})
	defer sh.Close()
	el, err := lagrange.New(3)
	require.NoError(t, err)
	ps, err := element.NewPoints(4, 1, []float64{-0.5, 0, 0.5, 0.9})
	require.NoError(t, err)

	var wg sync.WaitGroup
	recipes := make([]*gem.Recipe, 8)
	for i := range recipes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := el.BasisEvaluation(sh, element.Gradient, ps, nil)
			assert.NoError(t, err)
			recipes[i] = r
		}(i)
	}
	wg.Wait()

	require.Len(t, sh.Entries(), 1)
	for _, r := range recipes {
		require.NotNil(t, r)
		assert.Same(t, sh.Entries()[0].Handle, handle(t, r))
	}
	assert.Equal(t, 1, sh.Stats().Misses)
}
