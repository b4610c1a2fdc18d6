package quadrilateral

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notargets/gofinat/element"
	"github.com/notargets/gofinat/element/library/lagrange"
	"github.com/notargets/gofinat/element/library/tensorproduct"
	"github.com/notargets/gofinat/gem"
	"github.com/notargets/gofinat/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProduct is a product element that records the entity it is
// asked to evaluate on
type recordingProduct struct {
	degrees  []int
	dofs     element.ProductDofMap
	dofCalls int
	entities []element.ProductEntityRef
}

func (p *recordingProduct) Cell() element.Cell {
	return element.NewTensorProduct(element.UFCInterval{}, element.UFCInterval{})
}
func (p *recordingProduct) Degree() []int            { return p.degrees }
func (p *recordingProduct) FormDegree() int          { return 0 }
func (p *recordingProduct) SpaceDimension() int      { return 9 }
func (p *recordingProduct) IndexShape() []int        { return []int{9} }
func (p *recordingProduct) ValueShape() []int        { return []int{} }
func (p *recordingProduct) Mapping() element.Mapping { return element.Affine }

func (p *recordingProduct) EntityDofs() element.ProductDofMap {
	p.dofCalls++
	return p.dofs.Clone()
}

func (p *recordingProduct) EntitySupportDofs() element.ProductDofMap { return p.dofs.Clone() }

func (p *recordingProduct) record(e element.ProductEntityRef) (*gem.Recipe, error) {
	p.entities = append(p.entities, e)
	return gem.NewRecipe(nil, nil, nil), nil
}

func (p *recordingProduct) BasisEvaluation(_ session.Context, _ element.Derivative, _ element.PointSet,
	e element.ProductEntityRef) (*gem.Recipe, error) {
	return p.record(e)
}

func (p *recordingProduct) PointEvaluation(_ session.Context, _ element.Derivative, _ element.PointSet,
	e element.ProductEntityRef) (*gem.Recipe, error) {
	return p.record(e)
}

func (p *recordingProduct) FieldEvaluation(_ session.Context, _ *gem.Variable, _ element.Derivative,
	_ element.PointSet, e element.ProductEntityRef) (*gem.Recipe, error) {
	return p.record(e)
}

func q2Dofs() element.ProductDofMap {
	return element.ProductDofMap{
		{D1: 0, D2: 0}: {0: {0}, 1: {1}, 2: {3}, 3: {4}},
		{D1: 0, D2: 1}: {0: {2}, 1: {5}},
		{D1: 1, D2: 0}: {0: {6}, 1: {7}},
		{D1: 1, D2: 1}: {0: {8}},
	}
}

func TestDegree(t *testing.T) {
	el := New(&recordingProduct{degrees: []int{3, 3}})
	deg, err := el.Degree()
	require.NoError(t, err)
	assert.Equal(t, 3, deg)

	for _, degrees := range [][]int{{2, 3}, {3}, {2, 2, 2}} {
		_, err = New(&recordingProduct{degrees: degrees}).Degree()
		assert.ErrorIs(t, err, element.ErrInconsistentDegree, "degrees %v", degrees)
	}
}

func TestEntityDofsMemoized(t *testing.T) {
	p := &recordingProduct{degrees: []int{2, 2}, dofs: q2Dofs()}
	el := New(p)

	want := element.FlatDofMap{
		0: {0: {0}, 1: {1}, 2: {3}, 3: {4}},
		1: {0: {2}, 1: {5}, 2: {6}, 3: {7}},
		2: {0: {8}},
	}
	for i := 0; i < 3; i++ {
		dofs, err := el.EntityDofs()
		require.NoError(t, err)
		if diff := cmp.Diff(want, dofs); diff != "" {
			t.Fatalf("EntityDofs mismatch (-want +got):\n%s", diff)
		}
	}
	assert.Equal(t, 1, p.dofCalls)

	support, err := el.EntitySupportDofs()
	require.NoError(t, err)
	if diff := cmp.Diff(want, support); diff != "" {
		t.Errorf("EntitySupportDofs mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityDofsInvalidTopology(t *testing.T) {
	dofs := q2Dofs()
	delete(dofs, element.ProductDim{D1: 1, D2: 1})
	el := New(&recordingProduct{degrees: []int{2, 2}, dofs: dofs})
	_, err := el.EntityDofs()
	require.ErrorIs(t, err, element.ErrInvalidTopology)
	_, err = el.EntitySupportDofs()
	require.ErrorIs(t, err, element.ErrInvalidTopology)
	assert.Contains(t, el.String(), "invalid topology")
}

func TestEvaluationProductisesEntity(t *testing.T) {
	p := &recordingProduct{degrees: []int{2, 2}, dofs: q2Dofs()}
	el := New(p)
	s := session.New(session.Config{})
	ps := element.VertexPoints(1)

	cases := []struct {
		entity *element.EntityRef
		want   element.ProductEntityRef
	}{
		{nil, element.ProductEntityRef{Dim: element.ProductDim{D1: 1, D2: 1}}},
		{&element.EntityRef{Dim: 2, ID: 0}, element.ProductEntityRef{Dim: element.ProductDim{D1: 1, D2: 1}}},
		{&element.EntityRef{Dim: 1, ID: 1}, element.ProductEntityRef{Dim: element.ProductDim{D1: 0, D2: 1}, ID: 1}},
		{&element.EntityRef{Dim: 1, ID: 2}, element.ProductEntityRef{Dim: element.ProductDim{D1: 1, D2: 0}, ID: 0}},
		{&element.EntityRef{Dim: 0, ID: 3}, element.ProductEntityRef{Dim: element.ProductDim{D1: 0, D2: 0}, ID: 3}},
	}
	for _, tc := range cases {
		_, err := el.BasisEvaluation(s, element.NoDerivative, ps, tc.entity)
		require.NoError(t, err)
		_, err = el.PointEvaluation(s, element.NoDerivative, ps, tc.entity)
		require.NoError(t, err)
		_, err = el.FieldEvaluation(s, s.Variable("w"), element.NoDerivative, ps, tc.entity)
		require.NoError(t, err)
		require.Len(t, p.entities, 3)
		for _, got := range p.entities {
			assert.Equal(t, tc.want, got, "entity %v", tc.entity)
		}
		p.entities = nil
	}
}

func TestEvaluationRejectsInvalidEntity(t *testing.T) {
	p := &recordingProduct{degrees: []int{2, 2}, dofs: q2Dofs()}
	el := New(p)
	s := session.New(session.Config{})
	ps := element.VertexPoints(1)
	for _, e := range []element.EntityRef{{Dim: 2, ID: 1}, {Dim: 1, ID: 4}, {Dim: 0, ID: 4}, {Dim: 3, ID: 0}, {Dim: 0, ID: -1}} {
		_, err := el.BasisEvaluation(s, element.NoDerivative, ps, &e)
		assert.ErrorIs(t, err, element.ErrInvalidEntity, "entity %v", e)
	}
	assert.Empty(t, p.entities)
}

func TestPassThroughProperties(t *testing.T) {
	el := New(&recordingProduct{degrees: []int{2, 2}, dofs: q2Dofs()})
	assert.Equal(t, element.UFCQuadrilateral{}, el.Cell())
	assert.Equal(t, 9, el.SpaceDimension())
	assert.Equal(t, []int{9}, el.IndexShape())
	assert.Empty(t, el.ValueShape())
	assert.Equal(t, 0, el.FormDegree())
	assert.Equal(t, element.Affine, el.Mapping())
}

func newQ2(t *testing.T) *Element {
	t.Helper()
	a, err := lagrange.New(2)
	require.NoError(t, err)
	tp, err := tensorproduct.New(a, a)
	require.NoError(t, err)
	return New(tp)
}

func TestQ2FacetEvaluation(t *testing.T) {
	el := newQ2(t)
	s := session.New(session.Config{Strict: true})

	dofs, err := el.EntityDofs()
	require.NoError(t, err)
	assert.Equal(t, el.SpaceDimension(), dofs.Count())

	// Facet 2 is y=-1, points carry x only
	ps, err := element.NewPoints(2, 1, []float64{-0.25, 0.5})
	require.NoError(t, err)
	facet := &element.EntityRef{Dim: 1, ID: 2}
	r1, err := el.BasisEvaluation(s, element.NoDerivative, ps, facet)
	require.NoError(t, err)
	r2, err := el.BasisEvaluation(s, element.NoDerivative, ps, &element.EntityRef{Dim: 1, ID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 2}, r1.Shape())
	assert.Equal(t, session.Stats{Hits: 1, Misses: 1}, s.Stats())
	assert.Same(t, r1.Instructions[0].(*gem.Indexed).Variable, r2.Instructions[0].(*gem.Indexed).Variable)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "((1, 0), 0)", entries[0].Key.Entity)
	lit, err := entries[0].Data.Force()
	require.NoError(t, err)

	// Basis function a*3+b vanishes on y=-1 unless b is the y=-1 vertex dof
	for k := 0; k < 9; k++ {
		if k%3 == 0 {
			continue
		}
		for q := 0; q < 2; q++ {
			assert.InDelta(t, 0, lit.At(k, q), 1e-12, "dof %d point %d", k, q)
		}
	}
	assert.ElementsMatch(t, []int{6}, dofs[1][2])

	// A different facet is a different tabulation
	_, err = el.BasisEvaluation(s, element.NoDerivative, ps, &element.EntityRef{Dim: 1, ID: 3})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 2)
}

func TestString(t *testing.T) {
	str := newQ2(t).String()
	assert.True(t, strings.HasPrefix(str, "QuadrilateralElement(TensorProductElement("))
	assert.Contains(t, str, "Degree: 2")
	assert.Contains(t, str, "Facets: 0[2] 1[5] 2[6] 3[7]")
}

func TestFacetGradientUsesCellDimension(t *testing.T) {
	el := newQ2(t)
	s := session.New(session.Config{Strict: true})
	ps, err := element.NewPoints(2, 1, []float64{-0.25, 0.5})
	require.NoError(t, err)

	r, err := el.BasisEvaluation(s, element.Gradient, ps, &element.EntityRef{Dim: 1, ID: 2})
	require.NoError(t, err)
	_, dim := ps.Shape()
	assert.Equal(t, 1, dim)
	assert.Equal(t, []int{2, 9, 2}, r.Shape())

	lit, err := s.Entries()[0].Data.Force()
	require.NoError(t, err)
	assert.Equal(t, r.Shape(), lit.Shape())
}
