package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PointSet is a fixed set of reference coordinates. Beyond its shape and
// raw coordinates it is opaque; its identity keys tabulation caching.
type PointSet interface {
	// Shape returns the number of points and the spatial dimension
	Shape() (npoints, dim int)
	// Coordinate returns coordinate j of point q
	Coordinate(q, j int) float64
}

// Points is a PointSet backed by a row-major coordinate array
type Points struct {
	n, dim int
	coords []float64
}

var _ PointSet = (*Points)(nil)

// NewPoints creates a point set of n points in dim dimensions. coords is
// row-major with length n*dim and is copied.
func NewPoints(n, dim int, coords []float64) (*Points, error) {
	if n <= 0 || dim < 0 {
		return nil, fmt.Errorf("invalid point set shape: n=%d, dim=%d", n, dim)
	}
	if len(coords) != n*dim {
		return nil, fmt.Errorf("coordinate length %d does not match %d points in %d dimensions",
			len(coords), n, dim)
	}
	p := &Points{n: n, dim: dim, coords: make([]float64, len(coords))}
	copy(p.coords, coords)
	return p, nil
}

// PointsFromMatrix creates a point set from an (npoints x dim) matrix
func PointsFromMatrix(m mat.Matrix) *Points {
	r, c := m.Dims()
	p := &Points{n: r, dim: c, coords: make([]float64, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			p.coords[i*c+j] = m.At(i, j)
		}
	}
	return p
}

// VertexPoints creates a set of n points of dimension zero, used to
// tabulate on a vertex
func VertexPoints(n int) *Points {
	return &Points{n: n}
}

func (p *Points) Shape() (int, int) { return p.n, p.dim }

func (p *Points) Coordinate(q, j int) float64 { return p.coords[q*p.dim+j] }

// Columns returns every coordinate axis of ps as a slice per axis
func Columns(ps PointSet) [][]float64 {
	n, dim := ps.Shape()
	cols := make([][]float64, dim)
	for j := range cols {
		cols[j] = make([]float64, n)
		for q := 0; q < n; q++ {
			cols[j][q] = ps.Coordinate(q, j)
		}
	}
	return cols
}
