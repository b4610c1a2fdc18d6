package element

import "fmt"

// Dimensionality represents the spatial dimension of a cell or entity
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D entities (vertices)
	D1                       // 1D cells and entities (intervals, edges)
	D2                       // 2D cells (quadrilaterals, interval x interval)
	D3                       // 3D cells
)

// GeometryType is the shape of a reference cell
type GeometryType uint8

const (
	Point GeometryType = iota
	Line
	Rectangle
	TensorProductCell
)

func (g GeometryType) String() string {
	switch g {
	case Point:
		return "point"
	case Line:
		return "interval"
	case Rectangle:
		return "quadrilateral"
	case TensorProductCell:
		return "tensor product"
	default:
		return fmt.Sprintf("GeometryType(%d)", uint8(g))
	}
}

// Cell is a reference cell: the canonical shape basis functions are
// defined on before mapping to physical space
type Cell interface {
	Name() string
	Type() GeometryType
	Dimension() Dimensionality
	// EntityCount returns the number of entities of dimension dim, or zero
	// when the cell has no entities of that dimension
	EntityCount(dim int) int
}

// ProductCell is the Cartesian product of two reference cells. Its
// entities are addressed by a dimension pair.
type ProductCell interface {
	Cell
	Factors() (Cell, Cell)
	ProductEntityCount(dim ProductDim) int
}

// UFCInterval is the reference interval [-1,1] with vertices -1 and +1
type UFCInterval struct{}

func (UFCInterval) Name() string              { return "interval" }
func (UFCInterval) Type() GeometryType        { return Line }
func (UFCInterval) Dimension() Dimensionality { return D1 }

func (UFCInterval) EntityCount(dim int) int {
	switch dim {
	case 0:
		return 2
	case 1:
		return 1
	default:
		return 0
	}
}

// UFCQuadrilateral is [-1,1]^2 with vertices ordered (-1,-1), (-1,1),
// (1,-1), (1,1) and facets x=-1, x=1, y=-1, y=1.
type UFCQuadrilateral struct{}

func (UFCQuadrilateral) Name() string              { return "quadrilateral" }
func (UFCQuadrilateral) Type() GeometryType        { return Rectangle }
func (UFCQuadrilateral) Dimension() Dimensionality { return D2 }

func (UFCQuadrilateral) EntityCount(dim int) int {
	switch dim {
	case 0:
		return 4
	case 1:
		return 4
	case 2:
		return 1
	default:
		return 0
	}
}

// TensorProduct is the product cell A x B
type TensorProduct struct {
	A, B Cell
}

// NewTensorProduct creates the product of two reference cells
func NewTensorProduct(a, b Cell) *TensorProduct {
	return &TensorProduct{A: a, B: b}
}

func (t *TensorProduct) Name() string {
	return t.A.Name() + " x " + t.B.Name()
}

func (t *TensorProduct) Type() GeometryType { return TensorProductCell }

func (t *TensorProduct) Dimension() Dimensionality {
	return t.A.Dimension() + t.B.Dimension()
}

func (t *TensorProduct) Factors() (Cell, Cell) { return t.A, t.B }

// EntityCount sums the product entity counts over every dimension pair
// adding up to dim
func (t *TensorProduct) EntityCount(dim int) int {
	n := 0
	for d1 := 0; d1 <= int(t.A.Dimension()); d1++ {
		d2 := dim - d1
		if d2 < 0 || d2 > int(t.B.Dimension()) {
			continue
		}
		n += t.ProductEntityCount(ProductDim{D1: d1, D2: d2})
	}
	return n
}

func (t *TensorProduct) ProductEntityCount(dim ProductDim) int {
	return t.A.EntityCount(dim.D1) * t.B.EntityCount(dim.D2)
}

// ValidateEntity checks that e addresses an existing entity of c
func ValidateEntity(c Cell, e EntityRef) error {
	if e.Dim < 0 || e.Dim > int(c.Dimension()) {
		return fmt.Errorf("%w: %s has no entities of dimension %d", ErrInvalidEntity, c.Name(), e.Dim)
	}
	if n := c.EntityCount(e.Dim); e.ID < 0 || e.ID >= n {
		return fmt.Errorf("%w: %s has %d entities of dimension %d, got id %d",
			ErrInvalidEntity, c.Name(), n, e.Dim, e.ID)
	}
	return nil
}

// ValidateProductEntity checks that e addresses an existing entity of c
func ValidateProductEntity(c ProductCell, e ProductEntityRef) error {
	a, b := c.Factors()
	if e.Dim.D1 < 0 || e.Dim.D1 > int(a.Dimension()) ||
		e.Dim.D2 < 0 || e.Dim.D2 > int(b.Dimension()) {
		return fmt.Errorf("%w: %s has no entities of dimension %s", ErrInvalidEntity, c.Name(), e.Dim)
	}
	if n := c.ProductEntityCount(e.Dim); e.ID < 0 || e.ID >= n {
		return fmt.Errorf("%w: %s has %d entities of dimension %s, got id %d",
			ErrInvalidEntity, c.Name(), n, e.Dim, e.ID)
	}
	return nil
}
