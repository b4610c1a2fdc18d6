package gem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Literal is a dense numeric tensor laid out as an optional leading
// component axis over (basis function x point) matrices. A rank 2 literal
// holds exactly one component.
type Literal struct {
	Components []*mat.Dense
	Rank       int // 2 or 3
}

// NewLiteral2 wraps a single (basis function x point) table
func NewLiteral2(m *mat.Dense) *Literal {
	return &Literal{Components: []*mat.Dense{m}, Rank: 2}
}

// NewLiteral3 stacks per-direction tables along a leading axis. All
// components must share the same dimensions.
func NewLiteral3(components []*mat.Dense) (*Literal, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("rank 3 literal needs at least one component")
	}
	r0, c0 := components[0].Dims()
	for n, m := range components[1:] {
		if r, c := m.Dims(); r != r0 || c != c0 {
			return nil, fmt.Errorf("component %d is %dx%d, expected %dx%d",
				n+1, r, c, r0, c0)
		}
	}
	return &Literal{Components: append([]*mat.Dense(nil), components...), Rank: 3}, nil
}

// Shape returns the extents of the literal's axes
func (l *Literal) Shape() []int {
	r, c := l.Components[0].Dims()
	if l.Rank == 2 {
		return []int{r, c}
	}
	return []int{len(l.Components), r, c}
}

// At returns the element addressed by idx, which must have length Rank
func (l *Literal) At(idx ...int) float64 {
	if len(idx) != l.Rank {
		panic(fmt.Sprintf("literal of rank %d indexed with %d indices", l.Rank, len(idx)))
	}
	if l.Rank == 2 {
		return l.Components[0].At(idx[0], idx[1])
	}
	return l.Components[idx[0]].At(idx[1], idx[2])
}
