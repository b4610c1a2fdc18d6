package gem

import (
	"strings"
)

// Expr is a node of a recipe instruction tree
type Expr interface {
	String() string
	// expr restricts implementations to this package
	expr()
}

// Indexed is a variable subscripted by an ordered list of indices
type Indexed struct {
	Variable *Variable
	Indices  []*Index
}

// Product multiplies its factors elementwise over their shared indices
type Product struct {
	Factors []Expr
}

// IndexSum contracts Body over Index; Index is bound inside the sum
type IndexSum struct {
	Index *Index
	Body  Expr
}

func (*Indexed) expr()  {}
func (*Product) expr()  {}
func (*IndexSum) expr() {}

// At subscripts the variable with the given indices
func (v *Variable) At(indices ...*Index) *Indexed {
	idx := make([]*Index, len(indices))
	copy(idx, indices)
	return &Indexed{Variable: v, Indices: idx}
}

// Mul builds the product of the given factors
func Mul(factors ...Expr) *Product {
	f := make([]Expr, len(factors))
	copy(f, factors)
	return &Product{Factors: f}
}

// Sum contracts body over index
func Sum(index *Index, body Expr) *IndexSum {
	return &IndexSum{Index: index, Body: body}
}

func (e *Indexed) String() string {
	var sb strings.Builder
	sb.WriteString(e.Variable.String())
	sb.WriteString("[")
	for i, idx := range e.Indices {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(idx.String())
	}
	sb.WriteString("]")
	return sb.String()
}

func (e *Product) String() string {
	parts := make([]string, len(e.Factors))
	for i, f := range e.Factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, " * ")
}

func (e *IndexSum) String() string {
	return "sum_{" + e.Index.String() + "}(" + e.Body.String() + ")"
}

// FreeIndices returns the indices of e that are not bound by an enclosing
// IndexSum, in order of first appearance.
func FreeIndices(e Expr) []*Index {
	var (
		free  []*Index
		seen  = make(map[*Index]bool)
		bound = make(map[*Index]int)
	)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Indexed:
			for _, idx := range n.Indices {
				if bound[idx] > 0 || seen[idx] {
					continue
				}
				seen[idx] = true
				free = append(free, idx)
			}
		case *Product:
			for _, f := range n.Factors {
				walk(f)
			}
		case *IndexSum:
			bound[n.Index]++
			walk(n.Body)
			bound[n.Index]--
		}
	}
	walk(e)
	return free
}

// Binders returns every index bound by an IndexSum within e
func Binders(e Expr) []*Index {
	var out []*Index
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Product:
			for _, f := range n.Factors {
				walk(f)
			}
		case *IndexSum:
			out = append(out, n.Index)
			walk(n.Body)
		}
	}
	walk(e)
	return out
}

// Variables returns the variables referenced by e, in order of first appearance
func Variables(e Expr) []*Variable {
	var (
		out  []*Variable
		seen = make(map[*Variable]bool)
	)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Indexed:
			if !seen[n.Variable] {
				seen[n.Variable] = true
				out = append(out, n.Variable)
			}
		case *Product:
			for _, f := range n.Factors {
				walk(f)
			}
		case *IndexSum:
			walk(n.Body)
		}
	}
	walk(e)
	return out
}
