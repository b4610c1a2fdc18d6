package gem

import "fmt"

// IndexKind classifies the role an index plays in a tensor expression
type IndexKind uint8

const (
	BasisFunctionIndex IndexKind = iota // runs over the element's basis functions
	PointIndex                          // runs over the points of a point set
	DimensionIndex                      // runs over reference spatial directions
)

func (k IndexKind) String() string {
	switch k {
	case BasisFunctionIndex:
		return "BasisFunction"
	case PointIndex:
		return "Point"
	case DimensionIndex:
		return "Dimension"
	default:
		return fmt.Sprintf("IndexKind(%d)", uint8(k))
	}
}

func (k IndexKind) prefix() string {
	switch k {
	case BasisFunctionIndex:
		return "i"
	case PointIndex:
		return "q"
	case DimensionIndex:
		return "alpha"
	default:
		return "x"
	}
}

// Index is a symbolic free or bound variable of a tensor expression.
// Two indices are the same index only if they were minted by the same Arena
// call; kind and extent never make two indices equal.
type Index struct {
	id     uint64
	Kind   IndexKind
	Extent int
}

// ID returns the token minted for this index
func (i *Index) ID() uint64 { return i.id }

func (i *Index) String() string {
	return fmt.Sprintf("%s%d", i.Kind.prefix(), i.id)
}

// Variable is a named external tensor: either a tabulation handle whose
// numeric value is supplied later, or a kernel parameter such as a
// coefficient vector.
type Variable struct {
	id   uint64
	Name string
}

// ID returns the token minted for this variable
func (v *Variable) ID() uint64 { return v.id }

func (v *Variable) String() string { return v.Name }

// Arena mints indices and variables with unique tokens. An Arena belongs to
// a single compilation session and is not safe for concurrent use.
type Arena struct {
	next uint64
}

func (a *Arena) mint() uint64 {
	a.next++
	return a.next
}

// Index mints a new index of the given kind and extent
func (a *Arena) Index(kind IndexKind, extent int) *Index {
	return &Index{id: a.mint(), Kind: kind, Extent: extent}
}

// Variable mints a new variable. The token is appended to prefix to build
// a name that is unique within the arena.
func (a *Arena) Variable(prefix string) *Variable {
	id := a.mint()
	return &Variable{id: id, Name: fmt.Sprintf("%s_e%d", prefix, id)}
}

// NamedVariable mints a variable that keeps the caller's name verbatim,
// typically a kernel argument like a coefficient array.
func (a *Arena) NamedVariable(name string) *Variable {
	return &Variable{id: a.mint(), Name: name}
}
