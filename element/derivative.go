package element

import (
	"errors"
	"fmt"
)

// Error kinds raised by elements and evaluation builders. They signal
// contract violations and are never retried.
var (
	ErrInvalidTopology      = errors.New("invalid topology")
	ErrInvalidEntity        = errors.New("invalid entity")
	ErrInconsistentDegree   = errors.New("inconsistent degree")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Derivative selects the differential operator applied before evaluation
type Derivative uint8

const (
	NoDerivative Derivative = iota
	Gradient
	Hessian
	Divergence
	Curl
)

func (d Derivative) String() string {
	switch d {
	case NoDerivative:
		return "none"
	case Gradient:
		return "grad"
	case Hessian:
		return "hessian"
	case Divergence:
		return "div"
	case Curl:
		return "curl"
	default:
		return fmt.Sprintf("Derivative(%d)", uint8(d))
	}
}

// Order returns the tabulation order needed for d. Only value and first
// derivative evaluation are supported.
func (d Derivative) Order() (int, error) {
	switch d {
	case NoDerivative:
		return 0, nil
	case Gradient:
		return 1, nil
	case Hessian, Divergence, Curl:
		return 0, fmt.Errorf("%w: %s evaluation", ErrUnsupportedOperation, d)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedOperation, d)
	}
}
