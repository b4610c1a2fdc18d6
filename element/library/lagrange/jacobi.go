package lagrange

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiP evaluates the orthonormal Jacobi polynomial of type (alpha,beta)
// and order n at points x
func JacobiP(x []float64, alpha, beta float64, n int) []float64 {
	Np := len(x)
	gamma0 := Gamma0(alpha, beta)
	pm1 := make([]float64, Np) // P_{i-1}
	for i := range pm1 {
		pm1[i] = 1.0 / math.Sqrt(gamma0)
	}
	if n == 0 {
		return pm1
	}

	gamma1 := Gamma1(alpha, beta)
	p := make([]float64, Np) // P_i
	for i := range p {
		p[i] = ((alpha+beta+2)*x[i]/2 + (alpha-beta)/2) / math.Sqrt(gamma1)
	}
	if n == 1 {
		return p
	}

	// Three term recurrence
	aold := 2.0 / (2.0 + alpha + beta) * math.Sqrt((alpha+1)*(beta+1)/(alpha+beta+3))
	for i := 1; i < n; i++ {
		fi := float64(i)
		h1 := 2*fi + alpha + beta
		anew := 2.0 / (h1 + 2) * math.Sqrt((fi+1)*(fi+1+alpha+beta)*
			(fi+1+alpha)*(fi+1+beta)/(h1+1)/(h1+3))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2)
		next := make([]float64, Np)
		for j := range next {
			next[j] = 1 / anew * (-aold*pm1[j] + (x[j]-bnew)*p[j])
		}
		pm1, p = p, next
		aold = anew
	}
	return p
}

// GradJacobiP evaluates the derivative of the orthonormal Jacobi polynomial
// of type (alpha,beta) and order n at points x
func GradJacobiP(x []float64, alpha, beta float64, n int) []float64 {
	dP := make([]float64, len(x))
	if n == 0 {
		return dP
	}
	// d/dx P_n^(a,b)(x) = sqrt(n(n+a+b+1)) * P_{n-1}^(a+1,b+1)(x)
	pTemp := JacobiP(x, alpha+1, beta+1, n-1)
	fn := float64(n)
	for i := range dP {
		dP[i] = math.Sqrt(fn*(fn+alpha+beta+1)) * pTemp[i]
	}
	return dP
}

func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	return math.Gamma(alpha+1) * math.Gamma(beta+1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func Gamma1(alpha, beta float64) float64 {
	return (alpha + 1) * (beta + 1) * Gamma0(alpha, beta) / (alpha + beta + 3)
}

// JacobiGQ computes the N+1 Gauss quadrature nodes of the Jacobi weight
// (alpha,beta) in ascending order, from the eigenvalues of the symmetric
// tridiagonal Jacobi matrix
func JacobiGQ(alpha, beta float64, N int) ([]float64, error) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, nil
	}
	n := N + 1
	h1 := make([]float64, n)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	JJ := mat.NewSymDense(n, nil)
	fac := beta*beta - alpha*alpha
	for i := 0; i < n; i++ {
		// main diagonal
		if alpha+beta < 1e-15 && i == 0 {
			JJ.SetSym(i, i, 0)
		} else {
			JJ.SetSym(i, i, fac/(h1[i]*(h1[i]+2)))
		}
		// first off diagonal
		if i < N {
			ip1 := float64(i + 1)
			JJ.SetSym(i, i+1, 2/(h1[i]+2)*math.Sqrt(
				ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h1[i]+1)/(h1[i]+3)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, false); !ok {
		return nil, fmt.Errorf("eigenvalue decomposition failed for Jacobi matrix of order %d", N)
	}
	return eig.Values(nil), nil
}

// JacobiGL computes the N+1 Gauss-Lobatto nodes of the Jacobi weight
// (alpha,beta) in ascending order: the endpoints -1, 1 and the zeros of
// P'_N^(alpha,beta)
func JacobiGL(alpha, beta float64, N int) ([]float64, error) {
	switch N {
	case 0:
		return []float64{0}, nil
	case 1:
		return []float64{-1, 1}, nil
	}
	xint, err := JacobiGQ(alpha+1, beta+1, N-2)
	if err != nil {
		return nil, err
	}
	x := make([]float64, N+1)
	x[0] = -1
	copy(x[1:N], xint)
	x[N] = 1
	return x, nil
}

// Vandermonde1D builds V_{ij} = P_j(r_i) for the orthonormal Legendre
// polynomials up to order N
func Vandermonde1D(N int, r []float64) *mat.Dense {
	V := mat.NewDense(len(r), N+1, nil)
	for j := 0; j <= N; j++ {
		V.SetCol(j, JacobiP(r, 0, 0, j))
	}
	return V
}

// GradVandermonde1D builds Vr_{ij} = dP_j/dr (r_i)
func GradVandermonde1D(N int, r []float64) *mat.Dense {
	Vr := mat.NewDense(len(r), N+1, nil)
	for j := 0; j <= N; j++ {
		Vr.SetCol(j, GradJacobiP(r, 0, 0, j))
	}
	return Vr
}
