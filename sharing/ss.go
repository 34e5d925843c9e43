package sharing

import (
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/tessella/tessella/crypto"
)

// Share is one unit of a split secret: the global share id and the polynomial
// evaluation at that share's point. The scalar is wiped with Wipe once the
// holder is done with it.
type Share struct {
	id     int
	scalar secp256k1.ModNScalar
}

// NewShare builds a share from an id and a scalar value.
func NewShare(id int, scalar *secp256k1.ModNScalar) Share {
	var s Share
	s.id = id
	s.scalar.Set(scalar)
	return s
}

func (s *Share) ID() int {
	return s.id
}

// Scalar returns the share's secret value. The pointer aliases the share's
// own storage; Wipe invalidates it.
func (s *Share) Scalar() *secp256k1.ModNScalar {
	return &s.scalar
}

// X returns the non-zero evaluation point of this share, id+1.
func (s *Share) X() *secp256k1.ModNScalar {
	return EvalPoint(s.id)
}

// Wipe zeroes the share's secret scalar.
func (s *Share) Wipe() {
	s.scalar.Zero()
}

// EvalPoint returns the polynomial evaluation point of a share id: the
// non-zero field element id+1.
func EvalPoint(id int) *secp256k1.ModNScalar {
	x := new(secp256k1.ModNScalar)
	x.SetInt(uint32(id) + 1)
	return x
}

// Polynomial is a random polynomial of degree t over the secp256k1 scalar
// field. Evaluations at points 1..n form the shares; the constant term is
// the shared secret. Any t+1 shares determine the polynomial uniquely, any
// t or fewer reveal nothing about the secret.
type Polynomial struct {
	coeffs []secp256k1.ModNScalar
}

// NewPolynomial samples a fresh polynomial of degree threshold, secret
// included, from rng.
func NewPolynomial(threshold int, rng io.Reader) (*Polynomial, error) {
	secret, err := crypto.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	defer secret.Zero()
	return NewPolynomialFromSecret(threshold, secret, rng)
}

// NewPolynomialFromSecret samples a polynomial of degree threshold whose
// constant term is the given, already-existing secret. This is the
// redistribution (bring-your-own-key) mode: the dealer knows the secret
// while splitting it, unlike distributed keygen where nobody ever does.
func NewPolynomialFromSecret(threshold int, secret *secp256k1.ModNScalar, rng io.Reader) (*Polynomial, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("sharing: negative threshold %d", threshold)
	}
	if secret.IsZero() {
		return nil, fmt.Errorf("sharing: zero secret")
	}
	p := &Polynomial{coeffs: make([]secp256k1.ModNScalar, threshold+1)}
	p.coeffs[0].Set(secret)
	for i := 1; i <= threshold; i++ {
		c, err := crypto.RandomScalar(rng)
		if err != nil {
			p.Wipe()
			return nil, err
		}
		p.coeffs[i].Set(c)
		c.Zero()
	}
	return p, nil
}

func (p *Polynomial) Threshold() int {
	return len(p.coeffs) - 1
}

// Evaluate computes p(x) by Horner's rule.
func (p *Polynomial) Evaluate(x *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	acc := new(secp256k1.ModNScalar)
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		acc.Mul(x)
		acc.Add(&p.coeffs[i])
	}
	return acc
}

// Shares evaluates the polynomial at the n distinct non-zero points 1..n.
// n must exceed the threshold, otherwise the secret could never be
// reconstructed; that is a caller error rejected before splitting.
func (p *Polynomial) Shares(n int) ([]Share, error) {
	if n <= p.Threshold() {
		return nil, fmt.Errorf("sharing: share count %d must exceed threshold %d", n, p.Threshold())
	}
	if n > MaxTotalShareCount {
		return nil, fmt.Errorf("sharing: share count %d exceeds cap %d", n, MaxTotalShareCount)
	}
	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		y := p.Evaluate(EvalPoint(i))
		shares[i] = NewShare(i, y)
		y.Zero()
	}
	return shares, nil
}

// Commitments returns the Feldman commitment to the polynomial: one curve
// point per coefficient. The commitment is public; evaluating it "in the
// exponent" lets anyone check a share against the dealer's polynomial.
func (p *Polynomial) Commitments() []*crypto.Point {
	out := make([]*crypto.Point, len(p.coeffs))
	for i := range p.coeffs {
		out[i] = crypto.BaseMult(&p.coeffs[i])
	}
	return out
}

// Wipe zeroes every coefficient, the secret included.
func (p *Polynomial) Wipe() {
	for i := range p.coeffs {
		p.coeffs[i].Zero()
	}
}

// EvalCommitments evaluates a Feldman commitment at x, yielding the public
// point of the share at x. The commitment must be non-empty.
func EvalCommitments(commitments []*crypto.Point, x *secp256k1.ModNScalar) (*crypto.Point, error) {
	if len(commitments) == 0 {
		return nil, fmt.Errorf("sharing: empty commitment")
	}
	acc := commitments[len(commitments)-1]
	for i := len(commitments) - 2; i >= 0; i-- {
		acc = acc.Mul(x).Add(commitments[i])
	}
	return acc, nil
}

// Interpolate reconstructs the polynomial's value at zero, the secret, from
// the given shares by Lagrange interpolation. The shares must carry distinct
// ids; t+1 shares of a degree-t polynomial reconstruct exactly.
func Interpolate(shares []Share) (*secp256k1.ModNScalar, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("sharing: no shares to interpolate")
	}
	seen := make(map[int]bool, len(shares))
	for i := range shares {
		if seen[shares[i].id] {
			return nil, fmt.Errorf("sharing: duplicate share id %d", shares[i].id)
		}
		seen[shares[i].id] = true
	}

	sum := new(secp256k1.ModNScalar)
	for i := range shares {
		num := new(secp256k1.ModNScalar)
		num.SetInt(1)
		den := new(secp256k1.ModNScalar)
		den.SetInt(1)
		xi := shares[i].X()
		for j := range shares {
			if j == i {
				continue
			}
			xj := shares[j].X()
			num.Mul(xj)
			// den *= xj - xi
			d := new(secp256k1.ModNScalar)
			d.Set(xi)
			d.Negate()
			d.Add(xj)
			den.Mul(d)
		}
		lambda := den.InverseNonConst()
		lambda.Mul(num)
		term := new(secp256k1.ModNScalar)
		term.Set(&shares[i].scalar)
		term.Mul(lambda)
		sum.Add(term)
		term.Zero()
	}
	return sum, nil
}
