// Package zkp implements the zero-knowledge setup collaborator broadcast
// during keygen: public commitment parameters over an RSA modulus, together
// with a Fiat-Shamir proof that the parameters were honestly formed.
package zkp

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	// DefaultModulusBits is the setup modulus size for production use.
	DefaultModulusBits = 2048
	// UnsafeModulusBits is a reduced size for tests.
	UnsafeModulusBits = 1024

	minModulusBits = 1000
	// challenge size in bits for the Fiat-Shamir proof
	challengeBits = 256
)

var one = big.NewInt(1)

// Setup is the public commitment parameters: a modulus of unknown
// factorization and two group elements h1, h2 with h2 = h1^alpha for a secret
// alpha discarded after setup.
type Setup struct {
	NTilde *big.Int
	H1     *big.Int
	H2     *big.Int
}

// Proof is a Schnorr-style proof of knowledge of alpha with h2 = h1^alpha,
// non-interactive via Fiat-Shamir over the setup and a caller context.
type Proof struct {
	A *big.Int
	Z *big.Int
}

// NewSetup generates a production-sized setup and its validity proof from
// rng, bound to ctx.
func NewSetup(rng io.Reader, ctx []byte) (*Setup, *Proof, error) {
	return newSetup(rng, ctx, DefaultModulusBits)
}

// NewSetupUnsafe generates a reduced-size setup.
// BEWARE: only for faster tests.
func NewSetupUnsafe(rng io.Reader, ctx []byte) (*Setup, *Proof, error) {
	return newSetup(rng, ctx, UnsafeModulusBits)
}

func newSetup(rng io.Reader, ctx []byte, bits int) (*Setup, *Proof, error) {
	p, err := rand.Prime(rng, bits/2)
	if err != nil {
		return nil, nil, fmt.Errorf("zkp: generating prime: %w", err)
	}
	q, err := rand.Prime(rng, bits/2)
	if err != nil {
		return nil, nil, fmt.Errorf("zkp: generating prime: %w", err)
	}
	nt := new(big.Int).Mul(p, q)

	f, err := randomUnit(rng, nt)
	if err != nil {
		return nil, nil, err
	}
	h1 := new(big.Int).Exp(f, big.NewInt(2), nt)

	alpha, err := rand.Int(rng, nt)
	if err != nil {
		return nil, nil, fmt.Errorf("zkp: reading randomness: %w", err)
	}
	h2 := new(big.Int).Exp(h1, alpha, nt)

	setup := &Setup{NTilde: nt, H1: h1, H2: h2}

	// Schnorr proof over a group of unknown order: the response is computed
	// over the integers with the commitment exponent oversized enough to
	// statistically hide alpha.
	rBound := new(big.Int).Lsh(nt, challengeBits+64)
	r, err := rand.Int(rng, rBound)
	if err != nil {
		return nil, nil, fmt.Errorf("zkp: reading randomness: %w", err)
	}
	a := new(big.Int).Exp(h1, r, nt)
	c := fsChallenge(ctx, setup, a)
	z := new(big.Int).Mul(c, alpha)
	z.Add(z, r)

	alpha.SetInt64(0)
	return setup, &Proof{A: a, Z: z}, nil
}

// Verify checks the setup's validity proof under the given context.
func (s *Setup) Verify(proof *Proof, ctx []byte) bool {
	if err := s.validate(); err != nil {
		return false
	}
	if proof == nil || proof.A == nil || proof.Z == nil {
		return false
	}
	if proof.A.Sign() <= 0 || proof.A.Cmp(s.NTilde) >= 0 {
		return false
	}
	// bound the response size so a bogus proof cannot force huge exponentiations
	if proof.Z.Sign() < 0 || proof.Z.BitLen() > s.NTilde.BitLen()+2*challengeBits+64 {
		return false
	}

	c := fsChallenge(ctx, s, proof.A)
	lhs := new(big.Int).Exp(s.H1, proof.Z, s.NTilde)
	rhs := new(big.Int).Exp(s.H2, c, s.NTilde)
	rhs.Mul(rhs, proof.A)
	rhs.Mod(rhs, s.NTilde)
	return lhs.Cmp(rhs) == 0
}

// ParseSetup decodes and sanity-checks wire-form setup parameters.
func ParseSetup(nt, h1, h2 []byte) (*Setup, error) {
	s := &Setup{
		NTilde: new(big.Int).SetBytes(nt),
		H1:     new(big.Int).SetBytes(h1),
		H2:     new(big.Int).SetBytes(h2),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Setup) validate() error {
	if s.NTilde == nil || s.H1 == nil || s.H2 == nil {
		return errors.New("zkp: missing setup parameter")
	}
	if s.NTilde.BitLen() < minModulusBits {
		return fmt.Errorf("zkp: modulus too small (%d bits)", s.NTilde.BitLen())
	}
	if s.NTilde.Bit(0) == 0 {
		return errors.New("zkp: modulus is even")
	}
	for _, h := range []*big.Int{s.H1, s.H2} {
		if h.Cmp(one) <= 0 || h.Cmp(s.NTilde) >= 0 {
			return errors.New("zkp: group element out of range")
		}
	}
	return nil
}

const setupDomain = "tessella-zk-setup-v1"

func fsChallenge(ctx []byte, s *Setup, a *big.Int) *big.Int {
	h := sha256.New()
	h.Write([]byte(setupDomain))
	h.Write(ctx)
	h.Write(s.NTilde.Bytes())
	h.Write(s.H1.Bytes())
	h.Write(s.H2.Bytes())
	h.Write(a.Bytes())
	return new(big.Int).SetBytes(h.Sum(nil))
}

func randomUnit(rng io.Reader, n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rng, n)
		if err != nil {
			return nil, fmt.Errorf("zkp: reading randomness: %w", err)
		}
		if r.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, n).Cmp(one) == 0 {
			return r, nil
		}
	}
}
