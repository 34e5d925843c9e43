// Package paillier implements the homomorphic encryption keypair collaborator
// used by the keygen rounds: keypair generation, encryption of subshares to a
// recipient's public key, and a publicly checkable key-correctness proof.
//
// Only the surface the protocol needs is implemented. Messages are integers
// smaller than the modulus; the subshares exchanged during keygen are 256-bit
// scalars, far below that bound.
package paillier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	// DefaultModulusBits is the modulus size for production keys.
	DefaultModulusBits = 2048
	// UnsafeModulusBits is a reduced modulus size for tests, where prime
	// generation time dominates the run.
	UnsafeModulusBits = 1024

	minModulusBits = 1000
)

var one = big.NewInt(1)

// PublicKey is the encryption key. It is broadcast during keygen and safe to
// share.
type PublicKey struct {
	n  *big.Int
	n2 *big.Int
}

// PrivateKey is the decryption key. It never leaves the party that generated
// it.
type PrivateKey struct {
	p      *big.Int
	q      *big.Int
	lambda *big.Int
	mu     *big.Int
	pub    *PublicKey
}

// GenerateKeyPair generates a fresh keypair with a production-sized modulus,
// drawing all randomness from rng.
func GenerateKeyPair(rng io.Reader) (*PrivateKey, error) {
	return generate(rng, DefaultModulusBits)
}

// GenerateKeyPairUnsafe generates a keypair with a reduced modulus.
// BEWARE: only for faster tests, never for production key material.
func GenerateKeyPairUnsafe(rng io.Reader) (*PrivateKey, error) {
	return generate(rng, UnsafeModulusBits)
}

func generate(rng io.Reader, bits int) (*PrivateKey, error) {
	for {
		p, err := rand.Prime(rng, bits/2)
		if err != nil {
			return nil, fmt.Errorf("paillier: generating prime: %w", err)
		}
		q, err := rand.Prime(rng, bits/2)
		if err != nil {
			return nil, fmt.Errorf("paillier: generating prime: %w", err)
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		pm1 := new(big.Int).Sub(p, one)
		qm1 := new(big.Int).Sub(q, one)
		gcd := new(big.Int).GCD(nil, nil, pm1, qm1)
		lambda := new(big.Int).Mul(pm1, qm1)
		lambda.Div(lambda, gcd)

		// with g = n+1, L(g^lambda mod n^2) = lambda mod n
		mu := new(big.Int).ModInverse(lambda, n)
		if mu == nil {
			continue
		}

		pub := &PublicKey{
			n:  n,
			n2: new(big.Int).Mul(n, n),
		}
		return &PrivateKey{p: p, q: q, lambda: lambda, mu: mu, pub: pub}, nil
	}
}

// PublicKey returns the encryption half of the keypair.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return sk.pub
}

// Primes returns copies of the key's prime factors, for persistence.
func (sk *PrivateKey) Primes() (p, q *big.Int) {
	return new(big.Int).Set(sk.p), new(big.Int).Set(sk.q)
}

// NewPrivateKeyFromPrimes rebuilds a private key from its persisted prime
// factors.
func NewPrivateKeyFromPrimes(p, q *big.Int) (*PrivateKey, error) {
	if p.BitLen() < minModulusBits/2 || q.BitLen() < minModulusBits/2 {
		return nil, errors.New("paillier: persisted primes too small")
	}
	if !p.ProbablyPrime(20) || !q.ProbablyPrime(20) || p.Cmp(q) == 0 {
		return nil, errors.New("paillier: persisted factors are not distinct primes")
	}

	n := new(big.Int).Mul(p, q)
	pm1 := new(big.Int).Sub(p, one)
	qm1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pm1, qm1)
	lambda := new(big.Int).Mul(pm1, qm1)
	lambda.Div(lambda, gcd)
	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errors.New("paillier: persisted key is malformed")
	}

	pub := &PublicKey{n: n, n2: new(big.Int).Mul(n, n)}
	return &PrivateKey{p: new(big.Int).Set(p), q: new(big.Int).Set(q), lambda: lambda, mu: mu, pub: pub}, nil
}

// Wipe destroys the private key material.
func (sk *PrivateKey) Wipe() {
	for _, v := range []*big.Int{sk.p, sk.q, sk.lambda, sk.mu} {
		if v != nil {
			v.SetInt64(0)
		}
	}
}

// N returns the public modulus.
func (pk *PublicKey) N() *big.Int {
	return new(big.Int).Set(pk.n)
}

// Bytes returns the big-endian encoding of the modulus, the wire form of the
// public key.
func (pk *PublicKey) Bytes() []byte {
	return pk.n.Bytes()
}

// ParsePublicKey decodes and sanity-checks a wire-form public key.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	n := new(big.Int).SetBytes(b)
	if n.BitLen() < minModulusBits {
		return nil, fmt.Errorf("paillier: modulus too small (%d bits)", n.BitLen())
	}
	if n.Bit(0) == 0 {
		return nil, errors.New("paillier: modulus is even")
	}
	return &PublicKey{n: n, n2: new(big.Int).Mul(n, n)}, nil
}

// Equals reports whether two public keys share the same modulus.
func (pk *PublicKey) Equals(other *PublicKey) bool {
	return pk.n.Cmp(other.n) == 0
}

// Encrypt encrypts 0 <= m < N under pk, drawing the blinding randomness from
// rng.
func (pk *PublicKey) Encrypt(rng io.Reader, m *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.n) >= 0 {
		return nil, errors.New("paillier: plaintext out of range")
	}
	r, err := randomUnit(rng, pk.n)
	if err != nil {
		return nil, err
	}

	// c = (1 + m*n) * r^n  mod n^2
	c := new(big.Int).Mul(m, pk.n)
	c.Add(c, one)
	c.Mod(c, pk.n2)
	rn := new(big.Int).Exp(r, pk.n, pk.n2)
	c.Mul(c, rn)
	c.Mod(c, pk.n2)
	return c, nil
}

// Decrypt recovers the plaintext of a ciphertext produced under sk's public
// key.
func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	pk := sk.pub
	if c.Sign() <= 0 || c.Cmp(pk.n2) >= 0 {
		return nil, errors.New("paillier: ciphertext out of range")
	}
	if new(big.Int).GCD(nil, nil, c, pk.n).Cmp(one) != 0 {
		return nil, errors.New("paillier: ciphertext not coprime to modulus")
	}

	// m = L(c^lambda mod n^2) * mu  mod n
	u := new(big.Int).Exp(c, sk.lambda, pk.n2)
	u.Sub(u, one)
	u.Div(u, pk.n)
	u.Mul(u, sk.mu)
	u.Mod(u, pk.n)
	return u, nil
}

func randomUnit(rng io.Reader, n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rng, n)
		if err != nil {
			return nil, fmt.Errorf("paillier: reading randomness: %w", err)
		}
		if r.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, n).Cmp(one) == 0 {
			return r, nil
		}
	}
}
