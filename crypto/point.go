package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Point is a secp256k1 curve point kept in normalized affine coordinates.
// The zero value is the point at infinity.
type Point struct {
	p secp256k1.JacobianPoint
}

// BaseMult returns k*G.
func BaseMult(k *secp256k1.ModNScalar) *Point {
	var r Point
	secp256k1.ScalarBaseMultNonConst(k, &r.p)
	r.p.ToAffine()
	return &r
}

// Add returns p+q.
func (p *Point) Add(q *Point) *Point {
	var r Point
	secp256k1.AddNonConst(&p.p, &q.p, &r.p)
	r.p.ToAffine()
	return &r
}

// Mul returns k*p.
func (p *Point) Mul(k *secp256k1.ModNScalar) *Point {
	var r Point
	secp256k1.ScalarMultNonConst(k, &p.p, &r.p)
	r.p.ToAffine()
	return &r
}

// IsInfinity reports whether p is the point at infinity.
func (p *Point) IsInfinity() bool {
	return (p.p.X.IsZero() && p.p.Y.IsZero()) || p.p.Z.IsZero()
}

func (p *Point) Equals(q *Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() && q.IsInfinity()
	}
	return p.p.X.Equals(&q.p.X) && p.p.Y.Equals(&q.p.Y)
}

// PubKey converts p into a secp256k1 public key. p must not be infinity.
func (p *Point) PubKey() (*secp256k1.PublicKey, error) {
	if p.IsInfinity() {
		return nil, fmt.Errorf("crypto: point at infinity is not a public key")
	}
	return secp256k1.NewPublicKey(&p.p.X, &p.p.Y), nil
}

// Bytes returns the 33-byte compressed SEC encoding of p.
func (p *Point) Bytes() ([]byte, error) {
	pk, err := p.PubKey()
	if err != nil {
		return nil, err
	}
	return pk.SerializeCompressed(), nil
}

// ParsePoint decodes a compressed SEC point, rejecting encodings that are not
// on the curve.
func ParsePoint(b []byte) (*Point, error) {
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("crypto: parsing point: %w", err)
	}
	u := pk.SerializeUncompressed()
	var r Point
	if overflow := r.p.X.SetByteSlice(u[1:33]); overflow {
		return nil, fmt.Errorf("crypto: point x coordinate out of range")
	}
	if overflow := r.p.Y.SetByteSlice(u[33:65]); overflow {
		return nil, fmt.Errorf("crypto: point y coordinate out of range")
	}
	r.p.Z.SetInt(1)
	return &r, nil
}
