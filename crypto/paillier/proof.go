package paillier

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"
)

// ProofIterations is the number of challenge/response pairs in a key
// correctness proof. It is capped by the wire-message budget of the keygen
// broadcast that carries the proof.
const ProofIterations = 4

const proofDomain = "tessella-paillier-correctness-v1"

// Proof attests that a public modulus was honestly generated: each element is
// an N-th root of a challenge derived from the proof context, which only the
// holder of the factorization can compute.
type Proof [][]byte

// CorrectnessProof proves that sk's modulus is well formed, bound to ctx
// (typically the owning party's id).
func (sk *PrivateKey) CorrectnessProof(ctx []byte) (Proof, error) {
	n := sk.pub.n
	// d = n^-1 mod lambda, so that x^(n*d) = x for x in Z_n*
	d := new(big.Int).ModInverse(new(big.Int).Mod(n, sk.lambda), sk.lambda)
	if d == nil {
		return nil, errors.New("paillier: modulus not coprime to carmichael value")
	}

	proof := make(Proof, ProofIterations)
	for i := 0; i < ProofIterations; i++ {
		x := challenge(ctx, n, i)
		sigma := new(big.Int).Exp(x, d, n)
		proof[i] = sigma.Bytes()
	}
	return proof, nil
}

// VerifyCorrectness checks a correctness proof against pk and the context the
// prover claims.
func (pk *PublicKey) VerifyCorrectness(proof Proof, ctx []byte) bool {
	if len(proof) != ProofIterations {
		return false
	}
	for i := 0; i < ProofIterations; i++ {
		x := challenge(ctx, pk.n, i)
		sigma := new(big.Int).SetBytes(proof[i])
		if sigma.Sign() <= 0 || sigma.Cmp(pk.n) >= 0 {
			return false
		}
		if new(big.Int).Exp(sigma, pk.n, pk.n).Cmp(x) != 0 {
			return false
		}
	}
	return true
}

// challenge derives the i-th nonzero challenge in [1, n) from the proof
// domain, the context and the modulus.
func challenge(ctx []byte, n *big.Int, i int) *big.Int {
	nBytes := n.Bytes()
	need := len(nBytes) + 16
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(i))

	for ctr := uint64(0); ; ctr++ {
		var stream []byte
		var blk [8]byte
		binary.BigEndian.PutUint64(blk[:], ctr)
		for block := uint64(0); len(stream) < need; block++ {
			h := sha256.New()
			h.Write([]byte(proofDomain))
			h.Write(blk[:])
			h.Write(idx[:])
			h.Write(ctx)
			h.Write(nBytes)
			var bi [8]byte
			binary.BigEndian.PutUint64(bi[:], block)
			h.Write(bi[:])
			stream = h.Sum(stream)
		}
		x := new(big.Int).SetBytes(stream[:need])
		x.Mod(x, n)
		if x.Sign() != 0 {
			return x
		}
	}
}
