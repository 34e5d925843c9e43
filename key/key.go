// Package key defines the keygen index spaces and the key material each
// share holds after key generation: the public group information shared by
// everyone and the secret per-share information owned by exactly one party.
package key

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/crypto/paillier"
	"github.com/tessella/tessella/crypto/zkp"
	"github.com/tessella/tessella/sharing"
)

// PartySpace and ShareSpace are the index-space markers of the keygen
// protocol. Sign sessions use their own spaces; ids never cross.
type (
	PartySpace struct{}
	ShareSpace struct{}
)

type (
	PartyID = collections.TypedID[PartySpace]
	ShareID = collections.TypedID[ShareSpace]

	// PartyShareCounts is the keygen instantiation of the generic
	// accounting type.
	PartyShareCounts = sharing.PartyShareCounts[PartySpace, ShareSpace]
)

// NewPartyShareCounts builds the keygen party/share accounting.
func NewPartyShareCounts(counts []int) (*PartyShareCounts, error) {
	return sharing.NewPartyShareCounts[PartySpace, ShareSpace](counts)
}

// SharePublicInfo is the public data of one share: its public commitment and
// the owning party's encryption key and zero-knowledge setup. Safe to clone
// and broadcast.
type SharePublicInfo struct {
	X  *crypto.Point
	Ek *paillier.PublicKey
	Zk *zkp.Setup
}

// GroupPublicInfo is everything public about a completed keygen: the
// party/share accounting, the threshold, the group public key and each
// share's public info. Every share of every party holds an identical copy.
type GroupPublicInfo struct {
	counts    *PartyShareCounts
	threshold int
	y         *crypto.Point
	shares    *collections.IDMap[ShareSpace, *SharePublicInfo]
}

// NewGroupPublicInfo assembles the group info; the share info map must cover
// exactly the total share count.
func NewGroupPublicInfo(
	counts *PartyShareCounts,
	threshold int,
	y *crypto.Point,
	shares *collections.IDMap[ShareSpace, *SharePublicInfo],
) (*GroupPublicInfo, error) {
	if threshold < 0 || threshold >= counts.TotalShareCount() {
		return nil, fmt.Errorf("key: threshold %d out of range [0,%d)", threshold, counts.TotalShareCount())
	}
	if shares.Len() != counts.TotalShareCount() {
		return nil, fmt.Errorf("key: got %d share infos, want %d", shares.Len(), counts.TotalShareCount())
	}
	return &GroupPublicInfo{counts: counts, threshold: threshold, y: y, shares: shares}, nil
}

func (g *GroupPublicInfo) Counts() *PartyShareCounts { return g.counts }
func (g *GroupPublicInfo) Threshold() int            { return g.threshold }

// Point returns the group public key as a curve point.
func (g *GroupPublicInfo) Point() *crypto.Point { return g.y }

// PubKey returns the group public key signatures verify against.
func (g *GroupPublicInfo) PubKey() (*secp256k1.PublicKey, error) {
	return g.y.PubKey()
}

// SharePublicInfo returns the public info of one share.
func (g *GroupPublicInfo) SharePublicInfo(id ShareID) (*SharePublicInfo, error) {
	return g.shares.Get(id)
}

// ShareSecretInfo is the secret data of one share: its scalar and the owning
// party's decryption key. Exclusively owned; Wipe destroys it.
type ShareSecretInfo struct {
	id ShareID
	x  secp256k1.ModNScalar
	dk *paillier.PrivateKey
}

// NewShareSecretInfo builds the secret info of one share.
func NewShareSecretInfo(id ShareID, x *secp256k1.ModNScalar, dk *paillier.PrivateKey) *ShareSecretInfo {
	s := &ShareSecretInfo{id: id, dk: dk}
	s.x.Set(x)
	return s
}

func (s *ShareSecretInfo) ID() ShareID { return s.id }

// Scalar returns the share's secret scalar. The pointer aliases the share's
// own storage; Wipe invalidates it.
func (s *ShareSecretInfo) Scalar() *secp256k1.ModNScalar {
	return &s.x
}

// DecryptionKey returns the owning party's Paillier decryption key.
func (s *ShareSecretInfo) DecryptionKey() *paillier.PrivateKey {
	return s.dk
}

// Wipe zeroes the secret scalar and decryption key.
func (s *ShareSecretInfo) Wipe() {
	s.x.Zero()
	if s.dk != nil {
		s.dk.Wipe()
	}
}

// SecretKeyShare is one share's complete key material.
type SecretKeyShare struct {
	group *GroupPublicInfo
	share *ShareSecretInfo
}

func NewSecretKeyShare(group *GroupPublicInfo, share *ShareSecretInfo) *SecretKeyShare {
	return &SecretKeyShare{group: group, share: share}
}

func (s *SecretKeyShare) Group() *GroupPublicInfo { return s.group }
func (s *SecretKeyShare) Share() *ShareSecretInfo { return s.share }

// Wipe destroys the secret half; the group info is public and left intact.
func (s *SecretKeyShare) Wipe() {
	s.share.Wipe()
}
