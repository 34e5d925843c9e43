package key

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/crypto/paillier"
	"github.com/tessella/tessella/crypto/zkp"
)

// !!! if you add a field to a key type, make sure you add it to the TOML
// mirror AND the FromTOML()/TOML() functions too !!!

// SharePublicInfoTOML is the TOML-able version of SharePublicInfo.
type SharePublicInfoTOML struct {
	X         string
	PaillierN string
	ZkNTilde  string
	ZkH1      string
	ZkH2      string
}

// GroupTOML is the TOML-able version of GroupPublicInfo.
type GroupTOML struct {
	ShareCounts []int
	Threshold   int
	PublicKey   string
	Shares      []SharePublicInfoTOML
}

// ShareSecretTOML is the TOML-able version of ShareSecretInfo. It contains
// the secret scalar and decryption-key factors and must only ever be written
// through the secure file helpers.
type ShareSecretTOML struct {
	ShareID   int
	Scalar    string
	PaillierP string
	PaillierQ string
}

// SecretKeyShareTOML is the TOML-able version of SecretKeyShare.
type SecretKeyShareTOML struct {
	Group GroupTOML
	Share ShareSecretTOML
}

// CountsTOML is the TOML-able version of PartyShareCounts, persisted once
// per key directory.
type CountsTOML struct {
	ShareCounts []int
}

// TOML returns the mirror struct of the public info of one share.
func (p *SharePublicInfo) TOML() (SharePublicInfoTOML, error) {
	xb, err := p.X.Bytes()
	if err != nil {
		return SharePublicInfoTOML{}, err
	}
	return SharePublicInfoTOML{
		X:         hex.EncodeToString(xb),
		PaillierN: hex.EncodeToString(p.Ek.Bytes()),
		ZkNTilde:  hex.EncodeToString(p.Zk.NTilde.Bytes()),
		ZkH1:      hex.EncodeToString(p.Zk.H1.Bytes()),
		ZkH2:      hex.EncodeToString(p.Zk.H2.Bytes()),
	}, nil
}

func sharePublicInfoFromTOML(t SharePublicInfoTOML) (*SharePublicInfo, error) {
	xb, err := hex.DecodeString(t.X)
	if err != nil {
		return nil, fmt.Errorf("key: decoding share commitment: %w", err)
	}
	x, err := crypto.ParsePoint(xb)
	if err != nil {
		return nil, err
	}
	nb, err := hex.DecodeString(t.PaillierN)
	if err != nil {
		return nil, fmt.Errorf("key: decoding encryption key: %w", err)
	}
	ek, err := paillier.ParsePublicKey(nb)
	if err != nil {
		return nil, err
	}
	nt, err := hex.DecodeString(t.ZkNTilde)
	if err != nil {
		return nil, fmt.Errorf("key: decoding zk setup: %w", err)
	}
	h1, err := hex.DecodeString(t.ZkH1)
	if err != nil {
		return nil, fmt.Errorf("key: decoding zk setup: %w", err)
	}
	h2, err := hex.DecodeString(t.ZkH2)
	if err != nil {
		return nil, fmt.Errorf("key: decoding zk setup: %w", err)
	}
	zk, err := zkp.ParseSetup(nt, h1, h2)
	if err != nil {
		return nil, err
	}
	return &SharePublicInfo{X: x, Ek: ek, Zk: zk}, nil
}

// TOML returns the mirror struct of the group info.
func (g *GroupPublicInfo) TOML() (GroupTOML, error) {
	yb, err := g.y.Bytes()
	if err != nil {
		return GroupTOML{}, err
	}
	shares := make([]SharePublicInfoTOML, 0, g.shares.Len())
	for _, id := range g.shares.IDs() {
		info, err := g.shares.Get(id)
		if err != nil {
			return GroupTOML{}, err
		}
		t, err := info.TOML()
		if err != nil {
			return GroupTOML{}, err
		}
		shares = append(shares, t)
	}
	return GroupTOML{
		ShareCounts: g.counts.Counts(),
		Threshold:   g.threshold,
		PublicKey:   hex.EncodeToString(yb),
		Shares:      shares,
	}, nil
}

// GroupFromTOML rebuilds the group info from its mirror struct.
func GroupFromTOML(t GroupTOML) (*GroupPublicInfo, error) {
	counts, err := NewPartyShareCounts(t.ShareCounts)
	if err != nil {
		return nil, err
	}
	yb, err := hex.DecodeString(t.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("key: decoding group public key: %w", err)
	}
	y, err := crypto.ParsePoint(yb)
	if err != nil {
		return nil, err
	}
	infos := make([]*SharePublicInfo, 0, len(t.Shares))
	for i := range t.Shares {
		info, err := sharePublicInfoFromTOML(t.Shares[i])
		if err != nil {
			return nil, fmt.Errorf("key: share %d: %w", i, err)
		}
		infos = append(infos, info)
	}
	return NewGroupPublicInfo(counts, t.Threshold, y, collections.NewIDMap[ShareSpace](infos))
}

// TOML returns the mirror struct of the secret info of one share.
func (s *ShareSecretInfo) TOML() ShareSecretTOML {
	p, q := s.dk.Primes()
	return ShareSecretTOML{
		ShareID:   s.id.AsInt(),
		Scalar:    hex.EncodeToString(crypto.ScalarBytes(&s.x)),
		PaillierP: hex.EncodeToString(p.Bytes()),
		PaillierQ: hex.EncodeToString(q.Bytes()),
	}
}

// ShareSecretFromTOML rebuilds the secret info from its mirror struct.
func ShareSecretFromTOML(t ShareSecretTOML) (*ShareSecretInfo, error) {
	sb, err := hex.DecodeString(t.Scalar)
	if err != nil {
		return nil, fmt.Errorf("key: decoding share scalar: %w", err)
	}
	x, err := crypto.ScalarFromBytes(sb)
	if err != nil {
		return nil, err
	}
	pb, err := hex.DecodeString(t.PaillierP)
	if err != nil {
		return nil, fmt.Errorf("key: decoding decryption key: %w", err)
	}
	qb, err := hex.DecodeString(t.PaillierQ)
	if err != nil {
		return nil, fmt.Errorf("key: decoding decryption key: %w", err)
	}
	dk, err := paillier.NewPrivateKeyFromPrimes(new(big.Int).SetBytes(pb), new(big.Int).SetBytes(qb))
	if err != nil {
		return nil, err
	}
	return NewShareSecretInfo(collections.IDFromInt[ShareSpace](t.ShareID), x, dk), nil
}

// TOML returns the mirror struct of a full secret key share.
func (s *SecretKeyShare) TOML() (SecretKeyShareTOML, error) {
	group, err := s.group.TOML()
	if err != nil {
		return SecretKeyShareTOML{}, err
	}
	return SecretKeyShareTOML{Group: group, Share: s.share.TOML()}, nil
}

// SecretKeyShareFromTOML rebuilds a secret key share from its mirror struct.
func SecretKeyShareFromTOML(t SecretKeyShareTOML) (*SecretKeyShare, error) {
	group, err := GroupFromTOML(t.Group)
	if err != nil {
		return nil, err
	}
	share, err := ShareSecretFromTOML(t.Share)
	if err != nil {
		return nil, err
	}
	return NewSecretKeyShare(group, share), nil
}
