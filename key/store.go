package key

import (
	"fmt"
	"os"
	"path"

	"github.com/BurntSushi/toml"

	"github.com/tessella/tessella/internal/fs"
)

// CountsFileName is the shared accounting blob every key directory carries.
const CountsFileName = "party-share-counts.toml"

// ShareFileName is the per-share key file inside a key directory.
func ShareFileName(id ShareID) string {
	return fmt.Sprintf("share-%d.toml", id.AsInt())
}

// FileStore persists key material as TOML files in a single directory: one
// file per secret key share plus one shared party-share-counts file.
type FileStore struct {
	dir string
}

// NewFileStore opens (creating if needed) a key directory with secure
// permissions.
func NewFileStore(dir string) (*FileStore, error) {
	d, err := fs.CreateSecureFolder(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{dir: d}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

// SaveCounts writes the shared party/share accounting file.
func (s *FileStore) SaveCounts(counts *PartyShareCounts) error {
	return s.writeTOML(CountsFileName, CountsTOML{ShareCounts: counts.Counts()})
}

// LoadCounts reads the shared party/share accounting file.
func (s *FileStore) LoadCounts() (*PartyShareCounts, error) {
	var t CountsTOML
	if err := s.readTOML(CountsFileName, &t); err != nil {
		return nil, err
	}
	return NewPartyShareCounts(t.ShareCounts)
}

// SaveShare writes one secret key share to its file, readable by the owner
// only.
func (s *FileStore) SaveShare(share *SecretKeyShare) error {
	t, err := share.TOML()
	if err != nil {
		return err
	}
	return s.writeTOML(ShareFileName(share.Share().ID()), t)
}

// LoadShare reads one secret key share back.
func (s *FileStore) LoadShare(id ShareID) (*SecretKeyShare, error) {
	var t SecretKeyShareTOML
	if err := s.readTOML(ShareFileName(id), &t); err != nil {
		return nil, err
	}
	share, err := SecretKeyShareFromTOML(t)
	if err != nil {
		return nil, err
	}
	if share.Share().ID() != id {
		return nil, fmt.Errorf("key: file %s holds share %d", ShareFileName(id), share.Share().ID().AsInt())
	}
	return share, nil
}

// LoadPartyShares loads every share belonging to one party.
func (s *FileStore) LoadPartyShares(party PartyID) ([]*SecretKeyShare, error) {
	counts, err := s.LoadCounts()
	if err != nil {
		return nil, err
	}
	count, err := counts.PartyShareCount(party)
	if err != nil {
		return nil, err
	}
	shares := make([]*SecretKeyShare, 0, count)
	for k := 0; k < count; k++ {
		id, err := counts.PartyToShareID(party, k)
		if err != nil {
			return nil, err
		}
		share, err := s.LoadShare(id)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func (s *FileStore) writeTOML(name string, v interface{}) error {
	fd, err := fs.CreateSecureFile(path.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("key: creating %s: %w", name, err)
	}
	defer fd.Close()
	if err := toml.NewEncoder(fd).Encode(v); err != nil {
		return fmt.Errorf("key: encoding %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) readTOML(name string, v interface{}) error {
	b, err := os.ReadFile(path.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("key: reading %s: %w", name, err)
	}
	if err := toml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("key: decoding %s: %w", name, err)
	}
	return nil
}
