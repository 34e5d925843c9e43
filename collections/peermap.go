package collections

import "fmt"

type peerEntry[T any] struct {
	val T
	set bool
}

// PeerMap is a dense ordered map over a space of `total` ids that excludes
// exactly one id, the holder's own. It is used both for outgoing
// per-recipient messages and for buffering one incoming message per peer,
// tracking which slots have been filled.
type PeerMap[S, T any] struct {
	self    TypedID[S]
	total   int
	entries []peerEntry[T]
}

// NewPeerMap returns an empty PeerMap over ids [0,total) excluding self.
func NewPeerMap[S, T any](self TypedID[S], total int) (*PeerMap[S, T], error) {
	if total < 1 || self.AsInt() < 0 || self.AsInt() >= total {
		return nil, fmt.Errorf("collections: self id %s out of range [0,%d)", self, total)
	}
	return &PeerMap[S, T]{
		self:    self,
		total:   total,
		entries: make([]peerEntry[T], total-1),
	}, nil
}

func (m *PeerMap[S, T]) slot(id TypedID[S]) (int, error) {
	n := id.AsInt()
	switch {
	case n < 0 || n >= m.total:
		return 0, fmt.Errorf("collections: id %s out of range [0,%d)", id, m.total)
	case n == m.self.AsInt():
		return 0, fmt.Errorf("collections: id %s is the excluded self id", id)
	case n < m.self.AsInt():
		return n, nil
	default:
		return n - 1, nil
	}
}

func (m *PeerMap[S, T]) Self() TypedID[S] {
	return m.self
}

// Len is the number of peer slots, one fewer than the total id count.
func (m *PeerMap[S, T]) Len() int {
	return len(m.entries)
}

func (m *PeerMap[S, T]) Set(id TypedID[S], v T) error {
	i, err := m.slot(id)
	if err != nil {
		return err
	}
	m.entries[i] = peerEntry[T]{val: v, set: true}
	return nil
}

// Has reports whether a value was stored for id. It is false for out-of-range
// ids and for the self id.
func (m *PeerMap[S, T]) Has(id TypedID[S]) bool {
	i, err := m.slot(id)
	if err != nil {
		return false
	}
	return m.entries[i].set
}

func (m *PeerMap[S, T]) Get(id TypedID[S]) (T, error) {
	var zero T
	i, err := m.slot(id)
	if err != nil {
		return zero, err
	}
	if !m.entries[i].set {
		return zero, fmt.Errorf("collections: no value stored for id %s", id)
	}
	return m.entries[i].val, nil
}

// IDs returns every peer id (all ids except self) in ascending order.
func (m *PeerMap[S, T]) IDs() []TypedID[S] {
	ids := make([]TypedID[S], 0, len(m.entries))
	for i := 0; i < m.total; i++ {
		if i == m.self.AsInt() {
			continue
		}
		ids = append(ids, IDFromInt[S](i))
	}
	return ids
}
