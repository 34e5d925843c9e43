package collections

import "fmt"

// Subset is a selection of ids out of a space of maxSize ids, typically used
// to pick the parties taking part in a signing session.
type Subset[S any] struct {
	members []bool
	count   int
}

// NewSubset returns an empty subset over ids [0,maxSize).
func NewSubset[S any](maxSize int) *Subset[S] {
	return &Subset[S]{members: make([]bool, maxSize)}
}

func (s *Subset[S]) Add(id TypedID[S]) error {
	if id.AsInt() < 0 || id.AsInt() >= len(s.members) {
		return fmt.Errorf("collections: id %s out of range [0,%d)", id, len(s.members))
	}
	if s.members[id.AsInt()] {
		return fmt.Errorf("collections: id %s already in subset", id)
	}
	s.members[id.AsInt()] = true
	s.count++
	return nil
}

func (s *Subset[S]) Contains(id TypedID[S]) bool {
	if id.AsInt() < 0 || id.AsInt() >= len(s.members) {
		return false
	}
	return s.members[id.AsInt()]
}

func (s *Subset[S]) Count() int {
	return s.count
}

func (s *Subset[S]) MaxSize() int {
	return len(s.members)
}

// IDs returns the selected ids in ascending order.
func (s *Subset[S]) IDs() []TypedID[S] {
	ids := make([]TypedID[S], 0, s.count)
	for i, in := range s.members {
		if in {
			ids = append(ids, IDFromInt[S](i))
		}
	}
	return ids
}
