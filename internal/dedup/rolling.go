package dedup

import (
	"strings"

	"walletExport/internal/model"
)

// RollingSet is a fixed-capacity membership set. Keys are evicted strictly in
// insertion order once the set is full; lookups do not refresh a key.
// It is not safe for concurrent use.
type RollingSet struct {
	members map[string]struct{}
	ring    []string
	head    int // oldest key when full
	size    int
}

// NewRollingSet returns a set holding at most capacity keys.
func NewRollingSet(capacity int) *RollingSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &RollingSet{
		members: make(map[string]struct{}, capacity),
		ring:    make([]string, capacity),
	}
}

// Has reports whether key is currently admitted.
func (s *RollingSet) Has(key string) bool {
	_, ok := s.members[key]
	return ok
}

// Admit inserts key and reports true, or reports false if it is already
// present. Admitting into a full set evicts the oldest key.
func (s *RollingSet) Admit(key string) bool {
	if _, ok := s.members[key]; ok {
		return false
	}

	if s.size == len(s.ring) {
		delete(s.members, s.ring[s.head])
		s.ring[s.head] = key
		s.head = (s.head + 1) % len(s.ring)
	} else {
		s.ring[(s.head+s.size)%len(s.ring)] = key
		s.size++
	}
	s.members[key] = struct{}{}
	return true
}

// Len returns the number of admitted keys.
func (s *RollingSet) Len() int {
	return s.size
}

// Cap returns the fixed capacity.
func (s *RollingSet) Cap() int {
	return len(s.ring)
}

// Key derives the dedup identity of a transfer. The provider's unique id wins
// when present.
func Key(rec model.TransferRecord) string {
	if rec.UniqueID != "" {
		return rec.UniqueID
	}
	return strings.Join([]string{
		strings.ToLower(rec.Hash),
		string(rec.Category),
		rec.LogIndex,
		rec.TokenID,
		strings.ToLower(rec.From),
		strings.ToLower(rec.To),
	}, "|")
}
