package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Sequence hands out monotonically increasing zero-padded identifiers
// ("ORD000001", "TRD000042"). Next is linearizable: no two callers ever
// observe the same value.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

func (s *Sequence) Next() string {
	s.mu.Lock()
	n := s.next
	s.next++
	s.mu.Unlock()
	return fmt.Sprintf("%s%06d", s.prefix, n)
}

// Resume moves the counter past an identifier recovered from disk, so fresh
// identifiers never collide with pre-restart ones. Lower values are ignored.
func (s *Sequence) Resume(seq uint64) {
	s.mu.Lock()
	if seq >= s.next {
		s.next = seq + 1
	}
	s.mu.Unlock()
}

// Current returns the highest value handed out so far (0 if none).
func (s *Sequence) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next - 1
}

// Suffix extracts the numeric suffix of a prefixed identifier.
func (s *Sequence) Suffix(id string) (uint64, bool) {
	rest := strings.TrimPrefix(id, s.prefix)
	if rest == id {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
