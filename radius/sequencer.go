package radius

import "sync/atomic"

// Sequencer allocates the one-octet RADIUS packet identifier (RFC 2865
// Section 3). IDs wrap modulo 256; a single Sequencer is safe to share
// across concurrent SendRequest calls against the same server, matching
// the reference implementation's per-session sequence counter.
type Sequencer struct {
	next atomic.Uint32
}

// NewSequencer returns a Sequencer whose first allocation is start.
func NewSequencer(start uint8) *Sequencer {
	s := &Sequencer{}
	s.next.Store(uint32(start))
	return s
}

// Next returns the next identifier and advances the counter.
func (s *Sequencer) Next() uint8 {
	v := s.next.Add(1) - 1
	return uint8(v)
}
