package radius

// Secret holds a shared secret in memory and wipes it on Wipe. Go has no
// destructors, so wiping is an explicit call (typically a deferred
// Wipe()) in place of the C library's free-on-scope-exit cleanup
// (SPEC_FULL.md Section 5, spec.md Section 9 Design Notes). Nothing in
// this module calls Wipe: the Client, the server table and the commands
// keep their secrets in memory until the owner of the Secret calls it.
//
// Wiping is best-effort: the Go runtime may have copied the backing
// array during a slice grow, and the garbage collector does not promise
// immediate reclamation of unreferenced memory. Treat Secret as hygiene
// against accidental retention through this value's lifetime, not as a
// guarantee that the secret never touched memory elsewhere.
type Secret struct {
	b []byte
}

// NewSecret copies value into a new Secret. The caller retains ownership
// of value; NewSecret does not wipe it.
func NewSecret(value []byte) *Secret {
	b := make([]byte, len(value))
	copy(b, value)
	return &Secret{b: b}
}

// Bytes returns the secret's current byte slice. The returned slice
// aliases the Secret's internal storage and must not be retained past a
// call to Wipe.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len returns the number of bytes currently held.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe overwrites the secret's backing bytes with zeros and drops the
// reference. Safe to call more than once and on a nil Secret.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = nil
}
