package radius

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	mrand "math/rand/v2"
	"os"
	"sync"
	"syscall"
)

// NonceSize is the length in bytes of a RADIUS 16-octet authenticator
// or request-vector field (RFC 2865 Section 3).
const NonceSize = 16

// NonceSource produces 16-byte unpredictable vectors for request
// authenticators (spec.md Section 4.1). The default source tries
// crypto/rand first; Client accepts an alternate source for testing.
type NonceSource interface {
	Nonce() ([16]byte, error)
}

// nonceSourceFunc adapts a function to NonceSource.
type nonceSourceFunc func() ([16]byte, error)

func (f nonceSourceFunc) Nonce() ([16]byte, error) { return f() }

// DefaultNonceSource returns the package's standard entropy chain:
// crypto/rand.Reader, falling back to a direct /dev/urandom read (with
// EINTR retried) if crypto/rand returns an error, and finally to a
// seeded math/rand/v2 generator if both system sources fail. The final
// fallback is not cryptographically secure and only exists so a request
// can still be sent (degraded) rather than the caller being blocked
// entirely on a misconfigured sandbox with no entropy source (spec.md
// Section 9 Design Notes, mirrored from rc_random_vector's layered
// fallback in the reference implementation).
func DefaultNonceSource() NonceSource {
	return nonceSourceFunc(readNonce)
}

var insecureFallback struct {
	once sync.Once
	src  *mrand.ChaCha8
	mu   sync.Mutex
}

func readNonce() ([16]byte, error) {
	var out [16]byte

	if _, err := io.ReadFull(rand.Reader, out[:]); err == nil {
		return out, nil
	}

	if err := readURandom(out[:]); err == nil {
		return out, nil
	}

	insecureFallback.once.Do(func() {
		var seed [32]byte
		var t [8]byte
		binary.LittleEndian.PutUint64(t[:], uint64(os.Getpid()))
		copy(seed[:8], t[:])
		insecureFallback.src = mrand.NewChaCha8(seed)
	})
	insecureFallback.mu.Lock()
	insecureFallback.src.Read(out[:])
	insecureFallback.mu.Unlock()
	return out, nil
}

// readURandom opens /dev/urandom directly and retries short reads
// interrupted by EINTR, the failure mode crypto/rand.Reader already
// handles internally on most platforms but which this fallback path
// re-implements explicitly since it bypasses crypto/rand entirely.
func readURandom(buf []byte) error {
	f, err := os.Open("/dev/urandom")
	if err != nil {
		return err
	}
	defer f.Close()

	for n := 0; n < len(buf); {
		m, err := f.Read(buf[n:])
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return err
		}
		n += m
	}
	return nil
}
