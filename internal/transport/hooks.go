package transport

import (
	"context"
	"net/netip"
	"time"
)

// MaxDatagramSize is the largest UDP payload this package will send or
// accept, matching RADIUS's own packet ceiling (RFC 2865 Section 3).
const MaxDatagramSize = 4096

// PacketConn is the address-port-aware socket API this package needs.
// *net.UDPConn provides every method except LocalAddrPort, which
// DialUDP's udpConn wrapper adds; tests supply an in-memory fake so the
// retry engine can be exercised without a real socket (spec.md Section
// 6 transport hook interface).
type PacketConn interface {
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
	ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error)
	SetReadDeadline(t time.Time) error

	// LocalAddrPort returns the address the connection is bound to, so
	// a caller can derive a NAS-IP-Address from it when nothing more
	// specific is configured (spec.md Section 4.6 step 4).
	LocalAddrPort() netip.AddrPort
	Close() error
}

// Dialer creates the PacketConn an Exchange call writes to and reads
// from. The default, DialUDP, opens a real UDP socket; tests substitute
// a Dialer that returns an in-memory fake.
type Dialer func(ctx context.Context, raddr netip.AddrPort, opts DialOptions) (PacketConn, error)

// DialOptions carries the platform socket options spec.md Section 6
// names as configurable: the network namespace to switch into before
// binding (Linux only), whether to prefer a public source address over
// a temporary/privacy one for IPv6, and the interface to bind to.
type DialOptions struct {
	// Namespace is a Linux network namespace path (e.g.
	// "/var/run/netns/foo") to enter before opening the socket. Empty
	// means the current namespace. Ignored on non-Linux builds.
	Namespace string

	// PreferPublicAddr requests IPV6_PREFER_SRC_PUBLIC on Linux so the
	// kernel picks a stable public source address instead of a
	// temporary RFC 4941 address. Ignored on non-Linux builds.
	PreferPublicAddr bool

	// BindInterface binds the socket to a specific interface
	// (SO_BINDTODEVICE on Linux). Empty means no interface binding.
	BindInterface string
}

// Hooks bundles the overridable parts of a transaction's transport
// behavior. A zero-value Hooks uses DialUDP and no external locking.
type Hooks struct {
	// Dial creates the connection used for one Exchange call. Nil means
	// DialUDP.
	Dial Dialer

	// Lock, if non-nil, is held for the full duration of Exchange (its
	// own dial, if any, through final read or timeout). A connection
	// radius.Client dials ahead of Exchange to learn its local address
	// is opened before the lock is taken. This lets a caller serialize
	// transport use the same way a C client would wrap a single shared
	// socket in a mutex; most callers using one socket per transaction
	// leave this nil.
	Lock interface{ Lock(); Unlock() }

	// StaticSecret, if non-empty, overrides every other secret
	// resolution tier — including the reserved management secret for
	// Service-Type=Administrative requests (spec.md Section 4.6 step
	// 3). It is raw bytes rather than *radius.Secret so this package
	// never has to import the root radius package (see doc.go).
	StaticSecret []byte
}
