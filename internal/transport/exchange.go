package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"syscall"
	"time"
)

// ReplyValidator is called once per datagram received on the
// transaction's socket. It returns:
//
//   - accept=true, err=nil: this is the answer Exchange should return.
//   - accept=false, err=nil: the datagram doesn't match the
//     outstanding request (a duplicate, a reply to a prior attempt, or
//     one that simply doesn't belong here) but isn't otherwise wrong;
//     Exchange keeps waiting for a better candidate.
//   - err non-nil: the datagram claims to answer this request but
//     fails validation (bad digest, malformed attributes, ...).
//     Exchange aborts immediately and returns err to the caller rather
//     than retrying, since retrying can't produce a different
//     validator result for the same id — only the caller is
//     positioned to decide whether the underlying transaction is
//     retryable.
//
// Exchange never inspects the datagram itself; this keeps the package
// free of any dependency on the RADIUS wire format (see doc.go).
type ReplyValidator func(b []byte) (accept bool, err error)

// Options configures one Exchange call's retry budget.
type Options struct {
	// Timeout is the per-attempt wait before retransmitting.
	Timeout time.Duration

	// MaxRetries is the number of retransmissions after the first send;
	// total attempts made is MaxRetries+1.
	MaxRetries int

	// Dial overrides DialUDP; nil uses the package default.
	Dial Dialer

	// DialOpts is passed through to Dial.
	DialOpts DialOptions

	// Conn, if non-nil, is used instead of dialing a new connection —
	// for a caller that already opened one to learn its locally-bound
	// address (see Dial) before building the packet it's about to
	// exchange. Exchange takes ownership and closes it on return either way.
	Conn PacketConn

	// Lock, if non-nil, is held for the full Exchange call.
	Lock interface{ Lock(); Unlock() }
}

// Result carries the accepted reply payload, the number of attempts
// Exchange made before receiving it, and the address the local socket
// ended up bound to.
type Result struct {
	Reply     []byte
	Attempts  int
	LocalAddr netip.Addr
}

// Dial opens the connection a subsequent Exchange call will use,
// returning it alongside its locally-bound address. This lets a caller
// that needs the bound address before it can finish building its
// packet (a NAS-IP-Address derived from it, say) dial once and hand
// the same connection to Exchange via Options.Conn instead of dialing
// twice.
func Dial(ctx context.Context, raddr netip.AddrPort, dial Dialer, opts DialOptions) (PacketConn, netip.Addr, error) {
	if dial == nil {
		dial = DialUDP
	}
	conn, err := dial(ctx, raddr, opts)
	if err != nil {
		return nil, netip.Addr{}, fmt.Errorf("transport: dial: %w", err)
	}
	return conn, conn.LocalAddrPort().Addr(), nil
}

// Exchange sends packet to raddr and waits for a datagram that
// validator accepts, retransmitting on Options.Timeout up to
// Options.MaxRetries times. It returns ErrTimeout if every attempt
// elapses with no accepted reply, ErrNetUnreachable if the kernel ever
// reports the destination unreachable, and whatever error validator
// itself returns if it rejects a reply as invalid rather than merely
// unmatched (see ReplyValidator) — that case aborts immediately
// without consuming the rest of the retry budget.
//
// A datagram whose source address is not raddr's is logged and dropped
// before validation. Every other datagram read from the socket — not
// just the first — is offered to validator, so a duplicate or
// out-of-order reply from a
// previous attempt (or from an unrelated exchange sharing the same
// destination) is silently dropped rather than accepted (spec.md
// Section 8 properties 5-6).
func Exchange(ctx context.Context, raddr netip.AddrPort, packet []byte, validator ReplyValidator, opts Options) (*Result, error) {
	if len(packet) > MaxDatagramSize {
		if opts.Conn != nil {
			opts.Conn.Close()
		}
		return nil, ErrPacketTooLarge
	}

	if opts.Lock != nil {
		opts.Lock.Lock()
		defer opts.Lock.Unlock()
	}

	conn := opts.Conn
	if conn == nil {
		dial := opts.Dial
		if dial == nil {
			dial = DialUDP
		}
		var err error
		conn, err = dial(ctx, raddr, opts.DialOpts)
		if err != nil {
			return nil, fmt.Errorf("transport: dial: %w", err)
		}
	}
	defer conn.Close()

	buf := make([]byte, MaxDatagramSize)
	attempts := 0
	maxTries := opts.MaxRetries + 1

	for attempts < maxTries {
		attempts++

		if _, err := conn.WriteToUDPAddrPort(packet, raddr); err != nil {
			if isUnreachable(err) {
				return nil, ErrNetUnreachable
			}
			return nil, fmt.Errorf("transport: write: %w", err)
		}

		deadline := time.Now().Add(opts.Timeout)
		for {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			if err := conn.SetReadDeadline(deadline); err != nil {
				return nil, fmt.Errorf("transport: set read deadline: %w", err)
			}

			n, from, err := conn.ReadFromUDPAddrPort(buf)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if isTimeout(err) {
					break
				}
				if isUnreachable(err) {
					return nil, ErrNetUnreachable
				}
				return nil, fmt.Errorf("transport: read: %w", err)
			}

			if from.Addr() != raddr.Addr() {
				slog.Default().Warn("dropped datagram from unexpected source",
					slog.String("component", "transport"),
					slog.String("from", from.String()),
					slog.String("expected", raddr.String()))
				continue
			}

			candidate := make([]byte, n)
			copy(candidate, buf[:n])

			accept, verr := validator(candidate)
			if verr != nil {
				slog.Default().Warn("aborting exchange: reply failed validation",
					slog.String("component", "transport"),
					slog.String("error", verr.Error()))
				return nil, verr
			}
			if accept {
				return &Result{Reply: candidate, Attempts: attempts, LocalAddr: conn.LocalAddrPort().Addr()}, nil
			}
		}
	}

	return nil, ErrTimeout
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isUnreachable reports whether err wraps one of the errno values a UDP
// socket surfaces when the kernel receives an ICMP destination-
// unreachable message for a prior write.
func isUnreachable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
