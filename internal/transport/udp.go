package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// udpConn adapts *net.UDPConn to the PacketConn interface by adding
// LocalAddrPort; every other method comes from *net.UDPConn unchanged.
type udpConn struct {
	*net.UDPConn
}

// DialUDP opens a UDP socket for raddr's address family and applies the
// platform options in opts. It is the default Dialer used when
// Hooks.Dial is nil.
func DialUDP(ctx context.Context, raddr netip.AddrPort, opts DialOptions) (PacketConn, error) {
	restore, err := enterNamespace(opts.Namespace)
	if err != nil {
		return nil, fmt.Errorf("transport: enter namespace: %w", err)
	}
	defer restore()

	network := "udp4"
	if raddr.Addr().Is6() {
		network = "udp6"
	}

	lc := net.ListenConfig{
		Control: controlFunc(opts),
	}
	pc, err := lc.ListenPacket(ctx, network, ":0")
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", network, err)
	}

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("transport: unexpected packet conn type %T", pc)
	}
	return udpConn{conn}, nil
}

// LocalAddrPort returns the address the socket bound to, letting a
// caller derive a NAS-IP-Address from it when nothing more specific is
// configured.
func (c udpConn) LocalAddrPort() netip.AddrPort {
	if a, ok := c.UDPConn.LocalAddr().(*net.UDPAddr); ok {
		return a.AddrPort()
	}
	return netip.AddrPort{}
}
