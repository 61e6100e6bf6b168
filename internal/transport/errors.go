package transport

import "errors"

var (
	// ErrTimeout indicates every retry attempt elapsed with no accepted
	// reply.
	ErrTimeout = errors.New("transport: retry budget exhausted")

	// ErrNetUnreachable indicates the kernel reported the destination
	// network or host as unreachable (ICMP destination-unreachable
	// surfaced through the socket).
	ErrNetUnreachable = errors.New("transport: network unreachable")

	// ErrPacketTooLarge indicates the caller asked to send a packet
	// larger than MaxDatagramSize.
	ErrPacketTooLarge = errors.New("transport: packet exceeds maximum datagram size")

	// ErrClosed indicates the connection was closed while a send/receive
	// was in flight.
	ErrClosed = errors.New("transport: connection closed")
)
