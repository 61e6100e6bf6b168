package radius

import "errors"

// Sentinel errors for the core protocol codec and orchestrator. Transport
// errors (socket, timeout, unreachable) live in internal/transport.
var (
	// ErrEmptyServerName indicates the request bundle carries no server name.
	ErrEmptyServerName = errors.New("radius: empty server name")

	// ErrServerNotFound indicates the server table has no entry for the
	// requested name/kind pair.
	ErrServerNotFound = errors.New("radius: server not found")

	// ErrPacketTooLarge indicates the encoded packet would exceed MaxPacketSize.
	ErrPacketTooLarge = errors.New("radius: packet exceeds maximum size")

	// ErrAttributeTooLarge indicates an AVP value cannot be represented in
	// the single on-wire length octet (max 253 payload bytes).
	ErrAttributeTooLarge = errors.New("radius: attribute value too large")

	// ErrBadLength indicates a received packet's header length field is
	// out of the valid [20, 4096] range.
	ErrBadLength = errors.New("radius: invalid packet length")

	// ErrShortPacket indicates fewer bytes were received than the header
	// requires, or a byte count that differs from the header's own
	// length field.
	ErrShortPacket = errors.New("radius: packet length does not match declared length")

	// ErrBadID indicates the reply's identifier does not match the
	// identifier of the outstanding request.
	ErrBadID = errors.New("radius: reply id does not match request")

	// ErrBadDigest indicates the response authenticator (or
	// Message-Authenticator) digest did not match the computed value.
	ErrBadDigest = errors.New("radius: reply digest mismatch")

	// ErrZeroAttributeType indicates an attribute walk found a type-0
	// octet, which RFC 2865 never assigns.
	ErrZeroAttributeType = errors.New("radius: attribute type 0 is invalid")

	// ErrShortAttribute indicates an attribute declared a length below
	// the 2-octet header minimum.
	ErrShortAttribute = errors.New("radius: attribute length below minimum")

	// ErrAttributeOverflow indicates an attribute's declared length would
	// read past the end of the packet.
	ErrAttributeOverflow = errors.New("radius: attribute overflows packet")

	// ErrUnrecognizedCode indicates the reply carried a RADIUS code this
	// package does not classify as accept, reject, or challenge.
	ErrUnrecognizedCode = errors.New("radius: unrecognized response code")
)
