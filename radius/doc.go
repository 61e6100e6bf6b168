// Package radius implements the client-side RADIUS (RFC 2865/2866/3579)
// request/response engine: attribute encoding, password obfuscation,
// request/response authenticators, the Message-Authenticator attribute,
// reply validation, and the transaction orchestrator that ties them
// together with a pluggable UDP transport (internal/transport).
//
// The package builds a packet, sends it with retries, validates the
// reply, and returns a parsed attribute set together with a terminal
// Status (OK, Reject, or Challenge), or an error for a timeout or any
// other failure. It does not
// implement a RADIUS server, proxying, CoA/Disconnect, or dictionary
// management; those are left to callers or other packages.
package radius
