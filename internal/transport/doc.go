// Package transport implements the UDP send/receive/retry engine the
// radius package's orchestrator drives: socket creation (with the
// platform address-selection options spec.md Section 6 names),
// retransmission after a fixed per-attempt timeout, and duplicate/stale reply
// rejection ahead of protocol-level validation.
//
// This package does not import the root radius package. The caller
// supplies a ReplyValidator closure that performs digest and identifier
// checks; transport only knows about raw bytes and retry bookkeeping.
// This keeps the dependency graph one-directional (radius -> transport)
// while still letting transport discard a reply before the caller ever
// sees it, the same separation gobfd draws between internal/netio
// (wire I/O) and internal/bfd (protocol state).
package transport
