package radius

import "fmt"

// Code is the one-octet RADIUS packet code (RFC 2865 Section 3).
type Code uint8

// RADIUS packet codes used by this engine (RFC 2865 Section 3, RFC 2866
// Section 4, RFC 2865 Section 5.44 for Message-Authenticator's host code).
const (
	CodeAccessRequest      Code = 1
	CodeAccessAccept       Code = 2
	CodeAccessReject       Code = 3
	CodeAccountingRequest  Code = 4
	CodeAccountingResponse Code = 5
	CodeAccessChallenge    Code = 11
	CodeStatusServer       Code = 12

	// CodePasswordAck and CodePasswordReject are legacy names for
	// Access-Accept/Access-Reject carried over from early RADIUS
	// deployments. They share the same numeric values as the modern
	// names (see SPEC_FULL.md Open Question decisions), so Classify
	// needs no separate branch for them; the aliases exist so callers
	// reading server logs that still use the old terminology can match
	// on a name instead of a bare literal.
	CodePasswordAck    Code = CodeAccessAccept
	CodePasswordReject Code = CodeAccessReject
)

// String returns the human-readable RADIUS code name.
func (c Code) String() string {
	switch c {
	case CodeAccessRequest:
		return "Access-Request"
	case CodeAccessAccept:
		return "Access-Accept"
	case CodeAccessReject:
		return "Access-Reject"
	case CodeAccountingRequest:
		return "Accounting-Request"
	case CodeAccountingResponse:
		return "Accounting-Response"
	case CodeAccessChallenge:
		return "Access-Challenge"
	case CodeStatusServer:
		return "Status-Server"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// IsAccounting reports whether the code belongs to the accounting
// exchange (RFC 2866), which uses a digest-derived request authenticator
// instead of a random nonce and never carries a Message-Authenticator.
func (c Code) IsAccounting() bool {
	return c == CodeAccountingRequest || c == CodeAccountingResponse
}

// Status is the terminal outcome of a transaction. It is distinct from
// the Go error value: Client.SendRequest returns the RADIUS-level
// outcomes (OK, reject, challenge) in Response.Status with a nil error,
// while a failure (timeout, unreachable, bad response, generic error)
// returns a non-nil error and no Response; those statuses appear only
// in the orchestrator's log lines and MetricsRecorder.ObserveResult.
type Status int

const (
	// StatusOK indicates Access-Accept, Accounting-Response, or the
	// legacy Password-Ack.
	StatusOK Status = iota

	// StatusReject indicates Access-Reject or the legacy Password-Reject.
	StatusReject

	// StatusChallenge indicates Access-Challenge.
	StatusChallenge

	// StatusTimeout indicates retry_max+1 attempts elapsed with no
	// accepted reply.
	StatusTimeout

	// StatusBadResponse indicates a structurally invalid reply or a
	// digest mismatch on a reply that otherwise matched the request id.
	StatusBadResponse

	// StatusNetUnreachable indicates the transport reported the
	// destination network as unreachable.
	StatusNetUnreachable

	// StatusGenericError indicates any other failure: input validation,
	// socket errors, namespace switch failure, and so on.
	StatusGenericError
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusReject:
		return "Reject"
	case StatusChallenge:
		return "Challenge"
	case StatusTimeout:
		return "Timeout"
	case StatusBadResponse:
		return "BadResponse"
	case StatusNetUnreachable:
		return "NetUnreachable"
	case StatusGenericError:
		return "GenericError"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Classify maps a received RADIUS code to a terminal Status, per
// spec.md Section 4.6 step 14.
func Classify(code Code) (Status, error) {
	switch code {
	case CodeAccessAccept, CodeAccountingResponse:
		return StatusOK, nil
	case CodeAccessReject:
		return StatusReject, nil
	case CodeAccessChallenge:
		return StatusChallenge, nil
	default:
		return StatusBadResponse, fmt.Errorf("classify code %s: %w", code, ErrUnrecognizedCode)
	}
}

// Kind distinguishes the authentication exchange from the accounting
// exchange for the purposes of server/secret/port resolution.
type Kind uint8

const (
	// KindAuth selects the authentication server table and port.
	KindAuth Kind = iota

	// KindAcct selects the accounting server table and port.
	KindAcct
)

// String returns "auth" or "acct", matching the server_type strings used
// in the reference implementation's log lines.
func (k Kind) String() string {
	if k == KindAcct {
		return "acct"
	}
	return "auth"
}
