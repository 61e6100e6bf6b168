package radius

import "fmt"

// ValidationResult is the parsed, verified content of a RADIUS reply
// (spec.md Section 4.4).
type ValidationResult struct {
	Code       Code
	Identifier uint8
	Status     Status
	Attributes List
}

// ValidateReply checks a received packet against the outstanding
// request it is claimed to answer and, if every check passes, decodes
// its attributes (spec.md Section 4.4 steps 1-5):
//
//  1. length is within [20, 4096] and matches len(reply) exactly
//     (ErrBadLength / ErrShortPacket).
//  2. the identifier matches the request's (ErrBadID).
//  3. the response authenticator digest matches (ErrBadDigest).
//  4. the attribute region parses with no structural violation.
//  5. if requireMsgAuth is set, a Message-Authenticator attribute is
//     present and its HMAC-MD5 validates (ErrBadDigest).
//
// A non-nil error always means the reply must be discarded (spec.md
// Section 8 property 6: a forged or corrupted reply never produces a
// result). Client.SendRequest keeps waiting only after ErrBadID; any
// other error ends the transaction.
func ValidateReply(reply []byte, requestID uint8, requestAuthenticator [16]byte, secret *Secret, requireMsgAuth bool) (*ValidationResult, error) {
	if len(reply) < headerLen {
		return nil, ErrShortPacket
	}
	if len(reply) > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}

	declared := int(reply[2])<<8 | int(reply[3])
	if declared < headerLen || declared > MaxPacketSize {
		return nil, ErrBadLength
	}
	if declared != len(reply) {
		return nil, ErrShortPacket
	}

	id := reply[1]
	if id != requestID {
		return nil, ErrBadID
	}

	if !ValidateResponseAuthenticator(reply, requestAuthenticator, secret) {
		return nil, ErrBadDigest
	}

	attrData := reply[headerLen:]
	attrs, err := DecodeAttributes(attrData)
	if err != nil {
		return nil, err
	}

	if requireMsgAuth {
		offset, ok := findMessageAuthenticatorOffset(attrData)
		if !ok || !ValidateMessageAuthenticator(reply, headerLen+offset, requestAuthenticator, secret) {
			return nil, ErrBadDigest
		}
	}

	code := Code(reply[0])
	status, err := Classify(code)
	if err != nil {
		return nil, fmt.Errorf("validate reply: %w", err)
	}

	return &ValidationResult{
		Code:       code,
		Identifier: id,
		Status:     status,
		Attributes: attrs,
	}, nil
}

// findMessageAuthenticatorOffset returns the byte offset of a
// Message-Authenticator attribute's type octet within attrData, if
// present.
func findMessageAuthenticatorOffset(attrData []byte) (int, bool) {
	offset := 0
	found := -1
	_ = walkAttributes(attrData, func(attrType uint8, value []byte) error {
		if attrType == AttrMessageAuthenticator && found < 0 {
			found = offset
		}
		offset += attrHeaderLen + len(value)
		return nil
	})
	if found < 0 {
		return 0, false
	}
	return found, true
}
