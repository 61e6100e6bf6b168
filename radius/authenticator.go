package radius

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // RFC 2865/2869 mandate MD5/HMAC-MD5 for these digests
	"crypto/subtle"
)

// headerLen is the size of the fixed RADIUS packet header: code (1),
// identifier (1), length (2), authenticator (16).
const headerLen = 20

// MaxPacketSize is the largest RADIUS packet this engine will send or
// accept, matching RFC 2865 Section 3.
const MaxPacketSize = 4096

// GenerateRequestAuthenticator draws a fresh 16-byte nonce from src for
// an Access-Request (RFC 2865 Section 3). Accounting-Request uses
// AccountingRequestAuthenticator instead, since RFC 2866 derives that
// field from the packet contents rather than from randomness.
func GenerateRequestAuthenticator(src NonceSource) ([16]byte, error) {
	return src.Nonce()
}

// AccountingRequestAuthenticator computes the RFC 2866 Section 4
// request authenticator: MD5(code || id || length || zero16 ||
// attributes || secret). packet must have its authenticator field
// (bytes 4:20) already zeroed and its length field already set to the
// final packet size; the attribute region must already be appended.
func AccountingRequestAuthenticator(packet []byte, secret *Secret) [16]byte {
	h := md5.New() //nolint:gosec // see package-level justification above
	h.Write(packet)
	h.Write(secret.Bytes())
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ValidateResponseAuthenticator checks a received packet's response
// authenticator against MD5(code || id || length || request-auth ||
// attributes || secret) per RFC 2865 Section 3. reply is the full
// received packet; requestAuthenticator is the 16 bytes that were sent
// in the matching request.
func ValidateResponseAuthenticator(reply []byte, requestAuthenticator [16]byte, secret *Secret) bool {
	if len(reply) < headerLen {
		return false
	}

	h := md5.New() //nolint:gosec // see package-level justification above
	h.Write(reply[:4])
	h.Write(requestAuthenticator[:])
	h.Write(reply[headerLen:])
	h.Write(secret.Bytes())

	var want [16]byte
	copy(want[:], h.Sum(nil))
	return subtle.ConstantTimeCompare(want[:], reply[4:headerLen]) == 1
}

// AppendMessageAuthenticator appends a Message-Authenticator attribute
// (RFC 3579 Section 3.2, RFC 2869 Section 5.14) to packet and returns
// the extended slice. The attribute is appended with its value
// zero-filled, then the HMAC-MD5 is computed over the entire packet
// (header's length field must already reflect the final size including
// this attribute) with that zero-filled slot in place, and the result is
// written back into the slot in place.
func AppendMessageAuthenticator(packet []byte, secret *Secret) []byte {
	out := append(packet, AttrMessageAuthenticator, attrHeaderLen+16)
	slot := len(out)
	out = append(out, make([]byte, 16)...)

	mac := hmac.New(md5.New, secret.Bytes()) //nolint:gosec // see package-level justification above
	mac.Write(out)
	sum := mac.Sum(nil)
	copy(out[slot:slot+16], sum)
	return out
}

// ValidateMessageAuthenticator recomputes the HMAC-MD5 over reply with
// the Message-Authenticator attribute's value temporarily zeroed (and,
// per RFC 3579 Section 3.2, the authenticator field replaced by the
// request authenticator for the duration of the computation) and
// compares it against the attribute's carried value. attrOffset is the
// byte offset of the Message-Authenticator attribute's type octet
// within reply.
func ValidateMessageAuthenticator(reply []byte, attrOffset int, requestAuthenticator [16]byte, secret *Secret) bool {
	if attrOffset+attrHeaderLen+16 > len(reply) {
		return false
	}

	scratch := append([]byte(nil), reply...)
	copy(scratch[4:headerLen], requestAuthenticator[:])
	carried := append([]byte(nil), scratch[attrOffset+attrHeaderLen:attrOffset+attrHeaderLen+16]...)
	for i := 0; i < 16; i++ {
		scratch[attrOffset+attrHeaderLen+i] = 0
	}

	mac := hmac.New(md5.New, secret.Bytes()) //nolint:gosec // see package-level justification above
	mac.Write(scratch)
	sum := mac.Sum(nil)
	return subtle.ConstantTimeCompare(sum, carried) == 1
}
