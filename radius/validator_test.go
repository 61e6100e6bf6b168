package radius

import (
	"errors"
	"testing"
)

func buildSignedReply(t *testing.T, code Code, id uint8, reqAuth [16]byte, secret *Secret, attrs List) []byte {
	t.Helper()

	header := buildHeader(code, id, 0)
	body, err := EncodeAttributes(nil, attrs, secret, reqAuth)
	if err != nil {
		t.Fatalf("EncodeAttributes: %v", err)
	}
	packet := append(header, body...)
	setLength(packet)

	scratch := append([]byte(nil), packet...)
	copy(scratch[4:headerLen], reqAuth[:])
	respAuth := AccountingRequestAuthenticator(scratch, secret)
	copy(packet[4:headerLen], respAuth[:])
	return packet
}

func TestValidateReplyAccepts(t *testing.T) {
	secret := NewSecret([]byte("s3cr3t"))
	var reqAuth [16]byte
	copy(reqAuth[:], []byte("requestauthentic"))

	reply := buildSignedReply(t, CodeAccessAccept, 5, reqAuth, secret, List{NewText(IDReplyMessage, "welcome")})

	result, err := ValidateReply(reply, 5, reqAuth, secret, false)
	if err != nil {
		t.Fatalf("ValidateReply: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("Status = %v, want StatusOK", result.Status)
	}
	if got := result.Attributes.Get(IDReplyMessage).String(); got != "welcome" {
		t.Fatalf("Reply-Message = %q, want welcome", got)
	}
}

func TestValidateReplyRejectsBadID(t *testing.T) {
	secret := NewSecret([]byte("s3cr3t"))
	var reqAuth [16]byte
	reply := buildSignedReply(t, CodeAccessAccept, 5, reqAuth, secret, nil)

	_, err := ValidateReply(reply, 6, reqAuth, secret, false)
	if !errors.Is(err, ErrBadID) {
		t.Fatalf("err = %v, want ErrBadID", err)
	}
}

func TestValidateReplyRejectsBadDigest(t *testing.T) {
	secret := NewSecret([]byte("s3cr3t"))
	wrong := NewSecret([]byte("not-the-secret"))
	var reqAuth [16]byte
	reply := buildSignedReply(t, CodeAccessAccept, 5, reqAuth, secret, nil)

	_, err := ValidateReply(reply, 5, reqAuth, wrong, false)
	if !errors.Is(err, ErrBadDigest) {
		t.Fatalf("err = %v, want ErrBadDigest", err)
	}
}

func TestValidateReplyRejectsShortPacket(t *testing.T) {
	secret := NewSecret([]byte("s3cr3t"))
	var reqAuth [16]byte

	_, err := ValidateReply([]byte{1, 2, 3}, 5, reqAuth, secret, false)
	if !errors.Is(err, ErrShortPacket) {
		t.Fatalf("err = %v, want ErrShortPacket", err)
	}
}

func TestValidateReplyRequiresMessageAuthenticator(t *testing.T) {
	secret := NewSecret([]byte("s3cr3t"))
	var reqAuth [16]byte
	reply := buildSignedReply(t, CodeAccessAccept, 5, reqAuth, secret, nil)

	_, err := ValidateReply(reply, 5, reqAuth, secret, true)
	if !errors.Is(err, ErrBadDigest) {
		t.Fatalf("err = %v, want ErrBadDigest when Message-Authenticator is missing", err)
	}
}

func TestClassifyUnknownCode(t *testing.T) {
	_, err := Classify(CodeStatusServer)
	if !errors.Is(err, ErrUnrecognizedCode) {
		t.Fatalf("err = %v, want ErrUnrecognizedCode", err)
	}
}
