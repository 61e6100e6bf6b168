package radius

import (
	"bytes"
	"testing"
)

func TestUserPasswordRoundTrip(t *testing.T) {
	secret := NewSecret([]byte("xyzzy5461"))
	var authenticator [16]byte
	copy(authenticator[:], []byte("0123456789abcdef"))

	cases := []string{"", "a", "shortpass", "exactly16bytes!!", "a password longer than one block of sixteen bytes"}

	for _, pw := range cases {
		encoded, err := ObfuscateUserPassword(secret, authenticator, []byte(pw))
		if err != nil {
			t.Fatalf("ObfuscateUserPassword(%q): %v", pw, err)
		}
		if len(encoded)%userPasswordBlockSize != 0 {
			t.Fatalf("encoded length %d not a multiple of %d", len(encoded), userPasswordBlockSize)
		}

		decoded, err := DeobfuscateUserPassword(secret, authenticator, encoded)
		if err != nil {
			t.Fatalf("DeobfuscateUserPassword(%q): %v", pw, err)
		}
		if !bytes.Equal(decoded, []byte(pw)) {
			t.Fatalf("round trip = %q, want %q", decoded, pw)
		}
	}
}

func TestUserPasswordTooLong(t *testing.T) {
	secret := NewSecret([]byte("secret"))
	var authenticator [16]byte

	_, err := ObfuscateUserPassword(secret, authenticator, make([]byte, maxUserPasswordLen+1))
	if err != ErrAttributeTooLarge {
		t.Fatalf("err = %v, want ErrAttributeTooLarge", err)
	}
}

func TestUserPasswordDifferentSecretsDiffer(t *testing.T) {
	var authenticator [16]byte
	a, _ := ObfuscateUserPassword(NewSecret([]byte("secret-a")), authenticator, []byte("hunter2"))
	b, _ := ObfuscateUserPassword(NewSecret([]byte("secret-b")), authenticator, []byte("hunter2"))
	if bytes.Equal(a, b) {
		t.Fatal("obfuscation with different secrets produced identical ciphertext")
	}
}
