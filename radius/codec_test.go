package radius

import (
	"net/netip"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	secret := NewSecret([]byte("sharedsecret"))
	var authenticator [16]byte
	copy(authenticator[:], []byte("abcdefghijklmnop"))

	list := List{
		NewText(IDUserName, "bob"),
		NewInteger(IDNASPort, 42),
		NewIPAddr(IDNASIPAddress, netip.MustParseAddr("10.0.0.1")),
		NewDate(NewIdentifier(0, 55), time.Unix(1_700_000_000, 0)),
	}

	encoded, err := EncodeAttributes(nil, list, secret, authenticator)
	if err != nil {
		t.Fatalf("EncodeAttributes: %v", err)
	}

	decoded, err := DecodeAttributes(encoded)
	if err != nil {
		t.Fatalf("DecodeAttributes: %v", err)
	}

	if got := decoded.Get(IDUserName).String(); got != "bob" {
		t.Fatalf("UserName = %q, want bob", got)
	}
	if got := decoded.Get(IDNASPort); got == nil || got.Num != 42 {
		t.Fatalf("NASPort = %+v, want 42", got)
	}
	if got := decoded.Get(IDNASIPAddress); got == nil || got.Num != 0x0A000001 {
		t.Fatalf("NASIPAddress = %+v, want 10.0.0.1", got)
	}
}

func TestEncodeVendorSpecificRoundTrip(t *testing.T) {
	secret := NewSecret([]byte("sharedsecret"))
	var authenticator [16]byte

	vendorID := NewIdentifier(9999, 1)
	list := List{NewString(vendorID, []byte("vendor-payload"))}

	encoded, err := EncodeAttributes(nil, list, secret, authenticator)
	if err != nil {
		t.Fatalf("EncodeAttributes: %v", err)
	}
	if encoded[0] != AttrVendorSpecific {
		t.Fatalf("first byte = %d, want type 26", encoded[0])
	}

	decoded, err := DecodeAttributes(encoded)
	if err != nil {
		t.Fatalf("DecodeAttributes: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded len = %d, want 1", len(decoded))
	}
	got := decoded[0]
	if got.ID.Vendor() != 9999 || got.ID.Attr() != 1 {
		t.Fatalf("decoded identifier = %+v, want vendor 9999 attr 1", got.ID)
	}
	if string(got.Value) != "vendor-payload" {
		t.Fatalf("decoded value = %q, want vendor-payload", got.Value)
	}
}

func TestEncodeUserPasswordObfuscates(t *testing.T) {
	secret := NewSecret([]byte("sharedsecret"))
	var authenticator [16]byte
	copy(authenticator[:], []byte("1111222233334444"))

	list := List{NewString(IDUserPassword, []byte("hunter2"))}
	encoded, err := EncodeAttributes(nil, list, secret, authenticator)
	if err != nil {
		t.Fatalf("EncodeAttributes: %v", err)
	}

	value := encoded[attrHeaderLen:]
	for i, c := range []byte("hunter2") {
		if len(value) > i && value[i] == c {
			t.Fatalf("encoded User-Password byte %d matches cleartext; not obfuscated", i)
		}
	}
}

func TestDecodeRejectsMalformedAttribute(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"zero type", []byte{0, 2}},
		{"short length", []byte{1, 1}},
		{"overflow", []byte{1, 10, 'a'}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := DecodeAttributes(c.data); err == nil {
				t.Fatalf("DecodeAttributes(%s) = nil error, want error", c.name)
			}
		})
	}
}
