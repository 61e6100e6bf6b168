package radius

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// attrHeaderLen is the size of a standard (type, length) attribute
// header; vsaHeaderLen additionally accounts for the 4-byte vendor id
// every Vendor-Specific (type 26) attribute wraps its payload in.
const (
	attrHeaderLen = 2
	vsaHeaderLen  = attrHeaderLen + 4
)

// EncodeAttributes serializes list into wire-format TLVs, appending the
// result to buf and returning the extended slice. authenticator is the
// request (or accounting) authenticator in effect for this packet, and
// secret is the shared secret used only when the list contains a
// User-Password attribute (spec.md Section 4.2).
//
// Attributes are encoded in list order. A User-Password value is
// obfuscated into the output (the AVP's cleartext Value is left
// unchanged); all other types are encoded directly from the AVP's Num
// or Value field according to its Type.
func EncodeAttributes(buf []byte, list List, secret *Secret, authenticator [16]byte) ([]byte, error) {
	w := bytes.NewBuffer(buf)

	for _, a := range list {
		if err := encodeOne(w, a, secret, authenticator); err != nil {
			return nil, fmt.Errorf("encode attribute %d: %w", a.ID.Attr(), err)
		}
	}
	return w.Bytes(), nil
}

func encodeOne(w *bytes.Buffer, a *AVP, secret *Secret, authenticator [16]byte) error {
	value, err := encodeValue(a, secret, authenticator)
	if err != nil {
		return err
	}

	if a.ID.IsVendorSpecific() {
		return encodeVSA(w, a.ID, value)
	}
	return encodeStandard(w, a.ID.Attr(), value)
}

func encodeValue(a *AVP, secret *Secret, authenticator [16]byte) ([]byte, error) {
	switch a.Type {
	case TypeInteger, TypeDate:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], a.Num)
		return b[:], nil

	case TypeIPAddr:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], a.Num)
		return b[:], nil

	case TypeIPv6Addr:
		if len(a.Value) != 16 {
			return nil, ErrBadLength
		}
		return a.Value, nil

	case TypeIPv6Prefix, TypeString:
		if a.ID == IDUserPassword {
			return ObfuscateUserPassword(secret, authenticator, a.Value)
		}
		return a.Value, nil

	default:
		return a.Value, nil
	}
}

func encodeStandard(w *bytes.Buffer, attr uint8, value []byte) error {
	if len(value) > MaxAttributeValueLen {
		return ErrAttributeTooLarge
	}
	w.WriteByte(attr)
	w.WriteByte(byte(attrHeaderLen + len(value))) //nolint:gosec // bounded by MaxAttributeValueLen above
	w.Write(value)
	return nil
}

func encodeVSA(w *bytes.Buffer, id Identifier, value []byte) error {
	if len(value) > MaxAttributeValueLen-vsaHeaderLen {
		return ErrAttributeTooLarge
	}
	total := vsaHeaderLen + attrHeaderLen + len(value)
	w.WriteByte(AttrVendorSpecific)
	w.WriteByte(byte(total)) //nolint:gosec // bounded by the check above
	var vendor [4]byte
	binary.BigEndian.PutUint32(vendor[:], uint32(id.Vendor()))
	w.Write(vendor[:])
	w.WriteByte(id.Attr())
	w.WriteByte(byte(attrHeaderLen + len(value)))
	w.Write(value)
	return nil
}
