package radius

import "encoding/binary"

// knownTypes hints the AttrType to assign a decoded AVP for the
// standard attributes this package names explicitly. Anything absent
// from this table decodes as TypeString (raw bytes), which is always a
// safe representation since every RADIUS value is carried as an octet
// string on the wire regardless of its dictionary type.
var knownTypes = map[Identifier]AttrType{
	IDNASIPAddress:         TypeIPAddr,
	IDNASPort:              TypeInteger,
	IDServiceType:          TypeInteger,
	IDNASIPv6Address:       TypeIPv6Addr,
	IDUserName:             TypeString,
	IDReplyMessage:         TypeString,
	IDState:                TypeString,
	IDNASIdentifier:        TypeString,
	IDMessageAuthenticator: TypeString,
}

// DecodeAttributes parses the TLV attribute region of a received packet
// into a List, unwrapping Vendor-Specific (type 26) attributes into
// individual AVPs carrying a non-zero Identifier.Vendor() (spec.md
// Section 4.4 step 5). It returns the structural errors walkAttributes
// can produce; it never returns an error for an unrecognized attribute
// number, since an unknown attribute is simply decoded as opaque bytes.
func DecodeAttributes(data []byte) (List, error) {
	var out List

	err := walkAttributes(data, func(attrType uint8, value []byte) error {
		if attrType == AttrVendorSpecific {
			return decodeVSA(&out, value)
		}
		out = append(out, decodeOne(NewIdentifier(0, attrType), value))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeVSA(out *List, value []byte) error {
	if len(value) < 4 {
		return ErrShortAttribute
	}
	vendor := binary.BigEndian.Uint32(value[:4])
	return walkAttributes(value[4:], func(attrType uint8, sub []byte) error {
		*out = append(*out, decodeOne(NewIdentifier(uint16(vendor), attrType), sub)) //nolint:gosec // vendor ids in this engine's dictionary fit 16 bits
		return nil
	})
}

func decodeOne(id Identifier, value []byte) *AVP {
	typ, known := knownTypes[id]
	if !known {
		typ = TypeString
	}

	a := &AVP{ID: id, Type: typ}
	switch typ {
	case TypeInteger, TypeDate:
		if len(value) == 4 {
			a.Num = binary.BigEndian.Uint32(value)
			return a
		}
		a.Type = TypeString
	case TypeIPAddr:
		if len(value) == 4 {
			a.Num = binary.BigEndian.Uint32(value)
			return a
		}
		a.Type = TypeString
	}

	a.Value = append([]byte(nil), value...)
	return a
}
