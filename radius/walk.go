package radius

// walkAttributes iterates the TLV-encoded attribute region of a packet
// (the bytes following the 20-byte header), calling fn once per
// attribute with its one-octet type and its value payload (header
// stripped). It never allocates beyond what fn itself does; value
// aliases data.
//
// walkAttributes enforces the three structural invariants spec.md
// Section 4.4 step 5 names: a type octet of 0 is invalid, a declared
// length below the 2-octet header is invalid, and a declared length
// that would read past the end of data is invalid. Any of these stops
// the walk and returns the corresponding sentinel error.
func walkAttributes(data []byte, fn func(attrType uint8, value []byte) error) error {
	for len(data) > 0 {
		if len(data) < attrHeaderLen {
			return ErrShortAttribute
		}
		attrType := data[0]
		length := int(data[1])

		if attrType == 0 {
			return ErrZeroAttributeType
		}
		if length < attrHeaderLen {
			return ErrShortAttribute
		}
		if length > len(data) {
			return ErrAttributeOverflow
		}

		if err := fn(attrType, data[attrHeaderLen:length]); err != nil {
			return err
		}
		data = data[length:]
	}
	return nil
}
