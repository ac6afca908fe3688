package packet

import "fmt"

// ReceivedFields carries the identifier and raw authenticator exactly as
// observed on the wire. Populated only on decoded packets.
type ReceivedFields struct {
	Identifier    uint8
	Authenticator [AuthenticatorLength]byte
}

// Packet represents a RADIUS packet as defined in RFC 2865. Packets are
// treated as values: construct, encode or decode, never mutate afterwards.
type Packet struct {
	Code          Code
	Identifier    uint8
	Length        uint16
	Authenticator [AuthenticatorLength]byte
	Attributes    []*Attribute
	Received      *ReceivedFields
}

// New creates a new RADIUS packet with the specified code and identifier.
func New(code Code, identifier uint8) *Packet {
	return &Packet{
		Code:       code,
		Identifier: identifier,
		Length:     HeaderLength,
		Attributes: make([]*Attribute, 0),
	}
}

// AddAttribute appends an attribute, preserving insertion order.
func (p *Packet) AddAttribute(attr *Attribute) {
	p.Attributes = append(p.Attributes, attr)
	p.Length += uint16(attr.Length)
}

// AddVendorAttribute appends a vendor-specific attribute in its type 26
// container.
func (p *Packet) AddVendorAttribute(va *VendorAttribute) {
	p.AddAttribute(va.Container())
}

// Attribute returns the first attribute with the specified type.
func (p *Packet) Attribute(attrType uint8) (*Attribute, bool) {
	for _, attr := range p.Attributes {
		if attr.Type == attrType {
			return attr, true
		}
	}
	return nil, false
}

// AttributesOfType returns all attributes with the specified type in wire
// order.
func (p *Packet) AttributesOfType(attrType uint8) []*Attribute {
	var attrs []*Attribute
	for _, attr := range p.Attributes {
		if attr.Type == attrType {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// VendorAttributeOf returns the first vendor attribute matching the vendor
// ID and vendor type.
func (p *Packet) VendorAttributeOf(vendorID uint32, vendorType uint8) (*VendorAttribute, bool) {
	for _, attr := range p.Attributes {
		if attr.Type != AttributeTypeVendorSpecific {
			continue
		}
		if va, err := ParseVendorAttribute(attr); err == nil {
			if va.VendorID == vendorID && va.VendorType == vendorType {
				return va, true
			}
		}
	}
	return nil, false
}

// RemoveAttributes removes all attributes with the specified type and
// returns how many were removed.
func (p *Packet) RemoveAttributes(attrType uint8) int {
	removed := 0
	for i := len(p.Attributes) - 1; i >= 0; i-- {
		if p.Attributes[i].Type == attrType {
			p.Length -= uint16(p.Attributes[i].Length)
			p.Attributes = append(p.Attributes[:i], p.Attributes[i+1:]...)
			removed++
		}
	}
	return removed
}

// Clone returns a deep copy of the packet. The codec works on copies so the
// caller's packet stays untouched by password hiding and authenticator
// rewrites.
func (p *Packet) Clone() *Packet {
	out := &Packet{
		Code:          p.Code,
		Identifier:    p.Identifier,
		Length:        p.Length,
		Authenticator: p.Authenticator,
		Attributes:    make([]*Attribute, 0, len(p.Attributes)),
	}
	for _, attr := range p.Attributes {
		value := make([]byte, len(attr.Value))
		copy(value, attr.Value)
		out.Attributes = append(out.Attributes, &Attribute{
			Type:   attr.Type,
			Length: attr.Length,
			Value:  value,
			Tag:    attr.Tag,
		})
	}
	if p.Received != nil {
		received := *p.Received
		out.Received = &received
	}
	return out
}

// Validate performs structural validation of the packet.
func (p *Packet) Validate() error {
	if !p.Code.IsValid() {
		return fmt.Errorf("invalid packet code: %d", uint8(p.Code))
	}

	if p.Length < MinLength {
		return fmt.Errorf("packet too short: %d bytes", p.Length)
	}

	if p.Length > MaxLength {
		return fmt.Errorf("packet too long: %d bytes", p.Length)
	}

	expectedLength := uint16(HeaderLength)
	for _, attr := range p.Attributes {
		if attr.Length < AttributeHeaderLength {
			return fmt.Errorf("attribute type %d has invalid length %d", attr.Type, attr.Length)
		}
		if int(attr.Length) != len(attr.Value)+AttributeHeaderLength {
			return fmt.Errorf("attribute type %d length %d does not cover value (%d bytes)",
				attr.Type, attr.Length, len(attr.Value))
		}
		expectedLength += uint16(attr.Length)
	}

	if p.Length != expectedLength {
		return fmt.Errorf("packet length mismatch: header says %d, attributes sum to %d", p.Length, expectedLength)
	}

	return nil
}

// String returns a string representation of the packet.
func (p *Packet) String() string {
	return fmt.Sprintf("Code=%s(%d), ID=%d, Length=%d, Attributes=%d",
		p.Code.String(), uint8(p.Code), p.Identifier, p.Length, len(p.Attributes))
}
