package packet

import (
	"encoding/binary"
	"fmt"
)

// Attribute represents a single RADIUS attribute-value pair. Wire order of
// attributes is significant and repeated attributes are allowed.
type Attribute struct {
	Type   uint8
	Length uint8
	Value  []byte
	Tag    uint8 // for tagged attributes, 0 = no tag
}

// VendorAttribute represents a vendor-specific attribute carried inside a
// type 26 container.
type VendorAttribute struct {
	VendorID   uint32
	VendorType uint8
	Value      []byte
	Tag        uint8
}

// NewAttribute creates a new RADIUS attribute.
func NewAttribute(attrType uint8, value []byte) *Attribute {
	return &Attribute{
		Type:   attrType,
		Length: uint8(len(value) + AttributeHeaderLength),
		Value:  value,
	}
}

// NewTaggedAttribute creates a new tagged RADIUS attribute. The tag becomes
// the first byte of the wire value per RFC 2868.
func NewTaggedAttribute(attrType uint8, tag uint8, value []byte) *Attribute {
	taggedValue := make([]byte, len(value)+1)
	taggedValue[0] = tag
	copy(taggedValue[1:], value)

	return &Attribute{
		Type:   attrType,
		Length: uint8(len(taggedValue) + AttributeHeaderLength),
		Value:  taggedValue,
		Tag:    tag,
	}
}

// NewVendorAttribute creates a new vendor-specific attribute.
func NewVendorAttribute(vendorID uint32, vendorType uint8, value []byte) *VendorAttribute {
	return &VendorAttribute{
		VendorID:   vendorID,
		VendorType: vendorType,
		Value:      value,
	}
}

// PlainValue returns the attribute value with the tag byte stripped for
// tagged attributes.
func (a *Attribute) PlainValue() []byte {
	if a.Tag != 0 && len(a.Value) > 0 {
		return a.Value[1:]
	}
	return a.Value
}

// String returns a string representation of the attribute.
func (a *Attribute) String() string {
	if a.Tag != 0 {
		return fmt.Sprintf("Type=%d, Tag=%d, Length=%d, Value=%x", a.Type, a.Tag, a.Length, a.PlainValue())
	}
	return fmt.Sprintf("Type=%d, Length=%d, Value=%x", a.Type, a.Length, a.Value)
}

// Container converts a VendorAttribute into its type 26 wire container.
func (va *VendorAttribute) Container() *Attribute {
	vendorLength := uint8(len(va.Value) + 2)
	vsaValue := make([]byte, VendorSpecificHeaderLength+len(va.Value))

	binary.BigEndian.PutUint32(vsaValue[0:4], va.VendorID)
	vsaValue[4] = va.VendorType
	vsaValue[5] = vendorLength
	copy(vsaValue[6:], va.Value)

	return &Attribute{
		Type:   AttributeTypeVendorSpecific,
		Length: uint8(len(vsaValue) + AttributeHeaderLength),
		Value:  vsaValue,
	}
}

// ParseVendorAttribute parses a type 26 container into a VendorAttribute.
func ParseVendorAttribute(attr *Attribute) (*VendorAttribute, error) {
	if attr.Type != AttributeTypeVendorSpecific {
		return nil, fmt.Errorf("not a vendor-specific attribute (type %d)", attr.Type)
	}

	if len(attr.Value) < VendorSpecificHeaderLength {
		return nil, fmt.Errorf("vendor attribute too short: %d bytes", len(attr.Value))
	}

	vendorID := binary.BigEndian.Uint32(attr.Value[0:4])
	vendorType := attr.Value[4]
	vendorLength := attr.Value[5]

	if int(vendorLength) != len(attr.Value)-4 {
		return nil, fmt.Errorf("vendor length %d does not match container (%d bytes)", vendorLength, len(attr.Value)-4)
	}

	return &VendorAttribute{
		VendorID:   vendorID,
		VendorType: vendorType,
		Value:      attr.Value[6:],
	}, nil
}

// taggedAttributeTypes holds the RFC 2868 tunnel attribute types that carry
// a tag in the first value byte.
var taggedAttributeTypes = map[uint8]bool{
	64: true, 65: true, 66: true, 67: true, 69: true,
	81: true, 82: true, 83: true, 90: true, 91: true,
}

// IsTaggedType returns true if the attribute type supports RFC 2868 tagging.
func IsTaggedType(attrType uint8) bool {
	return taggedAttributeTypes[attrType]
}
