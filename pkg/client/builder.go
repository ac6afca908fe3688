package client

import (
	"fmt"
	"net"
	"time"

	"github.com/radkit/radclient/pkg/dictionary"
	"github.com/radkit/radclient/pkg/packet"
)

// RequestBuilder assembles a request packet with dictionary-driven attribute
// encoding. Errors accumulate and surface from Packet, so calls chain.
type RequestBuilder struct {
	pkt  *packet.Packet
	dict *dictionary.Dictionary
	err  error
}

// NewRequest starts a builder for the given request code. The identifier is
// assigned by the send path, not here.
func (c *Client) NewRequest(code packet.Code) *RequestBuilder {
	return &RequestBuilder{
		pkt:  packet.New(code, 0),
		dict: c.config.Dictionary,
	}
}

// NewAccessRequest starts an Access-Request builder.
func (c *Client) NewAccessRequest() *RequestBuilder {
	return c.NewRequest(packet.CodeAccessRequest)
}

// NewAccountingRequest starts an Accounting-Request builder.
func (c *Client) NewAccountingRequest() *RequestBuilder {
	return c.NewRequest(packet.CodeAccountingRequest)
}

// Add encodes a value for the named attribute. Accepted value types depend
// on the dictionary data type: string or []byte for string/octets, uint32 or
// a symbolic value name for integer, net.IP or string for addresses,
// time.Time for date. Tagged attributes take the tag via AddTagged.
func (b *RequestBuilder) Add(name string, value interface{}) *RequestBuilder {
	return b.add(name, 0, value)
}

// AddTagged encodes a value for a tagged attribute.
func (b *RequestBuilder) AddTagged(name string, tag uint8, value interface{}) *RequestBuilder {
	return b.add(name, tag, value)
}

func (b *RequestBuilder) add(name string, tag uint8, value interface{}) *RequestBuilder {
	if b.err != nil {
		return b
	}

	def, ok := b.dict.LookupByName(name)
	if !ok {
		b.err = fmt.Errorf("unknown attribute %q", name)
		return b
	}

	encoded, err := encodeValue(def, value)
	if err != nil {
		b.err = fmt.Errorf("attribute %q: %w", name, err)
		return b
	}

	if tag != 0 || (def.HasTag && packet.IsTaggedType(uint8(def.ID))) {
		b.pkt.AddAttribute(packet.NewTaggedAttribute(uint8(def.ID), tag, encoded))
	} else {
		b.pkt.AddAttribute(packet.NewAttribute(uint8(def.ID), encoded))
	}
	return b
}

// AddVendor appends a vendor-specific attribute in its type 26 container.
func (b *RequestBuilder) AddVendor(vendorID uint32, vendorType uint8, value []byte) *RequestBuilder {
	if b.err != nil {
		return b
	}
	b.pkt.AddVendorAttribute(packet.NewVendorAttribute(vendorID, vendorType, value))
	return b
}

// Packet returns the assembled request or the first accumulated error.
func (b *RequestBuilder) Packet() (*packet.Packet, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.pkt, nil
}

func encodeValue(def *dictionary.AttributeDefinition, value interface{}) ([]byte, error) {
	switch def.DataType {
	case dictionary.DataTypeString:
		switch v := value.(type) {
		case string:
			return packet.EncodeString(v), nil
		case []byte:
			return v, nil
		}
	case dictionary.DataTypeOctets, dictionary.DataTypeTLV:
		if v, ok := value.([]byte); ok {
			return v, nil
		}
	case dictionary.DataTypeInteger:
		switch v := value.(type) {
		case uint32:
			return packet.EncodeInteger(v), nil
		case int:
			if v < 0 {
				return nil, fmt.Errorf("integer value cannot be negative: %d", v)
			}
			return packet.EncodeInteger(uint32(v)), nil
		case string:
			if num, ok := def.Values[v]; ok {
				return packet.EncodeInteger(num), nil
			}
			return nil, fmt.Errorf("unknown enumerated value %q", v)
		}
	case dictionary.DataTypeIPAddr:
		switch v := value.(type) {
		case net.IP:
			return packet.EncodeIPAddr(v)
		case string:
			ip := net.ParseIP(v)
			if ip == nil {
				return nil, fmt.Errorf("invalid IP address %q", v)
			}
			return packet.EncodeIPAddr(ip)
		}
	case dictionary.DataTypeIPv6Addr:
		switch v := value.(type) {
		case net.IP:
			return packet.EncodeIPv6Addr(v)
		case string:
			ip := net.ParseIP(v)
			if ip == nil {
				return nil, fmt.Errorf("invalid IP address %q", v)
			}
			return packet.EncodeIPv6Addr(ip)
		}
	case dictionary.DataTypeDate:
		if v, ok := value.(time.Time); ok {
			return packet.EncodeTime(v), nil
		}
	case dictionary.DataTypeIfID:
		if v, ok := value.([]byte); ok {
			return packet.EncodeIFID(v)
		}
	}
	return nil, fmt.Errorf("unsupported value type %T for data type %s", value, def.DataType)
}
