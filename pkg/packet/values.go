package packet

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// Value codecs for the RFC 2865 Section 5 data types. The dictionary selects
// which codec applies to an attribute; unknown attributes stay opaque bytes.

// EncodeString encodes a string value.
func EncodeString(value string) []byte {
	return []byte(value)
}

// DecodeString decodes a string value.
func DecodeString(data []byte) string {
	return string(data)
}

// EncodeInteger encodes a 32-bit integer value in network byte order.
func EncodeInteger(value uint32) []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, value)
	return data
}

// DecodeInteger decodes a 32-bit integer value.
func DecodeInteger(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("invalid integer length: %d", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// EncodeIPAddr encodes an IPv4 address.
func EncodeIPAddr(ip net.IP) ([]byte, error) {
	ipv4 := ip.To4()
	if ipv4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	out := make([]byte, 4)
	copy(out, ipv4)
	return out, nil
}

// DecodeIPAddr decodes an IPv4 address.
func DecodeIPAddr(data []byte) (net.IP, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("invalid IPv4 address length: %d", len(data))
	}
	out := make(net.IP, 4)
	copy(out, data)
	return out, nil
}

// EncodeIPv6Addr encodes an IPv6 address.
func EncodeIPv6Addr(ip net.IP) ([]byte, error) {
	ipv6 := ip.To16()
	if ipv6 == nil || ip.To4() != nil {
		return nil, fmt.Errorf("not an IPv6 address: %s", ip)
	}
	out := make([]byte, 16)
	copy(out, ipv6)
	return out, nil
}

// DecodeIPv6Addr decodes an IPv6 address.
func DecodeIPv6Addr(data []byte) (net.IP, error) {
	if len(data) != 16 {
		return nil, fmt.Errorf("invalid IPv6 address length: %d", len(data))
	}
	out := make(net.IP, 16)
	copy(out, data)
	return out, nil
}

// EncodeTime encodes a timestamp as seconds since the epoch.
func EncodeTime(t time.Time) []byte {
	return EncodeInteger(uint32(t.Unix()))
}

// DecodeTime decodes a timestamp from seconds since the epoch.
func DecodeTime(data []byte) (time.Time, error) {
	seconds, err := DecodeInteger(data)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(seconds), 0).UTC(), nil
}

// EncodeIFID encodes an 8-byte interface identifier.
func EncodeIFID(data []byte) ([]byte, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("invalid interface identifier length: %d", len(data))
	}
	out := make([]byte, 8)
	copy(out, data)
	return out, nil
}
