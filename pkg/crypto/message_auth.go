package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"fmt"
)

// Message-Authenticator handling as defined in RFC 2869 Section 5.14.

const (
	// MessageAuthenticatorLength is the length of the Message-Authenticator
	// attribute value.
	MessageAuthenticatorLength = 16

	messageAuthenticatorType = 80
	messageAuthenticatorSize = 18 // type + length + 16-byte value
	headerLength             = 20
)

// CalculateMessageAuthenticator computes HMAC-MD5(secret, packet) over the
// serialized packet with the Message-Authenticator value field zeroed. For
// response packets the authenticator field must already hold the Request
// Authenticator of the matching request.
func CalculateMessageAuthenticator(packetData []byte, sharedSecret []byte) ([MessageAuthenticatorLength]byte, error) {
	var result [MessageAuthenticatorLength]byte

	if len(packetData) < headerLength {
		return result, fmt.Errorf("packet too short for Message-Authenticator calculation: %d bytes", len(packetData))
	}

	calcData := make([]byte, len(packetData))
	copy(calcData, packetData)

	if offset := findMessageAuthenticatorOffset(calcData); offset != -1 {
		for i := 0; i < MessageAuthenticatorLength; i++ {
			calcData[offset+i] = 0
		}
	}

	mac := hmac.New(md5.New, sharedSecret)
	mac.Write(calcData)
	copy(result[:], mac.Sum(nil))
	return result, nil
}

// ValidateMessageAuthenticator checks the Message-Authenticator carried in
// the packet against a locally computed one.
func ValidateMessageAuthenticator(packetData []byte, sharedSecret []byte) (bool, error) {
	received, err := ExtractMessageAuthenticator(packetData)
	if err != nil {
		return false, err
	}
	expected, err := CalculateMessageAuthenticator(packetData, sharedSecret)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected[:], received[:]), nil
}

// AddMessageAuthenticator appends a Message-Authenticator attribute, updates
// the packet length and fills in the computed value. The input packet must
// not already contain one.
func AddMessageAuthenticator(packetData []byte, sharedSecret []byte) ([]byte, error) {
	if findMessageAuthenticatorOffset(packetData) != -1 {
		return nil, fmt.Errorf("packet already contains a Message-Authenticator")
	}

	attr := make([]byte, messageAuthenticatorSize)
	attr[0] = messageAuthenticatorType
	attr[1] = messageAuthenticatorSize

	out := make([]byte, 0, len(packetData)+messageAuthenticatorSize)
	out = append(out, packetData...)
	out = append(out, attr...)

	newLength := len(out)
	out[2] = byte(newLength >> 8)
	out[3] = byte(newLength)

	msgAuth, err := CalculateMessageAuthenticator(out, sharedSecret)
	if err != nil {
		return nil, err
	}
	copy(out[len(out)-MessageAuthenticatorLength:], msgAuth[:])

	return out, nil
}

// UpdateMessageAuthenticator recomputes the Message-Authenticator value in
// place. Used after the authenticator field is finalized.
func UpdateMessageAuthenticator(packetData []byte, sharedSecret []byte) error {
	offset := findMessageAuthenticatorOffset(packetData)
	if offset == -1 {
		return fmt.Errorf("packet does not contain a Message-Authenticator")
	}

	msgAuth, err := CalculateMessageAuthenticator(packetData, sharedSecret)
	if err != nil {
		return err
	}
	copy(packetData[offset:], msgAuth[:])
	return nil
}

// HasMessageAuthenticator reports whether the packet carries the attribute.
func HasMessageAuthenticator(packetData []byte) bool {
	return findMessageAuthenticatorOffset(packetData) != -1
}

// ExtractMessageAuthenticator returns the Message-Authenticator value from
// the packet.
func ExtractMessageAuthenticator(packetData []byte) ([MessageAuthenticatorLength]byte, error) {
	var result [MessageAuthenticatorLength]byte

	offset := findMessageAuthenticatorOffset(packetData)
	if offset == -1 {
		return result, fmt.Errorf("packet does not contain a Message-Authenticator")
	}
	if offset+MessageAuthenticatorLength > len(packetData) {
		return result, fmt.Errorf("Message-Authenticator value extends beyond packet")
	}

	copy(result[:], packetData[offset:offset+MessageAuthenticatorLength])
	return result, nil
}

// findMessageAuthenticatorOffset walks the attribute list and returns the
// offset of the value field, or -1.
func findMessageAuthenticatorOffset(packetData []byte) int {
	if len(packetData) < headerLength {
		return -1
	}

	offset := headerLength
	for offset+2 <= len(packetData) {
		attrType := packetData[offset]
		attrLength := int(packetData[offset+1])

		if attrLength < 2 || offset+attrLength > len(packetData) {
			return -1
		}
		if attrType == messageAuthenticatorType && attrLength == messageAuthenticatorSize {
			return offset + 2
		}

		offset += attrLength
	}

	return -1
}
