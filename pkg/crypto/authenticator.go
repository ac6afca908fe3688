package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"fmt"
)

// AuthenticatorLength is the length of RADIUS authenticators in bytes.
const AuthenticatorLength = 16

// Authenticator is the 16-byte field at offset 4 of every RADIUS packet.
type Authenticator [AuthenticatorLength]byte

// GenerateRequestAuthenticator draws a random Request Authenticator for
// Access-Request packets.
func GenerateRequestAuthenticator(src RandomSource) (Authenticator, error) {
	var auth Authenticator
	if _, err := src.Read(auth[:]); err != nil {
		return auth, fmt.Errorf("failed to generate request authenticator: %w", err)
	}
	return auth, nil
}

// CalculateRequestAuthenticator computes the Request Authenticator for packet
// types that carry a computed one (Accounting-Request, Status-Server,
// Disconnect-Request, CoA-Request):
//
//	MD5(Code + ID + Length + 16 zero octets + Attributes + Secret)
func CalculateRequestAuthenticator(code uint8, identifier uint8, length uint16, attributes []byte, sharedSecret []byte) Authenticator {
	hash := md5.New()
	hash.Write([]byte{code, identifier})
	hash.Write([]byte{byte(length >> 8), byte(length)})
	hash.Write(make([]byte, AuthenticatorLength))
	hash.Write(attributes)
	hash.Write(sharedSecret)

	var result Authenticator
	copy(result[:], hash.Sum(nil))
	return result
}

// CalculateResponseAuthenticator computes the Response Authenticator:
//
//	MD5(Code + ID + Length + Request Authenticator + Attributes + Secret)
func CalculateResponseAuthenticator(code uint8, identifier uint8, length uint16, requestAuth Authenticator, attributes []byte, sharedSecret []byte) Authenticator {
	hash := md5.New()
	hash.Write([]byte{code, identifier})
	hash.Write([]byte{byte(length >> 8), byte(length)})
	hash.Write(requestAuth[:])
	hash.Write(attributes)
	hash.Write(sharedSecret)

	var result Authenticator
	copy(result[:], hash.Sum(nil))
	return result
}

// ValidateRequestAuthenticator checks a computed Request Authenticator.
func ValidateRequestAuthenticator(code uint8, identifier uint8, length uint16, attributes []byte, receivedAuth Authenticator, sharedSecret []byte) bool {
	expected := CalculateRequestAuthenticator(code, identifier, length, attributes, sharedSecret)
	return expected.Equal(receivedAuth)
}

// ValidateResponseAuthenticator checks the Response Authenticator of a reply
// against the authenticator of the request it answers.
func ValidateResponseAuthenticator(code uint8, identifier uint8, length uint16, requestAuth Authenticator, attributes []byte, receivedAuth Authenticator, sharedSecret []byte) bool {
	expected := CalculateResponseAuthenticator(code, identifier, length, requestAuth, attributes, sharedSecret)
	return expected.Equal(receivedAuth)
}

// ZeroAuthenticator returns an authenticator filled with zeros.
func ZeroAuthenticator() Authenticator {
	return Authenticator{}
}

// String returns a hex representation of the authenticator.
func (a Authenticator) String() string {
	return fmt.Sprintf("%x", a[:])
}

// Equal compares two authenticators in constant time.
func (a Authenticator) Equal(other Authenticator) bool {
	return hmac.Equal(a[:], other[:])
}

// IsZero returns true if the authenticator is all zeros.
func (a Authenticator) IsZero() bool {
	return a.Equal(ZeroAuthenticator())
}

// FromBytes creates an authenticator from a byte slice.
func FromBytes(data []byte) (Authenticator, error) {
	var auth Authenticator
	if len(data) != AuthenticatorLength {
		return auth, fmt.Errorf("authenticator must be exactly %d bytes, got %d", AuthenticatorLength, len(data))
	}
	copy(auth[:], data)
	return auth, nil
}

// ToBytes returns the authenticator as a fresh byte slice.
func (a Authenticator) ToBytes() []byte {
	result := make([]byte, AuthenticatorLength)
	copy(result, a[:])
	return result
}
