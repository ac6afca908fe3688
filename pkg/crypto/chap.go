package crypto

import (
	"crypto/md5"
	"crypto/subtle"
	"fmt"
)

const (
	// CHAPChallengeLength is the default length of a CHAP challenge in bytes.
	CHAPChallengeLength = 16

	// CHAPResponseLength is the length of the CHAP response hash.
	CHAPResponseLength = 16
)

// GenerateCHAPChallenge draws a random CHAP challenge. Lengths outside
// [1, 255] fall back to the 16-byte default.
func GenerateCHAPChallenge(src RandomSource, length int) ([]byte, error) {
	if length <= 0 || length > 255 {
		length = CHAPChallengeLength
	}

	challenge, err := RandomBytes(src, length)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CHAP challenge: %w", err)
	}
	return challenge, nil
}

// GenerateCHAPResponse builds a CHAP-Password value from the identifier,
// cleartext password and challenge: 1 byte identifier followed by
// MD5(identifier + password + challenge), per RFC 2865 Section 5.3.
func GenerateCHAPResponse(identifier byte, password, challenge []byte) []byte {
	hash := md5.New()
	hash.Write([]byte{identifier})
	hash.Write(password)
	hash.Write(challenge)

	response := make([]byte, 1+CHAPResponseLength)
	response[0] = identifier
	copy(response[1:], hash.Sum(nil))

	return response
}

// CheckCHAPPassword verifies a CHAP-Password value against a cleartext
// password and the challenge it was computed over.
func CheckCHAPPassword(chapPassword, password, challenge []byte) bool {
	if len(chapPassword) != 1+CHAPResponseLength {
		return false
	}

	expected := GenerateCHAPResponse(chapPassword[0], password, challenge)
	return subtle.ConstantTimeCompare(chapPassword, expected) == 1
}
