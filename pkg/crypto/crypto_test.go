package crypto

import (
	"crypto/md5"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRandom replays a fixed byte pattern, for deterministic tests.
type fixedRandom struct {
	pattern []byte
	offset  int
}

func (f *fixedRandom) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = f.pattern[f.offset%len(f.pattern)]
		f.offset++
	}
	return len(p), nil
}

func TestGenerateRequestAuthenticator(t *testing.T) {
	auth1, err := GenerateRequestAuthenticator(SystemRandom())
	require.NoError(t, err)

	auth2, err := GenerateRequestAuthenticator(SystemRandom())
	require.NoError(t, err)

	assert.NotEqual(t, auth1, auth2)
	assert.False(t, auth1.IsZero())
}

func TestCalculateRequestAuthenticator(t *testing.T) {
	attrs := []byte{40, 6, 0, 0, 0, 1}
	secret := []byte("sec")

	auth := CalculateRequestAuthenticator(4, 9, 26, attrs, secret)

	// Reference computation straight from the RFC 2866 definition.
	hash := md5.New()
	hash.Write([]byte{4, 9, 0, 26})
	hash.Write(make([]byte, 16))
	hash.Write(attrs)
	hash.Write(secret)
	var expected Authenticator
	copy(expected[:], hash.Sum(nil))

	assert.Equal(t, expected, auth)
	assert.True(t, ValidateRequestAuthenticator(4, 9, 26, attrs, auth, secret))
	assert.False(t, ValidateRequestAuthenticator(4, 9, 26, attrs, auth, []byte("other")))
}

func TestResponseAuthenticatorAlgebra(t *testing.T) {
	requestAuth := Authenticator{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	secret := []byte("secret")
	attrs := []byte{18, 9, 'w', 'e', 'l', 'c', 'o', 'm', 'e'}

	auth := CalculateResponseAuthenticator(2, 123, 29, requestAuth, attrs, secret)

	hash := md5.New()
	hash.Write([]byte{2, 123, 0, 29})
	hash.Write(requestAuth[:])
	hash.Write(attrs)
	hash.Write(secret)
	var expected Authenticator
	copy(expected[:], hash.Sum(nil))

	assert.Equal(t, expected, auth)
	assert.True(t, ValidateResponseAuthenticator(2, 123, 29, requestAuth, attrs, auth, secret))

	tampered := auth
	tampered[0] ^= 0x01
	assert.False(t, ValidateResponseAuthenticator(2, 123, 29, requestAuth, attrs, tampered, secret))
}

func TestAuthenticatorHelpers(t *testing.T) {
	assert.True(t, ZeroAuthenticator().IsZero())

	auth, err := FromBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	require.NoError(t, err)
	assert.False(t, auth.IsZero())
	assert.Equal(t, auth.ToBytes(), auth[:])

	_, err = FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestHideRecoverUserPassword(t *testing.T) {
	secret := []byte("sec")
	auth := Authenticator{0xAA, 0xBB, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

	tests := []struct {
		name     string
		password string
	}{
		{"short", "pw"},
		{"exactly one block", "0123456789abcdef"},
		{"two blocks", "a-password-longer-than-16-bytes"},
		{"max length", string(bytesOf(128, 'x'))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hidden, err := HideUserPassword([]byte(tt.password), secret, auth)
			require.NoError(t, err)
			assert.Zero(t, len(hidden)%16)
			assert.NotContains(t, string(hidden), tt.password)

			recovered, err := RecoverUserPassword(hidden, secret, auth)
			require.NoError(t, err)
			assert.Equal(t, []byte(tt.password), recovered)
		})
	}
}

func bytesOf(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestHideUserPasswordLimits(t *testing.T) {
	secret := []byte("sec")
	auth := Authenticator{}

	_, err := HideUserPassword(nil, secret, auth)
	assert.Error(t, err)

	_, err = HideUserPassword(bytesOf(129, 'x'), secret, auth)
	assert.Error(t, err)

	_, err = RecoverUserPassword([]byte{1, 2, 3}, secret, auth)
	assert.Error(t, err)
}

func TestHideRecoverTunnelPassword(t *testing.T) {
	secret := []byte("tunnel-secret")
	auth := Authenticator{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6}
	random := &fixedRandom{pattern: []byte{0x12, 0x34}}

	hidden, err := HideTunnelPassword([]byte("tunnelpw"), secret, auth, random)
	require.NoError(t, err)

	// Salt high bit must be set per RFC 2868.
	assert.Equal(t, byte(0x80), hidden[0]&0x80)
	assert.Len(t, hidden, TunnelPasswordSaltLength+16)

	recovered, err := RecoverTunnelPassword(hidden, secret, auth)
	require.NoError(t, err)
	assert.Equal(t, []byte("tunnelpw"), recovered)
}

func TestRecoverTunnelPasswordErrors(t *testing.T) {
	secret := []byte("sec")
	auth := Authenticator{}

	_, err := RecoverTunnelPassword([]byte{0x80, 0x01, 0x02}, secret, auth)
	assert.Error(t, err)

	// Wrong secret garbles the length byte often enough that either an
	// error or a wrong password comes back; it must never equal the
	// original.
	random := &fixedRandom{pattern: []byte{0x55}}
	hidden, err := HideTunnelPassword([]byte("correct"), secret, auth, random)
	require.NoError(t, err)
	recovered, err := RecoverTunnelPassword(hidden, []byte("wrong"), auth)
	if err == nil {
		assert.NotEqual(t, []byte("correct"), recovered)
	}
}
