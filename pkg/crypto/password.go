package crypto

import (
	"crypto/md5"
	"fmt"
)

// Password obfuscation as defined in RFC 2865 Section 5.2 (User-Password)
// and RFC 2868 Section 3.5 (Tunnel-Password).

const (
	// MaxPasswordLength is the longest password the obfuscation scheme can
	// carry. Eight MD5 blocks of 16 bytes each.
	MaxPasswordLength = 128

	passwordBlockSize = 16

	// TunnelPasswordSaltLength is the salt prefix length for RFC 2868
	// Tunnel-Password values.
	TunnelPasswordSaltLength = 2
)

// HideUserPassword obfuscates a cleartext password for the User-Password
// attribute. The password is padded with zeros to a multiple of 16 bytes and
// XOR-ed block by block with an MD5 keystream chained on the previous cipher
// block:
//
//	b1 = MD5(secret + request authenticator)   c1 = p1 XOR b1
//	bn = MD5(secret + c(n-1))                  cn = pn XOR bn
func HideUserPassword(password, sharedSecret []byte, requestAuth Authenticator) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return nil, fmt.Errorf("password too long: %d bytes, maximum %d", len(password), MaxPasswordLength)
	}

	padded := padToBlockSize(password)
	out := make([]byte, len(padded))

	prev := requestAuth[:]
	for i := 0; i < len(padded); i += passwordBlockSize {
		block := keystreamBlock(sharedSecret, prev)
		for j := 0; j < passwordBlockSize; j++ {
			out[i+j] = padded[i+j] ^ block[j]
		}
		prev = out[i : i+passwordBlockSize]
	}

	return out, nil
}

// RecoverUserPassword reverses HideUserPassword and strips the zero padding.
func RecoverUserPassword(hidden, sharedSecret []byte, requestAuth Authenticator) ([]byte, error) {
	if len(hidden) == 0 || len(hidden)%passwordBlockSize != 0 {
		return nil, fmt.Errorf("invalid hidden password length: %d", len(hidden))
	}
	if len(hidden) > MaxPasswordLength {
		return nil, fmt.Errorf("hidden password too long: %d bytes", len(hidden))
	}

	out := make([]byte, len(hidden))

	prev := requestAuth[:]
	for i := 0; i < len(hidden); i += passwordBlockSize {
		block := keystreamBlock(sharedSecret, prev)
		for j := 0; j < passwordBlockSize; j++ {
			out[i+j] = hidden[i+j] ^ block[j]
		}
		prev = hidden[i : i+passwordBlockSize]
	}

	return trimZeroPadding(out), nil
}

// HideTunnelPassword obfuscates a password for the Tunnel-Password attribute.
// The result is salt (2 bytes, high bit of the first byte set) followed by
// the obfuscated data. The first plaintext byte carries the password length,
// per RFC 2868.
func HideTunnelPassword(password, sharedSecret []byte, requestAuth Authenticator, src RandomSource) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if len(password) > MaxPasswordLength-1 {
		return nil, fmt.Errorf("password too long: %d bytes, maximum %d", len(password), MaxPasswordLength-1)
	}

	salt, err := RandomBytes(src, TunnelPasswordSaltLength)
	if err != nil {
		return nil, err
	}
	salt[0] |= 0x80

	plain := make([]byte, 1+len(password))
	plain[0] = byte(len(password))
	copy(plain[1:], password)
	padded := padToBlockSize(plain)

	out := make([]byte, TunnelPasswordSaltLength+len(padded))
	copy(out, salt)

	// First block keys on authenticator+salt, later blocks chain on the
	// previous cipher block.
	prev := append(append([]byte{}, requestAuth[:]...), salt...)
	body := out[TunnelPasswordSaltLength:]
	for i := 0; i < len(padded); i += passwordBlockSize {
		block := keystreamBlock(sharedSecret, prev)
		for j := 0; j < passwordBlockSize; j++ {
			body[i+j] = padded[i+j] ^ block[j]
		}
		prev = body[i : i+passwordBlockSize]
	}

	return out, nil
}

// RecoverTunnelPassword reverses HideTunnelPassword.
func RecoverTunnelPassword(hidden, sharedSecret []byte, requestAuth Authenticator) ([]byte, error) {
	if len(hidden) < TunnelPasswordSaltLength+passwordBlockSize {
		return nil, fmt.Errorf("hidden tunnel password too short: %d bytes", len(hidden))
	}
	salt := hidden[:TunnelPasswordSaltLength]
	body := hidden[TunnelPasswordSaltLength:]
	if len(body)%passwordBlockSize != 0 {
		return nil, fmt.Errorf("invalid hidden tunnel password length: %d", len(hidden))
	}

	plain := make([]byte, len(body))

	prev := append(append([]byte{}, requestAuth[:]...), salt...)
	for i := 0; i < len(body); i += passwordBlockSize {
		block := keystreamBlock(sharedSecret, prev)
		for j := 0; j < passwordBlockSize; j++ {
			plain[i+j] = body[i+j] ^ block[j]
		}
		prev = body[i : i+passwordBlockSize]
	}

	passwordLen := int(plain[0])
	if passwordLen > len(plain)-1 {
		return nil, fmt.Errorf("tunnel password length byte %d exceeds payload", passwordLen)
	}

	return plain[1 : 1+passwordLen], nil
}

func keystreamBlock(sharedSecret, chain []byte) []byte {
	hash := md5.New()
	hash.Write(sharedSecret)
	hash.Write(chain)
	return hash.Sum(nil)
}

func padToBlockSize(data []byte) []byte {
	padded := len(data)
	if rem := padded % passwordBlockSize; rem != 0 {
		padded += passwordBlockSize - rem
	}
	out := make([]byte, padded)
	copy(out, data)
	return out
}

func trimZeroPadding(data []byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}
