// Package codec turns packets into authenticated wire bytes and back. It
// owns the authenticator computations and the dictionary-driven password
// obfuscation; identifier allocation stays with the caller.
package codec

import (
	"fmt"

	"github.com/radkit/radclient/pkg/crypto"
	"github.com/radkit/radclient/pkg/dictionary"
	"github.com/radkit/radclient/pkg/packet"
)

// Codec encodes requests and decodes responses for one shared-secret
// relationship. Safe for concurrent use.
type Codec struct {
	dict               *dictionary.Dictionary
	random             crypto.RandomSource
	requireMessageAuth bool
}

// Option adjusts codec construction.
type Option func(*Codec)

// WithRandomSource substitutes the random source used for tunnel password
// salts. Tests use this for deterministic output.
func WithRandomSource(src crypto.RandomSource) Option {
	return func(c *Codec) {
		c.random = src
	}
}

// WithMessageAuthenticator makes the codec insert a Message-Authenticator
// into every encoded request. RadSec transports enable this, as RFC 6614
// requires the attribute.
func WithMessageAuthenticator() Option {
	return func(c *Codec) {
		c.requireMessageAuth = true
	}
}

// New creates a codec over the given dictionary.
func New(dict *dictionary.Dictionary, opts ...Option) *Codec {
	c := &Codec{
		dict:   dict,
		random: crypto.SystemRandom(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeRequest serializes a request packet. Access-Request carries the
// supplied random authenticator; Accounting-Request, Status-Server,
// Disconnect-Request and CoA-Request get a computed one. Password attributes
// flagged in the dictionary are obfuscated. The caller's packet is not
// modified.
func (c *Codec) EncodeRequest(pkt *packet.Packet, sharedSecret []byte, requestAuth crypto.Authenticator) ([]byte, error) {
	if pkt == nil {
		return nil, &EncodeError{Reason: "packet cannot be nil"}
	}
	if !pkt.Code.IsRequest() {
		return nil, encodeErrorf(nil, "code %s is not a request code", pkt.Code)
	}

	work := pkt.Clone()

	// Computed-authenticator codes hash the packet with a zeroed
	// authenticator field, so hiding keys on zeros there.
	hideAuth := requestAuth
	if work.Code.HasComputedAuthenticator() {
		hideAuth = crypto.ZeroAuthenticator()
		work.Authenticator = crypto.ZeroAuthenticator()
	} else {
		work.Authenticator = requestAuth
	}

	if err := c.hideAttributes(work, sharedSecret, hideAuth); err != nil {
		return nil, err
	}

	data, err := work.Encode()
	if err != nil {
		return nil, encodeErrorf(err, "packet serialization")
	}

	hasMessageAuth := crypto.HasMessageAuthenticator(data)
	if c.requireMessageAuth && !hasMessageAuth {
		data, err = crypto.AddMessageAuthenticator(data, sharedSecret)
		if err != nil {
			return nil, encodeErrorf(err, "Message-Authenticator insertion")
		}
	} else if hasMessageAuth {
		if err := crypto.UpdateMessageAuthenticator(data, sharedSecret); err != nil {
			return nil, encodeErrorf(err, "Message-Authenticator update")
		}
	}

	if len(data) > packet.MaxLength {
		return nil, encodeErrorf(nil, "encoded packet too long: %d bytes", len(data))
	}

	if work.Code.HasComputedAuthenticator() {
		length := uint16(len(data))
		auth := crypto.CalculateRequestAuthenticator(uint8(work.Code), work.Identifier, length, data[packet.HeaderLength:], sharedSecret)
		copy(data[4:packet.HeaderLength], auth[:])
	}

	return data, nil
}

// DecodeResponse parses and authenticates a response against the request
// authenticator it answers. The Response Authenticator and, when present, the
// Message-Authenticator must both verify.
func (c *Codec) DecodeResponse(data []byte, sharedSecret []byte, requestAuth crypto.Authenticator) (*packet.Packet, error) {
	pkt, err := packet.Decode(data)
	if err != nil {
		return nil, decodeErrorf(err, "malformed packet")
	}

	if !pkt.Code.IsResponse() {
		return nil, decodeErrorf(nil, "code %s is not a response code", pkt.Code)
	}

	received := pkt.Received.Authenticator
	if !crypto.ValidateResponseAuthenticator(uint8(pkt.Code), pkt.Identifier, pkt.Length, requestAuth,
		data[packet.HeaderLength:], received, sharedSecret) {
		return nil, decodeErrorf(nil, "response authenticator mismatch")
	}

	if crypto.HasMessageAuthenticator(data) {
		// The response HMAC is computed with the request authenticator in
		// the authenticator field.
		calcData := make([]byte, len(data))
		copy(calcData, data)
		copy(calcData[4:packet.HeaderLength], requestAuth[:])

		valid, err := crypto.ValidateMessageAuthenticator(calcData, sharedSecret)
		if err != nil {
			return nil, decodeErrorf(err, "Message-Authenticator validation")
		}
		if !valid {
			return nil, decodeErrorf(nil, "Message-Authenticator mismatch")
		}
	}

	return pkt, nil
}

// DecodeRequest parses and authenticates a request as a server would. Codes
// with a computed Request Authenticator are verified against the shared
// secret; Access-Request authenticators are random and only checked for
// non-zero content.
func (c *Codec) DecodeRequest(data []byte, sharedSecret []byte) (*packet.Packet, error) {
	pkt, err := packet.Decode(data)
	if err != nil {
		return nil, decodeErrorf(err, "malformed packet")
	}

	if !pkt.Code.IsRequest() {
		return nil, decodeErrorf(nil, "code %s is not a request code", pkt.Code)
	}

	received := pkt.Received.Authenticator
	if pkt.Code.HasComputedAuthenticator() {
		if !crypto.ValidateRequestAuthenticator(uint8(pkt.Code), pkt.Identifier, pkt.Length,
			data[packet.HeaderLength:], received, sharedSecret) {
			return nil, decodeErrorf(nil, "request authenticator mismatch")
		}
	} else if crypto.Authenticator(received).IsZero() {
		return nil, decodeErrorf(nil, "request authenticator is all zeros")
	}

	if crypto.HasMessageAuthenticator(data) {
		calcData := make([]byte, len(data))
		copy(calcData, data)
		if pkt.Code.HasComputedAuthenticator() {
			copy(calcData[4:packet.HeaderLength], crypto.ZeroAuthenticator().ToBytes())
		}

		valid, err := crypto.ValidateMessageAuthenticator(calcData, sharedSecret)
		if err != nil {
			return nil, decodeErrorf(err, "Message-Authenticator validation")
		}
		if !valid {
			return nil, decodeErrorf(nil, "Message-Authenticator mismatch")
		}
	}

	return pkt, nil
}

// EncodeResponse serializes a response to a previously decoded request. The
// identifier is taken from the request and the Response Authenticator is
// computed over the request authenticator.
func (c *Codec) EncodeResponse(resp *packet.Packet, sharedSecret []byte, requestID uint8, requestAuth crypto.Authenticator) ([]byte, error) {
	if resp == nil {
		return nil, &EncodeError{Reason: "packet cannot be nil"}
	}
	if !resp.Code.IsResponse() {
		return nil, encodeErrorf(nil, "code %s is not a response code", resp.Code)
	}

	work := resp.Clone()
	work.Identifier = requestID
	work.Authenticator = requestAuth

	if err := c.hideAttributes(work, sharedSecret, requestAuth); err != nil {
		return nil, err
	}

	data, err := work.Encode()
	if err != nil {
		return nil, encodeErrorf(err, "packet serialization")
	}

	if crypto.HasMessageAuthenticator(data) {
		if err := crypto.UpdateMessageAuthenticator(data, sharedSecret); err != nil {
			return nil, encodeErrorf(err, "Message-Authenticator update")
		}
	}

	length := uint16(len(data))
	auth := crypto.CalculateResponseAuthenticator(uint8(work.Code), requestID, length, requestAuth,
		data[packet.HeaderLength:], sharedSecret)
	copy(data[4:packet.HeaderLength], auth[:])

	return data, nil
}

// RecoverUserPassword recovers the cleartext User-Password from a decoded
// request using its received authenticator.
func (c *Codec) RecoverUserPassword(pkt *packet.Packet, sharedSecret []byte) ([]byte, error) {
	if pkt.Received == nil {
		return nil, fmt.Errorf("packet was not decoded from the wire")
	}
	attr, ok := pkt.Attribute(packet.AttributeTypeUserPassword)
	if !ok {
		return nil, fmt.Errorf("packet has no User-Password attribute")
	}

	auth := crypto.Authenticator(pkt.Received.Authenticator)
	if pkt.Code.HasComputedAuthenticator() {
		auth = crypto.ZeroAuthenticator()
	}
	return crypto.RecoverUserPassword(attr.Value, sharedSecret, auth)
}

// hideAttributes obfuscates attribute values the dictionary marks as
// encrypted, preserving tag bytes on tagged attributes.
func (c *Codec) hideAttributes(p *packet.Packet, sharedSecret []byte, auth crypto.Authenticator) error {
	for _, attr := range p.Attributes {
		def, ok := c.dict.LookupByID(uint32(attr.Type))
		if !ok || !def.IsEncrypted() {
			continue
		}

		var hidden []byte
		var err error
		switch def.Encryption {
		case dictionary.EncryptionUserPassword:
			hidden, err = crypto.HideUserPassword(attr.PlainValue(), sharedSecret, auth)
		case dictionary.EncryptionTunnelPassword:
			hidden, err = crypto.HideTunnelPassword(attr.PlainValue(), sharedSecret, auth, c.random)
		default:
			err = fmt.Errorf("unsupported encryption scheme %q", def.Encryption)
		}
		if err != nil {
			return encodeErrorf(err, "hiding attribute %q", def.Name)
		}

		value := hidden
		if attr.Tag != 0 {
			value = make([]byte, 1+len(hidden))
			value[0] = attr.Tag
			copy(value[1:], hidden)
		}
		if len(value)+packet.AttributeHeaderLength > 255 {
			return encodeErrorf(nil, "hidden attribute %q too long: %d bytes", def.Name, len(value))
		}

		p.Length += uint16(len(value)) - uint16(len(attr.Value))
		attr.Value = value
		attr.Length = uint8(len(value) + packet.AttributeHeaderLength)
	}

	return nil
}
