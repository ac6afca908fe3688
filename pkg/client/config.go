package client

import (
	"fmt"

	"github.com/radkit/radclient/pkg/crypto"
	"github.com/radkit/radclient/pkg/dictionary"
	"github.com/radkit/radclient/pkg/log"
	"github.com/radkit/radclient/pkg/retry"
	"github.com/radkit/radclient/pkg/transport"
)

// TransportKind selects the wire flavour for a client.
type TransportKind string

const (
	TransportUDP TransportKind = "udp"
	TransportTCP TransportKind = "tcp"
	TransportTLS TransportKind = "tls"
)

// Config assembles a client. Address and Secret are mandatory; every other
// field has a default filled in by New.
type Config struct {
	// Address is the server endpoint in host:port form.
	Address string

	// Secret is the shared secret for this server relationship.
	Secret []byte

	// Transport selects udp, tcp or tls. Defaults to udp.
	Transport TransportKind

	// Dictionary drives attribute metadata lookups. Defaults to the
	// built-in RFC set.
	Dictionary *dictionary.Dictionary

	// Random produces request authenticators and salts. Defaults to the
	// system CSPRNG.
	Random crypto.RandomSource

	// Identifiers produces candidate packet identifiers. Defaults to a
	// randomly seeded sequential generator.
	Identifiers IdentifierGenerator

	// Retransmission is the attempt schedule. Defaults to 3 x 5s.
	Retransmission retry.Strategy

	// Connection tunes stream session management.
	Connection transport.ConnectionConfig

	// TLS configures the secure stream transport; used only when Transport
	// is tls. The zero value verifies against the system pool with the
	// server name taken from Address.
	TLS transport.TLSSettings

	// Logger receives lifecycle and exchange logging. Defaults to a
	// discard logger.
	Logger log.Logger
}

// Validate checks the mandatory fields and the transport selection.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if len(c.Secret) == 0 {
		return fmt.Errorf("shared secret is required")
	}
	switch c.Transport {
	case "", TransportUDP, TransportTCP, TransportTLS:
	default:
		return fmt.Errorf("unknown transport kind %q", c.Transport)
	}
	if c.Retransmission != nil && c.Retransmission.MaxAttempts() <= 0 {
		return fmt.Errorf("retransmission strategy must allow at least one attempt")
	}
	return nil
}
