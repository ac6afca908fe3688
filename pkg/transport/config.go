package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"
)

// ConnectionConfig tunes stream transport session management. The zero value
// is not usable; start from DefaultConnectionConfig.
type ConnectionConfig struct {
	// ConnectTimeout bounds dial (and TLS handshake) time.
	ConnectTimeout time.Duration

	// KeepAliveInterval is the idle period after which a Status-Server
	// probe is sent. Zero disables keep-alive probing.
	KeepAliveInterval time.Duration

	// AutoReconnect enables reconnection after a lost session.
	AutoReconnect bool

	// MaxReconnectAttempts caps consecutive reconnection attempts.
	MaxReconnectAttempts int

	// ReconnectDelay is the pause before each reconnection attempt.
	ReconnectDelay time.Duration
}

// DefaultConnectionConfig returns the stock session settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:       10 * time.Second,
		KeepAliveInterval:    60 * time.Second,
		AutoReconnect:        true,
		MaxReconnectAttempts: 3,
		ReconnectDelay:       2 * time.Second,
	}
}

// Validate checks the configuration for usable values.
func (c ConnectionConfig) Validate() error {
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %v", c.ConnectTimeout)
	}
	if c.KeepAliveInterval < 0 {
		return fmt.Errorf("keep-alive interval cannot be negative, got %v", c.KeepAliveInterval)
	}
	if c.AutoReconnect {
		if c.MaxReconnectAttempts <= 0 {
			return fmt.Errorf("max reconnect attempts must be positive, got %d", c.MaxReconnectAttempts)
		}
		if c.ReconnectDelay < 0 {
			return fmt.Errorf("reconnect delay cannot be negative, got %v", c.ReconnectDelay)
		}
	}
	return nil
}

// TLSSettings restricts the TLS client parameters for the secure stream
// transport. Trust is always injected by the caller; there is no trust-all
// default.
type TLSSettings struct {
	// ServerName is the expected name in the server certificate. Defaults
	// to the host part of the transport address.
	ServerName string

	// RootCAs is the trust anchor pool. Nil falls back to the system pool.
	RootCAs *x509.CertPool

	// Certificates holds the client certificate chain for mutual TLS.
	Certificates []tls.Certificate

	MinVersion   uint16
	MaxVersion   uint16
	CipherSuites []uint16

	// InsecureSkipVerify disables server certificate verification. Test
	// use only.
	InsecureSkipVerify bool
}

// Build assembles the crypto/tls configuration.
func (s TLSSettings) Build() *tls.Config {
	cfg := &tls.Config{
		ServerName:         s.ServerName,
		RootCAs:            s.RootCAs,
		Certificates:       s.Certificates,
		MinVersion:         s.MinVersion,
		MaxVersion:         s.MaxVersion,
		CipherSuites:       s.CipherSuites,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	return cfg
}
