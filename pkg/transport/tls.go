package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/radkit/radclient/pkg/log"
)

// NewSecureStreamTransport creates a RadSec transport: the stream contract
// over TLS. The connect timeout covers both the TCP dial and the TLS
// handshake.
func NewSecureStreamTransport(address string, config ConnectionConfig, settings TLSSettings, logger log.Logger) (*StreamTransport, error) {
	tlsConfig := settings.Build()
	if tlsConfig.ServerName == "" && !tlsConfig.InsecureSkipVerify {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			return nil, fmt.Errorf("invalid server address %q: %w", address, err)
		}
		tlsConfig.ServerName = host
	}

	dial := func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: timeout},
			Config:    tlsConfig,
		}
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return dialer.DialContext(dialCtx, "tcp", addr)
	}

	return newStreamTransport(address, config, logger, dial)
}
