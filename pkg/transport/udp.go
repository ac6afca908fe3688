package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/radkit/radclient/pkg/log"
)

const maxDatagramSize = 4096

// DatagramTransport exchanges packets over a connected UDP socket. The
// kernel filters datagrams from other sources; responses with a different
// identifier than the in-flight request are discarded. One exchange runs at
// a time.
type DatagramTransport struct {
	address string
	logger  log.Logger

	mu     sync.Mutex // serializes exchanges
	connMu sync.RWMutex
	conn   *net.UDPConn
	closed bool
}

// NewDatagramTransport creates a UDP transport for the given server address
// in host:port form.
func NewDatagramTransport(address string, logger log.Logger) *DatagramTransport {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &DatagramTransport{
		address: address,
		logger:  logger,
	}
}

// Connect resolves the server address and binds the socket.
func (t *DatagramTransport) Connect(ctx context.Context) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp", t.address)
	if err != nil {
		return fmt.Errorf("failed to resolve server address %q: %w", t.address, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("failed to bind datagram socket: %w", err)
	}

	t.conn = conn
	t.closed = false
	t.logger.Debugf("datagram transport bound: local=%s server=%s", conn.LocalAddr(), t.address)
	return nil
}

// Close releases the socket. Safe to call more than once.
func (t *DatagramTransport) Close() error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close datagram socket: %w", err)
	}
	return nil
}

// Connected reports whether the socket is bound.
func (t *DatagramTransport) Connected() bool {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.conn != nil
}

// Exchange sends one encoded request and reads until a datagram with the
// matching identifier arrives or the timeout expires. Datagrams carrying
// other identifiers are dropped.
func (t *DatagramTransport) Exchange(ctx context.Context, data []byte, identifier uint8, timeout time.Duration) ([]byte, error) {
	t.connMu.RLock()
	conn, closed := t.conn, t.closed
	t.connMu.RUnlock()

	if closed {
		return nil, ErrTransportClosed
	}
	if conn == nil {
		return nil, ErrNotConnected
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send datagram: %w", err)
	}

	buf := make([]byte, maxDatagramSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to arm read deadline: %w", err)
		}

		n, err := conn.Read(buf)
		if err != nil {
			if os.IsTimeout(err) {
				return nil, ErrAttemptTimeout
			}
			t.connMu.RLock()
			closed := t.closed
			t.connMu.RUnlock()
			if closed {
				return nil, ErrTransportClosed
			}
			return nil, fmt.Errorf("failed to receive datagram: %w", err)
		}

		if n < 2 || buf[1] != identifier {
			t.logger.Debugf("dropping datagram: %d bytes, wrong identifier", n)
			continue
		}

		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}
