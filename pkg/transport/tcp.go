package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/radkit/radclient/pkg/log"
)

// Stream framing: every packet is preceded by a 4-byte big-endian length.
// Lengths outside (0, 4096] mean the peer lost framing and the session is
// aborted.
const (
	framePrefixLength = 4
	maxFrameLength    = 4096
)

type sessionState int

const (
	stateDisconnected sessionState = iota
	stateConnecting
	stateConnected
	stateClosing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type exchangeResult struct {
	data []byte
	err  error
}

type dialFunc func(ctx context.Context, address string, timeout time.Duration) (net.Conn, error)

// StreamTransport exchanges packets over a framed TCP session. Multiple
// exchanges run concurrently, correlated by identifier through a pending
// table. A lost session fails all outstanding exchanges and, when
// configured, reconnects in the background.
type StreamTransport struct {
	address string
	config  ConnectionConfig
	logger  log.Logger
	dial    dialFunc
	probe   ProbeFunc

	mu       sync.Mutex
	state    sessionState
	conn     net.Conn
	pending  map[uint8]chan exchangeResult
	lastErr  error
	stopKeep chan struct{}

	writeMu      sync.Mutex
	lastActivity time.Time
}

// NewStreamTransport creates a TCP transport for the given server address in
// host:port form.
func NewStreamTransport(address string, config ConnectionConfig, logger log.Logger) (*StreamTransport, error) {
	return newStreamTransport(address, config, logger, tcpDial)
}

func newStreamTransport(address string, config ConnectionConfig, logger log.Logger, dial dialFunc) (*StreamTransport, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &StreamTransport{
		address: address,
		config:  config,
		logger:  logger,
		dial:    dial,
		state:   stateDisconnected,
		pending: make(map[uint8]chan exchangeResult),
	}, nil
}

func tcpDial(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "tcp", address)
}

// SetKeepAliveProbe installs the Status-Server probe used for keep-alive
// checks. Without a probe the keep-alive timer stays disarmed.
func (t *StreamTransport) SetKeepAliveProbe(probe ProbeFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probe = probe
}

// Connect dials the server and starts the session. Connecting an already
// connected transport is a no-op.
func (t *StreamTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case stateConnected:
		t.mu.Unlock()
		return nil
	case stateClosing, stateClosed:
		t.mu.Unlock()
		return ErrTransportClosed
	case stateConnecting:
		t.mu.Unlock()
		return fmt.Errorf("connect already in progress")
	}
	t.state = stateConnecting
	t.mu.Unlock()

	conn, err := t.dial(ctx, t.address, t.config.ConnectTimeout)
	if err != nil {
		t.mu.Lock()
		t.state = stateDisconnected
		t.mu.Unlock()
		if isTimeout(err) {
			return fmt.Errorf("%w: %s", ErrConnectTimeout, t.address)
		}
		return fmt.Errorf("failed to connect to %s: %w", t.address, err)
	}

	t.startSession(conn)
	t.logger.Infof("stream session established: %s", t.address)
	return nil
}

// startSession installs a fresh connection and spins up the session
// goroutines.
func (t *StreamTransport) startSession(conn net.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.state = stateConnected
	t.lastErr = nil
	t.lastActivity = time.Now()
	stop := make(chan struct{})
	t.stopKeep = stop
	t.mu.Unlock()

	go t.receiveLoop(conn)
	if t.config.KeepAliveInterval > 0 {
		go t.keepAliveLoop(conn, stop)
	}
}

// Close shuts the session down and releases all waiters. Idempotent.
func (t *StreamTransport) Close() error {
	t.mu.Lock()
	if t.state == stateClosed {
		t.mu.Unlock()
		return nil
	}
	t.state = stateClosing
	conn := t.conn
	t.conn = nil
	if t.stopKeep != nil {
		close(t.stopKeep)
		t.stopKeep = nil
	}
	t.failPendingLocked(ErrTransportClosed)
	t.state = stateClosed
	t.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("failed to close stream session: %w", err)
		}
	}
	return nil
}

// Reset drops the current session without closing the transport for good.
// Pending exchanges fail with ErrConnectionLost and a later Connect starts a
// fresh session. Used by the retransmission loop between attempts.
func (t *StreamTransport) Reset() {
	t.mu.Lock()
	if t.state != stateConnected {
		t.mu.Unlock()
		return
	}
	conn := t.conn
	t.conn = nil
	t.state = stateDisconnected
	t.lastErr = nil
	if t.stopKeep != nil {
		close(t.stopKeep)
		t.stopKeep = nil
	}
	t.failPendingLocked(ErrConnectionLost)
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	t.logger.Debugf("stream session reset: %s", t.address)
}

// HasPending reports whether an exchange with the identifier is in flight.
func (t *StreamTransport) HasPending(identifier uint8) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[identifier]
	return ok
}

// Connected reports whether the session is established.
func (t *StreamTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateConnected
}

// Exchange writes one framed request and waits for the frame carrying the
// same identifier.
func (t *StreamTransport) Exchange(ctx context.Context, data []byte, identifier uint8, timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	switch t.state {
	case stateClosing, stateClosed:
		t.mu.Unlock()
		return nil, ErrTransportClosed
	case stateDisconnected, stateConnecting:
		lastErr := t.lastErr
		t.mu.Unlock()
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNotConnected
	}

	if _, exists := t.pending[identifier]; exists {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrDuplicateIdentifier, identifier)
	}
	ch := make(chan exchangeResult, 1)
	t.pending[identifier] = ch
	conn := t.conn
	t.mu.Unlock()

	if err := t.writeFrame(conn, data); err != nil {
		t.removePending(identifier)
		t.sessionFailed(conn, err)
		return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.data, nil
	case <-timer.C:
		t.removePending(identifier)
		return nil, ErrAttemptTimeout
	case <-ctx.Done():
		t.removePending(identifier)
		return nil, ctx.Err()
	}
}

func (t *StreamTransport) writeFrame(conn net.Conn, data []byte) error {
	frame := make([]byte, framePrefixLength+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[framePrefixLength:], data)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := conn.Write(frame); err != nil {
		return err
	}
	t.touch()
	return nil
}

func (t *StreamTransport) touch() {
	t.mu.Lock()
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

// receiveLoop reads frames and completes pending exchanges until the
// session dies.
func (t *StreamTransport) receiveLoop(conn net.Conn) {
	for {
		prefix := make([]byte, framePrefixLength)
		if _, err := io.ReadFull(conn, prefix); err != nil {
			t.sessionFailed(conn, err)
			return
		}

		length := binary.BigEndian.Uint32(prefix)
		if length == 0 || length > maxFrameLength {
			t.sessionFailed(conn, fmt.Errorf("invalid frame length %d", length))
			return
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(conn, data); err != nil {
			t.sessionFailed(conn, err)
			return
		}
		t.touch()

		if len(data) < 2 {
			t.logger.Debugf("dropping short frame: %d bytes", len(data))
			continue
		}

		identifier := data[1]
		t.mu.Lock()
		ch, ok := t.pending[identifier]
		if ok {
			delete(t.pending, identifier)
		}
		t.mu.Unlock()

		if !ok {
			t.logger.Debugf("dropping frame for unknown identifier %d", identifier)
			continue
		}
		ch <- exchangeResult{data: data}
	}
}

// keepAliveLoop sends a Status-Server probe after each idle interval. A
// failed probe kills the session so reconnection can take over.
func (t *StreamTransport) keepAliveLoop(conn net.Conn, stop chan struct{}) {
	ticker := time.NewTicker(t.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		probe := t.probe
		idle := time.Since(t.lastActivity)
		connected := t.state == stateConnected && t.conn == conn
		t.mu.Unlock()

		if !connected {
			return
		}
		if probe == nil || idle < t.config.KeepAliveInterval {
			continue
		}

		data, identifier, err := probe()
		if err != nil {
			t.logger.Warnf("keep-alive probe build failed: %v", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.config.ConnectTimeout)
		_, err = t.Exchange(ctx, data, identifier, t.config.ConnectTimeout)
		cancel()
		if err != nil {
			if errors.Is(err, ErrDuplicateIdentifier) {
				continue
			}
			t.logger.Warnf("keep-alive probe failed: %v", err)
			t.sessionFailed(conn, err)
			return
		}
		t.logger.Debugf("keep-alive probe answered: %s", t.address)
	}
}

// sessionFailed tears down a dead session, fails all pending exchanges and
// kicks off reconnection when configured. Duplicate notifications for the
// same connection are ignored.
func (t *StreamTransport) sessionFailed(conn net.Conn, cause error) {
	t.mu.Lock()
	if t.state == stateClosing || t.state == stateClosed {
		t.mu.Unlock()
		return
	}
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.state = stateDisconnected
	t.lastErr = ErrConnectionLost
	if t.stopKeep != nil {
		close(t.stopKeep)
		t.stopKeep = nil
	}
	t.failPendingLocked(ErrConnectionLost)
	reconnect := t.config.AutoReconnect
	t.mu.Unlock()

	conn.Close()
	t.logger.Warnf("stream session lost: %s: %v", t.address, cause)

	if reconnect {
		go t.reconnectLoop()
	}
}

// reconnectLoop retries the dial up to the configured attempt cap.
func (t *StreamTransport) reconnectLoop() {
	for attempt := 1; attempt <= t.config.MaxReconnectAttempts; attempt++ {
		time.Sleep(t.config.ReconnectDelay)

		t.mu.Lock()
		if t.state != stateDisconnected {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), t.config.ConnectTimeout)
		conn, err := t.dial(ctx, t.address, t.config.ConnectTimeout)
		cancel()
		if err != nil {
			t.logger.Warnf("reconnect attempt %d/%d failed: %v", attempt, t.config.MaxReconnectAttempts, err)
			continue
		}

		t.mu.Lock()
		if t.state != stateDisconnected {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.mu.Unlock()

		t.startSession(conn)
		t.logger.Infof("stream session reestablished: %s (attempt %d)", t.address, attempt)
		return
	}

	t.mu.Lock()
	if t.state == stateDisconnected {
		t.lastErr = ErrReconnectExceeded
	}
	t.mu.Unlock()
	t.logger.Errorf("reconnect gave up after %d attempts: %s", t.config.MaxReconnectAttempts, t.address)
}

func (t *StreamTransport) removePending(identifier uint8) {
	t.mu.Lock()
	delete(t.pending, identifier)
	t.mu.Unlock()
}

// failPendingLocked completes every pending exchange with err. Caller holds
// t.mu.
func (t *StreamTransport) failPendingLocked(err error) {
	for id, ch := range t.pending {
		ch <- exchangeResult{err: err}
		delete(t.pending, id)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)
}
