// Package client is the façade composing codec, transport and
// retransmission schedule into synchronous and asynchronous send paths.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/radkit/radclient/pkg/codec"
	"github.com/radkit/radclient/pkg/crypto"
	"github.com/radkit/radclient/pkg/dictionaries"
	"github.com/radkit/radclient/pkg/log"
	"github.com/radkit/radclient/pkg/packet"
	"github.com/radkit/radclient/pkg/retry"
	"github.com/radkit/radclient/pkg/transport"
)

// deadlineOverhead pads the summed attempt timeouts into the total
// wall-clock budget a logical request may use.
const deadlineOverhead = 5 * time.Second

// identifierSweep is the number of candidate identifiers tried before the
// allocation gives up.
const identifierSweep = 256

// Call is an in-flight asynchronous request. Done is closed once Response
// or Err is set.
type Call struct {
	Request  *packet.Packet
	Response *packet.Packet
	Err      error
	Done     chan *Call
}

// streamTransport is the extra surface stream transports expose beyond the
// base contract.
type streamTransport interface {
	transport.Transport
	Reset()
	HasPending(identifier uint8) bool
	SetKeepAliveProbe(probe transport.ProbeFunc)
}

// Client sends RADIUS requests to one server over one transport. Safe for
// concurrent use.
type Client struct {
	config      Config
	codec       *codec.Codec
	transport   transport.Transport
	stream      streamTransport // nil for datagram
	strategy    retry.Strategy
	random      crypto.RandomSource
	identifiers IdentifierGenerator
	logger      log.Logger

	mu     sync.Mutex
	closed bool
}

// New builds a client from the configuration, filling in defaults for every
// optional field.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	if config.Transport == "" {
		config.Transport = TransportUDP
	}
	if config.Dictionary == nil {
		config.Dictionary = dictionaries.MustDefault()
	}
	if config.Random == nil {
		config.Random = crypto.SystemRandom()
	}
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}
	if config.Retransmission == nil {
		config.Retransmission = retry.DefaultStrategy()
	}
	if config.Connection == (transport.ConnectionConfig{}) {
		config.Connection = transport.DefaultConnectionConfig()
	}
	if config.Identifiers == nil {
		seed, err := crypto.RandomBytes(config.Random, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to seed identifier generator: %w", err)
		}
		config.Identifiers = NewSequentialGenerator(seed[0])
	}

	c := &Client{
		config:      config,
		strategy:    config.Retransmission,
		random:      config.Random,
		identifiers: config.Identifiers,
		logger:      config.Logger,
	}

	codecOpts := []codec.Option{codec.WithRandomSource(config.Random)}
	if config.Transport == TransportTLS {
		codecOpts = append(codecOpts, codec.WithMessageAuthenticator())
	}
	c.codec = codec.New(config.Dictionary, codecOpts...)

	switch config.Transport {
	case TransportUDP:
		c.transport = transport.NewDatagramTransport(config.Address, config.Logger)
	case TransportTCP:
		st, err := transport.NewStreamTransport(config.Address, config.Connection, config.Logger)
		if err != nil {
			return nil, err
		}
		c.stream = st
		c.transport = st
	case TransportTLS:
		st, err := transport.NewSecureStreamTransport(config.Address, config.Connection, config.TLS, config.Logger)
		if err != nil {
			return nil, err
		}
		c.stream = st
		c.transport = st
	}

	if c.stream != nil {
		c.stream.SetKeepAliveProbe(c.keepAliveProbe)
	}

	return c, nil
}

// Connect establishes the transport.
func (c *Client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.transport.Connect(ctx)
}

// Close shuts the client down. Outstanding exchanges fail with
// transport.ErrTransportClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.transport.Close()
}

// IsConnected reports whether the transport could carry an exchange now.
func (c *Client) IsConnected() bool {
	return c.transport.Connected()
}

// Reconnect drops the stream session and dials again. No-op on datagram
// transports.
func (c *Client) Reconnect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if c.stream == nil {
		return nil
	}
	c.stream.Reset()
	return c.stream.Connect(ctx)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send transmits a request and blocks for the response, bounded by the
// schedule's total deadline.
func (c *Client) Send(req *packet.Packet) (*packet.Packet, error) {
	return c.SendContext(context.Background(), req)
}

// SendAsync transmits a request in the background. The returned Call's Done
// channel is closed once the exchange completes either way.
func (c *Client) SendAsync(req *packet.Packet) *Call {
	call := &Call{
		Request: req,
		Done:    make(chan *Call, 1),
	}
	go func() {
		call.Response, call.Err = c.SendContext(context.Background(), req)
		call.Done <- call
		close(call.Done)
	}()
	return call
}

// SendContext runs the retransmission loop for one logical request: encode
// once, transmit per the schedule, decode and authenticate the first
// response. Only transient failures are retried.
func (c *Client) SendContext(ctx context.Context, req *packet.Packet) (*packet.Packet, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}
	if req == nil {
		return nil, &codec.EncodeError{Reason: "request cannot be nil"}
	}

	deadline := time.Now().Add(retry.TotalTimeout(c.strategy) + deadlineOverhead)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	identifier, err := c.allocateIdentifier()
	if err != nil {
		return nil, err
	}

	work := req.Clone()
	work.Identifier = identifier

	var requestAuth crypto.Authenticator
	if !work.Code.HasComputedAuthenticator() {
		requestAuth, err = crypto.GenerateRequestAuthenticator(c.random)
		if err != nil {
			return nil, &codec.EncodeError{Reason: "request authenticator generation", Err: err}
		}
	}

	data, err := c.codec.EncodeRequest(work, c.config.Secret, requestAuth)
	if err != nil {
		return nil, err
	}
	// Computed authenticators land in the wire bytes; response validation
	// needs the value actually sent.
	requestAuth, err = crypto.FromBytes(data[4:packet.HeaderLength])
	if err != nil {
		return nil, err
	}

	maxAttempts := c.strategy.MaxAttempts()
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrDeadlineExceeded
		}

		if !c.transport.Connected() {
			if err := c.transport.Connect(ctx); err != nil {
				if fatal, mapped := c.classify(ctx, err); fatal {
					return nil, mapped
				}
				lastErr = err
				c.logger.Debugf("attempt %d connect failed: %v", attempt, err)
				continue
			}
		}

		timeout := c.strategy.TimeoutForAttempt(attempt)
		if timeout > remaining {
			timeout = remaining
		}

		reply, err := c.transport.Exchange(ctx, data, identifier, timeout)
		if err == nil {
			resp, derr := c.codec.DecodeResponse(reply, c.config.Secret, requestAuth)
			if derr != nil {
				return nil, derr
			}
			c.logger.Debugf("request %d answered with %s on attempt %d", identifier, resp.Code, attempt+1)
			return resp, nil
		}

		if fatal, mapped := c.classify(ctx, err); fatal {
			return nil, mapped
		}
		lastErr = err
		c.logger.Debugf("attempt %d/%d failed: %v", attempt+1, maxAttempts, err)

		// A failed attempt leaves the stream session in doubt; drop it so
		// the next attempt dials fresh.
		if c.stream != nil && attempt < maxAttempts-1 {
			c.stream.Reset()
		}
	}

	return nil, &RetriesExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

// classify splits attempt errors into fatal (surface now) and transient
// (retry). The bool is true for fatal errors.
func (c *Client) classify(ctx context.Context, err error) (bool, error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		// Caller cancellation and total-deadline expiry both arrive as
		// context errors; distinguish via the context's own state.
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return true, ctx.Err()
		}
		return true, ErrDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return true, err
	case errors.Is(err, transport.ErrDuplicateIdentifier),
		errors.Is(err, transport.ErrTransportClosed),
		errors.Is(err, transport.ErrReconnectExceeded):
		return true, err
	}
	return false, nil
}

// allocateIdentifier sweeps generator output past identifiers still pending
// on the transport.
func (c *Client) allocateIdentifier() (uint8, error) {
	for i := 0; i < identifierSweep; i++ {
		id := c.identifiers.Next()
		if c.stream != nil && c.stream.HasPending(id) {
			continue
		}
		return id, nil
	}
	return 0, ErrNoFreeIdentifier
}

// keepAliveProbe builds the Status-Server probe the stream transports send
// on idle sessions.
func (c *Client) keepAliveProbe() ([]byte, uint8, error) {
	identifier, err := c.allocateIdentifier()
	if err != nil {
		return nil, 0, err
	}

	probe := packet.New(packet.CodeStatusServer, identifier)
	data, err := c.codec.EncodeRequest(probe, c.config.Secret, crypto.ZeroAuthenticator())
	if err != nil {
		return nil, 0, err
	}
	return data, identifier, nil
}
