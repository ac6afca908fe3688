package client

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radkit/radclient/pkg/codec"
	"github.com/radkit/radclient/pkg/crypto"
	"github.com/radkit/radclient/pkg/dictionaries"
	"github.com/radkit/radclient/pkg/packet"
	"github.com/radkit/radclient/pkg/retry"
	"github.com/radkit/radclient/pkg/transport"
)

var testSecret = []byte("testing123")

// requestHandler inspects a decoded request and produces the response
// packet, or nil to stay silent.
type requestHandler func(req *packet.Packet) *packet.Packet

// encodeReply runs the server side of the codec for a decoded request.
func encodeReply(t *testing.T, c *codec.Codec, req, resp *packet.Packet) []byte {
	t.Helper()
	data, err := c.EncodeResponse(resp, testSecret, req.Identifier,
		crypto.Authenticator(req.Received.Authenticator))
	require.NoError(t, err)
	return data
}

// startTestServer runs an in-process UDP RADIUS server.
func startTestServer(t *testing.T, handler requestHandler) string {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := codec.New(dictionaries.MustDefault())
	go func() {
		buf := make([]byte, 4096)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req, err := c.DecodeRequest(buf[:n], testSecret)
			if err != nil {
				continue
			}
			if resp := handler(req); resp != nil {
				conn.WriteToUDP(encodeReply(t, c, req, resp), addr)
			}
		}
	}()

	return conn.LocalAddr().String()
}

// startStreamTestServer runs an in-process framed TCP RADIUS server.
func startStreamTestServer(t *testing.T, handler requestHandler) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	c := codec.New(dictionaries.MustDefault())
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				for {
					prefix := make([]byte, 4)
					if _, err := io.ReadFull(conn, prefix); err != nil {
						return
					}
					data := make([]byte, binary.BigEndian.Uint32(prefix))
					if _, err := io.ReadFull(conn, data); err != nil {
						return
					}
					req, err := c.DecodeRequest(data, testSecret)
					if err != nil {
						continue
					}
					resp := handler(req)
					if resp == nil {
						continue
					}
					reply := encodeReply(t, c, req, resp)
					frame := make([]byte, 4+len(reply))
					binary.BigEndian.PutUint32(frame, uint32(len(reply)))
					copy(frame[4:], reply)
					if _, err := conn.Write(frame); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func fastConfig(address string, kind TransportKind) Config {
	return Config{
		Address:        address,
		Secret:         testSecret,
		Transport:      kind,
		Retransmission: retry.IntervalStrategy{Attempts: 3, Timeout: 300 * time.Millisecond},
		Connection: transport.ConnectionConfig{
			ConnectTimeout: 2 * time.Second,
		},
	}
}

func newTestClient(t *testing.T, address string, kind TransportKind) *Client {
	t.Helper()
	cl, err := New(fastConfig(address, kind))
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })
	require.NoError(t, cl.Connect(context.Background()))
	return cl
}

// acceptIfPassword answers Accept when the hidden password recovers to the
// expected cleartext, Reject otherwise.
func acceptIfPassword(t *testing.T, expected string) requestHandler {
	c := codec.New(dictionaries.MustDefault())
	return func(req *packet.Packet) *packet.Packet {
		password, err := c.RecoverUserPassword(req, testSecret)
		if err != nil || string(password) != expected {
			resp := packet.New(packet.CodeAccessReject, 0)
			resp.AddAttribute(packet.NewAttribute(18, []byte("denied")))
			return resp
		}
		resp := packet.New(packet.CodeAccessAccept, 0)
		resp.AddAttribute(packet.NewAttribute(18, []byte("welcome")))
		return resp
	}
}

func TestSendAccessRequestAccepted(t *testing.T) {
	addr := startTestServer(t, acceptIfPassword(t, "hunter2"))
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewAccessRequest().
		Add("User-Name", "alice").
		Add("User-Password", "hunter2").
		Packet()
	require.NoError(t, err)

	resp, err := cl.Send(req)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccessAccept, resp.Code)

	reply, ok := resp.Attribute(18)
	require.True(t, ok)
	assert.Equal(t, []byte("welcome"), reply.Value)
}

func TestSendAccessRequestRejected(t *testing.T) {
	addr := startTestServer(t, acceptIfPassword(t, "hunter2"))
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewAccessRequest().
		Add("User-Name", "alice").
		Add("User-Password", "wrong").
		Packet()
	require.NoError(t, err)

	resp, err := cl.Send(req)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccessReject, resp.Code)
}

func TestSendAccountingRequest(t *testing.T) {
	var gotStatusType atomic.Uint32
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet {
		if attr, ok := req.Attribute(40); ok && len(attr.Value) == 4 {
			gotStatusType.Store(binary.BigEndian.Uint32(attr.Value))
		}
		return packet.New(packet.CodeAccountingResponse, 0)
	})
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewAccountingRequest().
		Add("Acct-Status-Type", "Start").
		Add("Acct-Session-Id", "sess-0001").
		Add("User-Name", "alice").
		Packet()
	require.NoError(t, err)

	resp, err := cl.Send(req)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccountingResponse, resp.Code)
	assert.Equal(t, uint32(1), gotStatusType.Load())
}

func TestSendOverStream(t *testing.T) {
	addr := startStreamTestServer(t, acceptIfPassword(t, "hunter2"))
	cl := newTestClient(t, addr, TransportTCP)

	req, err := cl.NewAccessRequest().
		Add("User-Name", "alice").
		Add("User-Password", "hunter2").
		Packet()
	require.NoError(t, err)

	resp, err := cl.Send(req)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccessAccept, resp.Code)
}

func TestRetransmissionRecovers(t *testing.T) {
	var requests atomic.Int32
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet {
		if requests.Add(1) < 3 {
			return nil
		}
		return packet.New(packet.CodeAccessAccept, 0)
	})
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
	require.NoError(t, err)

	resp, err := cl.Send(req)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccessAccept, resp.Code)
	assert.Equal(t, int32(3), requests.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var requests atomic.Int32
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet {
		requests.Add(1)
		return nil
	})
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
	require.NoError(t, err)

	_, err = cl.Send(req)
	require.Error(t, err)

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, exhausted.Last, transport.ErrAttemptTimeout)
	assert.Equal(t, int32(3), requests.Load())
}

func TestTamperedResponseNotRetried(t *testing.T) {
	var requests atomic.Int32

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Answers with a response whose authenticator was computed over a
	// different secret.
	c := codec.New(dictionaries.MustDefault())
	go func() {
		buf := make([]byte, 4096)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			requests.Add(1)
			req, err := c.DecodeRequest(buf[:n], testSecret)
			if err != nil {
				continue
			}
			resp := packet.New(packet.CodeAccessAccept, 0)
			data, err := c.EncodeResponse(resp, []byte("evil-secret"), req.Identifier,
				crypto.Authenticator(req.Received.Authenticator))
			if err != nil {
				continue
			}
			conn.WriteToUDP(data, addr)
		}
	}()

	cl := newTestClient(t, conn.LocalAddr().String(), TransportUDP)

	req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
	require.NoError(t, err)

	_, err = cl.Send(req)
	require.Error(t, err)

	var decodeErr *codec.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, int32(1), requests.Load())
}

func TestSendAsync(t *testing.T) {
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet {
		return packet.New(packet.CodeAccessAccept, 0)
	})
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
	require.NoError(t, err)

	call := cl.SendAsync(req)
	select {
	case <-call.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("async call never completed")
	}

	require.NoError(t, call.Err)
	assert.Equal(t, packet.CodeAccessAccept, call.Response.Code)
}

func TestConcurrentSends(t *testing.T) {
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet {
		resp := packet.New(packet.CodeAccessAccept, 0)
		if attr, ok := req.Attribute(1); ok {
			resp.AddAttribute(packet.NewAttribute(18, attr.Value))
		}
		return resp
	})
	cl := newTestClient(t, addr, TransportUDP)

	calls := make([]*Call, 5)
	for i := range calls {
		req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
		require.NoError(t, err)
		calls[i] = cl.SendAsync(req)
	}

	for _, call := range calls {
		select {
		case <-call.Done:
		case <-time.After(5 * time.Second):
			t.Fatal("async call never completed")
		}
		require.NoError(t, call.Err)
		assert.Equal(t, packet.CodeAccessAccept, call.Response.Code)
	}
}

func TestSendAfterClose(t *testing.T) {
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet { return nil })

	cl, err := New(fastConfig(addr, TransportUDP))
	require.NoError(t, err)
	require.NoError(t, cl.Close())
	require.NoError(t, cl.Close())

	_, err = cl.Send(packet.New(packet.CodeAccessRequest, 0))
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, cl.Connect(context.Background()), ErrClientClosed)
}

func TestSendNilRequest(t *testing.T) {
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet { return nil })
	cl := newTestClient(t, addr, TransportUDP)

	_, err := cl.Send(nil)
	assert.Error(t, err)
}

func TestSendContextCancellation(t *testing.T) {
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet { return nil })
	cl := newTestClient(t, addr, TransportUDP)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
	require.NoError(t, err)

	_, err = cl.SendContext(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusServerRequest(t *testing.T) {
	addr := startTestServer(t, func(req *packet.Packet) *packet.Packet {
		if req.Code != packet.CodeStatusServer {
			return nil
		}
		return packet.New(packet.CodeAccessAccept, 0)
	})
	cl := newTestClient(t, addr, TransportUDP)

	req, err := cl.NewRequest(packet.CodeStatusServer).Packet()
	require.NoError(t, err)

	resp, err := cl.Send(req)
	require.NoError(t, err)
	assert.Equal(t, packet.CodeAccessAccept, resp.Code)
}

func TestReconnect(t *testing.T) {
	addr := startStreamTestServer(t, func(req *packet.Packet) *packet.Packet {
		return packet.New(packet.CodeAccessAccept, 0)
	})
	cl := newTestClient(t, addr, TransportTCP)

	require.NoError(t, cl.Reconnect(context.Background()))
	assert.True(t, cl.IsConnected())

	req, err := cl.NewAccessRequest().Add("User-Name", "alice").Packet()
	require.NoError(t, err)
	_, err = cl.Send(req)
	assert.NoError(t, err)
}
