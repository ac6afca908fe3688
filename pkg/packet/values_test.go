package packet

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerCodec(t *testing.T) {
	data := EncodeInteger(0x01020304)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	value, err := DecodeInteger(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), value)

	_, err = DecodeInteger([]byte{1, 2})
	assert.Error(t, err)
}

func TestIPAddrCodec(t *testing.T) {
	ip := net.ParseIP("192.0.2.1")

	data, err := EncodeIPAddr(ip)
	require.NoError(t, err)
	assert.Equal(t, []byte{192, 0, 2, 1}, data)

	decoded, err := DecodeIPAddr(data)
	require.NoError(t, err)
	assert.True(t, ip.Equal(decoded))

	_, err = EncodeIPAddr(net.ParseIP("2001:db8::1"))
	assert.Error(t, err)
}

func TestIPv6AddrCodec(t *testing.T) {
	ip := net.ParseIP("2001:db8::1")

	data, err := EncodeIPv6Addr(ip)
	require.NoError(t, err)
	assert.Len(t, data, 16)

	decoded, err := DecodeIPv6Addr(data)
	require.NoError(t, err)
	assert.True(t, ip.Equal(decoded))

	_, err = EncodeIPv6Addr(net.ParseIP("192.0.2.1"))
	assert.Error(t, err)
}

func TestTimeCodec(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	data := EncodeTime(now)
	decoded, err := DecodeTime(data)
	require.NoError(t, err)
	assert.Equal(t, now, decoded)
}

func TestIFIDCodec(t *testing.T) {
	ifid := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	data, err := EncodeIFID(ifid)
	require.NoError(t, err)
	assert.Equal(t, ifid, data)

	_, err = EncodeIFID([]byte{1, 2, 3})
	assert.Error(t, err)
}
