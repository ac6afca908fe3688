package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radkit/radclient/pkg/retry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
address: radius.example.com:1812
secret: testing123
transport: udp
retry:
  attempts: 5
  timeout: 2s
connection:
  connect_timeout: 3s
  keep_alive_interval: 30s
  auto_reconnect: false
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "radius.example.com:1812", cfg.Address)
	assert.Equal(t, []byte("testing123"), cfg.Secret)
	assert.Equal(t, TransportUDP, cfg.Transport)

	assert.Equal(t, 5, cfg.Retransmission.MaxAttempts())
	assert.Equal(t, 2*time.Second, cfg.Retransmission.TimeoutForAttempt(0))

	assert.Equal(t, 3*time.Second, cfg.Connection.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Connection.KeepAliveInterval)
	assert.False(t, cfg.Connection.AutoReconnect)
}

func TestLoadConfigFileDefaults(t *testing.T) {
	path := writeConfig(t, `
address: 127.0.0.1:1812
secret: s3cret
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	// Unset sections fall back to the stock values at client construction.
	assert.Nil(t, cfg.Retransmission)
	assert.True(t, cfg.Connection.AutoReconnect)

	cl, err := New(*cfg)
	require.NoError(t, err)
	defer cl.Close()
}

func TestLoadConfigFileTLS(t *testing.T) {
	path := writeConfig(t, `
address: radius.example.com:2083
secret: radsec
transport: tls
tls:
  server_name: radius.example.com
  insecure_skip_verify: true
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, TransportTLS, cfg.Transport)
	assert.Equal(t, "radius.example.com", cfg.TLS.ServerName)
	assert.True(t, cfg.TLS.InsecureSkipVerify)
}

func TestLoadConfigFileDictionary(t *testing.T) {
	dictPath := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(dictPath, []byte(`
attributes:
  - id: 210
    name: Site-Attribute
    data_type: string
`), 0o600))

	path := writeConfig(t, `
address: 127.0.0.1:1812
secret: s3cret
dictionary_files:
  - `+dictPath+`
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Dictionary)

	attr, ok := cfg.Dictionary.LookupByName("Site-Attribute")
	require.True(t, ok)
	assert.Equal(t, uint32(210), attr.ID)

	// The built-in set is still there underneath.
	_, ok = cfg.Dictionary.LookupByName("User-Name")
	assert.True(t, ok)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeConfig(t, "address: ["))
	assert.Error(t, err)

	// Missing secret fails validation.
	_, err = LoadConfigFile(writeConfig(t, "address: 127.0.0.1:1812"))
	assert.Error(t, err)

	// CA file that does not exist.
	_, err = LoadConfigFile(writeConfig(t, `
address: 127.0.0.1:2083
secret: radsec
transport: tls
tls:
  ca_file: /nonexistent/ca.pem
`))
	assert.Error(t, err)
}

func TestLoadConfigFilePartialRetry(t *testing.T) {
	// Only attempts set: timeout keeps the stock value.
	path := writeConfig(t, `
address: 127.0.0.1:1812
secret: s3cret
retry:
  attempts: 7
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	strategy, ok := cfg.Retransmission.(retry.IntervalStrategy)
	require.True(t, ok)
	assert.Equal(t, 7, strategy.Attempts)
	assert.Equal(t, retry.DefaultStrategy().Timeout, strategy.Timeout)
}
