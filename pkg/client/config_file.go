package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radkit/radclient/pkg/dictionaries"
	"github.com/radkit/radclient/pkg/log"
	"github.com/radkit/radclient/pkg/retry"
	"github.com/radkit/radclient/pkg/transport"
)

// fileConfig is the YAML document shape for client configuration.
type fileConfig struct {
	Address   string `yaml:"address"`
	Secret    string `yaml:"secret"`
	Transport string `yaml:"transport,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`

	Retry struct {
		Attempts int           `yaml:"attempts,omitempty"`
		Timeout  time.Duration `yaml:"timeout,omitempty"`
	} `yaml:"retry,omitempty"`

	Connection struct {
		ConnectTimeout       time.Duration `yaml:"connect_timeout,omitempty"`
		KeepAliveInterval    time.Duration `yaml:"keep_alive_interval,omitempty"`
		AutoReconnect        *bool         `yaml:"auto_reconnect,omitempty"`
		MaxReconnectAttempts int           `yaml:"max_reconnect_attempts,omitempty"`
		ReconnectDelay       time.Duration `yaml:"reconnect_delay,omitempty"`
	} `yaml:"connection,omitempty"`

	TLS struct {
		ServerName         string `yaml:"server_name,omitempty"`
		CAFile             string `yaml:"ca_file,omitempty"`
		CertFile           string `yaml:"cert_file,omitempty"`
		KeyFile            string `yaml:"key_file,omitempty"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
	} `yaml:"tls,omitempty"`

	DictionaryFiles []string `yaml:"dictionary_files,omitempty"`
}

// LoadConfigFile reads a YAML client configuration and builds a Config with
// file-backed TLS material and site dictionaries resolved.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{
		Address:   fc.Address,
		Secret:    []byte(fc.Secret),
		Transport: TransportKind(fc.Transport),
	}

	if fc.LogLevel != "" {
		cfg.Logger = log.NewLoggerWithLevel(fc.LogLevel)
	}

	if fc.Retry.Attempts > 0 || fc.Retry.Timeout > 0 {
		strategy := retry.DefaultStrategy()
		if fc.Retry.Attempts > 0 {
			strategy.Attempts = fc.Retry.Attempts
		}
		if fc.Retry.Timeout > 0 {
			strategy.Timeout = fc.Retry.Timeout
		}
		cfg.Retransmission = strategy
	}

	conn := transport.DefaultConnectionConfig()
	if fc.Connection.ConnectTimeout > 0 {
		conn.ConnectTimeout = fc.Connection.ConnectTimeout
	}
	if fc.Connection.KeepAliveInterval > 0 {
		conn.KeepAliveInterval = fc.Connection.KeepAliveInterval
	}
	if fc.Connection.AutoReconnect != nil {
		conn.AutoReconnect = *fc.Connection.AutoReconnect
	}
	if fc.Connection.MaxReconnectAttempts > 0 {
		conn.MaxReconnectAttempts = fc.Connection.MaxReconnectAttempts
	}
	if fc.Connection.ReconnectDelay > 0 {
		conn.ReconnectDelay = fc.Connection.ReconnectDelay
	}
	cfg.Connection = conn

	if err := loadTLSSettings(&cfg.TLS, fc); err != nil {
		return nil, err
	}

	if len(fc.DictionaryFiles) > 0 {
		dict := dictionaries.MustDefault()
		for _, file := range fc.DictionaryFiles {
			if err := dict.LoadFile(file); err != nil {
				return nil, fmt.Errorf("failed to load dictionary %q: %w", file, err)
			}
		}
		cfg.Dictionary = dict
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTLSSettings(settings *transport.TLSSettings, fc fileConfig) error {
	settings.ServerName = fc.TLS.ServerName
	settings.InsecureSkipVerify = fc.TLS.InsecureSkipVerify

	if fc.TLS.CAFile != "" {
		pem, err := os.ReadFile(fc.TLS.CAFile)
		if err != nil {
			return fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return fmt.Errorf("no certificates found in CA file %q", fc.TLS.CAFile)
		}
		settings.RootCAs = pool
	}

	if fc.TLS.CertFile != "" || fc.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(fc.TLS.CertFile, fc.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load client certificate: %w", err)
		}
		settings.Certificates = []tls.Certificate{cert}
	}

	return nil
}
