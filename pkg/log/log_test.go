package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	require.NotNil(t, logger)
	assert.Equal(t, logrus.InfoLevel, logger.GetLogrus().GetLevel())
}

func TestNewLoggerWithLevel(t *testing.T) {
	logger := NewLoggerWithLevel("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLogrus().GetLevel())

	// Unknown level strings leave the level unchanged.
	logger = NewLoggerWithLevel("nonsense")
	assert.Equal(t, logrus.InfoLevel, logger.GetLogrus().GetLevel())
}

func TestLoggerOutput(t *testing.T) {
	logger := NewDefaultLogger()

	var buf bytes.Buffer
	logger.GetLogrus().SetOutput(&buf)

	logger.Infof("session %s established", "radius.example.com:1812")
	assert.Contains(t, buf.String(), "session radius.example.com:1812 established")

	buf.Reset()
	logger.Debugf("not visible at info level")
	assert.Empty(t, buf.String())

	buf.Reset()
	logger.SetLevel("debug")
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	buf.Reset()
	logger.Warn("warned")
	logger.Error("failed")
	out := buf.String()
	assert.Contains(t, out, "warned")
	assert.Contains(t, out, "failed")
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Info("dropped")
		logger.Errorf("dropped %d", 42)
	})
}
