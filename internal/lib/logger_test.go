package lib

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesToExtraSink(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LoggerConfig{Level: "info", Extra: &buf})
	require.NoError(t, err)

	named := log.Named("CHAIN")
	named.Infof("block %d committed", 7)
	named.Debugf("hidden below level")
	_ = log.Sync()

	out := buf.String()
	require.Contains(t, out, "CHAIN")
	require.Contains(t, out, "block 7 committed")
	require.NotContains(t, out, "hidden below level")
}

func TestLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "verbose"})
	require.Error(t, err)
}
