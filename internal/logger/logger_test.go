package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(WARN, &buf, false)

	l.Info("session", "hidden %d", 1)
	require.Empty(t, buf.String())

	l.Warn("session", "face lost after %d frames", 3)
	require.Contains(t, buf.String(), "[WARN] [session] face lost after 3 frames")

	buf.Reset()
	l.SetLevel(SILENT)
	l.Error("session", "hidden")
	require.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, DEBUG, lvl)
	require.Equal(t, "DEBUG", lvl.String())

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
