package logfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"heartbeat/internal/domain/entity"
)

func TestWriter_ResultLines(t *testing.T) {
	var results bytes.Buffer
	w := NewWriter(&results, nil)

	w.OnResult(entity.Result{Time: 2_000_000, Mean: 70.25, Min: 69.5, Max: 71})
	w.OnSample(entity.Sample{Time: 1})
	require.NoError(t, w.Close())

	require.Equal(t, "time;mean;min;max\n2000000;70.250;69.500;71.000\n", results.String())
}

func TestWriter_DetailedSamples(t *testing.T) {
	var results, samples bytes.Buffer
	w := NewWriter(&results, &samples)

	w.OnSample(entity.Sample{Time: 10, Means: [3]float64{100, 120.5, 90}})
	w.OnSample(entity.Sample{Time: 90, Means: [3]float64{101, 121, 91}, Jump: true})
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(samples.String()), "\n")
	require.Equal(t, []string{
		"time;r;g;b;jump",
		"10;100.0000;120.5000;90.0000;0",
		"90;101.0000;121.0000;91.0000;1",
	}, lines)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_FailuresAreCounted(t *testing.T) {
	w := NewWriter(brokenWriter{}, nil)
	w.OnResult(entity.Result{Mean: 70})
	require.Positive(t, w.Failures())
}

func TestOpen_CreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w, err := Open(dir, "session", true)
	require.NoError(t, err)

	w.OnResult(entity.Result{Time: 1, Mean: 60, Min: 60, Max: 60})
	w.OnSample(entity.Sample{Time: 1})
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "session.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "1;60.000;60.000;60.000")

	_, err = os.Stat(filepath.Join(dir, "session_detailed.log"))
	require.NoError(t, err)
}
