package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heartbeat/internal/domain/entity"
)

func TestMetrics_Observer(t *testing.T) {
	m := New()

	m.FrameProcessed()
	m.FrameProcessed()
	m.Rescan(true)
	m.Rescan(false)
	m.SampleAdded(false)
	m.SampleAdded(true)
	m.ResultEmitted(entity.Result{Mean: 72.5})
	m.FrameFailed()
	m.UpdateProcessLatency(1500 * time.Microsecond)

	require.Equal(t, uint64(2), m.FramesProcessed.Load())
	require.Equal(t, uint64(2), m.Rescans.Load())
	require.Equal(t, uint64(1), m.FacesLost.Load())
	require.Equal(t, uint64(0), m.FaceTracked.Load())
	require.Equal(t, uint64(2), m.Samples.Load())
	require.Equal(t, uint64(1), m.Jumps.Load())
	require.Equal(t, uint64(1), m.Results.Load())
	require.Equal(t, 72.5, m.LastBPM())
	require.Equal(t, uint64(1500), m.ProcessLatencyUs.Load())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.FrameProcessed()
	m.ResultEmitted(entity.Result{Mean: 65})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "heartbeat_frames_processed_total 1")
	require.Contains(t, string(body), "heartbeat_last_bpm 65")
	require.Contains(t, string(body), "heartbeat_bpm_count 1")
}

func TestMetrics_TotalsAreCounters(t *testing.T) {
	m := New()
	m.FrameFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, name := range []string{
		"frames_processed_total", "frames_failed_total", "rescans_total", "faces_lost_total",
		"samples_total", "jumps_total", "results_total",
	} {
		require.Contains(t, body, "# TYPE heartbeat_"+name+" counter")
	}
	for _, name := range []string{"face_tracked", "process_latency_us", "last_bpm"} {
		require.Contains(t, body, "# TYPE heartbeat_"+name+" gauge")
	}
	require.Contains(t, body, "heartbeat_frames_failed_total 1")
}
