package metrics

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"heartbeat/internal/domain/entity"
)

// Metrics счётчики конвейера; реализует port.SessionObserver
type Metrics struct {
	FramesProcessed atomic.Uint64
	FramesFailed    atomic.Uint64
	Rescans         atomic.Uint64
	FacesLost       atomic.Uint64
	Samples         atomic.Uint64
	Jumps           atomic.Uint64
	Results         atomic.Uint64

	FaceTracked      atomic.Uint64 // 0 или 1
	ProcessLatencyUs atomic.Uint64
	lastBPM          atomic.Uint64 // биты float64

	bpm      prometheus.Histogram
	registry *prometheus.Registry
}

// New создаёт метрики с собственным реестром
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bpm: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heartbeat_bpm",
			Help:    "Distribution of emitted mean heart rate estimates",
			Buckets: prometheus.LinearBuckets(40, 10, 21),
		}),
	}
	m.register()
	return m
}

type series struct {
	name, help string
	value      func() float64
}

func (m *Metrics) register() {
	counters := []series{
		{"heartbeat_frames_processed_total", "Total frames processed", load(&m.FramesProcessed)},
		{"heartbeat_frames_failed_total", "Total frames rejected by the session or dropped by the source", load(&m.FramesFailed)},
		{"heartbeat_rescans_total", "Total face detector runs", load(&m.Rescans)},
		{"heartbeat_faces_lost_total", "Total rescans without a face", load(&m.FacesLost)},
		{"heartbeat_samples_total", "Total raw signal samples", load(&m.Samples)},
		{"heartbeat_jumps_total", "Total timing jumps in the raw signal", load(&m.Jumps)},
		{"heartbeat_results_total", "Total heart rate results emitted", load(&m.Results)},
	}
	for _, c := range counters {
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			c.value,
		))
	}

	gauges := []series{
		{"heartbeat_face_tracked", "1 when a face is currently tracked", load(&m.FaceTracked)},
		{"heartbeat_process_latency_us", "Last frame processing latency in microseconds", load(&m.ProcessLatencyUs)},
		{"heartbeat_last_bpm", "Last emitted mean heart rate", m.LastBPM},
	}
	for _, g := range gauges {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			g.value,
		))
	}
	m.registry.MustRegister(m.bpm)
}

func load(v *atomic.Uint64) func() float64 {
	return func() float64 { return float64(v.Load()) }
}

// FrameProcessed реализует port.SessionObserver
func (m *Metrics) FrameProcessed() {
	m.FramesProcessed.Add(1)
}

// Rescan реализует port.SessionObserver
func (m *Metrics) Rescan(found bool) {
	m.Rescans.Add(1)
	if found {
		m.FaceTracked.Store(1)
		return
	}
	m.FacesLost.Add(1)
	m.FaceTracked.Store(0)
}

// SampleAdded реализует port.SessionObserver
func (m *Metrics) SampleAdded(jump bool) {
	m.Samples.Add(1)
	if jump {
		m.Jumps.Add(1)
	}
}

// ResultEmitted реализует port.SessionObserver
func (m *Metrics) ResultEmitted(r entity.Result) {
	m.Results.Add(1)
	m.lastBPM.Store(math.Float64bits(r.Mean))
	m.bpm.Observe(r.Mean)
}

// FrameFailed учитывает кадр, отклонённый сессией или потерянный источником
func (m *Metrics) FrameFailed() {
	m.FramesFailed.Add(1)
}

// UpdateProcessLatency сохраняет время обработки последнего кадра
func (m *Metrics) UpdateProcessLatency(d time.Duration) {
	m.ProcessLatencyUs.Store(uint64(d.Microseconds()))
}

// LastBPM последний выданный средний пульс
func (m *Metrics) LastBPM() float64 {
	return math.Float64frombits(m.lastBPM.Load())
}

// Handler возвращает HTTP-обработчик Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer обслуживает /metrics до отмены контекста
func (m *Metrics) StartServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
