package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"heartbeat/internal/domain/entity"
)

const (
	testW = 64
	testH = 48
)

var testFace = entity.Box{X: 16, Y: 8, Width: 32, Height: 32}

func testSessionConfig() SessionConfig {
	cfg := DefaultSessionConfig()
	cfg.Width, cfg.Height = testW, testH
	return cfg
}

// micros время кадра k при 30 кадрах в секунду
func micros(k int) int64 {
	return int64(k) * 1_000_000 / 30
}

func TestSession_EndToEnd70BPM(t *testing.T) {
	face := &fakeDetector{}
	face.set(testFace)
	sink := &collector{}
	s, err := NewSession(testSessionConfig(), face, nil, sink)
	require.NoError(t, err)
	ctx := context.Background()

	returned := 0
	for k := 0; k < 300; k++ {
		r, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
		if r != nil {
			returned++
		}
	}

	require.Equal(t, returned, len(sink.results))
	require.GreaterOrEqual(t, len(sink.results), 7)
	require.LessOrEqual(t, len(sink.results), 10)

	for _, r := range sink.results[len(sink.results)-3:] {
		require.GreaterOrEqual(t, r.Mean, 68.0)
		require.LessOrEqual(t, r.Mean, 72.0)
		require.LessOrEqual(t, r.Min, r.Mean)
		require.GreaterOrEqual(t, r.Max, r.Mean)
	}

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, sink.results[len(sink.results)-1], last)

	spectrum, err := s.Spectrum()
	require.NoError(t, err)
	require.InDelta(t, 70, spectrum.BPM[spectrum.Peak()], 1.5)
}

func TestSession_ValidWithinOneRescan(t *testing.T) {
	face := &fakeDetector{}
	s, err := NewSession(testSessionConfig(), face, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// лица нет первые 10 кадров
	for k := 0; k < 10; k++ {
		_, err := s.ProcessFrame(ctx, frameAt(micros(k)))
		require.NoError(t, err)
		require.False(t, s.State().Valid)
	}

	face.set(testFace)
	appeared := micros(10)
	for k := 10; k < 60; k++ {
		_, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
		if s.State().Valid {
			require.LessOrEqual(t, float64(micros(k)-appeared)*1e-6, 1.0)
			return
		}
	}
	t.Fatal("face never became valid")
}

func TestSession_NoFaceNoResults(t *testing.T) {
	face := &fakeDetector{}
	face.set(testFace)
	sink := &collector{}
	s, err := NewSession(testSessionConfig(), face, nil, sink)
	require.NoError(t, err)
	ctx := context.Background()

	for k := 0; k < 150; k++ {
		_, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
	}
	before := len(sink.results)
	require.NotZero(t, before)

	// лицо пропало: на ближайшем пересканировании состояние невалидно, маска пуста
	face.set()
	for k := 150; k < 240; k++ {
		_, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
	}
	require.False(t, s.State().Valid)
	require.True(t, BuildMask(s.State(), testFace.Rect()).Empty())
	// после потери не больше одного такта с результатом (до пересканирования)
	require.LessOrEqual(t, len(sink.results), before+1)
}

func TestSession_GapStaysInBand(t *testing.T) {
	face := &fakeDetector{}
	face.set(testFace)
	sink := &collector{}
	s, err := NewSession(testSessionConfig(), face, nil, sink)
	require.NoError(t, err)
	ctx := context.Background()

	for k := 0; k < 300; k++ {
		if k >= 120 && k < 165 {
			continue // полторы секунды пропущенных кадров
		}
		_, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
	}

	require.NotEmpty(t, sink.results)
	for _, r := range sink.results {
		require.GreaterOrEqual(t, r.Min, 42.0)
		require.LessOrEqual(t, r.Max, 240.0)
	}
}

func TestSession_RejectsOutOfOrderAndEmptyFrames(t *testing.T) {
	face := &fakeDetector{}
	s, err := NewSession(testSessionConfig(), face, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.ProcessFrame(ctx, frameAt(1000))
	require.NoError(t, err)
	_, err = s.ProcessFrame(ctx, frameAt(1000))
	require.ErrorIs(t, err, ErrFrameOutOfOrder)
	_, err = s.ProcessFrame(ctx, entity.Frame{Time: 2000})
	require.ErrorIs(t, err, ErrEmptyFrame)
}

func TestSession_CloseReleasesDetectors(t *testing.T) {
	face := &fakeDetector{}
	face.set(testFace)
	eyes := &fakeDetector{}
	sink := &collector{}
	s, err := NewSession(testSessionConfig(), face, eyes, sink)
	require.NoError(t, err)
	ctx := context.Background()

	for k := 0; k < 120; k++ {
		_, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
	}
	emitted := append([]entity.Result(nil), sink.results...)
	require.NotEmpty(t, emitted)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, 1, face.closed)
	require.Equal(t, 1, eyes.closed)

	_, err = s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(121), 70))
	require.ErrorIs(t, err, ErrSessionClosed)
	require.Equal(t, emitted, sink.results)
}

func TestSession_CloseJoinsErrors(t *testing.T) {
	face := &failingCloser{}
	s, err := NewSession(testSessionConfig(), face, nil, nil)
	require.NoError(t, err)
	require.Error(t, s.Close())
}

func TestNewSession_InvalidConfig(t *testing.T) {
	cfg := testSessionConfig()
	cfg.SamplingFrequency = 0
	_, err := NewSession(cfg, &fakeDetector{}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSession(testSessionConfig(), nil, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testSessionConfig()
	cfg.DetrendCutoff = 1
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	// 240 уд/мин это 4 Гц, выше Найквиста сетки 5 Гц
	cfg = testSessionConfig()
	cfg.ResampleRate = 5
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestFanout(t *testing.T) {
	a, b := &collector{}, &collector{}
	f := Fanout{a, nil, b}
	f.OnResult(entity.Result{Mean: 70})
	require.Len(t, a.results, 1)
	require.Len(t, b.results, 1)
}

type failingCloser struct{ fakeDetector }

func (f *failingCloser) Close() error { return errors.New("release failed") }

type sampleSink struct {
	samples []entity.Sample
}

func (s *sampleSink) OnSample(sample entity.Sample) {
	s.samples = append(s.samples, sample)
}

func TestSession_OptionsIDAndSamples(t *testing.T) {
	face := &fakeDetector{}
	face.set(testFace)
	samples := &sampleSink{}
	s, err := NewSession(testSessionConfig(), face, nil, nil,
		WithID("bench-1"), WithSampleListener(samples))
	require.NoError(t, err)
	require.Equal(t, "bench-1", s.ID())

	ctx := context.Background()
	for k := 0; k < 10; k++ {
		_, err := s.ProcessFrame(ctx, pulseFrame(testW, testH, testFace, micros(k), 70))
		require.NoError(t, err)
	}
	require.Len(t, samples.samples, 10)
	require.Equal(t, micros(9), samples.samples[9].Time)
	require.InDelta(t, 150, samples.samples[0].Means[entity.ChannelRed], 1e-9)
}

func TestSession_DriftingFaceOnShadedSkin(t *testing.T) {
	const w, h = 80, 64
	boxAt := func(k int) entity.Box {
		return entity.Box{X: 8 + k/30, Y: 8, Width: 40, Height: 40}
	}

	face := &fakeDetector{}
	cfg := DefaultSessionConfig()
	cfg.Width, cfg.Height = w, h
	sink := &collector{}
	s, err := NewSession(cfg, face, nil, sink)
	require.NoError(t, err)
	ctx := context.Background()

	// лицо сдвигается на пиксель в секунду, каждая пересборка маски даёт ступеньку уровня
	for k := 0; k < 300; k++ {
		face.set(boxAt(k))
		_, err := s.ProcessFrame(ctx, shadedFrame(w, h, boxAt(k), micros(k), 75))
		require.NoError(t, err)
	}

	require.GreaterOrEqual(t, len(sink.results), 7)
	for _, r := range sink.results[len(sink.results)-3:] {
		require.InDelta(t, 75, r.Mean, 3)
	}
}
