package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"heartbeat/internal/domain/entity"
)

func TestTracker_FirstDetectionPicksLargest(t *testing.T) {
	face := &fakeDetector{}
	face.set(
		entity.Box{X: 0, Y: 0, Width: 10, Height: 10},
		entity.Box{X: 20, Y: 10, Width: 20, Height: 20},
	)
	tr := NewTracker(face, nil, 1, 1e-6)
	ctx := context.Background()

	require.False(t, tr.State().Valid)
	changed := tr.Update(ctx, frameAt(0))
	require.True(t, changed)

	s := tr.State()
	require.True(t, s.Valid)
	require.Equal(t, entity.Box{X: 20, Y: 10, Width: 20, Height: 20}, s.Box)
	require.Equal(t, int64(0), s.LastScanTime)
}

func TestTracker_RescanIntervalAndNearest(t *testing.T) {
	face := &fakeDetector{}
	face.set(entity.Box{X: 10, Y: 10, Width: 12, Height: 12})
	tr := NewTracker(face, nil, 1, 1e-6)
	ctx := context.Background()

	tr.Update(ctx, frameAt(0))
	require.Equal(t, 1, face.calls)

	// до истечения интервала детектор не запускается
	require.False(t, tr.Update(ctx, frameAt(500_000)))
	require.Equal(t, 1, face.calls)

	// большая, но далёкая детекция проигрывает близкой
	face.set(
		entity.Box{X: 40, Y: 20, Width: 20, Height: 20},
		entity.Box{X: 11, Y: 10, Width: 12, Height: 12},
	)
	require.True(t, tr.Update(ctx, frameAt(1_000_000)))
	require.Equal(t, 2, face.calls)
	require.Equal(t, entity.Box{X: 11, Y: 10, Width: 12, Height: 12}, tr.State().Box)
}

func TestTracker_StaticFrameNoJitter(t *testing.T) {
	face := &fakeDetector{}
	face.set(
		entity.Box{X: 10, Y: 10, Width: 20, Height: 20},
		entity.Box{X: 12, Y: 11, Width: 19, Height: 20},
	)
	tr := NewTracker(face, nil, 0.1, 1e-6)
	ctx := context.Background()

	tr.Update(ctx, frameAt(0))
	first := tr.State().Box
	for i := int64(1); i <= 10; i++ {
		require.False(t, tr.Update(ctx, frameAt(i*200_000)))
		require.Equal(t, first, tr.State().Box)
	}
	require.Equal(t, 11, face.calls)
}

func TestTracker_NoCandidatesInvalidates(t *testing.T) {
	face := &fakeDetector{}
	face.set(entity.Box{X: 10, Y: 10, Width: 20, Height: 20})
	tr := NewTracker(face, nil, 1, 1e-6)
	ctx := context.Background()

	tr.Update(ctx, frameAt(0))
	face.set()
	require.True(t, tr.Update(ctx, frameAt(1_000_000)))
	require.False(t, tr.State().Valid)

	// невалидное состояние сканируется на каждом кадре
	require.False(t, tr.Update(ctx, frameAt(1_033_000)))
	require.Equal(t, 3, face.calls)

	face.set(entity.Box{X: 10, Y: 10, Width: 20, Height: 20})
	require.True(t, tr.Update(ctx, frameAt(1_066_000)))
	require.True(t, tr.State().Valid)
}

func TestTracker_DetectorErrorIsNotFatal(t *testing.T) {
	face := &fakeDetector{err: errors.New("model failure")}
	tr := NewTracker(face, nil, 1, 1e-6)

	require.False(t, tr.Update(context.Background(), frameAt(0)))
	require.False(t, tr.State().Valid)
}

func TestTracker_EyesSplitBySide(t *testing.T) {
	face := &fakeDetector{}
	face.set(entity.Box{X: 10, Y: 0, Width: 40, Height: 40})
	eyes := &fakeDetector{}
	eyes.set(
		entity.Box{X: 15, Y: 10, Width: 6, Height: 4}, // левый
		entity.Box{X: 14, Y: 10, Width: 8, Height: 5}, // левый, крупнее
		entity.Box{X: 36, Y: 10, Width: 6, Height: 4}, // правый
		entity.Box{X: 26, Y: 32, Width: 8, Height: 6}, // рот, ниже зоны глаз
	)
	tr := NewTracker(face, eyes, 1, 1e-6)
	tr.Update(context.Background(), frameAt(0))

	s := tr.State()
	require.NotNil(t, s.LeftEye)
	require.NotNil(t, s.RightEye)
	require.Equal(t, entity.Box{X: 14, Y: 10, Width: 8, Height: 5}, *s.LeftEye)
	require.Equal(t, entity.Box{X: 36, Y: 10, Width: 6, Height: 4}, *s.RightEye)

	// глаза ищутся только внутри лица
	require.Equal(t, face.boxes[0].Rect(), eyes.bounds[0])
}
