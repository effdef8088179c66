package vision

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"heartbeat/internal/domain/entity"
)

func TestGrayCopy_NormalizesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	src.Set(12, 6, color.White)

	sub := src.SubImage(image.Rect(10, 5, 20, 10))
	g := grayCopy(sub)

	require.Equal(t, image.Rect(0, 0, 10, 5), g.Bounds())
	require.Equal(t, 10, g.Stride)
	require.Equal(t, uint8(255), g.GrayAt(2, 1).Y)
	require.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
}

func TestGrayCopy_ReusesDenseGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 8, 8))
	require.Same(t, g, grayCopy(g))
}

func TestPigoDetectors_MissingCascade(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := NewPigoFaceDetector(missing, 0.4)
	require.Error(t, err)

	_, err = NewPigoEyeDetector(missing)
	require.Error(t, err)
}

func TestPigoFaceDetector_Closed(t *testing.T) {
	d := &PigoFaceDetector{}
	require.NoError(t, d.Close())

	_, err := d.Detect(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
}

func TestOverlay_DrawsFaceAndLabel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	frame := entity.Frame{Color: img}
	state := entity.TrackingState{
		Valid: true,
		Box:   entity.Box{X: 40, Y: 20, Width: 30, Height: 40},
	}
	last := &entity.Result{Mean: 72}

	NewOverlay().Draw(frame, state, entity.Mask{}, last)

	require.Equal(t, faceColor, img.RGBAAt(40, 20))
	require.Equal(t, faceColor, img.RGBAAt(69, 59))
	require.Equal(t, color.RGBA{}, img.RGBAAt(55, 40))

	textPixels := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 60; x++ {
			if img.RGBAAt(x, y) == textColor {
				textPixels++
			}
		}
	}
	require.Positive(t, textPixels)
}

func TestOverlay_InvalidStateLeavesFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	NewOverlay().Draw(entity.Frame{Color: img}, entity.TrackingState{Box: entity.Box{Width: 10, Height: 10}}, entity.Mask{}, nil)

	for _, p := range img.Pix {
		require.Zero(t, p)
	}
}
