package capture

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestToFrame_ScalesAndBuildsGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 50, 40))
	for y := 10; y < 40; y++ {
		for x := 10; x < 50; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	f := ToFrame(src, 20, 15, 42)
	require.Equal(t, int64(42), f.Time)
	require.Equal(t, image.Rect(0, 0, 20, 15), f.Bounds())
	require.Equal(t, image.Rect(0, 0, 20, 15), f.Gray.Bounds())

	r, g, b, _ := f.Color.At(10, 7).RGBA()
	require.InDelta(t, 200, r>>8, 1)
	require.InDelta(t, 100, g>>8, 1)
	require.InDelta(t, 50, b>>8, 1)
	require.NotZero(t, f.Gray.GrayAt(10, 7).Y)
}

func TestToFrame_KeepsSize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 7, 5))
	f := ToFrame(src, 0, 0, 0)
	require.Equal(t, image.Rect(0, 0, 7, 5), f.Bounds())
}

func TestDirSource_OrderAndTimestamps(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "002.png"), color.White)
	writePNG(t, filepath.Join(dir, "001.png"), color.Black)
	writePNG(t, filepath.Join(dir, "003.png"), color.Gray{Y: 128})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src, err := NewDirSource(dir, 30, 1e-6, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 3, src.Len())

	ctx := context.Background()
	first, err := src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), first.Time)
	require.Equal(t, uint8(0), first.Gray.GrayAt(0, 0).Y)

	second, err := src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(33333), second.Time)
	require.Equal(t, uint8(255), second.Gray.GrayAt(0, 0).Y)

	_, err = src.Next(ctx)
	require.NoError(t, err)

	_, err = src.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, src.Close())
}

func TestDirSource_Errors(t *testing.T) {
	_, err := NewDirSource(t.TempDir(), 30, 1e-6, 0, 0)
	require.ErrorIs(t, err, ErrNoFrames)

	_, err = NewDirSource(t.TempDir(), 0, 1e-6, 0, 0)
	require.Error(t, err)

	_, err = NewDirSource(filepath.Join(t.TempDir(), "missing"), 30, 1e-6, 0, 0)
	require.Error(t, err)
}

func TestDirSource_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.White)
	src, err := NewDirSource(dir, 30, 1e-6, 0, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDirSource_UnreadableFrameIsDropped(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "001.png"), color.White)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002.png"), []byte("not a png"), 0o644))
	writePNG(t, filepath.Join(dir, "003.png"), color.Black)

	src, err := NewDirSource(dir, 30, 1e-6, 0, 0)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = src.Next(ctx)
	require.NoError(t, err)

	_, err = src.Next(ctx)
	require.ErrorIs(t, err, ErrFrameDropped)

	third, err := src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(66667), third.Time)
}
