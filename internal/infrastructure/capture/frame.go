package capture

import (
	"errors"
	"image"

	"golang.org/x/image/draw"

	"heartbeat/internal/domain/entity"
)

// ErrFrameDropped кадр не получен, но поток продолжается
var ErrFrameDropped = errors.New("frame dropped")

// ToFrame приводит изображение к *image.RGBA нужного размера и строит серую копию.
// При width или height <= 0 размер не меняется.
func ToFrame(img image.Image, width, height int, t int64) entity.Frame {
	b := img.Bounds()
	if width <= 0 || height <= 0 {
		width, height = b.Dx(), b.Dy()
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, b, draw.Src, nil)
	}

	gray := image.NewGray(rgba.Bounds())
	draw.Draw(gray, gray.Bounds(), rgba, image.Point{}, draw.Src)

	return entity.Frame{Color: rgba, Gray: gray, Time: t}
}
