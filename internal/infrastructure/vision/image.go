package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// grayCopy копирует изображение в *image.Gray с началом координат в (0, 0)
// и плотной построчной раскладкой (Stride == ширина), как ждут детекторы.
func grayCopy(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
