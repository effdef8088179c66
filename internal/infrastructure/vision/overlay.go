package vision

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"heartbeat/internal/domain/entity"
)

var (
	faceColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	eyeColor  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	maskColor = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	textColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Overlay рисует рамку лица, глаз, маску и последний пульс прямо в цветном кадре.
// Кадры, цвет которых не поддерживает запись, пропускаются.
type Overlay struct {
	Thickness int
}

// NewOverlay создаёт отрисовщик
func NewOverlay() *Overlay {
	return &Overlay{Thickness: 1}
}

// Draw реализует port.Overlay
func (o *Overlay) Draw(frame entity.Frame, state entity.TrackingState, mask entity.Mask, last *entity.Result) {
	dst, ok := frame.Color.(draw.Image)
	if !ok {
		return
	}
	if state.Valid {
		o.rect(dst, state.Box.Rect(), faceColor)
		for _, eye := range state.Eyes() {
			o.rect(dst, eye.Rect(), eyeColor)
		}
		if !mask.Empty() {
			o.rect(dst, mask.ROI, maskColor)
		}
	}
	if last != nil {
		label(dst, fmt.Sprintf("%.0f bpm", last.Mean), dst.Bounds().Min.Add(image.Pt(4, 14)))
	}
}

func (o *Overlay) rect(dst draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	t := o.Thickness
	if t < 1 {
		t = 1
	}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

func label(dst draw.Image, text string, at image.Point) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(text)
}
