package entity

import (
	"image"
	"math"
)

// Box прямоугольник в координатах кадра
type Box struct {
	X      int // координата X левого верхнего угла
	Y      int // координата Y левого верхнего угла
	Width  int // ширина в пикселях
	Height int // высота в пикселях
}

// BoxFromRect строит Box из image.Rectangle
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Center возвращает координаты центра
func (b Box) Center() (x, y int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area возвращает площадь
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// Empty сообщает, что у прямоугольника нет площади
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Rect переводит Box в image.Rectangle
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Intersect возвращает пересечение двух прямоугольников
func (b Box) Intersect(o Box) Box {
	return BoxFromRect(b.Rect().Intersect(o.Rect()))
}

// Scale растягивает прямоугольник относительно центра
func (b Box) Scale(f float64) Box {
	cx := float64(b.X) + float64(b.Width)/2
	cy := float64(b.Y) + float64(b.Height)/2
	w := float64(b.Width) * f
	h := float64(b.Height) * f
	return Box{
		X:      int(math.Round(cx - w/2)),
		Y:      int(math.Round(cy - h/2)),
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}
}

// Distance мера похожести двух прямоугольников: евклидово расстояние
// по центру и размерам.
func (b Box) Distance(o Box) float64 {
	bx, by := b.Center()
	ox, oy := o.Center()
	dx := float64(bx - ox)
	dy := float64(by - oy)
	dw := float64(b.Width - o.Width)
	dh := float64(b.Height - o.Height)
	return math.Sqrt(dx*dx + dy*dy + dw*dw + dh*dh)
}
