package entity

import (
	"image"
	"image/color"
)

// Mask бинарная область кадра, по которой считается цвет кожи:
// прямоугольник ROI без исключённых областей (глаз).
type Mask struct {
	ROI     image.Rectangle
	Exclude []image.Rectangle
}

// Empty сообщает, что маска ничего не покрывает
func (m Mask) Empty() bool {
	return m.ROI.Empty()
}

// Contains проверяет принадлежность пикселя маске
func (m Mask) Contains(x, y int) bool {
	p := image.Pt(x, y)
	if !p.In(m.ROI) {
		return false
	}
	for _, r := range m.Exclude {
		if p.In(r) {
			return false
		}
	}
	return true
}

// Count число пикселей маски
func (m Mask) Count() int {
	n := 0
	for y := m.ROI.Min.Y; y < m.ROI.Max.Y; y++ {
		for x := m.ROI.Min.X; x < m.ROI.Max.X; x++ {
			if m.Contains(x, y) {
				n++
			}
		}
	}
	return n
}

// Alpha рисует маску как изображение (255 внутри, 0 снаружи)
func (m Mask) Alpha(bounds image.Rectangle) *image.Alpha {
	a := image.NewAlpha(bounds)
	roi := m.ROI.Intersect(bounds)
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		for x := roi.Min.X; x < roi.Max.X; x++ {
			if m.Contains(x, y) {
				a.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return a
}
