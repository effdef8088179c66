package app

import (
	"image"

	"heartbeat/internal/domain/entity"
)

// Отступы области кожи внутри прямоугольника лица, доли его размеров
const (
	maskMarginSide   = 0.20
	maskMarginTop    = 0.10
	maskMarginBottom = 0.05
	eyeGrow          = 1.15
)

// BuildMask строит маску по состоянию трекера: лицо без полей (фон, волосы)
// и без глаз. Невалидное состояние даёт пустую маску.
func BuildMask(state entity.TrackingState, bounds image.Rectangle) entity.Mask {
	if !state.Valid || state.Box.Empty() {
		return entity.Mask{}
	}

	b := state.Box
	roi := image.Rect(
		b.X+int(float64(b.Width)*maskMarginSide),
		b.Y+int(float64(b.Height)*maskMarginTop),
		b.X+b.Width-int(float64(b.Width)*maskMarginSide),
		b.Y+b.Height-int(float64(b.Height)*maskMarginBottom),
	).Intersect(bounds)
	if roi.Empty() {
		return entity.Mask{}
	}

	m := entity.Mask{ROI: roi}
	for _, eye := range state.Eyes() {
		r := eye.Scale(eyeGrow).Rect().Intersect(roi)
		if !r.Empty() {
			m.Exclude = append(m.Exclude, r)
		}
	}
	return m
}

// MaskBuilder кэширует маску и пересчитывает её только после Invalidate
type MaskBuilder struct {
	bounds image.Rectangle
	dirty  bool
	mask   entity.Mask
}

// NewMaskBuilder создаёт построитель для кадров с границами bounds
func NewMaskBuilder(bounds image.Rectangle) *MaskBuilder {
	return &MaskBuilder{bounds: bounds, dirty: true}
}

// Invalidate помечает маску устаревшей
func (b *MaskBuilder) Invalidate() {
	b.dirty = true
}

// Dirty сообщает, будет ли маска пересчитана
func (b *MaskBuilder) Dirty() bool {
	return b.dirty
}

// Mask возвращает маску, пересчитывая её при необходимости
func (b *MaskBuilder) Mask(state entity.TrackingState) entity.Mask {
	if b.dirty {
		b.mask = BuildMask(state, b.bounds)
		b.dirty = false
	}
	return b.mask
}

// MaskMeans средние R, G, B (0..255) по пикселям маски и их число
func MaskMeans(img image.Image, m entity.Mask) (means [3]float64, count int) {
	if img == nil || m.Empty() {
		return means, 0
	}
	roi := m.ROI.Intersect(img.Bounds())
	var sum [3]float64

	if rgba, ok := img.(*image.RGBA); ok {
		for y := roi.Min.Y; y < roi.Max.Y; y++ {
			for x := roi.Min.X; x < roi.Max.X; x++ {
				if !m.Contains(x, y) {
					continue
				}
				i := rgba.PixOffset(x, y)
				sum[0] += float64(rgba.Pix[i])
				sum[1] += float64(rgba.Pix[i+1])
				sum[2] += float64(rgba.Pix[i+2])
				count++
			}
		}
	} else {
		for y := roi.Min.Y; y < roi.Max.Y; y++ {
			for x := roi.Min.X; x < roi.Max.X; x++ {
				if !m.Contains(x, y) {
					continue
				}
				r, g, b, _ := img.At(x, y).RGBA()
				sum[0] += float64(r >> 8)
				sum[1] += float64(g >> 8)
				sum[2] += float64(b >> 8)
				count++
			}
		}
	}

	if count == 0 {
		return means, 0
	}
	for c := range sum {
		means[c] = sum[c] / float64(count)
	}
	return means, count
}
