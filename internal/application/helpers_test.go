package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"

	"heartbeat/internal/domain/entity"
)

// fakeDetector детектор с заранее заданным ответом
type fakeDetector struct {
	mu     sync.Mutex
	boxes  []entity.Box
	err    error
	calls  int
	closed int
	bounds []image.Rectangle
}

func (f *fakeDetector) Detect(ctx context.Context, img image.Image) ([]entity.Box, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.bounds = append(f.bounds, img.Bounds())
	if f.err != nil {
		return nil, f.err
	}
	return append([]entity.Box(nil), f.boxes...), nil
}

func (f *fakeDetector) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	if f.closed > 1 {
		return errors.New("closed twice")
	}
	return nil
}

func (f *fakeDetector) set(boxes ...entity.Box) {
	f.mu.Lock()
	f.boxes = boxes
	f.mu.Unlock()
}

// collector слушатель, запоминающий результаты
type collector struct {
	results []entity.Result
}

func (c *collector) OnResult(r entity.Result) {
	c.results = append(c.results, r)
}

// pulseFrame кадр с однородным «лицом», зелёный канал которого модулирован пульсом
func pulseFrame(w, h int, face entity.Box, micros int64, bpm float64) entity.Frame {
	t := float64(micros) * 1e-6
	g := 120 + 10*math.Sin(2*math.Pi*bpm/60*t)

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := image.NewGray(rgba.Bounds())
	skin := color.RGBA{R: 150, G: uint8(g + 0.5), B: 100, A: 255}
	bg := color.RGBA{R: 50, G: 50, B: 50, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := bg
			if image.Pt(x, y).In(face.Rect()) {
				c = skin
			}
			rgba.SetRGBA(x, y, c)
			gray.Set(x, y, c)
		}
	}
	return entity.Frame{Color: rgba, Gray: gray, Time: micros}
}

func frameAt(micros int64) entity.Frame {
	rgba := image.NewRGBA(image.Rect(0, 0, 64, 48))
	return entity.Frame{Color: rgba, Gray: image.NewGray(rgba.Bounds()), Time: micros}
}

// shadedFrame кадр с горизонтальным градиентом зелёного (4 на пиксель) и слабым пульсом
func shadedFrame(w, h int, face entity.Box, micros int64, bpm float64) entity.Frame {
	t := float64(micros) * 1e-6
	pulse := math.Sin(2 * math.Pi * bpm / 60 * t)

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := image.NewGray(rgba.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 50, G: 50, B: 50, A: 255}
			if image.Pt(x, y).In(face.Rect()) {
				c = color.RGBA{R: 150, G: uint8(10 + 4*float64(x) + pulse + 0.5), B: 100, A: 255}
			}
			rgba.SetRGBA(x, y, c)
			gray.Set(x, y, c)
		}
	}
	return entity.Frame{Color: rgba, Gray: gray, Time: micros}
}
