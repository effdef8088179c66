//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

// CascadeDetector детектор на каскадах Хаара OpenCV (лица или глаза)
type CascadeDetector struct {
	classifier   gocv.CascadeClassifier
	loaded       bool
	MinSizeRatio float64 // минимальный размер объекта от меньшей стороны изображения
	ScaleFactor  float64
	MinNeighbors int
}

// NewCascadeDetector загружает XML-каскад
func NewCascadeDetector(path string, minSizeRatio float64) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade %s: failed", path)
	}
	logger.Info("vision", "cascade loaded from %s", path)
	return &CascadeDetector{
		classifier:   classifier,
		loaded:       true,
		MinSizeRatio: minSizeRatio,
		ScaleFactor:  1.1,
		MinNeighbors: 2,
	}, nil
}

// Detect запускает DetectMultiScale по серому изображению
func (d *CascadeDetector) Detect(ctx context.Context, img image.Image) ([]entity.Box, error) {
	if !d.loaded {
		return nil, errors.New("cascade detector is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	mat, err := gocv.ImageGrayToMatGray(grayCopy(img))
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	side := int(d.MinSizeRatio * float64(minInt(b.Dx(), b.Dy())))
	rects := d.classifier.DetectMultiScaleWithParams(
		mat, d.ScaleFactor, d.MinNeighbors, 0,
		image.Pt(side, side), image.Pt(0, 0),
	)

	boxes := make([]entity.Box, 0, len(rects))
	for _, r := range rects {
		// Mat не хранит начало координат под-изображения
		boxes = append(boxes, entity.BoxFromRect(r.Add(b.Min)))
	}
	return boxes, nil
}

// Close освобождает классификатор; повторный вызов ничего не делает
func (d *CascadeDetector) Close() error {
	if !d.loaded {
		return nil
	}
	d.loaded = false
	return d.classifier.Close()
}
