//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"heartbeat/internal/domain/entity"
)

// ErrNoOpenCV возвращается, если сборка без тега gocv
var ErrNoOpenCV = errors.New("gocv build tag is not enabled")

// CascadeDetector заглушка детектора на каскадах (без OpenCV)
type CascadeDetector struct {
	MinSizeRatio float64
	ScaleFactor  float64
	MinNeighbors int
}

// NewCascadeDetector возвращает ошибку, если сборка без тега gocv
func NewCascadeDetector(path string, minSizeRatio float64) (*CascadeDetector, error) {
	_ = path
	_ = minSizeRatio
	return nil, ErrNoOpenCV
}

// Detect возвращает ошибку, если сборка без тега gocv
func (d *CascadeDetector) Detect(ctx context.Context, img image.Image) ([]entity.Box, error) {
	_ = ctx
	_ = img
	return nil, ErrNoOpenCV
}

// Close ничего не делает
func (d *CascadeDetector) Close() error {
	return nil
}
