//go:build !gocv
// +build !gocv

package capture

import (
	"context"
	"errors"

	"heartbeat/internal/domain/entity"
)

// ErrNoOpenCV возвращается, если сборка без тега gocv
var ErrNoOpenCV = errors.New("gocv build tag is not enabled")

// CameraSource заглушка камеры (без OpenCV)
type CameraSource struct{}

// NewCameraSource возвращает ошибку, если сборка без тега gocv
func NewCameraSource(device int, timeBase float64, width, height int) (*CameraSource, error) {
	_, _, _, _ = device, timeBase, width, height
	return nil, ErrNoOpenCV
}

// Next возвращает ошибку, если сборка без тега gocv
func (s *CameraSource) Next(ctx context.Context) (entity.Frame, error) {
	_ = ctx
	return entity.Frame{}, ErrNoOpenCV
}

// Close ничего не делает
func (s *CameraSource) Close() error {
	return nil
}
