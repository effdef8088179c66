//go:build gocv
// +build gocv

package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gocv.io/x/gocv"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

// CameraSource кадры с веб-камеры через OpenCV.
// Время кадра отсчитывается от открытия устройства в единицах timeBase.
type CameraSource struct {
	capture  *gocv.VideoCapture
	mat      gocv.Mat
	start    time.Time
	timeBase float64
	width    int
	height   int
}

// NewCameraSource открывает устройство по номеру
func NewCameraSource(device int, timeBase float64, width, height int) (*CameraSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if width > 0 && height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	logger.Info("capture", "camera %d opened", device)
	return &CameraSource{
		capture:  capture,
		mat:      gocv.NewMat(),
		start:    time.Now(),
		timeBase: timeBase,
		width:    width,
		height:   height,
	}, nil
}

// Next читает кадр с камеры
func (s *CameraSource) Next(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}
	if s.capture == nil {
		return entity.Frame{}, errors.New("camera is closed")
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return entity.Frame{}, fmt.Errorf("camera read: %w", ErrFrameDropped)
	}
	t := int64(math.Round(time.Since(s.start).Seconds() / s.timeBase))

	img, err := s.mat.ToImage()
	if err != nil {
		return entity.Frame{}, fmt.Errorf("mat to image: %v: %w", err, ErrFrameDropped)
	}
	return ToFrame(img, s.width, s.height, t), nil
}

// Close освобождает устройство
func (s *CameraSource) Close() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return errors.Join(err, s.mat.Close())
}
