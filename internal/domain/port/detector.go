package port

import (
	"context"
	"image"

	"heartbeat/internal/domain/entity"
)

// Detector интерфейс детектора объектов (лица или глаз)
type Detector interface {
	// Detect ищет объекты на изображении. Координаты прямоугольников
	// даны в системе img.Bounds(), поэтому для под-изображения они
	// совпадают с координатами кадра.
	Detect(ctx context.Context, img image.Image) ([]entity.Box, error)

	// Close освобождает ресурсы модели
	Close() error
}
