package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

const (
	pigoShiftFactor  = 0.1
	pigoScaleFactor  = 1.1
	pigoIoUThreshold = 0.2
	pigoMinQuality   = 5.0

	// смещения зрачков от центра лица в долях его размера
	pupilRowOffset = 0.085
	pupilColOffset = 0.185
	pupilScale     = 0.4
	pupilPerturbs  = 63
)

// PigoFaceDetector детектор лиц на чистом Go (pigo)
type PigoFaceDetector struct {
	classifier   *pigo.Pigo
	MinSizeRatio float64 // минимальный размер лица от меньшей стороны кадра
	MinQuality   float32
}

// NewPigoFaceDetector загружает каскад facefinder
func NewPigoFaceDetector(cascadePath string, minSizeRatio float64) (*PigoFaceDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read face cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack face cascade: %w", err)
	}
	logger.Info("vision", "pigo face detector loaded from %s", cascadePath)
	return &PigoFaceDetector{
		classifier:   classifier,
		MinSizeRatio: minSizeRatio,
		MinQuality:   pigoMinQuality,
	}, nil
}

// Detect ищет лица; прямоугольники в координатах img.Bounds()
func (d *PigoFaceDetector) Detect(ctx context.Context, img image.Image) ([]entity.Box, error) {
	if d.classifier == nil {
		return nil, errors.New("pigo face detector is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	gray := grayCopy(img)
	minSize := int(d.MinSizeRatio * float64(minInt(b.Dx(), b.Dy())))

	dets := d.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     maxInt(minSize, 20),
		MaxSize:     maxInt(b.Dx(), b.Dy()),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    b.Dx(),
		},
	}, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoUThreshold)

	boxes := make([]entity.Box, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.MinQuality {
			continue
		}
		// Scale у pigo это сторона квадрата, центр в (Col, Row)
		boxes = append(boxes, entity.Box{
			X:      b.Min.X + det.Col - det.Scale/2,
			Y:      b.Min.Y + det.Row - det.Scale/2,
			Width:  det.Scale,
			Height: det.Scale,
		})
	}
	return boxes, nil
}

// Close освобождает каскад
func (d *PigoFaceDetector) Close() error {
	d.classifier = nil
	return nil
}

// PigoEyeDetector ищет зрачки каскадом puploc внутри области лица
// и возвращает прямоугольники глаз вокруг них.
type PigoEyeDetector struct {
	classifier *pigo.PuplocCascade
}

// NewPigoEyeDetector загружает каскад puploc
func NewPigoEyeDetector(cascadePath string) (*PigoEyeDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read puploc cascade: %w", err)
	}
	classifier, err := pigo.NewPuplocCascade().UnpackCascade(data)
	if err != nil {
		return nil, fmt.Errorf("unpack puploc cascade: %w", err)
	}
	logger.Info("vision", "pigo pupil detector loaded from %s", cascadePath)
	return &PigoEyeDetector{classifier: classifier}, nil
}

// Detect считает, что img это область лица, и ищет в ней два зрачка
func (d *PigoEyeDetector) Detect(ctx context.Context, img image.Image) ([]entity.Box, error) {
	if d.classifier == nil {
		return nil, errors.New("pigo eye detector is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	gray := grayCopy(img)
	params := pigo.ImageParams{Pixels: gray.Pix, Rows: b.Dy(), Cols: b.Dx(), Dim: b.Dx()}

	size := float64(minInt(b.Dx(), b.Dy()))
	row, col := b.Dy()/2, b.Dx()/2
	eyeW, eyeH := int(size*0.3), int(size*0.2)

	var boxes []entity.Box
	for _, sign := range []int{-1, 1} {
		seed := pigo.Puploc{
			Row:      row - int(pupilRowOffset*size),
			Col:      col + sign*int(pupilColOffset*size),
			Scale:    float32(size * pupilScale),
			Perturbs: pupilPerturbs,
		}
		pupil := d.classifier.RunDetector(seed, params, 0.0, false)
		if pupil == nil || pupil.Row <= 0 || pupil.Col <= 0 {
			continue
		}
		boxes = append(boxes, entity.Box{
			X:      b.Min.X + pupil.Col - eyeW/2,
			Y:      b.Min.Y + pupil.Row - eyeH/2,
			Width:  eyeW,
			Height: eyeH,
		})
	}
	return boxes, nil
}

// Close освобождает каскад
func (d *PigoEyeDetector) Close() error {
	d.classifier = nil
	return nil
}
