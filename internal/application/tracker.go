package app

import (
	"context"
	"image"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/domain/port"
	"heartbeat/internal/logger"
)

const trackerModule = "tracker"

// eyeZone доля высоты лица сверху, где ищем глаза
const eyeZone = 0.6

// Tracker следит за лицом: держит текущий прямоугольник и флаг валидности,
// решает когда перезапускать детектор.
//
// Детектор лица запускается, если состояние невалидно или с прошлого
// сканирования прошло не меньше rescanInterval секунд. Глаза ищутся
// с той же периодичностью внутри найденного лица.
type Tracker struct {
	face           port.Detector
	eyes           port.Detector
	rescanInterval float64
	timeBase       float64
	state          entity.TrackingState
	scanned        bool
}

// NewTracker создаёт трекер. eyes может быть nil.
func NewTracker(face, eyes port.Detector, rescanInterval, timeBase float64) *Tracker {
	return &Tracker{
		face:           face,
		eyes:           eyes,
		rescanInterval: rescanInterval,
		timeBase:       timeBase,
	}
}

// State копия текущего состояния
func (t *Tracker) State() entity.TrackingState {
	s := t.state
	if s.LeftEye != nil {
		e := *s.LeftEye
		s.LeftEye = &e
	}
	if s.RightEye != nil {
		e := *s.RightEye
		s.RightEye = &e
	}
	return s
}

// RescanDue сообщает, нужно ли запускать детектор лица на кадре со временем now
func (t *Tracker) RescanDue(now int64) bool {
	if !t.state.Valid || !t.scanned {
		return true
	}
	return float64(now-t.state.LastScanTime)*t.timeBase >= t.rescanInterval
}

// Update обрабатывает кадр. changed == true, если изменились лицо, глаза или валидность.
func (t *Tracker) Update(ctx context.Context, frame entity.Frame) (changed bool) {
	if !t.RescanDue(frame.Time) {
		return false
	}

	prev := t.State()
	t.scanned = true
	t.state.LastScanTime = frame.Time

	candidates := t.detect(ctx, t.face, frame.Gray, frame.Bounds())
	if len(candidates) == 0 {
		if prev.Valid {
			logger.Info(trackerModule, "face lost")
		}
		t.state.Valid = false
		t.state.Box = entity.Box{}
		t.state.LeftEye, t.state.RightEye = nil, nil
		return prev.Valid
	}

	var box entity.Box
	if prev.Valid {
		box = nearestBox(candidates, prev.Box)
	} else {
		box = largestBox(candidates)
		logger.Info(trackerModule, "face found at %v", box.Rect())
	}

	t.state.Valid = true
	t.state.Box = box
	t.state.LeftEye, t.state.RightEye = t.detectEyes(ctx, frame.Gray, box)

	return !prev.Valid || prev.Box != box ||
		!sameEye(prev.LeftEye, t.state.LeftEye) || !sameEye(prev.RightEye, t.state.RightEye)
}

// Reset возвращает трекер в начальное невалидное состояние
func (t *Tracker) Reset() {
	t.state = entity.TrackingState{}
	t.scanned = false
}

func (t *Tracker) detect(ctx context.Context, d port.Detector, img image.Image, clip image.Rectangle) []entity.Box {
	if d == nil || img == nil {
		return nil
	}
	boxes, err := d.Detect(ctx, img)
	if err != nil {
		logger.Warn(trackerModule, "detector failed: %v", err)
		return nil
	}
	clipped := make([]entity.Box, 0, len(boxes))
	for _, b := range boxes {
		b = b.Intersect(entity.BoxFromRect(clip))
		if !b.Empty() {
			clipped = append(clipped, b)
		}
	}
	return clipped
}

// detectEyes ищет глаза в верхней части лица; кандидаты левее центра лица
// считаются левым глазом (в координатах изображения), правее правым.
func (t *Tracker) detectEyes(ctx context.Context, gray *image.Gray, face entity.Box) (left, right *entity.Box) {
	if t.eyes == nil || gray == nil {
		return nil, nil
	}
	sub := gray.SubImage(face.Rect())
	cx, _ := face.Center()
	zone := face.Y + int(float64(face.Height)*eyeZone)

	for _, e := range t.detect(ctx, t.eyes, sub, face.Rect()) {
		ex, ey := e.Center()
		if ey > zone {
			continue
		}
		if ex < cx {
			if left == nil || e.Area() > left.Area() {
				left = &e
			}
		} else if right == nil || e.Area() > right.Area() {
			right = &e
		}
	}
	return left, right
}

// nearestBox выбирает кандидата, ближайшего к предыдущему прямоугольнику
func nearestBox(candidates []entity.Box, prev entity.Box) entity.Box {
	best := candidates[0]
	bestDist := best.Distance(prev)
	for _, c := range candidates[1:] {
		if d := c.Distance(prev); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// largestBox выбирает кандидата наибольшей площади
func largestBox(candidates []entity.Box) entity.Box {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Area() > best.Area() {
			best = c
		}
	}
	return best
}

func sameEye(a, b *entity.Box) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
