package port

import (
	"heartbeat/internal/domain/entity"
)

// SessionObserver получает события конвейера (метрики)
type SessionObserver interface {
	FrameProcessed()
	Rescan(found bool)
	SampleAdded(jump bool)
	ResultEmitted(result entity.Result)
}

// Overlay рисует состояние трекера поверх цветного кадра
type Overlay interface {
	Draw(frame entity.Frame, state entity.TrackingState, mask entity.Mask, last *entity.Result)
}
