package port

import (
	"context"

	"heartbeat/internal/domain/entity"
)

// ResultListener получатель оценок пульса.
// OnResult вызывается синхронно в цикле обработки кадров и не должен блокироваться.
type ResultListener interface {
	OnResult(result entity.Result)
}

// SampleListener получатель сырых отсчётов сигнала, тоже не блокирующий
type SampleListener interface {
	OnSample(sample entity.Sample)
}

// FrameSource источник кадров. Next возвращает io.EOF в конце потока.
type FrameSource interface {
	Next(ctx context.Context) (entity.Frame, error)
	Close() error
}
