package storage

import (
	"context"
	"sync"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/domain/port"
	"heartbeat/internal/dsp"
)

// MemoryResultRepository хранит последние оценки пульса в кольцевом буфере
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results *dsp.Ring[entity.Result]
}

// NewMemoryResultRepository создаёт хранилище на capacity оценок
func NewMemoryResultRepository(capacity int) *MemoryResultRepository {
	return &MemoryResultRepository{results: dsp.NewRing[entity.Result](capacity)}
}

// Append добавляет оценку, вытесняя самую старую
func (r *MemoryResultRepository) Append(ctx context.Context, result entity.Result) error {
	r.mu.Lock()
	r.results.Push(result)
	r.mu.Unlock()
	return nil
}

// Last возвращает последнюю оценку
func (r *MemoryResultRepository) Last(ctx context.Context) (entity.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	last, ok := r.results.Back()
	return last, ok, nil
}

// Recent возвращает до n последних оценок, от старых к новым
func (r *MemoryResultRepository) Recent(ctx context.Context, n int) ([]entity.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.results.Slice()
	if n >= 0 && n < len(all) {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Проверка реализации интерфейса
var _ port.ResultRepository = (*MemoryResultRepository)(nil)
