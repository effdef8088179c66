package app

import (
	"context"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/domain/port"
	"heartbeat/internal/logger"
)

// ResultService хранит последние оценки пульса для бота и журналов
type ResultService struct {
	repo port.ResultRepository
}

// NewResultService создаёт сервис результатов
func NewResultService(repo port.ResultRepository) *ResultService {
	return &ResultService{repo: repo}
}

// OnResult сохраняет оценку; реализует port.ResultListener
func (s *ResultService) OnResult(result entity.Result) {
	if err := s.repo.Append(context.Background(), result); err != nil {
		logger.Warn("results", "store result: %v", err)
	}
}

// Last последняя оценка
func (s *ResultService) Last(ctx context.Context) (entity.Result, bool, error) {
	return s.repo.Last(ctx)
}

// Recent до n последних оценок
func (s *ResultService) Recent(ctx context.Context, n int) ([]entity.Result, error) {
	return s.repo.Recent(ctx, n)
}

// Fanout раздаёт результат нескольким слушателям по порядку
type Fanout []port.ResultListener

// OnResult реализует port.ResultListener
func (f Fanout) OnResult(result entity.Result) {
	for _, l := range f {
		if l != nil {
			l.OnResult(result)
		}
	}
}
