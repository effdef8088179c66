package port

import (
	"context"

	"heartbeat/internal/domain/entity"
)

// SubscriberRepository интерфейс хранилища подписчиков
type SubscriberRepository interface {
	// Get возвращает подписчика по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error)

	// Save сохраняет состояние подписчика
	Save(ctx context.Context, subscriber *entity.Subscriber) error

	// List возвращает подписчиков с включёнными уведомлениями
	List(ctx context.Context) ([]*entity.Subscriber, error)
}

// ResultRepository интерфейс хранилища последних оценок пульса
type ResultRepository interface {
	// Append добавляет оценку
	Append(ctx context.Context, result entity.Result) error

	// Last возвращает последнюю оценку
	Last(ctx context.Context) (entity.Result, bool, error)

	// Recent возвращает до n последних оценок, от старых к новым
	Recent(ctx context.Context, n int) ([]entity.Result, error)
}
