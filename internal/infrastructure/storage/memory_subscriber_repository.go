package storage

import (
	"context"
	"sort"
	"sync"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/domain/port"
)

// MemorySubscriberRepository in-memory хранилище подписчиков
type MemorySubscriberRepository struct {
	mu   sync.RWMutex
	subs map[int64]*entity.Subscriber
}

// NewMemorySubscriberRepository создаёт новое in-memory хранилище
func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{
		subs: make(map[int64]*entity.Subscriber),
	}
}

// Get возвращает подписчика по ID, создаёт нового если не найден
func (r *MemorySubscriberRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	r.mu.RLock()
	sub, exists := r.subs[userID]
	r.mu.RUnlock()

	if exists {
		return sub, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, exists := r.subs[userID]; exists {
		return sub, nil
	}
	sub = entity.NewSubscriber(userID, chatID)
	r.subs[userID] = sub

	return sub, nil
}

// Save сохраняет состояние подписчика
func (r *MemorySubscriberRepository) Save(ctx context.Context, sub *entity.Subscriber) error {
	r.mu.Lock()
	r.subs[sub.ID] = sub
	r.mu.Unlock()

	return nil
}

// List возвращает подписанные чаты, упорядоченные по ID пользователя
func (r *MemorySubscriberRepository) List(ctx context.Context) ([]*entity.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.Subscribed() {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.SubscriberRepository = (*MemorySubscriberRepository)(nil)
