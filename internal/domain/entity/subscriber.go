package entity

// SubscriberState состояние подписчика бота
type SubscriberState string

const (
	StateIdle       SubscriberState = "idle"       // Уведомления выключены
	StateSubscribed SubscriberState = "subscribed" // Получает пульс
)

// Subscriber чат, которому бот отправляет пульс
type Subscriber struct {
	ID     int64           // Telegram User ID
	ChatID int64           // Telegram Chat ID
	State  SubscriberState // Текущее состояние
}

// NewSubscriber создаёт подписчика с выключенными уведомлениями
func NewSubscriber(userID, chatID int64) *Subscriber {
	return &Subscriber{
		ID:     userID,
		ChatID: chatID,
		State:  StateIdle,
	}
}

// SetState обновляет состояние подписчика
func (s *Subscriber) SetState(state SubscriberState) {
	s.State = state
}

// Subscribed сообщает, включены ли уведомления
func (s *Subscriber) Subscribed() bool {
	return s.State == StateSubscribed
}
