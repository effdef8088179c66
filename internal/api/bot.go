package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"heartbeat/internal/container"
	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

const (
	msgStart = `👋 Привет! Я сообщаю пульс, измеренный по видео лица.

📋 Команды:
/subscribe — получать пульс
/stop — отключить уведомления
/status — последняя оценка
/history — последние оценки
/help — справка`

	msgHelp = `ℹ️ Как это работает:

1️⃣ Камера снимает лицо
2️⃣ По изменению цвета кожи оценивается пульс
3️⃣ Подписчики периодически получают среднее, минимум и максимум

💡 Рекомендации:
• Ровное освещение без мерцания
• Лицо неподвижно и смотрит в камеру

📋 Команды:
/subscribe — получать пульс
/stop — отключить уведомления
/status — последняя оценка`

	msgSubscribed     = "✅ Подписка оформлена. Буду присылать пульс."
	msgUnsubscribed   = "❌ Уведомления отключены. Отправьте /subscribe, чтобы включить."
	msgNoResult       = "⏳ Оценки пульса пока нет. Лицо должно быть в кадре несколько секунд."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgUseCommands    = "📋 Используйте команды: /subscribe, /stop, /status."
	msgError          = "⚠️ Не удалось выполнить команду. Попробуйте позже."

	historySize = 5
)

// sender часть tgbotapi.BotAPI для отправки сообщений
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram-бота: подписки и рассылка пульса
type Bot struct {
	api       *tgbotapi.BotAPI
	sender    sender
	container *container.Container
	every     int64
	count     atomic.Int64
	notify    chan entity.Result
}

// NewBot создаёт нового бота. Подписчики получают каждый every-й результат.
func NewBot(token string, c *container.Container, every int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram", "authorized on account %s", api.Self.UserName)

	b := newBot(api, c, every)
	b.api = api
	return b, nil
}

func newBot(s sender, c *container.Container, every int) *Bot {
	if every < 1 {
		every = 1
	}
	return &Bot{
		sender:    s,
		container: c,
		every:     int64(every),
		notify:    make(chan entity.Result, 1),
	}
}

// OnResult реализует port.ResultListener: ставит каждый every-й результат в рассылку
func (b *Bot) OnResult(r entity.Result) {
	if b.count.Add(1)%b.every != 0 {
		return
	}
	select {
	case b.notify <- r:
	default:
		// рассылка не успевает, результат пропускаем
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-b.notify:
			b.broadcast(ctx, r)
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.sendMessage(msg.Chat.ID, msgUseCommands)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	subs := b.container.SubscriberService
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		if _, err := subs.Get(ctx, userID, chatID); err != nil {
			logger.Error("telegram", "get subscriber: %v", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "subscribe":
		if _, err := subs.Subscribe(ctx, userID, chatID); err != nil {
			logger.Error("telegram", "subscribe: %v", err)
			b.sendMessage(chatID, msgError)
			return
		}
		b.sendMessage(chatID, msgSubscribed)

	case "stop":
		if _, err := subs.Unsubscribe(ctx, userID, chatID); err != nil {
			logger.Error("telegram", "unsubscribe: %v", err)
			b.sendMessage(chatID, msgError)
			return
		}
		b.sendMessage(chatID, msgUnsubscribed)

	case "status":
		last, ok, err := b.container.ResultService.Last(ctx)
		switch {
		case err != nil:
			logger.Error("telegram", "last result: %v", err)
			b.sendMessage(chatID, msgError)
		case !ok:
			b.sendMessage(chatID, msgNoResult)
		default:
			b.sendMessage(chatID, formatResult(last))
		}

	case "history":
		recent, err := b.container.ResultService.Recent(ctx, historySize)
		if err != nil {
			logger.Error("telegram", "recent results: %v", err)
			b.sendMessage(chatID, msgError)
			return
		}
		if len(recent) == 0 {
			b.sendMessage(chatID, msgNoResult)
			return
		}
		b.sendMessage(chatID, formatHistory(recent))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// broadcast отправляет результат всем подписчикам
func (b *Bot) broadcast(ctx context.Context, r entity.Result) {
	chats, err := b.container.SubscriberService.Recipients(ctx)
	if err != nil {
		logger.Error("telegram", "list subscribers: %v", err)
		return
	}
	text := formatResult(r)
	for _, chatID := range chats {
		b.sendMessage(chatID, text)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		logger.Error("telegram", "send message: %v", err)
	}
}

func formatResult(r entity.Result) string {
	return fmt.Sprintf("❤️ Пульс: %.0f уд/мин (мин %.0f, макс %.0f)", r.Mean, r.Min, r.Max)
}

func formatHistory(results []entity.Result) string {
	var sb strings.Builder
	sb.WriteString("📈 Последние оценки:")
	for _, r := range results {
		fmt.Fprintf(&sb, "\n• %.0f уд/мин", r.Mean)
	}
	return sb.String()
}
