package mqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Config параметры подключения к брокеру
type Config struct {
	Broker   string // host:port
	ClientID string
	Topic    string // префикс топика
	QoS      byte
}

// client часть paho.Client, которой пользуется Publisher
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Message JSON-представление оценки пульса
type Message struct {
	Session string  `json:"session"`
	TimeMs  int64   `json:"time_ms"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Stats статистика публикаций
type Stats struct {
	Connected bool
	Published uint64
	Errors    uint64
}

// Publisher пересылает оценки пульса в MQTT.
// OnResult не ждёт подтверждения брокера.
type Publisher struct {
	client   client
	topic    string
	qos      byte
	session  string
	timeBase float64

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
	wg        sync.WaitGroup
}

// Connect подключается к брокеру с автоматическим переподключением
func Connect(cfg Config, session string, timeBase float64) (*Publisher, error) {
	p := &Publisher{
		topic:    fmt.Sprintf("%s/%s/heartrate", cfg.Topic, session),
		qos:      cfg.QoS,
		session:  session,
		timeBase: timeBase,
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(paho.Client) {
		p.setConnected(true)
		logger.Info("mqtt", "connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt", "connection lost: %v", err)
	}

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	p.client = c
	p.setConnected(true)
	return p, nil
}

func newPublisher(c client, topic, session string, timeBase float64) *Publisher {
	return &Publisher{
		client:    c,
		topic:     fmt.Sprintf("%s/%s/heartrate", topic, session),
		session:   session,
		timeBase:  timeBase,
		connected: c.IsConnected(),
	}
}

// Topic полный топик публикаций
func (p *Publisher) Topic() string {
	return p.topic
}

// OnResult реализует port.ResultListener
func (p *Publisher) OnResult(r entity.Result) {
	if !p.isConnected() {
		p.fail()
		return
	}
	payload, err := json.Marshal(Message{
		Session: p.session,
		TimeMs:  int64(math.Round(float64(r.Time) * p.timeBase * 1000)),
		Mean:    r.Mean,
		Min:     r.Min,
		Max:     r.Max,
	})
	if err != nil {
		p.fail()
		logger.Error("mqtt", "marshal result: %v", err)
		return
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if !token.WaitTimeout(publishTimeout) {
			p.fail()
			logger.Warn("mqtt", "publish timeout")
			return
		}
		if err := token.Error(); err != nil {
			p.fail()
			logger.Warn("mqtt", "publish failed: %v", err)
			return
		}
		p.mu.Lock()
		p.published++
		p.mu.Unlock()
	}()
}

// Close дожидается отправки и отключается от брокера
func (p *Publisher) Close() error {
	p.wg.Wait()
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		logger.Info("mqtt", "disconnected")
	}
	p.setConnected(false)
	return nil
}

// Stats возвращает статистику
func (p *Publisher) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{Connected: p.connected, Published: p.published, Errors: p.errors}
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *Publisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Publisher) fail() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}
