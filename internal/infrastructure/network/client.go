package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

// DefaultPort порт сервера HRM по умолчанию
const DefaultPort = 8080

// StateListener уведомления о состоянии соединения
type StateListener interface {
	TryingToConnect()
	Connected()
	Disconnected()
	ConnectError(err error)
}

// Client отправляет оценки пульса на сервер HRM и отвечает на его запросы.
// OnResult только кладёт результат в очередь; отправкой занимается отдельная горутина.
type Client struct {
	addr     string
	timeBase float64
	listener StateListener
	queue    chan entity.Result

	dial func(ctx context.Context, addr string) (net.Conn, error)
	now  func() time.Time

	writeMu sync.Mutex
	sent    atomic.Int64
	dropped atomic.Int64
}

// NewClient создаёт клиента. timeBase переводит Result.Time в секунды.
func NewClient(addr string, timeBase float64, queueSize int, listener StateListener) *Client {
	if queueSize < 1 {
		queueSize = 1
	}
	var d net.Dialer
	return &Client{
		addr:     addr,
		timeBase: timeBase,
		listener: listener,
		queue:    make(chan entity.Result, queueSize),
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		},
		now: time.Now,
	}
}

// OnResult реализует port.ResultListener. При полной очереди вытесняется самый старый результат.
func (c *Client) OnResult(r entity.Result) {
	for {
		select {
		case c.queue <- r:
			return
		default:
		}
		select {
		case <-c.queue:
			c.dropped.Add(1)
		default:
		}
	}
}

// Stats число отправленных и вытесненных результатов
func (c *Client) Stats() (sent, dropped int64) {
	return c.sent.Load(), c.dropped.Load()
}

// Run подключается к серверу и обслуживает соединение до запроса stop,
// разрыва или отмены контекста.
func (c *Client) Run(ctx context.Context) error {
	c.notify(func(l StateListener) { l.TryingToConnect() })
	conn, err := c.dial(ctx, c.addr)
	if err != nil {
		logger.Error("network", "connect to %s: %v", c.addr, err)
		c.notify(func(l StateListener) { l.ConnectError(err) })
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	logger.Info("network", "connected to %s", conn.RemoteAddr())
	return c.Serve(ctx, conn)
}

// Serve обслуживает уже установленное соединение и закрывает его на выходе
func (c *Client) Serve(ctx context.Context, conn net.Conn) error {
	c.notify(func(l StateListener) { l.Connected() })

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.deliver(ctx, conn)
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		conn.Close()
	}()

	err := c.readLoop(conn)
	canceled := ctx.Err() != nil
	cancel()
	wg.Wait()

	logger.Info("network", "client stopped")
	c.notify(func(l StateListener) { l.Disconnected() })

	if canceled || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) readLoop(conn net.Conn) error {
	for {
		msg, err := ReadRequest(conn)
		if errors.Is(err, ErrUnknownMessage) {
			logger.Warn("network", "message not recognised: %v", err)
			continue
		}
		if err != nil {
			return err
		}
		receivedAt := c.now().UnixMilli()

		switch msg.Type {
		case MessageHeartbeat:
			logger.Debug("network", "heartbeat request")
			if err := c.send(conn, MessageHeartbeat, []byte{0}); err != nil {
				return err
			}
		case MessageTimeSync:
			sentByServer, err := serverTime(msg.Payload)
			if err != nil {
				logger.Warn("network", "%v", err)
				continue
			}
			offset := receivedAt - sentByServer
			if err := c.send(conn, MessageTimeSync, EncodeTimeSync(offset, c.now().UnixMilli())); err != nil {
				return err
			}
			logger.Debug("network", "time sync answered, offset %d ms", offset)
		case MessageStop:
			logger.Info("network", "stop request")
			return c.send(conn, MessageStop, []byte{0})
		default:
			logger.Warn("network", "unexpected %s from server", msg.Type)
		}
	}
}

func (c *Client) deliver(ctx context.Context, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.queue:
			if err := c.send(conn, MessageHeartrate, EncodeHeartrate(r, c.millis(r.Time))); err != nil {
				logger.Error("network", "send heartrate: %v", err)
				continue
			}
			c.sent.Add(1)
		}
	}
}

func (c *Client) send(conn net.Conn, t MessageType, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteMessage(conn, t, payload)
}

func (c *Client) millis(t int64) int64 {
	return int64(math.Round(float64(t) * c.timeBase * 1000))
}

func (c *Client) notify(fn func(StateListener)) {
	if c.listener != nil {
		fn(c.listener)
	}
}

// LogStateListener пишет смену состояния соединения в лог
type LogStateListener struct{}

func (LogStateListener) TryingToConnect()     { logger.Info("network", "trying to connect") }
func (LogStateListener) Connected()           { logger.Info("network", "connected") }
func (LogStateListener) Disconnected()        { logger.Info("network", "disconnected") }
func (LogStateListener) ConnectError(e error) { logger.Warn("network", "connect error: %v", e) }
