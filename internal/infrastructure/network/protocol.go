package network

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"heartbeat/internal/domain/entity"
)

// MessageType тип сообщения протокола HRM
type MessageType int32

// Типы сообщений; значения фиксированы протоколом
const (
	MessageHeartbeat MessageType = iota
	MessageTimeSync
	MessageHeartrate
	MessageStop
)

const (
	headerSize     = 8
	lengthSize     = 4
	heartrateSize  = 32
	timeSyncSize   = 16
	maxPayloadSize = 1 << 20
)

var (
	// ErrUnknownMessage неизвестный тип сообщения
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrPayloadSize недопустимая длина полезной нагрузки
	ErrPayloadSize = errors.New("invalid payload size")
)

func (t MessageType) String() string {
	switch t {
	case MessageHeartbeat:
		return "heartbeat"
	case MessageTimeSync:
		return "time_sync"
	case MessageHeartrate:
		return "heartrate"
	case MessageStop:
		return "stop"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

func (t MessageType) valid() bool {
	return t >= MessageHeartbeat && t <= MessageStop
}

// Message сообщение: [int32 длина][int32 тип][полезная нагрузка], big-endian.
// В ответах клиента длина считает только полезную нагрузку (ReadMessage).
// В запросах сервера длина лишь признак непустого сообщения, а размер
// нагрузки задаётся типом (ReadRequest).
type Message struct {
	Type    MessageType
	Payload []byte
}

// WriteMessage пишет сообщение одним вызовом Write
func WriteMessage(w io.Writer, t MessageType, payload []byte) error {
	if len(payload) == 0 || len(payload) > maxPayloadSize {
		return fmt.Errorf("%s: %w", t, ErrPayloadSize)
	}
	buf := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(t))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadMessage читает одно сообщение. Для неизвестного типа полезная нагрузка
// всё равно вычитывается, а возвращается ErrUnknownMessage.
func ReadMessage(r io.Reader) (Message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, err
	}
	n := int32(binary.BigEndian.Uint32(header[0:4]))
	t := MessageType(binary.BigEndian.Uint32(header[4:8]))
	if n < 0 || n > maxPayloadSize {
		return Message{}, fmt.Errorf("length %d: %w", n, ErrPayloadSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, fmt.Errorf("read payload: %w", err)
	}
	if !t.valid() {
		return Message{Type: t, Payload: payload}, fmt.Errorf("%s: %w", t, ErrUnknownMessage)
	}
	return Message{Type: t, Payload: payload}, nil
}

// requestPayloadSize размер нагрузки запроса сервера по его типу
func requestPayloadSize(t MessageType) int {
	if t == MessageTimeSync {
		return 8
	}
	return 0
}

// ReadRequest читает запрос сервера. Сообщения с длиной <= 0 пропускаются.
// После запроса неизвестного типа граница следующего не определена,
// поэтому ErrUnknownMessage возвращается без чтения нагрузки.
func ReadRequest(r io.Reader) (Message, error) {
	var buf [lengthSize]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Message{}, err
		}
		if int32(binary.BigEndian.Uint32(buf[:])) > 0 {
			break
		}
	}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Message{}, fmt.Errorf("read type: %w", err)
	}
	t := MessageType(binary.BigEndian.Uint32(buf[:]))
	if !t.valid() {
		return Message{Type: t}, fmt.Errorf("%s: %w", t, ErrUnknownMessage)
	}

	payload := make([]byte, requestPayloadSize(t))
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, fmt.Errorf("read %s payload: %w", t, err)
	}
	return Message{Type: t, Payload: payload}, nil
}

// WriteRequest пишет запрос сервера: длина равна размеру типа и нагрузки
func WriteRequest(w io.Writer, t MessageType, payload []byte) error {
	if len(payload) != requestPayloadSize(t) {
		return fmt.Errorf("%s request: %w", t, ErrPayloadSize)
	}
	buf := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(lengthSize+len(payload)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(t))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

// EncodeHeartrate кодирует оценку: mean, min, max (float64) и время в мс (int64)
func EncodeHeartrate(r entity.Result, timeMillis int64) []byte {
	buf := make([]byte, heartrateSize)
	binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(r.Mean))
	binary.BigEndian.PutUint64(buf[8:16], math.Float64bits(r.Min))
	binary.BigEndian.PutUint64(buf[16:24], math.Float64bits(r.Max))
	binary.BigEndian.PutUint64(buf[24:32], uint64(timeMillis))
	return buf
}

// DecodeHeartrate обратна EncodeHeartrate; Result.Time получает время в мс
func DecodeHeartrate(p []byte) (entity.Result, error) {
	if len(p) != heartrateSize {
		return entity.Result{}, fmt.Errorf("heartrate %d bytes: %w", len(p), ErrPayloadSize)
	}
	return entity.Result{
		Mean: math.Float64frombits(binary.BigEndian.Uint64(p[0:8])),
		Min:  math.Float64frombits(binary.BigEndian.Uint64(p[8:16])),
		Max:  math.Float64frombits(binary.BigEndian.Uint64(p[16:24])),
		Time: int64(binary.BigEndian.Uint64(p[24:32])),
	}, nil
}

// EncodeTimeSync ответ на синхронизацию: смещение и текущее время клиента, мс
func EncodeTimeSync(offset, clientTime int64) []byte {
	buf := make([]byte, timeSyncSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(offset))
	binary.BigEndian.PutUint64(buf[8:16], uint64(clientTime))
	return buf
}

// DecodeTimeSync разбирает ответ на синхронизацию
func DecodeTimeSync(p []byte) (offset, clientTime int64, err error) {
	if len(p) != timeSyncSize {
		return 0, 0, fmt.Errorf("time sync %d bytes: %w", len(p), ErrPayloadSize)
	}
	return int64(binary.BigEndian.Uint64(p[0:8])), int64(binary.BigEndian.Uint64(p[8:16])), nil
}

// serverTime время сервера из запроса синхронизации
func serverTime(p []byte) (int64, error) {
	if len(p) < 8 {
		return 0, fmt.Errorf("time sync request %d bytes: %w", len(p), ErrPayloadSize)
	}
	return int64(binary.BigEndian.Uint64(p[0:8])), nil
}
