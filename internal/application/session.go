package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/google/uuid"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/domain/port"
	"heartbeat/internal/dsp"
	"heartbeat/internal/logger"
)

const sessionModule = "session"

var (
	ErrSessionClosed   = errors.New("session is closed")
	ErrFrameOutOfOrder = errors.New("frame timestamp is not increasing")
	ErrEmptyFrame      = errors.New("frame has no image")
	ErrInvalidConfig   = errors.New("invalid session config")
)

// maxFrameRate верхняя оценка частоты кадров для ёмкости буфера сырого сигнала
const maxFrameRate = 120

// SessionConfig параметры сессии, неизменные на всё её время
type SessionConfig struct {
	Width             int
	Height            int
	TimeBase          float64 // секунд в единице времени кадра
	SamplingFrequency float64 // частота выдачи результатов, Гц
	RescanInterval    float64 // период повторного поиска лица, секунды
	ResampleRate      float64 // частота равномерной сетки, Гц
	MinWindow         float64 // минимальное окно анализа, секунды
	MaxWindow         float64 // максимальное окно анализа, секунды
	LowBPM            float64
	HighBPM           float64
	DetrendCutoff     float64 // Гц
	ResolutionBPM     float64
	HistorySize       int
	JumpTolerance     float64
	Channel           int
	Draw              bool
}

// DefaultSessionConfig значения по умолчанию: кадры с временем в микросекундах
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Width:             640,
		Height:            480,
		TimeBase:          1e-6,
		SamplingFrequency: 1,
		RescanInterval:    1,
		ResampleRate:      30,
		MinWindow:         2,
		MaxWindow:         10,
		LowBPM:            42,
		HighBPM:           240,
		DetrendCutoff:     0.3,
		ResolutionBPM:     0.5,
		HistorySize:       5,
		JumpTolerance:     2.5,
		Channel:           entity.ChannelGreen,
	}
}

// Validate проверяет параметры сессии
func (c SessionConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.TimeBase <= 0:
		return fmt.Errorf("%w: time base must be positive", ErrInvalidConfig)
	case c.SamplingFrequency <= 0:
		return fmt.Errorf("%w: sampling frequency must be positive", ErrInvalidConfig)
	case c.RescanInterval <= 0:
		return fmt.Errorf("%w: rescan interval must be positive", ErrInvalidConfig)
	case c.ResampleRate <= 0:
		return fmt.Errorf("%w: resample rate must be positive", ErrInvalidConfig)
	case c.MinWindow <= 0 || c.MaxWindow < c.MinWindow:
		return fmt.Errorf("%w: analysis window [%g, %g]", ErrInvalidConfig, c.MinWindow, c.MaxWindow)
	case c.LowBPM <= 0 || c.HighBPM <= c.LowBPM:
		return fmt.Errorf("%w: bpm band [%g, %g]", ErrInvalidConfig, c.LowBPM, c.HighBPM)
	case c.HighBPM/dsp.SecondsPerMinute >= c.ResampleRate/2:
		return fmt.Errorf("%w: bpm band above Nyquist of %g Hz grid", ErrInvalidConfig, c.ResampleRate)
	case c.DetrendCutoff <= 0 || c.DetrendCutoff >= c.LowBPM/dsp.SecondsPerMinute:
		return fmt.Errorf("%w: detrend cutoff must be below the bpm band", ErrInvalidConfig)
	case c.ResolutionBPM <= 0:
		return fmt.Errorf("%w: spectral resolution must be positive", ErrInvalidConfig)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history size must be at least 1", ErrInvalidConfig)
	case c.JumpTolerance <= 1:
		return fmt.Errorf("%w: jump tolerance must be above 1", ErrInvalidConfig)
	case c.Channel < entity.ChannelRed || c.Channel > entity.ChannelBlue:
		return fmt.Errorf("%w: channel %d", ErrInvalidConfig, c.Channel)
	}
	return nil
}

// Option настройка сессии
type Option func(*Session)

// WithObserver подключает наблюдателя (метрики)
func WithObserver(o port.SessionObserver) Option {
	return func(s *Session) { s.observer = o }
}

// WithID задаёт идентификатор сессии вместо случайного
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithSampleListener получает каждый сырой отсчёт (подробный журнал)
func WithSampleListener(l port.SampleListener) Option {
	return func(s *Session) { s.samples = l }
}

// WithOverlay подключает отрисовку (используется, если включён Draw)
func WithOverlay(o port.Overlay) Option {
	return func(s *Session) { s.overlay = o }
}

// Session обрабатывает кадры одного видеопотока: трекер → маска → сырой
// сигнал → подготовка → спектр → результат.
// ProcessFrame не реентерабелен; Close можно вызывать из другой горутины.
type Session struct {
	id       string
	cfg      SessionConfig
	face     port.Detector
	eyes     port.Detector
	listener port.ResultListener
	observer port.SessionObserver
	overlay  port.Overlay
	samples  port.SampleListener

	mu               sync.Mutex
	closed           bool
	started          bool
	lastTime         int64
	lastSamplingTime int64
	last             *entity.Result

	tracker     *Tracker
	masks       *MaskBuilder
	accumulator *dsp.Accumulator
	conditioner *dsp.Conditioner
	estimator   *dsp.Estimator
}

// NewSession создаёт сессию. Неверная конфигурация или отсутствие детектора лица
// это ошибка: сессия не запускается.
func NewSession(cfg SessionConfig, face, eyes port.Detector, listener port.ResultListener, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if face == nil {
		return nil, fmt.Errorf("%w: face detector is required", ErrInvalidConfig)
	}

	capacity := int(math.Ceil(cfg.MaxWindow*maxFrameRate)) + 1
	s := &Session{
		id:          uuid.NewString(),
		cfg:         cfg,
		face:        face,
		eyes:        eyes,
		listener:    listener,
		tracker:     NewTracker(face, eyes, cfg.RescanInterval, cfg.TimeBase),
		masks:       NewMaskBuilder(image.Rect(0, 0, cfg.Width, cfg.Height)),
		accumulator: dsp.NewAccumulator(cfg.MaxWindow, cfg.TimeBase, cfg.JumpTolerance, capacity),
		conditioner: dsp.NewConditioner(dsp.ConditionerConfig{
			TimeBase:      cfg.TimeBase,
			Rate:          cfg.ResampleRate,
			MinWindow:     cfg.MinWindow,
			LowHz:         cfg.LowBPM / dsp.SecondsPerMinute,
			HighHz:        cfg.HighBPM / dsp.SecondsPerMinute,
			DetrendCutoff: cfg.DetrendCutoff,
			Channel:       cfg.Channel,
		}),
		estimator: dsp.NewEstimator(dsp.EstimatorConfig{
			Rate:          cfg.ResampleRate,
			LowBPM:        cfg.LowBPM,
			HighBPM:       cfg.HighBPM,
			ResolutionBPM: cfg.ResolutionBPM,
			HistorySize:   cfg.HistorySize,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info(sessionModule, "session %s started: %dx%d, sampling %g Hz, rescan %g s",
		s.id, cfg.Width, cfg.Height, cfg.SamplingFrequency, cfg.RescanInterval)
	return s, nil
}

// ID идентификатор сессии
func (s *Session) ID() string {
	return s.id
}

// State снимок состояния трекера
func (s *Session) State() entity.TrackingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.State()
}

// Last последний выданный результат
func (s *Session) Last() (entity.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return entity.Result{}, false
	}
	return *s.last, true
}

// ProcessFrame обрабатывает кадр целиком. Результат не nil только на такте
// выборки, для которого удалось оценить пульс; он же передаётся слушателю.
func (s *Session) ProcessFrame(ctx context.Context, frame entity.Frame) (*entity.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if frame.Color == nil || frame.Gray == nil {
		return nil, ErrEmptyFrame
	}
	if s.started && frame.Time <= s.lastTime {
		return nil, fmt.Errorf("%w: %d after %d", ErrFrameOutOfOrder, frame.Time, s.lastTime)
	}
	if !s.started {
		s.started = true
		s.lastSamplingTime = frame.Time
	}
	s.lastTime = frame.Time

	rescan := s.tracker.RescanDue(frame.Time)
	if s.tracker.Update(ctx, frame) {
		s.masks.Invalidate()
	}
	state := s.tracker.State()
	if rescan && s.observer != nil {
		s.observer.Rescan(state.Valid)
	}

	// новая маска сдвигает уровень сигнала
	rebuilt := s.masks.Dirty()
	mask := s.masks.Mask(state)
	if means, n := MaskMeans(frame.Color, mask); n > 0 {
		var sample entity.Sample
		if rebuilt {
			sample = s.accumulator.AddStep(frame.Time, means)
		} else {
			sample = s.accumulator.Add(frame.Time, means)
		}
		if sample.Jump {
			logger.Debug(sessionModule, "timing jump before %d", frame.Time)
		}
		if s.observer != nil {
			s.observer.SampleAdded(sample.Jump)
		}
		if s.samples != nil {
			s.samples.OnSample(sample)
		}
	}

	var result *entity.Result
	if s.samplingDue(frame.Time) {
		s.lastSamplingTime = frame.Time
		result = s.tick(frame.Time, state)
	}

	if s.cfg.Draw && s.overlay != nil {
		s.overlay.Draw(frame, state, mask, s.last)
	}
	if s.observer != nil {
		s.observer.FrameProcessed()
	}
	return result, nil
}

func (s *Session) samplingDue(now int64) bool {
	return float64(now-s.lastSamplingTime)*s.cfg.TimeBase >= 1/s.cfg.SamplingFrequency
}

// tick один такт выборки: подготовка сигнала, оценка пульса, уведомление слушателя
func (s *Session) tick(now int64, state entity.TrackingState) *entity.Result {
	if !state.Valid {
		return nil
	}

	signal, err := s.conditioner.Condition(s.accumulator.Samples())
	if err != nil {
		logger.Debug(sessionModule, "no estimate at %d: %v", now, err)
		return nil
	}
	bpm, ok := s.estimator.Estimate(signal)
	if !ok {
		logger.Debug(sessionModule, "no spectral peak at %d", now)
		return nil
	}
	s.estimator.Push(bpm)

	mean, lo, hi, _ := s.estimator.Stats()
	result := entity.Result{Time: now, Mean: mean, Min: lo, Max: hi}
	s.last = &result

	if s.listener != nil {
		s.listener.OnResult(result)
	}
	if s.observer != nil {
		s.observer.ResultEmitted(result)
	}
	return &result
}

// Spectrum текущий спектр мощности (для отладки и подробного журнала)
func (s *Session) Spectrum() (dsp.Spectrum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	signal, err := s.conditioner.Condition(s.accumulator.Samples())
	if err != nil {
		return dsp.Spectrum{}, err
	}
	return s.estimator.Spectrum(signal), nil
}

// Close завершает сессию и освобождает детекторы. Ждёт окончания
// обрабатываемого кадра; повторный вызов ничего не делает.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.face.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close face detector: %w", err))
	}
	if s.eyes != nil {
		if err := s.eyes.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close eye detector: %w", err))
		}
	}
	logger.Info(sessionModule, "session %s closed", s.id)
	return errors.Join(errs...)
}
