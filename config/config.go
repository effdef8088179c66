package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	app "heartbeat/internal/application"
	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

// ErrInvalid конфигурация не прошла проверку
var ErrInvalid = errors.New("invalid configuration")

// Бэкенды детектора
const (
	BackendPigo    = "pigo"
	BackendCascade = "cascade"
)

// Источники кадров
const (
	SourceDir    = "dir"
	SourceCamera = "camera"
)

type Config struct {
	Pipeline SessionConfig  `yaml:"session"`
	Detector DetectorConfig `yaml:"detector"`
	Source   SourceConfig   `yaml:"source"`
	Log      LogConfig      `yaml:"log"`
	Telegram TelegramConfig `yaml:"telegram"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HRM      HRMConfig      `yaml:"hrm"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SessionConfig параметры обработки сигнала
type SessionConfig struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	TimeBase          float64 `yaml:"time_base"`
	SamplingFrequency float64 `yaml:"sampling_frequency"`
	RescanInterval    float64 `yaml:"rescan_interval"`
	ResampleRate      float64 `yaml:"resample_rate"`
	MinWindow         float64 `yaml:"min_window"`
	MaxWindow         float64 `yaml:"max_window"`
	LowBPM            float64 `yaml:"low_bpm"`
	HighBPM           float64 `yaml:"high_bpm"`
	DetrendCutoff     float64 `yaml:"detrend_cutoff"`
	ResolutionBPM     float64 `yaml:"resolution_bpm"`
	HistorySize       int     `yaml:"history_size"`
	JumpTolerance     float64 `yaml:"jump_tolerance"`
	Channel           string  `yaml:"channel"` // red, green, blue
	Draw              bool    `yaml:"draw"`
}

// DetectorConfig модели детекторов лица и глаз
type DetectorConfig struct {
	Backend      string  `yaml:"backend"` // pigo или cascade
	FaceModel    string  `yaml:"face_model"`
	EyeModel     string  `yaml:"eye_model"`
	MinFaceRatio float64 `yaml:"min_face_ratio"`
	MinEyeRatio  float64 `yaml:"min_eye_ratio"`
}

// SourceConfig источник кадров
type SourceConfig struct {
	Kind   string  `yaml:"kind"` // dir или camera
	Dir    string  `yaml:"dir"`
	FPS    float64 `yaml:"fps"`
	Device int     `yaml:"device"`
}

// LogConfig логирование и журнал результатов
type LogConfig struct {
	Level    string `yaml:"level"`
	Dir      string `yaml:"dir"` // пусто: журнал результатов не пишется
	Detailed bool   `yaml:"detailed"`
}

// TelegramConfig бот уведомлений; пустой токен отключает бота
type TelegramConfig struct {
	Token string `yaml:"token"`
	Every int    `yaml:"every"` // отправлять подписчикам каждый N-й результат
}

// MQTTConfig публикация результатов; пустой брокер отключает публикацию
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// HRMConfig сервер HRM; пустой адрес отключает клиента
type HRMConfig struct {
	Server string `yaml:"server"` // host или host:port
	Queue  int    `yaml:"queue"`
}

// MetricsConfig HTTP-сервер метрик; пустой адрес отключает его
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var channels = map[string]int{
	"red":   entity.ChannelRed,
	"green": entity.ChannelGreen,
	"blue":  entity.ChannelBlue,
}

// Default значения по умолчанию
func Default() *Config {
	s := app.DefaultSessionConfig()
	return &Config{
		Pipeline: SessionConfig{
			Width:             s.Width,
			Height:            s.Height,
			TimeBase:          s.TimeBase,
			SamplingFrequency: s.SamplingFrequency,
			RescanInterval:    s.RescanInterval,
			ResampleRate:      s.ResampleRate,
			MinWindow:         s.MinWindow,
			MaxWindow:         s.MaxWindow,
			LowBPM:            s.LowBPM,
			HighBPM:           s.HighBPM,
			DetrendCutoff:     s.DetrendCutoff,
			ResolutionBPM:     s.ResolutionBPM,
			HistorySize:       s.HistorySize,
			JumpTolerance:     s.JumpTolerance,
			Channel:           "green",
		},
		Detector: DetectorConfig{
			Backend:      BackendPigo,
			FaceModel:    "cascade/facefinder",
			EyeModel:     "cascade/puploc",
			MinFaceRatio: 0.4,
			MinEyeRatio:  0.1,
		},
		Source:   SourceConfig{Kind: SourceDir, Dir: "frames", FPS: 30},
		Log:      LogConfig{Level: "info"},
		Telegram: TelegramConfig{Every: 5},
		MQTT:     MQTTConfig{Topic: "heartbeat", ClientID: "heartbeat"},
		HRM:      HRMConfig{Queue: 16},
	}
}

// Load собирает конфигурацию: значения по умолчанию, YAML-файл (если path не пуст),
// затем .env и переменные окружения.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TELEGRAM_TOKEN":  &c.Telegram.Token,
		"MQTT_BROKER":     &c.MQTT.Broker,
		"HRM_SERVER":      &c.HRM.Server,
		"LOG_LEVEL":       &c.Log.Level,
		"METRICS_ADDR":    &c.Metrics.Addr,
		"RPPG_DETECTOR":   &c.Detector.Backend,
		"RPPG_FACE_MODEL": &c.Detector.FaceModel,
		"RPPG_EYE_MODEL":  &c.Detector.EyeModel,
		"RPPG_SOURCE":     &c.Source.Kind,
		"RPPG_SOURCE_DIR": &c.Source.Dir,
		"RPPG_CHANNEL":    &c.Pipeline.Channel,
		"RPPG_LOG_DIR":    &c.Log.Dir,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"RPPG_SAMPLING_FREQUENCY": &c.Pipeline.SamplingFrequency,
		"RPPG_RESCAN_INTERVAL":    &c.Pipeline.RescanInterval,
		"RPPG_TIME_BASE":          &c.Pipeline.TimeBase,
		"RPPG_FPS":                &c.Source.FPS,
	}
	for name, dst := range floats {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, name, v)
		}
		*dst = f
	}

	ints := map[string]*int{
		"RPPG_WIDTH":  &c.Pipeline.Width,
		"RPPG_HEIGHT": &c.Pipeline.Height,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, name, v)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("RPPG_DRAW"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: RPPG_DRAW=%q", ErrInvalid, v)
		}
		c.Pipeline.Draw = b
	}
	return nil
}

// Validate проверяет конфигурацию целиком
func (c *Config) Validate() error {
	if _, err := c.Pipeline.Build(); err != nil {
		return err
	}
	switch c.Detector.Backend {
	case BackendPigo, BackendCascade:
	default:
		return fmt.Errorf("%w: unknown detector backend %q", ErrInvalid, c.Detector.Backend)
	}
	if c.Detector.FaceModel == "" || c.Detector.EyeModel == "" {
		return fmt.Errorf("%w: face and eye model paths are required", ErrInvalid)
	}
	if c.Detector.MinFaceRatio <= 0 || c.Detector.MinFaceRatio > 1 {
		return fmt.Errorf("%w: min face ratio %g", ErrInvalid, c.Detector.MinFaceRatio)
	}
	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Dir == "" {
			return fmt.Errorf("%w: source dir is required", ErrInvalid)
		}
		if c.Source.FPS <= 0 {
			return fmt.Errorf("%w: source fps must be positive", ErrInvalid)
		}
	case SourceCamera:
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalid, c.Source.Kind)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Telegram.Every < 1 {
		return fmt.Errorf("%w: telegram.every must be at least 1", ErrInvalid)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos %d", ErrInvalid, c.MQTT.QoS)
	}
	if c.HRM.Queue < 1 {
		return fmt.Errorf("%w: hrm queue must be at least 1", ErrInvalid)
	}
	return nil
}

// Session строит неизменяемую конфигурацию сессии
func (c *Config) Session() app.SessionConfig {
	s, _ := c.Pipeline.Build()
	return s
}

// Build переводит секцию session в app.SessionConfig и проверяет её
func (s SessionConfig) Build() (app.SessionConfig, error) {
	channel, ok := channels[strings.ToLower(s.Channel)]
	if !ok {
		return app.SessionConfig{}, fmt.Errorf("%w: unknown channel %q", ErrInvalid, s.Channel)
	}
	out := app.SessionConfig{
		Width:             s.Width,
		Height:            s.Height,
		TimeBase:          s.TimeBase,
		SamplingFrequency: s.SamplingFrequency,
		RescanInterval:    s.RescanInterval,
		ResampleRate:      s.ResampleRate,
		MinWindow:         s.MinWindow,
		MaxWindow:         s.MaxWindow,
		LowBPM:            s.LowBPM,
		HighBPM:           s.HighBPM,
		DetrendCutoff:     s.DetrendCutoff,
		ResolutionBPM:     s.ResolutionBPM,
		HistorySize:       s.HistorySize,
		JumpTolerance:     s.JumpTolerance,
		Channel:           channel,
		Draw:              s.Draw,
	}
	if err := out.Validate(); err != nil {
		return app.SessionConfig{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return out, nil
}

// HRMAddr адрес сервера HRM с портом по умолчанию
func (c *Config) HRMAddr(defaultPort int) string {
	if c.HRM.Server == "" || strings.Contains(c.HRM.Server, ":") {
		return c.HRM.Server
	}
	return fmt.Sprintf("%s:%d", c.HRM.Server, defaultPort)
}
