package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"heartbeat/config"
	telegram "heartbeat/internal/api"
	app "heartbeat/internal/application"
	"heartbeat/internal/container"
	"heartbeat/internal/domain/port"
	"heartbeat/internal/infrastructure/capture"
	"heartbeat/internal/infrastructure/logfile"
	"heartbeat/internal/infrastructure/metrics"
	"heartbeat/internal/infrastructure/mqtt"
	"heartbeat/internal/infrastructure/network"
	"heartbeat/internal/infrastructure/storage"
	"heartbeat/internal/infrastructure/vision"
	"heartbeat/internal/logger"
)

const (
	resultHistory = 100
	// maxDroppedFrames подряд потерянных кадров, после которых источник считается мёртвым
	maxDroppedFrames = 100
)

// openDetectors подменяется в тестах
var openDetectors = newDetectors

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("main", "failed to load config: %v", err)
		os.Exit(1)
	}
	level, _ := logger.ParseLevel(cfg.Log.Level)
	logger.Init(level, os.Stderr, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("main", "%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessionCfg := cfg.Session()
	id := uuid.NewString()

	face, eyes, err := openDetectors(cfg.Detector)
	if err != nil {
		return err
	}
	// до создания сессии детекторы принадлежат run
	var session *app.Session
	defer func() {
		if session == nil {
			face.Close()
			eyes.Close()
		}
	}()

	source, err := newSource(cfg, sessionCfg.TimeBase)
	if err != nil {
		return err
	}
	defer source.Close()

	// Собираем сервисы приложения
	appContainer := container.New(
		storage.NewMemorySubscriberRepository(),
		storage.NewMemoryResultRepository(resultHistory),
	)
	listeners := app.Fanout{appContainer.ResultService}

	var wg sync.WaitGroup
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("main", "close: %v", err)
			}
		}
	}()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.StartServer(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("metrics", "server: %v", err)
			}
		}()
	}

	var samples port.SampleListener
	if cfg.Log.Dir != "" {
		w, err := logfile.Open(cfg.Log.Dir, id, cfg.Log.Detailed)
		if err != nil {
			return err
		}
		closers = append(closers, w)
		listeners = append(listeners, w)
		if cfg.Log.Detailed {
			samples = w
		}
	}

	if addr := cfg.HRMAddr(network.DefaultPort); addr != "" {
		client := network.NewClient(addr, sessionCfg.TimeBase, cfg.HRM.Queue, network.LogStateListener{})
		listeners = append(listeners, client)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.Run(ctx); err != nil {
				logger.Error("network", "%v", err)
			}
		}()
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.Connect(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}, id, sessionCfg.TimeBase)
		if err != nil {
			logger.Warn("mqtt", "publishing disabled: %v", err)
		} else {
			closers = append(closers, pub)
			listeners = append(listeners, pub)
		}
	}

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, appContainer, cfg.Telegram.Every)
		if err != nil {
			logger.Warn("telegram", "bot disabled: %v", err)
		} else {
			listeners = append(listeners, bot)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := bot.Run(ctx); err != nil {
					logger.Error("telegram", "bot: %v", err)
				}
			}()
		}
	}

	opts := []app.Option{
		app.WithID(id),
		app.WithObserver(m),
		app.WithOverlay(vision.NewOverlay()),
	}
	if samples != nil {
		opts = append(opts, app.WithSampleListener(samples))
	}
	session, err = app.NewSession(sessionCfg, face, eyes, listeners, opts...)
	if err != nil {
		return err
	}

	loopErr := processFrames(ctx, session, source, m)

	if err := session.Close(); err != nil {
		logger.Warn("main", "close session: %v", err)
	}
	cancel()
	wg.Wait()
	return loopErr
}

// processFrames читает кадры до конца потока или отмены контекста.
// Потерянный источником кадр пропускается.
func processFrames(ctx context.Context, session *app.Session, source port.FrameSource, m *metrics.Metrics) error {
	dropped := 0
	for {
		frame, err := source.Next(ctx)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			logger.Info("main", "frame stream finished")
			return nil
		}
		if errors.Is(err, capture.ErrFrameDropped) {
			m.FrameFailed()
			dropped++
			if dropped >= maxDroppedFrames {
				return fmt.Errorf("%d frames dropped in a row: %w", dropped, err)
			}
			logger.Warn("main", "%v", err)
			continue
		}
		if err != nil {
			return err
		}
		dropped = 0

		start := time.Now()
		result, err := session.ProcessFrame(ctx, frame)
		m.UpdateProcessLatency(time.Since(start))
		if err != nil {
			m.FrameFailed()
			if errors.Is(err, app.ErrSessionClosed) {
				return nil
			}
			logger.Warn("main", "frame %d: %v", frame.Time, err)
			continue
		}
		if result != nil {
			logger.Info("main", "heart rate %s", result)
		}
	}
}

func newDetectors(cfg config.DetectorConfig) (face, eyes port.Detector, err error) {
	switch cfg.Backend {
	case config.BackendCascade:
		f, err := vision.NewCascadeDetector(cfg.FaceModel, cfg.MinFaceRatio)
		if err != nil {
			return nil, nil, err
		}
		e, err := vision.NewCascadeDetector(cfg.EyeModel, cfg.MinEyeRatio)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return f, e, nil
	default:
		f, err := vision.NewPigoFaceDetector(cfg.FaceModel, cfg.MinFaceRatio)
		if err != nil {
			return nil, nil, err
		}
		e, err := vision.NewPigoEyeDetector(cfg.EyeModel)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return f, e, nil
	}
}

func newSource(cfg *config.Config, timeBase float64) (port.FrameSource, error) {
	w, h := cfg.Pipeline.Width, cfg.Pipeline.Height
	if cfg.Source.Kind == config.SourceCamera {
		return capture.NewCameraSource(cfg.Source.Device, timeBase, w, h)
	}
	return capture.NewDirSource(cfg.Source.Dir, cfg.Source.FPS, timeBase, w, h)
}
