package dsp

import (
	"errors"

	"heartbeat/internal/domain/entity"
)

// ErrInsufficientData буфер ещё не покрывает минимальное окно анализа
var ErrInsufficientData = errors.New("insufficient signal history")

// ConditionerConfig параметры подготовки сигнала
type ConditionerConfig struct {
	TimeBase      float64 // секунд в единице времени источника
	Rate          float64 // частота равномерной сетки, Гц
	MinWindow     float64 // минимальная длительность буфера, секунды
	LowHz         float64 // нижняя граница полосы пульса
	HighHz        float64 // верхняя граница полосы пульса
	DetrendCutoff float64 // частота среза детренда, Гц
	Channel       int     // канал Sample.Means, обычно зелёный
}

// Conditioner превращает неравномерный сырой сигнал в равномерный,
// без тренда и ограниченный полосой пульса.
type Conditioner struct {
	cfg      ConditionerConfig
	lambda   float64
	bandpass *Bandpass
}

// NewConditioner создаёт стадию подготовки сигнала
func NewConditioner(cfg ConditionerConfig) *Conditioner {
	return &Conditioner{
		cfg:      cfg,
		lambda:   DetrendLambda(cfg.DetrendCutoff, cfg.Rate),
		bandpass: NewBandpass(cfg.LowHz, cfg.HighHz, cfg.Rate),
	}
}

// Condition возвращает подготовленный сигнал на сетке cfg.Rate.
// ErrInsufficientData, если отсчёты покрывают меньше MinWindow секунд.
func (c *Conditioner) Condition(samples []entity.Sample) ([]float64, error) {
	if len(samples) < 2 {
		return nil, ErrInsufficientData
	}
	duration := float64(samples[len(samples)-1].Time-samples[0].Time) * c.cfg.TimeBase
	if duration < c.cfg.MinWindow {
		return nil, ErrInsufficientData
	}

	values, weights := Resample(samples, c.cfg.Channel, c.cfg.TimeBase, c.cfg.Rate)
	detrended := Detrend(values, weights, c.lambda)
	return c.bandpass.Apply(Normalize(detrended)), nil
}

// Rate частота сетки подготовленного сигнала
func (c *Conditioner) Rate() float64 {
	return c.cfg.Rate
}
