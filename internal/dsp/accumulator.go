package dsp

import (
	"heartbeat/internal/domain/entity"
)

// intervalAlpha вес нового интервала в скользящем среднем ожидаемого шага
const intervalAlpha = 0.1

// Accumulator накапливает сырой сигнал: по одному отсчёту на кадр
// с пометкой разрывов и вытеснением отсчётов старше окна.
type Accumulator struct {
	window    float64 // секунды
	timeBase  float64 // секунд в единице времени источника
	tolerance float64 // во сколько раз шаг должен превысить ожидаемый, чтобы считаться разрывом
	interval  float64 // ожидаемый шаг, секунды; 0 пока неизвестен
	samples   *Ring[entity.Sample]
}

// NewAccumulator создаёт накопитель.
// capacity ограничивает память независимо от окна.
func NewAccumulator(window, timeBase, tolerance float64, capacity int) *Accumulator {
	return &Accumulator{
		window:    window,
		timeBase:  timeBase,
		tolerance: tolerance,
		samples:   NewRing[entity.Sample](capacity),
	}
}

// Add добавляет отсчёт и возвращает его с выставленным флагом разрыва
func (a *Accumulator) Add(t int64, means [3]float64) entity.Sample {
	return a.add(t, means, false)
}

// AddStep добавляет первый отсчёт после смены маски
func (a *Accumulator) AddStep(t int64, means [3]float64) entity.Sample {
	return a.add(t, means, true)
}

func (a *Accumulator) add(t int64, means [3]float64, step bool) entity.Sample {
	s := entity.Sample{Time: t, Means: means}

	if last, ok := a.samples.Back(); ok {
		gap := float64(t-last.Time) * a.timeBase
		switch {
		case a.interval == 0:
			a.interval = gap
		case gap > a.tolerance*a.interval:
			s.Jump = true
		default:
			a.interval += intervalAlpha * (gap - a.interval)
		}
	}

	// у первого отсчёта в буфере уровень не с чем сравнивать
	s.Step = step && a.samples.Len() > 0 && !s.Jump
	a.samples.Push(s)
	a.evict(t)
	return s
}

func (a *Accumulator) evict(now int64) {
	for {
		front, ok := a.samples.Front()
		if !ok || float64(now-front.Time)*a.timeBase <= a.window {
			return
		}
		a.samples.PopFront()
	}
}

// Samples копия отсчётов от старых к новым
func (a *Accumulator) Samples() []entity.Sample {
	return a.samples.Slice()
}

// Len число отсчётов
func (a *Accumulator) Len() int {
	return a.samples.Len()
}

// Duration длительность буфера в секундах
func (a *Accumulator) Duration() float64 {
	front, ok := a.samples.Front()
	if !ok {
		return 0
	}
	back, _ := a.samples.Back()
	return float64(back.Time-front.Time) * a.timeBase
}

// Interval ожидаемый шаг между отсчётами, секунды
func (a *Accumulator) Interval() float64 {
	return a.interval
}

// Reset очищает буфер
func (a *Accumulator) Reset() {
	a.samples.Reset()
	a.interval = 0
}
