package dsp

import (
	"math"

	"heartbeat/internal/domain/entity"
)

// Resample переводит отсчёты одного канала на равномерную сетку с частотой rate.
//
// Ступенька уровня на каждом разрыве убирается: всё, что после разрыва,
// сдвигается так, чтобы продолжить значение до разрыва. Точки сетки внутри
// разрыва заполняются интерполяцией и получают нулевой вес (weights) для
// оценки тренда. На смене маски (Step) уровень продолжается линейной
// экстраполяцией двух предыдущих отсчётов, вес не меняется.
func Resample(samples []entity.Sample, channel int, timeBase, rate float64) (values, weights []float64) {
	if len(samples) < 2 || rate <= 0 {
		return nil, nil
	}

	t0 := samples[0].Time
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	offset := 0.0
	for i, s := range samples {
		xs[i] = float64(s.Time-t0) * timeBase
		v := s.Means[channel]
		switch {
		case i > 0 && s.Jump:
			offset += v - samples[i-1].Means[channel]
		case i > 0 && s.Step:
			offset += v - extrapolate(samples, i, channel)
		}
		ys[i] = v - offset
	}

	duration := xs[len(xs)-1]
	n := int(math.Floor(duration*rate+1e-9)) + 1
	values = make([]float64, n)
	weights = make([]float64, n)

	j := 0
	for k := 0; k < n; k++ {
		g := float64(k) / rate
		for j < len(xs)-2 && xs[j+1] < g {
			j++
		}
		x0, x1 := xs[j], xs[j+1]
		y0, y1 := ys[j], ys[j+1]

		weights[k] = 1
		if samples[j+1].Jump && g > x0 && g < x1 {
			weights[k] = 0
		}

		if x1 <= x0 {
			values[k] = y1
			continue
		}
		f := (g - x0) / (x1 - x0)
		f = math.Max(0, math.Min(1, f))
		values[k] = y0 + f*(y1-y0)
	}
	return values, weights
}

// extrapolate ожидаемое значение отсчёта i по двум предыдущим
func extrapolate(samples []entity.Sample, i, channel int) float64 {
	prev := samples[i-1]
	if i < 2 || prev.Jump || prev.Step {
		return prev.Means[channel]
	}
	before := samples[i-2]
	dt := float64(prev.Time - before.Time)
	if dt <= 0 {
		return prev.Means[channel]
	}
	slope := (prev.Means[channel] - before.Means[channel]) / dt
	return prev.Means[channel] + slope*float64(samples[i].Time-prev.Time)
}
