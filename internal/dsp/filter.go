package dsp

import "math"

// biquad звено второго порядка (RBJ Audio EQ Cookbook), коэффициенты нормированы на a0
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func lowpass(cutoff, rate float64) biquad {
	w0 := 2 * math.Pi * cutoff / rate
	cos, alpha := math.Cos(w0), math.Sin(w0)/math.Sqrt2 // Q = 1/√2
	a0 := 1 + alpha
	return biquad{
		b0: (1 - cos) / 2 / a0,
		b1: (1 - cos) / a0,
		b2: (1 - cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

func highpass(cutoff, rate float64) biquad {
	w0 := 2 * math.Pi * cutoff / rate
	cos, alpha := math.Cos(w0), math.Sin(w0)/math.Sqrt2 // Q = 1/√2
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cos) / 2 / a0,
		b1: -(1 + cos) / a0,
		b2: (1 + cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

// apply прогоняет сигнал через звено (транспонированная прямая форма II)
func (q biquad) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	var z1, z2 float64
	for i, v := range x {
		out := q.b0*v + z1
		z1 = q.b1*v - q.a1*out + z2
		z2 = q.b2*v - q.a2*out
		y[i] = out
	}
	return y
}

// Bandpass полосовой фильтр Баттерворта: ФВЧ и ФНЧ второго порядка,
// применяется вперёд и назад, поэтому фазовый сдвиг нулевой.
type Bandpass struct {
	sections []biquad
	pad      int
}

// NewBandpass создаёт фильтр с полосой [low, high] Гц для сетки rate Гц.
// Верхняя граница прижимается к 0.45·rate.
func NewBandpass(low, high, rate float64) *Bandpass {
	high = math.Min(high, 0.45*rate)
	return &Bandpass{
		sections: []biquad{highpass(low, rate), lowpass(high, rate)},
		// один период нижней частоты для нечётного продолжения краёв
		pad: int(math.Ceil(rate / low)),
	}
}

// Apply фильтрует сигнал без фазового сдвига
func (b *Bandpass) Apply(x []float64) []float64 {
	n := len(x)
	if n < 2 {
		return append([]float64(nil), x...)
	}
	pad := min(b.pad, n-1)

	ext := make([]float64, 0, n+2*pad)
	for i := pad; i > 0; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= pad; i++ {
		ext = append(ext, 2*x[n-1]-x[n-1-i])
	}

	y := ext
	for _, s := range b.sections {
		y = s.apply(y)
	}
	reverse(y)
	for _, s := range b.sections {
		y = s.apply(y)
	}
	reverse(y)

	return append([]float64(nil), y[pad:pad+n]...)
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
