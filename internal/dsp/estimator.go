package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SecondsPerMinute перевод Гц в удары в минуту
const SecondsPerMinute = 60.0

// EstimatorConfig параметры спектральной оценки
type EstimatorConfig struct {
	Rate          float64 // частота сетки сигнала, Гц
	LowBPM        float64
	HighBPM       float64
	ResolutionBPM float64 // шаг спектра после дополнения нулями
	HistorySize   int     // сколько последних оценок усредняется
}

// Spectrum спектр мощности в полосе пульса
type Spectrum struct {
	BPM   []float64
	Power []float64
}

// Peak индекс максимума мощности; -1 для пустого спектра
func (s Spectrum) Peak() int {
	if len(s.Power) == 0 {
		return -1
	}
	return floats.MaxIdx(s.Power)
}

// Estimator ищет доминирующую частоту в полосе пульса и хранит историю оценок
type Estimator struct {
	cfg     EstimatorConfig
	fft     *fourier.FFT
	history *Ring[float64]
}

// NewEstimator создаёт оценщик
func NewEstimator(cfg EstimatorConfig) *Estimator {
	return &Estimator{
		cfg:     cfg,
		history: NewRing[float64](cfg.HistorySize),
	}
}

// fftLen длина преобразования: степень двойки, дающая нужное разрешение
func (e *Estimator) fftLen(n int) int {
	want := n
	if e.cfg.ResolutionBPM > 0 {
		want = max(want, int(math.Ceil(e.cfg.Rate*SecondsPerMinute/e.cfg.ResolutionBPM)))
	}
	size := 1
	for size < want {
		size <<= 1
	}
	return size
}

// power считает спектр мощности сигнала с окном Ханна
func (e *Estimator) power(signal []float64) (power []float64, nfft int) {
	n := len(signal)
	nfft = e.fftLen(n)
	if e.fft == nil || e.fft.Len() != nfft {
		e.fft = fourier.NewFFT(nfft)
	}

	seq := make([]float64, nfft)
	for i, v := range signal {
		w := 1.0
		if n > 1 {
			w = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		}
		seq[i] = v * w
	}

	coeff := e.fft.Coefficients(nil, seq)
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		a := cmplx.Abs(c)
		power[i] = a * a
	}
	return power, nfft
}

func (e *Estimator) band(nfft, bins int) (lo, hi int) {
	step := e.cfg.Rate / float64(nfft) * SecondsPerMinute
	lo = int(math.Ceil(e.cfg.LowBPM / step))
	hi = int(math.Floor(e.cfg.HighBPM / step))
	return max(lo, 1), min(hi, bins-1)
}

// Spectrum возвращает спектр мощности сигнала в полосе пульса
func (e *Estimator) Spectrum(signal []float64) Spectrum {
	if len(signal) == 0 {
		return Spectrum{}
	}
	power, nfft := e.power(signal)
	lo, hi := e.band(nfft, len(power))
	if lo > hi {
		return Spectrum{}
	}

	step := e.cfg.Rate / float64(nfft) * SecondsPerMinute
	s := Spectrum{
		BPM:   make([]float64, 0, hi-lo+1),
		Power: make([]float64, 0, hi-lo+1),
	}
	for k := lo; k <= hi; k++ {
		s.BPM = append(s.BPM, float64(k)*step)
		s.Power = append(s.Power, power[k])
	}
	return s
}

// Estimate возвращает пульс (уд/мин) по максимуму спектра в полосе.
// ok == false, если в полосе нет энергии.
func (e *Estimator) Estimate(signal []float64) (bpm float64, ok bool) {
	if len(signal) < 2 {
		return 0, false
	}
	power, nfft := e.power(signal)
	lo, hi := e.band(nfft, len(power))
	if lo > hi {
		return 0, false
	}

	k := lo + floats.MaxIdx(power[lo:hi+1])
	if power[k] <= 0 || math.IsNaN(power[k]) {
		return 0, false
	}

	// параболическая интерполяция вершины
	delta := 0.0
	if k > 0 && k+1 < len(power) {
		a, b, c := power[k-1], power[k], power[k+1]
		if den := a - 2*b + c; den != 0 {
			delta = 0.5 * (a - c) / den
		}
	}
	delta = math.Max(-0.5, math.Min(0.5, delta))

	bpm = (float64(k) + delta) * e.cfg.Rate / float64(nfft) * SecondsPerMinute
	bpm = math.Max(e.cfg.LowBPM, math.Min(e.cfg.HighBPM, bpm))
	return bpm, true
}

// Push добавляет оценку в историю
func (e *Estimator) Push(bpm float64) {
	e.history.Push(bpm)
}

// Stats среднее, минимум и максимум по истории
func (e *Estimator) Stats() (mean, lo, hi float64, ok bool) {
	if e.history.Len() == 0 {
		return 0, 0, 0, false
	}
	h := e.history.Slice()
	return stat.Mean(h, nil), floats.Min(h), floats.Max(h), true
}

// History копия истории оценок
func (e *Estimator) History() []float64 {
	return e.history.Slice()
}

// Reset очищает историю
func (e *Estimator) Reset() {
	e.history.Reset()
}
