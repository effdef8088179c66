package dsp

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DetrendLambda подбирает параметр сглаживания так, чтобы детренд
// ослаблял вдвое мощность на частоте cutoff (Гц) при частоте сетки rate.
func DetrendLambda(cutoff, rate float64) float64 {
	s := math.Sin(math.Pi * cutoff / rate)
	return 1 / (4 * s * s)
}

// Detrend убирает медленный тренд методом smoothness priors
// (Tarvainen et al., 2002): тренд z решает (W + λ²DᵀD) z = W y,
// где D вторая разность, W диагональ весов. Возвращает y - z.
func Detrend(y, weights []float64, lambda float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n < 3 {
		mean := stat.Mean(y, nil)
		for i, v := range y {
			out[i] = v - mean
		}
		return out
	}

	w := weights
	if len(w) != n || countPositive(w) < 3 {
		w = ones(n)
	}

	l2 := lambda * lambda
	diag := make([]float64, n)
	off1 := make([]float64, n-1)
	off2 := make([]float64, n-2)
	for i := range diag {
		diag[i] = w[i]
	}
	// DᵀD накапливается по строкам D: коэффициенты 1, -2, 1
	coef := [3]float64{1, -2, 1}
	for r := 0; r < n-2; r++ {
		for a := 0; a < 3; a++ {
			diag[r+a] += l2 * coef[a] * coef[a]
			if a < 2 {
				off1[r+a] += l2 * coef[a] * coef[a+1]
			}
		}
		off2[r] += l2 * coef[0] * coef[2]
	}

	a := mat.NewSymBandDense(n, 2, nil)
	for i := 0; i < n; i++ {
		a.SetSymBand(i, i, diag[i])
		if i+1 < n {
			a.SetSymBand(i, i+1, off1[i])
		}
		if i+2 < n {
			a.SetSymBand(i, i+2, off2[i])
		}
	}

	wy := make([]float64, n)
	for i := range y {
		wy[i] = w[i] * y[i]
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(a); !ok {
		return demean(y)
	}
	var z mat.VecDense
	if err := chol.SolveVecTo(&z, mat.NewVecDense(n, wy)); err != nil {
		return demean(y)
	}
	for i := range y {
		out[i] = y[i] - z.AtVec(i)
	}
	return out
}

// Normalize приводит сигнал к нулевому среднему и единичному СКО.
// Постоянный сигнал превращается в нули.
func Normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean, std := stat.MeanStdDev(x, nil)
	if std == 0 || math.IsNaN(std) {
		return out
	}
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out
}

func demean(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean := stat.Mean(x, nil)
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func countPositive(x []float64) int {
	n := 0
	for _, v := range x {
		if v > 0 {
			n++
		}
	}
	return n
}
