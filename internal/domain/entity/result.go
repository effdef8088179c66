package entity

import "fmt"

// Result агрегированная оценка пульса за последние такты
type Result struct {
	Time int64   // время такта в единицах источника
	Mean float64 // средний пульс, уд/мин
	Min  float64 // минимальный пульс, уд/мин
	Max  float64 // максимальный пульс, уд/мин
}

func (r Result) String() string {
	return fmt.Sprintf("%.1f bpm (min %.1f, max %.1f)", r.Mean, r.Min, r.Max)
}
