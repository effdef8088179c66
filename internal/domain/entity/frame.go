package entity

import "image"

// Frame кадр видеопотока: цветное изображение, его серая версия и время захвата
// в единицах источника (см. timeBase в конфигурации).
type Frame struct {
	Color image.Image
	Gray  *image.Gray
	Time  int64
}

// Bounds возвращает границы кадра
func (f Frame) Bounds() image.Rectangle {
	if f.Color != nil {
		return f.Color.Bounds()
	}
	if f.Gray != nil {
		return f.Gray.Bounds()
	}
	return image.Rectangle{}
}

// Sample одно значение сырого сигнала: средние R, G, B по маске.
// Jump помечает разрыв времени перед этим отсчётом, Step смену маски
// (скачок уровня без разрыва времени).
type Sample struct {
	Time  int64
	Means [3]float64
	Jump  bool
	Step  bool
}

// Каналы в Sample.Means
const (
	ChannelRed = iota
	ChannelGreen
	ChannelBlue
)
