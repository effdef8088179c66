package dsp

// Ring кольцевой буфер фиксированной ёмкости.
// При переполнении Push вытесняет самый старый элемент.
type Ring[T any] struct {
	buf  []T
	head int
	n    int
}

// NewRing создаёт буфер ёмкостью capacity (минимум 1)
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push добавляет элемент в конец
func (r *Ring[T]) Push(v T) {
	if r.n == len(r.buf) {
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
}

// PopFront удаляет самый старый элемент
func (r *Ring[T]) PopFront() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return v, true
}

// At возвращает i-й элемент от самого старого
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("dsp: ring index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Front самый старый элемент
func (r *Ring[T]) Front() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	return r.At(0), true
}

// Back самый новый элемент
func (r *Ring[T]) Back() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	return r.At(r.n - 1), true
}

// Len число элементов
func (r *Ring[T]) Len() int { return r.n }

// Cap ёмкость
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Slice копия содержимого от старых к новым
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.n)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Reset очищает буфер
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head = 0
	r.n = 0
}
