package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

const (
	resultsHeader = "time;mean;min;max"
	samplesHeader = "time;r;g;b;jump"
)

// Writer журнал оценок пульса: строка "time;mean;min;max" на каждый такт.
// В подробном режиме дополнительно пишет каждый сырой отсчёт.
// Ошибки записи попадают в лог и не останавливают обработку.
type Writer struct {
	mu       sync.Mutex
	results  *bufio.Writer
	samples  *bufio.Writer
	closers  []io.Closer
	failures int
}

// Open создаёт файлы <dir>/<name>.log и, если detailed, <dir>/<name>_detailed.log
func Open(dir, name string, detailed bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	results, err := os.Create(filepath.Join(dir, name+".log"))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	w := &Writer{closers: []io.Closer{results}}
	w.results = bufio.NewWriter(results)

	if detailed {
		samples, err := os.Create(filepath.Join(dir, name+"_detailed.log"))
		if err != nil {
			results.Close()
			return nil, fmt.Errorf("create detailed log file: %w", err)
		}
		w.closers = append(w.closers, samples)
		w.samples = bufio.NewWriter(samples)
	}
	w.writeHeaders()
	logger.Info("logfile", "writing results to %s", results.Name())
	return w, nil
}

// NewWriter журнал поверх произвольных потоков; samples может быть nil
func NewWriter(results, samples io.Writer) *Writer {
	w := &Writer{results: bufio.NewWriter(results)}
	if samples != nil {
		w.samples = bufio.NewWriter(samples)
	}
	w.writeHeaders()
	return w
}

func (w *Writer) writeHeaders() {
	w.check(fmt.Fprintln(w.results, resultsHeader))
	if w.samples != nil {
		w.check(fmt.Fprintln(w.samples, samplesHeader))
	}
}

// OnResult реализует port.ResultListener
func (w *Writer) OnResult(r entity.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.check(fmt.Fprintf(w.results, "%d;%.3f;%.3f;%.3f\n", r.Time, r.Mean, r.Min, r.Max))
	if err := w.results.Flush(); err != nil {
		w.fail(err)
	}
}

// OnSample реализует port.SampleListener
func (w *Writer) OnSample(s entity.Sample) {
	if w.samples == nil {
		return
	}
	jump := 0
	if s.Jump {
		jump = 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.check(fmt.Fprintf(w.samples, "%d;%.4f;%.4f;%.4f;%d\n",
		s.Time, s.Means[entity.ChannelRed], s.Means[entity.ChannelGreen], s.Means[entity.ChannelBlue], jump))
}

// Failures число неудачных записей
func (w *Writer) Failures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures
}

// Close сбрасывает буферы и закрывает файлы
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	errs = append(errs, w.results.Flush())
	if w.samples != nil {
		errs = append(errs, w.samples.Flush())
	}
	for _, c := range w.closers {
		errs = append(errs, c.Close())
	}
	w.closers = nil
	return errors.Join(errs...)
}

func (w *Writer) check(_ int, err error) {
	if err != nil {
		w.fail(err)
	}
}

func (w *Writer) fail(err error) {
	w.failures++
	if w.failures == 1 {
		logger.Error("logfile", "write failed: %v", err)
	}
}
