package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"heartbeat/internal/domain/entity"
	"heartbeat/internal/logger"
)

// ErrNoFrames в каталоге нет изображений
var ErrNoFrames = errors.New("no frames found")

// DirSource читает кадры из каталога с изображениями (PNG, JPEG) в порядке имён.
// Время кадра i равно i/FPS секунд в единицах timeBase.
type DirSource struct {
	files    []string
	next     int
	fps      float64
	timeBase float64
	width    int
	height   int
}

// NewDirSource открывает каталог кадров
func NewDirSource(dir string, fps, timeBase float64, width, height int) (*DirSource, error) {
	if fps <= 0 || timeBase <= 0 {
		return nil, fmt.Errorf("invalid fps %v or time base %v", fps, timeBase)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFrames)
	}
	sort.Strings(files)

	logger.Info("capture", "%d frames in %s at %.1f fps", len(files), dir, fps)
	return &DirSource{
		files:    files,
		fps:      fps,
		timeBase: timeBase,
		width:    width,
		height:   height,
	}, nil
}

// Len число кадров в каталоге
func (s *DirSource) Len() int {
	return len(s.files)
}

// Next декодирует следующий кадр; в конце возвращает io.EOF.
// Нечитаемый файл пропускается с ErrFrameDropped.
func (s *DirSource) Next(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}
	if s.next >= len(s.files) {
		return entity.Frame{}, io.EOF
	}
	path := s.files[s.next]
	i := s.next
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return entity.Frame{}, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return entity.Frame{}, fmt.Errorf("decode %s: %v: %w", filepath.Base(path), err, ErrFrameDropped)
	}

	t := int64(math.Round(float64(i) / s.fps / s.timeBase))
	return ToFrame(img, s.width, s.height, t), nil
}

// Close ничего не держит открытым
func (s *DirSource) Close() error {
	s.next = len(s.files)
	return nil
}
