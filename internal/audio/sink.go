// Package audio содержит реализацию аудио вывода поверх библиотеки beep
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrNothingLoaded возвращается операциями, требующими загруженного трека
var ErrNothingLoaded = errors.New("трек не загружен")

// bufferLen длина буфера динамиков при инициализации
const bufferLen = time.Second / 10

// Output реализует аудио вывод: загрузку, паузу, перемотку и громкость.
// Каждый метод самодостаточен и защищен мьютексом.
type Output struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate

	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	level float64 // Текущая громкость в диапазоне [0, 1]
}

// NewOutput создает аудио вывод с громкостью на максимуме
func NewOutput() *Output {
	return &Output{level: 1.0}
}

// Load декодирует файл и ставит его в очередь воспроизведения на паузе.
// Прежний поток, если он был, очищается.
func (o *Output) Load(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.clearLocked()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла: %w", err)
	}

	streamer, format, err := decode(file, path)
	if err != nil {
		file.Close()
		return fmt.Errorf("ошибка декодирования: %w", err)
	}

	// Динамики инициализируются один раз; потоки с другой частотой
	// дискретизации приводятся к ней ресемплированием
	if !o.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(bufferLen)); err != nil {
			streamer.Close()
			file.Close()
			return fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		o.initialized = true
		o.sampleRate = format.SampleRate
	}

	var source beep.Streamer = streamer
	if format.SampleRate != o.sampleRate {
		source = beep.Resample(4, format.SampleRate, o.sampleRate, streamer)
	}

	o.file = file
	o.streamer = streamer
	o.format = format
	o.ctrl = &beep.Ctrl{Streamer: source, Paused: true}
	o.volume = &effects.Volume{
		Streamer: o.ctrl,
		Base:     2,
		Volume:   gain(o.level),
		Silent:   o.level == 0,
	}

	speaker.Play(o.volume)
	return nil
}

// decode выбирает декодер по расширению файла
func decode(file *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(file)
	case ".wav":
		return wav.Decode(file)
	case ".flac":
		return flac.Decode(file)
	case ".ogg":
		return vorbis.Decode(file)
	default:
		return nil, beep.Format{}, fmt.Errorf("неподдерживаемый формат: %s", filepath.Ext(path))
	}
}

// Clear останавливает воспроизведение и освобождает текущий поток
func (o *Output) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearLocked()
}

// clearLocked должен вызываться под мьютексом
func (o *Output) clearLocked() {
	if o.ctrl == nil {
		return
	}

	speaker.Clear()
	o.streamer.Close()
	o.file.Close()

	o.file = nil
	o.streamer = nil
	o.ctrl = nil
	o.volume = nil
}

// Play запускает или возобновляет воспроизведение загруженного потока
func (o *Output) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = false
	speaker.Unlock()
}

// Pause приостанавливает воспроизведение
func (o *Output) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = true
	speaker.Unlock()
}

// IsPaused возвращает true, если загруженный поток на паузе
func (o *Output) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctrl == nil {
		return false
	}
	speaker.Lock()
	paused := o.ctrl.Paused
	speaker.Unlock()
	return paused
}

// Position возвращает текущую позицию потока; точность не гарантируется
func (o *Output) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := o.format.SampleRate.D(o.streamer.Position())
	speaker.Unlock()
	return pos
}

// TrySeek перематывает поток к указанной позиции, если декодер это
// поддерживает. Позиция ограничивается длиной потока.
func (o *Output) TrySeek(pos time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return ErrNothingLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	sample := o.format.SampleRate.N(pos)
	if sample < 0 {
		sample = 0
	}
	if n := o.streamer.Len(); sample > n {
		sample = n
	}
	return o.streamer.Seek(sample)
}

// Volume возвращает текущую громкость в диапазоне [0, 1]
func (o *Output) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// SetVolume выставляет громкость. Нулевая громкость включает тишину,
// иначе линейное значение переводится в показатель степени для beep.
func (o *Output) SetVolume(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	o.level = v

	if o.volume == nil {
		return
	}
	speaker.Lock()
	o.volume.Silent = v == 0
	if v > 0 {
		o.volume.Volume = gain(v)
	}
	speaker.Unlock()
}

// gain переводит линейную громкость [0, 1] в показатель степени по базе 2
func gain(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log2(v)
}
