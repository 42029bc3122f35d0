package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"github.com/samber/lo"
)

// musicFormats список поддерживаемых расширений аудио файлов
var musicFormats = []string{".mp3", ".wav", ".flac", ".ogg"}

// placeholderTitle название трека-заглушки для пустой библиотеки
const placeholderTitle = "Музыка не найдена"

// Scan сканирует папку и возвращает каталог треков.
// Файлы с нечитаемыми тегами не пропускаются: для них метаданные
// восстанавливаются из имени файла. Если в папке нет ни одного
// поддерживаемого файла или папка нечитаема, каталог содержит
// единственный трек-заглушку, чтобы списку всегда было что выбрать.
func Scan(dir string) *Catalog {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return NewCatalog([]*Track{placeholderTrack()})
	}

	var tracks []*Track
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !lo.Contains(musicFormats, ext) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		tracks = append(tracks, readTrack(path))
	}

	if len(tracks) == 0 {
		tracks = append(tracks, placeholderTrack())
	}

	return NewCatalog(tracks)
}

// readTrack извлекает метаданные одного файла.
// Ошибки чтения тегов или длительности не прерывают сканирование.
func readTrack(path string) *Track {
	title, artist, album, cover := readTags(path)
	duration := readDuration(path)

	track := NewTrack(title, artist, album, path, duration)
	track.Cover = cover
	return track
}

// readTags читает теги файла, при ошибке восстанавливая метаданные из имени файла
func readTags(path string) (title, artist, album string, cover []byte) {
	file, err := os.Open(path)
	if err != nil {
		title, artist = metadataFromFileName(path)
		return title, artist, "", nil
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		title, artist = metadataFromFileName(path)
		return title, artist, "", nil
	}

	title = meta.Title()
	artist = meta.Artist()
	album = meta.Album()
	if title == "" {
		title, _ = metadataFromFileName(path)
	}
	if artist == "" {
		artist = "Unknown Artist"
	}
	if pic := meta.Picture(); pic != nil {
		cover = pic.Data
	}
	return title, artist, album, cover
}

// readDuration определяет длительность файла декодированием заголовка.
// Неизвестная длительность схлопывается в 0 на этой границе.
func readDuration(path string) time.Duration {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	default:
		return 0
	}
	if err != nil {
		return 0
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len())
}

// metadataFromFileName разбирает имя файла в формате "Исполнитель - Название"
func metadataFromFileName(path string) (title, artist string) {
	fileName := filepath.Base(path)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return strings.TrimSpace(strings.Join(parts[1:], " - ")), strings.TrimSpace(parts[0])
	}

	return nameWithoutExt, "Unknown Artist"
}

// placeholderTrack возвращает трек-заглушку для пустой библиотеки
func placeholderTrack() *Track {
	return NewTrack(placeholderTitle, "", "", "", 0)
}
