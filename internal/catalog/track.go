// Package catalog содержит каталог треков и логику сканирования музыкальной папки
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// TrackID уникальный идентификатор трека, детерминированно вычисляемый из пути к файлу
type TrackID = uuid.UUID

// NewTrackID вычисляет идентификатор трека из абсолютного пути к файлу.
// Один и тот же путь всегда дает один и тот же идентификатор, поэтому
// плейлисты могут ссылаться на треки между запусками без отдельной базы.
func NewTrackID(path string) TrackID {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(path))
}

// Track хранит метаданные одного аудио файла
type Track struct {
	ID       TrackID
	Title    string
	Artist   string
	Album    string
	Duration time.Duration // 0 означает, что длительность неизвестна
	Path     string
	Cover    []byte // Сырые байты обложки из тега, может быть nil

	// IsPlaying выставляется сессией воспроизведения и не сохраняется
	IsPlaying bool
}

// NewTrack создает трек с идентификатором, вычисленным из пути
func NewTrack(title, artist, album, path string, duration time.Duration) *Track {
	return &Track{
		ID:       NewTrackID(path),
		Title:    title,
		Artist:   artist,
		Album:    album,
		Duration: duration,
		Path:     path,
	}
}

// Catalog содержит все треки последнего сканирования с индексом по идентификатору
type Catalog struct {
	tracks []*Track
	index  map[TrackID]int
}

// NewCatalog создает каталог из списка треков
func NewCatalog(tracks []*Track) *Catalog {
	index := make(map[TrackID]int, len(tracks))
	for i, t := range tracks {
		index[t.ID] = i
	}
	return &Catalog{
		tracks: tracks,
		index:  index,
	}
}

// Tracks возвращает все треки каталога
func (c *Catalog) Tracks() []*Track {
	return c.tracks
}

// IDs возвращает идентификаторы всех треков каталога
func (c *Catalog) IDs() []TrackID {
	ids := make([]TrackID, len(c.tracks))
	for i, t := range c.tracks {
		ids[i] = t.ID
	}
	return ids
}

// ByID возвращает трек по идентификатору
func (c *Catalog) ByID(id TrackID) (*Track, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.tracks[i], true
}

// Len возвращает количество треков в каталоге
func (c *Catalog) Len() int {
	return len(c.tracks)
}

// MarkPlaying выставляет флаг воспроизведения у трека с указанным идентификатором
// и снимает его со всех остальных: играть может не больше одного трека
func (c *Catalog) MarkPlaying(id TrackID) {
	for _, t := range c.tracks {
		t.IsPlaying = t.ID == id
	}
}

// ClearPlaying снимает флаг воспроизведения со всех треков
func (c *Catalog) ClearPlaying() {
	for _, t := range c.tracks {
		t.IsPlaying = false
	}
}
