package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTrackIDDeterministic(t *testing.T) {
	// Один и тот же путь всегда дает один и тот же идентификатор
	id1 := NewTrackID("/music/song.mp3")
	id2 := NewTrackID("/music/song.mp3")
	if id1 != id2 {
		t.Errorf("Ожидался одинаковый идентификатор, получено %s и %s", id1, id2)
	}

	// Разные пути дают разные идентификаторы
	other := NewTrackID("/music/other.mp3")
	if id1 == other {
		t.Error("Ожидались разные идентификаторы для разных путей")
	}

	// Идентификатор никогда не совпадает с нулевым
	if id1 == uuid.Nil {
		t.Error("Ожидался ненулевой идентификатор")
	}
}

func TestNewTrackAssignsID(t *testing.T) {
	track := NewTrack("Hey Jude", "The Beatles", "Past Masters", "/music/hey_jude.mp3", 7*time.Minute)

	if track.ID != NewTrackID("/music/hey_jude.mp3") {
		t.Error("Ожидался идентификатор, выведенный из пути")
	}
	if track.Title != "Hey Jude" {
		t.Errorf("Ожидался Title: Hey Jude, получено: %s", track.Title)
	}
	if track.Artist != "The Beatles" {
		t.Errorf("Ожидался Artist: The Beatles, получено: %s", track.Artist)
	}
	if track.Duration != 7*time.Minute {
		t.Errorf("Ожидалась Duration 7m, получено %v", track.Duration)
	}
}

func TestCatalogByID(t *testing.T) {
	trackA := NewTrack("A", "Artist", "", "/music/a.mp3", time.Minute)
	trackB := NewTrack("B", "Artist", "", "/music/b.mp3", time.Minute)
	cat := NewCatalog([]*Track{trackA, trackB})

	if cat.Len() != 2 {
		t.Errorf("Ожидалось 2 трека, получено %d", cat.Len())
	}

	found, ok := cat.ByID(trackB.ID)
	if !ok {
		t.Fatal("Ожидался найденный трек B")
	}
	if found.Title != "B" {
		t.Errorf("Ожидался Title: B, получено: %s", found.Title)
	}

	// Поиск несуществующего трека
	if _, ok := cat.ByID(NewTrackID("/no/such.mp3")); ok {
		t.Error("Ожидалось отсутствие несуществующего трека")
	}

	// Порядок идентификаторов совпадает с порядком треков
	ids := cat.IDs()
	if len(ids) != 2 || ids[0] != trackA.ID || ids[1] != trackB.ID {
		t.Error("Ожидался исходный порядок идентификаторов")
	}
}

func TestMarkPlayingSingleFlag(t *testing.T) {
	trackA := NewTrack("A", "Artist", "", "/music/a.mp3", time.Minute)
	trackB := NewTrack("B", "Artist", "", "/music/b.mp3", time.Minute)
	cat := NewCatalog([]*Track{trackA, trackB})

	// Флаг воспроизведения стоит только у отмеченного трека
	cat.MarkPlaying(trackA.ID)
	if !trackA.IsPlaying {
		t.Error("Ожидался флаг IsPlaying у трека A")
	}
	if trackB.IsPlaying {
		t.Error("Ожидался снятый флаг IsPlaying у трека B")
	}

	// Отметка другого трека снимает флаг с прежнего
	cat.MarkPlaying(trackB.ID)
	if trackA.IsPlaying {
		t.Error("Ожидался снятый флаг IsPlaying у трека A")
	}
	if !trackB.IsPlaying {
		t.Error("Ожидался флаг IsPlaying у трека B")
	}

	// Полная очистка снимает флаг со всех треков
	cat.ClearPlaying()
	if trackA.IsPlaying || trackB.IsPlaying {
		t.Error("Ожидались снятые флаги IsPlaying у всех треков")
	}
}
