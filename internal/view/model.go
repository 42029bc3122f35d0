// Package view содержит модель видимого списка треков: фильтрацию,
// сортировку, навигацию с переносом и прокрутку двух независимых списков
package view

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hazadus/go-rhythm/internal/catalog"
	"github.com/hazadus/go-rhythm/internal/playlist"
)

// Field поле, по которому выполняется поиск
type Field int

// Поддерживаемые поля поиска
const (
	FieldTitle Field = iota
	FieldArtist
	FieldAlbum
)

// Next возвращает следующее поле поиска по циклу
func (f Field) Next() Field {
	switch f {
	case FieldTitle:
		return FieldArtist
	case FieldArtist:
		return FieldAlbum
	default:
		return FieldTitle
	}
}

// String возвращает отображаемое название поля поиска
func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldArtist:
		return "Artist"
	case FieldAlbum:
		return "Album"
	default:
		return "Title"
	}
}

// Sort ключ сортировки видимого списка
type Sort int

// Поддерживаемые ключи сортировки
const (
	SortTitle Sort = iota
	SortArtist
	SortDuration
	SortShuffle
)

// Next возвращает следующий ключ сортировки по циклу
func (s Sort) Next() Sort {
	switch s {
	case SortTitle:
		return SortArtist
	case SortArtist:
		return SortDuration
	case SortDuration:
		return SortShuffle
	default:
		return SortTitle
	}
}

// String возвращает отображаемое название ключа сортировки
func (s Sort) String() string {
	switch s {
	case SortTitle:
		return "Title"
	case SortArtist:
		return "Artist"
	case SortDuration:
		return "Duration"
	case SortShuffle:
		return "Shuffled"
	default:
		return "Title"
	}
}

// Model хранит состояние выбора и прокрутки двух списков: треков и плейлистов.
// Видимый набор треков каждый раз вычисляется заново из текущего состояния.
type Model struct {
	catalog *catalog.Catalog
	store   *playlist.Store

	searchText string
	field      Field
	sortKey    Sort

	selected      catalog.TrackID // uuid.Nil означает, что трек не выбран
	playlistIndex int

	trackOffset    int
	playlistOffset int

	// Порядок каталога, зафиксированный при включении перемешивания
	shuffled map[catalog.TrackID]int
}

// NewModel создает модель поверх каталога и хранилища плейлистов
func NewModel(cat *catalog.Catalog, store *playlist.Store) *Model {
	return &Model{
		catalog: cat,
		store:   store,
	}
}

// SearchText возвращает текущий текст поиска
func (m *Model) SearchText() string {
	return m.searchText
}

// Field возвращает активное поле поиска
func (m *Model) Field() Field {
	return m.field
}

// SortKey возвращает активный ключ сортировки
func (m *Model) SortKey() Sort {
	return m.sortKey
}

// ActivePlaylist возвращает название активного плейлиста
func (m *Model) ActivePlaylist() string {
	names := m.store.Names()
	if len(names) == 0 {
		return ""
	}
	if m.playlistIndex >= len(names) {
		m.playlistIndex = 0
	}
	return names[m.playlistIndex]
}

// PlaylistIndex возвращает индекс активного плейлиста
func (m *Model) PlaylistIndex() int {
	return m.playlistIndex
}

// TrackOffset возвращает прокрутку списка треков
func (m *Model) TrackOffset() int {
	return m.trackOffset
}

// PlaylistOffset возвращает прокрутку списка плейлистов
func (m *Model) PlaylistOffset() int {
	return m.playlistOffset
}

// SelectedID возвращает идентификатор выбранного трека
func (m *Model) SelectedID() (catalog.TrackID, bool) {
	return m.selected, m.selected != uuid.Nil
}

// SelectTrack выставляет выбранный трек
func (m *Model) SelectTrack(id catalog.TrackID) {
	m.selected = id
}

// Visible возвращает видимый набор треков: каталог, пересеченный с активным
// плейлистом и поисковым запросом, упорядоченный по ключу сортировки
func (m *Model) Visible() []*catalog.Track {
	membership := make(map[catalog.TrackID]struct{})
	if ids, ok := m.store.Get(m.ActivePlaylist()); ok {
		for _, id := range ids {
			membership[id] = struct{}{}
		}
	}

	needle := strings.ToLower(m.searchText)
	visible := lo.Filter(m.catalog.Tracks(), func(t *catalog.Track, _ int) bool {
		if _, ok := membership[t.ID]; !ok {
			return false
		}
		return strings.Contains(strings.ToLower(m.searchField(t)), needle)
	})

	m.sortTracks(visible)
	return visible
}

// VisibleIDs возвращает идентификаторы видимых треков в порядке отображения
func (m *Model) VisibleIDs() []catalog.TrackID {
	return lo.Map(m.Visible(), func(t *catalog.Track, _ int) catalog.TrackID {
		return t.ID
	})
}

// searchField возвращает значение активного поля поиска у трека
func (m *Model) searchField(t *catalog.Track) string {
	switch m.field {
	case FieldArtist:
		return t.Artist
	case FieldAlbum:
		return t.Album
	default:
		return t.Title
	}
}

// sortTracks упорядочивает треки по активному ключу.
// Текстовые ключи сравниваются без учета регистра.
func (m *Model) sortTracks(tracks []*catalog.Track) {
	switch m.sortKey {
	case SortArtist:
		sort.SliceStable(tracks, func(i, j int) bool {
			return strings.ToLower(tracks[i].Artist) < strings.ToLower(tracks[j].Artist)
		})
	case SortDuration:
		sort.SliceStable(tracks, func(i, j int) bool {
			return tracks[i].Duration < tracks[j].Duration
		})
	case SortShuffle:
		sort.SliceStable(tracks, func(i, j int) bool {
			return m.shuffled[tracks[i].ID] < m.shuffled[tracks[j].ID]
		})
	default:
		sort.SliceStable(tracks, func(i, j int) bool {
			return strings.ToLower(tracks[i].Title) < strings.ToLower(tracks[j].Title)
		})
	}
}

// CycleSort переключает ключ сортировки по циклу.
// Каждое включение перемешивания дает новую случайную перестановку.
func (m *Model) CycleSort() {
	m.SetSort(m.sortKey.Next())
}

// SetSort выставляет ключ сортировки
func (m *Model) SetSort(key Sort) {
	m.sortKey = key
	if key == SortShuffle {
		m.reshuffle()
	}
}

// reshuffle фиксирует новую случайную перестановку каталога
func (m *Model) reshuffle() {
	ids := m.catalog.IDs()
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	m.shuffled = make(map[catalog.TrackID]int, len(ids))
	for pos, id := range ids {
		m.shuffled[id] = pos
	}
}

// CycleField переключает поле поиска и проверяет, что выбор еще видим
func (m *Model) CycleField() {
	m.field = m.field.Next()
	m.EnsureSelection()
}

// AppendSearch добавляет символ к тексту поиска
func (m *Model) AppendSearch(r rune) {
	m.searchText += string(r)
	m.EnsureSelection()
}

// BackspaceSearch удаляет последний символ текста поиска
func (m *Model) BackspaceSearch() {
	if m.searchText == "" {
		return
	}
	runes := []rune(m.searchText)
	m.searchText = string(runes[:len(runes)-1])
	m.EnsureSelection()
}

// EnsureSelection сбрасывает выбор на первый видимый трек, если прежний
// выбранный трек выпал из видимого набора после смены фильтра
func (m *Model) EnsureSelection() {
	visible := m.VisibleIDs()
	if len(visible) == 0 {
		m.selected = uuid.Nil
		m.trackOffset = 0
		return
	}
	if m.selected != uuid.Nil && lo.Contains(visible, m.selected) {
		return
	}
	m.selected = visible[0]
	m.trackOffset = 0
}

// MoveDown перемещает выбор на следующий трек с переносом на первый
// после последнего. viewport задает количество видимых строк списка.
func (m *Model) MoveDown(viewport int) {
	visible := m.VisibleIDs()
	if len(visible) == 0 {
		m.selected = uuid.Nil
		return
	}

	idx := lo.IndexOf(visible, m.selected)
	if idx == -1 || idx == len(visible)-1 {
		m.selected = visible[0]
		m.trackOffset = 0
		return
	}

	idx++
	m.selected = visible[idx]
	if idx >= m.trackOffset+viewport {
		m.trackOffset = idx - viewport + 1
	}
	m.trackOffset = clampOffset(m.trackOffset, len(visible), viewport)
}

// MoveUp перемещает выбор на предыдущий трек с переносом на последний
// перед первым
func (m *Model) MoveUp(viewport int) {
	visible := m.VisibleIDs()
	if len(visible) == 0 {
		m.selected = uuid.Nil
		return
	}

	idx := lo.IndexOf(visible, m.selected)
	if idx <= 0 {
		m.selected = visible[len(visible)-1]
		m.trackOffset = clampOffset(len(visible), len(visible), viewport)
		return
	}

	idx--
	m.selected = visible[idx]
	if idx < m.trackOffset {
		m.trackOffset = idx
	}
	m.trackOffset = clampOffset(m.trackOffset, len(visible), viewport)
}

// NextPlaylist перемещает выбор плейлиста вниз с переносом.
// Смена активного плейлиста сбрасывает выбор трека.
func (m *Model) NextPlaylist(viewport int) {
	names := m.store.Names()
	if len(names) == 0 {
		return
	}

	prev := m.playlistIndex
	if m.playlistIndex < len(names)-1 {
		m.playlistIndex++
		if m.playlistIndex >= m.playlistOffset+viewport {
			m.playlistOffset = m.playlistIndex - viewport + 1
		}
	} else {
		m.playlistIndex = 0
		m.playlistOffset = 0
	}
	m.playlistOffset = clampOffset(m.playlistOffset, len(names), viewport)

	if m.playlistIndex != prev {
		m.clearTrackSelection()
	}
}

// PrevPlaylist перемещает выбор плейлиста вверх с переносом
func (m *Model) PrevPlaylist(viewport int) {
	names := m.store.Names()
	if len(names) == 0 {
		return
	}

	prev := m.playlistIndex
	if m.playlistIndex > 0 {
		m.playlistIndex--
		if m.playlistIndex < m.playlistOffset {
			m.playlistOffset = m.playlistIndex
		}
	} else {
		m.playlistIndex = len(names) - 1
		m.playlistOffset = clampOffset(len(names), len(names), viewport)
	}
	m.playlistOffset = clampOffset(m.playlistOffset, len(names), viewport)

	if m.playlistIndex != prev {
		m.clearTrackSelection()
	}
}

// ResetPlaylist сбрасывает выбор плейлиста на первый элемент
func (m *Model) ResetPlaylist() {
	m.playlistIndex = 0
	m.playlistOffset = 0
	m.clearTrackSelection()
}

// clearTrackSelection сбрасывает выбор трека: он имеет смысл только
// внутри активного плейлиста
func (m *Model) clearTrackSelection() {
	m.selected = uuid.Nil
	m.trackOffset = 0
}

// ScrollTo прокручивает список треков так, чтобы выбранный трек был виден
func (m *Model) ScrollTo(id catalog.TrackID, viewport int) {
	visible := m.VisibleIDs()
	idx := lo.IndexOf(visible, id)
	if idx == -1 {
		return
	}
	if idx < m.trackOffset {
		m.trackOffset = idx
	}
	if idx >= m.trackOffset+viewport {
		m.trackOffset = idx - viewport + 1
	}
	m.trackOffset = clampOffset(m.trackOffset, len(visible), viewport)
}

// clampOffset ограничивает прокрутку диапазоном [0, len-viewport]
func clampOffset(offset, length, viewport int) int {
	max := length - viewport
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
