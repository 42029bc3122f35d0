// Package playlist содержит хранилище именованных плейлистов с сохранением на диск
package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/hazadus/go-rhythm/internal/catalog"
	"github.com/hazadus/go-rhythm/internal/utils"
)

// AllSongsName название служебного плейлиста со всеми треками каталога.
// Он пересоздается при каждой загрузке и не зависит от сохраненных файлов.
const AllSongsName = "All Songs"

// Ошибки валидации при создании плейлиста. Обе причины различимы,
// чтобы интерфейс мог показать точное сообщение.
var (
	ErrEmptyName = errors.New("у плейлиста должно быть название")
	ErrNoTracks  = errors.New("в плейлисте должен быть хотя бы один трек")
)

// Store хранит плейлисты как отображение название → список идентификаторов треков
type Store struct {
	dir   string
	lists map[string][]catalog.TrackID
}

// NewStore создает пустое хранилище, сохраняющее плейлисты в указанную папку
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		lists: make(map[string][]catalog.TrackID),
	}
}

// Create добавляет новый плейлист. Возвращает ошибку валидации,
// если название пустое или не выбрано ни одного трека; обе причины
// объединяются, когда применимы одновременно.
func (s *Store) Create(name string, ids []catalog.TrackID) error {
	var errs []error
	if strings.TrimSpace(name) == "" {
		errs = append(errs, ErrEmptyName)
	}
	if len(ids) == 0 {
		errs = append(errs, ErrNoTracks)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.lists[name] = append([]catalog.TrackID(nil), ids...)
	return nil
}

// Delete удаляет плейлист и соответствующий ему файл на диске
func (s *Store) Delete(name string) {
	delete(s.lists, name)

	path := filepath.Join(s.dir, utils.SanitizeName(name)+".m3u")
	_ = os.Remove(path)
}

// Names возвращает названия всех плейлистов в алфавитном порядке
func (s *Store) Names() []string {
	names := lo.Keys(s.lists)
	sort.Strings(names)
	return names
}

// Get возвращает идентификаторы треков плейлиста
func (s *Store) Get(name string) ([]catalog.TrackID, bool) {
	ids, ok := s.lists[name]
	return ids, ok
}

// Len возвращает количество плейлистов
func (s *Store) Len() int {
	return len(s.lists)
}

// SetAllSongs пересоздает служебный плейлист со всеми треками каталога
func (s *Store) SetAllSongs(ids []catalog.TrackID) {
	s.lists[AllSongsName] = append([]catalog.TrackID(nil), ids...)
}

// Persist записывает каждый плейлист в отдельный m3u файл.
// Формат: строка "#EXTM3U", затем по одному абсолютному пути на строку.
// При загрузке пути заново хэшируются в идентификаторы, поэтому
// отображение название → идентификаторы переживает перезапуск.
func (s *Store) Persist(cat *catalog.Catalog) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания папки плейлистов: %w", err)
	}

	for name, ids := range s.lists {
		if name == AllSongsName {
			continue
		}
		path := filepath.Join(s.dir, utils.SanitizeName(name)+".m3u")

		var b strings.Builder
		b.WriteString("#EXTM3U\n")
		for _, id := range ids {
			track, ok := cat.ByID(id)
			if !ok || track.Path == "" {
				continue
			}
			b.WriteString(track.Path)
			b.WriteString("\n")
		}

		if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
			return fmt.Errorf("ошибка записи плейлиста %q: %w", name, err)
		}
	}

	return nil
}

// Restore читает все m3u файлы из папки хранилища.
// Отсутствующая папка или нечитаемый файл не считаются ошибкой:
// в этом случае хранилище просто остается пустым.
func (s *Store) Restore() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".m3u") {
			continue
		}

		ids, err := readManifest(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".m3u")
		s.lists[name] = ids
	}
}

// readManifest читает один m3u файл, хэшируя каждый путь в идентификатор трека
func readManifest(path string) ([]catalog.TrackID, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ids []catalog.TrackID
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, catalog.NewTrackID(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
