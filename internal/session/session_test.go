package session

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hazadus/go-rhythm/internal/catalog"
)

// fakeSink тестовый аудио вывод, запоминающий все команды сессии
type fakeSink struct {
	loaded  string
	playing bool
	volume  float64
	seekPos time.Duration
	loadErr error
	loads   int
	clears  int
}

func newFakeSink() *fakeSink {
	return &fakeSink{volume: 1.0}
}

func (f *fakeSink) Load(path string) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = path
	f.loads++
	return nil
}

func (f *fakeSink) Clear() {
	f.loaded = ""
	f.playing = false
	f.clears++
}

func (f *fakeSink) Play()  { f.playing = true }
func (f *fakeSink) Pause() { f.playing = false }

func (f *fakeSink) IsPaused() bool { return !f.playing }

func (f *fakeSink) Position() time.Duration { return f.seekPos }

func (f *fakeSink) TrySeek(pos time.Duration) error {
	f.seekPos = pos
	return nil
}

func (f *fakeSink) Volume() float64 { return f.volume }

func (f *fakeSink) SetVolume(v float64) { f.volume = v }

// testCatalog создает каталог из двух треков: A длительностью 1 секунда
// и B длительностью 2 секунды
func testCatalog() (*catalog.Catalog, catalog.TrackID, catalog.TrackID) {
	trackA := catalog.NewTrack("Track A", "Artist", "Album", "/music/a.mp3", time.Second)
	trackB := catalog.NewTrack("Track B", "Artist", "Album", "/music/b.mp3", 2*time.Second)
	cat := catalog.NewCatalog([]*catalog.Track{trackA, trackB})
	return cat, trackA.ID, trackB.ID
}

// tick прокручивает сессию на n фоновых тиков
func tick(s *Session, order []catalog.TrackID, n int) (catalog.TrackID, bool) {
	var id catalog.TrackID
	var changed bool
	for i := 0; i < n; i++ {
		if next, ok := s.Tick(order); ok {
			id, changed = next, true
		}
	}
	return id, changed
}

func TestStartAdvancesElapsedPerTick(t *testing.T) {
	cat, idA, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	// Запускаем трек A
	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	if sink.loaded != "/music/a.mp3" {
		t.Errorf("Ожидался загруженный путь /music/a.mp3, получено %q", sink.loaded)
	}

	// Прошедшее время растет ровно на один интервал за тик
	tick(sess, cat.IDs(), 3)
	status := sess.Status()
	if !status.IsPlaying {
		t.Error("Ожидалось состояние воспроизведения")
	}
	if want := 3 * sess.Interval(); status.Elapsed != want {
		t.Errorf("Ожидалось Elapsed %v, получено %v", want, status.Elapsed)
	}

	// Флаг воспроизведения выставляется в каталоге только для текущего трека
	track, _ := cat.ByID(idA)
	if !track.IsPlaying {
		t.Error("Ожидался флаг IsPlaying у текущего трека")
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	cat, idA, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	tick(sess, cat.IDs(), 2)

	// Ставим на паузу: прошедшее время замирает
	sess.TogglePause()
	frozen := sess.Status().Elapsed
	if want := 2 * sess.Interval(); frozen != want {
		t.Errorf("Ожидалось Elapsed %v на паузе, получено %v", want, frozen)
	}
	if !sess.Status().IsPaused {
		t.Error("Ожидалось состояние паузы")
	}
	if sink.playing {
		t.Error("Ожидалась команда Pause аудио выводу")
	}

	// Тики на паузе не двигают позицию
	tick(sess, cat.IDs(), 5)
	if got := sess.Status().Elapsed; got != frozen {
		t.Errorf("Ожидалось неизменное Elapsed %v, получено %v", frozen, got)
	}

	// Возобновляем: отсчет продолжается с того же места
	sess.TogglePause()
	tick(sess, cat.IDs(), 1)
	if want := 3 * sess.Interval(); sess.Status().Elapsed != want {
		t.Errorf("Ожидалось Elapsed %v после возобновления, получено %v", want, sess.Status().Elapsed)
	}
}

func TestToggleSelectStopsSameTrack(t *testing.T) {
	cat, idA, idB := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	// Выбор незагруженного трека запускает его
	if err := sess.ToggleSelect(idA); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}
	if current, ok := sess.CurrentID(); !ok || current != idA {
		t.Error("Ожидался запущенный трек A")
	}

	// Повторный выбор того же трека полностью останавливает воспроизведение
	if err := sess.ToggleSelect(idA); err != nil {
		t.Fatalf("Ошибка повторного выбора: %v", err)
	}
	if _, ok := sess.CurrentID(); ok {
		t.Error("Ожидалось состояние Idle после повторного выбора")
	}
	if sink.loaded != "" {
		t.Errorf("Ожидался очищенный вывод, получено %q", sink.loaded)
	}

	// Выбор того же трека на паузе тоже останавливает, а не возобновляет
	if err := sess.ToggleSelect(idB); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}
	sess.TogglePause()
	if err := sess.ToggleSelect(idB); err != nil {
		t.Fatalf("Ошибка выбора на паузе: %v", err)
	}
	if _, ok := sess.CurrentID(); ok {
		t.Error("Ожидалось состояние Idle после выбора трека на паузе")
	}
}

func TestSeekClampsToTrackBounds(t *testing.T) {
	cat, idA, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}

	// Перемотка назад из начала ограничивается нулем
	sess.Seek(-5 * time.Second)
	if got := sess.Status().Elapsed; got != 0 {
		t.Errorf("Ожидалось Elapsed 0 после перемотки назад, получено %v", got)
	}

	// Перемотка вперед за конец ограничивается длительностью
	sess.Seek(5 * time.Second)
	if got := sess.Status().Elapsed; got != time.Second {
		t.Errorf("Ожидалось Elapsed 1s после перемотки вперед, получено %v", got)
	}
	if sink.seekPos != time.Second {
		t.Errorf("Ожидалась команда перемотки на 1s, получено %v", sink.seekPos)
	}

	// Перемотка работает и на паузе
	sess.TogglePause()
	sess.Seek(-time.Second / 2)
	if got := sess.Status().Elapsed; got != time.Second/2 {
		t.Errorf("Ожидалось Elapsed 500ms на паузе, получено %v", got)
	}
}

func TestSeekPastEndTriggersAdvanceOnNextTick(t *testing.T) {
	cat, idA, idB := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}

	// Перематываем к самому концу: переход происходит на следующем тике
	sess.Seek(time.Minute)
	next, changed := sess.Tick(cat.IDs())
	if !changed {
		t.Fatal("Ожидался автопереход после перемотки за конец")
	}
	if next != idB {
		t.Errorf("Ожидался переход на трек B, получено %s", next)
	}
	if sess.Status().Elapsed != 0 {
		t.Errorf("Ожидалось Elapsed 0 у нового трека, получено %v", sess.Status().Elapsed)
	}
}

func TestAutoAdvanceWrapsToFirst(t *testing.T) {
	cat, idA, idB := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	// Доигрываем последний трек списка до конца
	if err := sess.Start(idB); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	sess.Seek(time.Minute)

	next, changed := sess.Tick(cat.IDs())
	if !changed {
		t.Fatal("Ожидался автопереход с последнего трека")
	}
	if next != idA {
		t.Errorf("Ожидался переход по кругу на трек A, получено %s", next)
	}
}

func TestManualAdvanceDoesNotWrap(t *testing.T) {
	cat, idA, idB := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	order := cat.IDs()

	// Назад с первого трека — переключения нет
	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	if _, ok := sess.Advance(Previous, order); ok {
		t.Error("Ожидалось отсутствие переключения назад с первого трека")
	}
	if current, _ := sess.CurrentID(); current != idA {
		t.Error("Ожидался неизменный текущий трек A")
	}

	// Вперед переключает на соседний
	next, ok := sess.Advance(Next, order)
	if !ok || next != idB {
		t.Errorf("Ожидалось переключение на трек B, получено %s, %v", next, ok)
	}

	// Вперед с последнего трека — переключения нет
	if _, ok := sess.Advance(Next, order); ok {
		t.Error("Ожидалось отсутствие переключения вперед с последнего трека")
	}

	// В состоянии Idle переключение невозможно
	sess.Stop()
	if _, ok := sess.Advance(Next, order); ok {
		t.Error("Ожидалось отсутствие переключения в состоянии Idle")
	}
}

func TestRepeatRestartsSameTrack(t *testing.T) {
	cat, idA, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	sess.ToggleRepeat()
	if !sess.Repeat() {
		t.Error("Ожидался включенный режим повтора")
	}

	// При повторе конец трека перезапускает его; список не меняется
	sess.Seek(time.Minute)
	if _, changed := sess.Tick(cat.IDs()); changed {
		t.Error("Ожидалось отсутствие смены трека в режиме повтора")
	}
	if current, _ := sess.CurrentID(); current != idA {
		t.Error("Ожидался тот же трек A после повтора")
	}
	if got := sess.Status().Elapsed; got != 0 {
		t.Errorf("Ожидалось Elapsed 0 после перезапуска, получено %v", got)
	}
}

func TestZeroDurationNeverAutoAdvances(t *testing.T) {
	// Трек с неизвестной длительностью не должен мгновенно заканчиваться
	unknown := catalog.NewTrack("Unknown", "Artist", "", "/music/u.mp3", 0)
	cat := catalog.NewCatalog([]*catalog.Track{unknown})
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(unknown.ID); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	if _, changed := tick(sess, cat.IDs(), 50); changed {
		t.Error("Ожидалось отсутствие автоперехода для трека без длительности")
	}
	if current, ok := sess.CurrentID(); !ok || current != unknown.ID {
		t.Error("Ожидался все тот же трек без длительности")
	}
}

func TestTickWithFilteredOutTrackRestartsFromFirst(t *testing.T) {
	cat, idA, idB := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	sess.Seek(time.Minute)

	// Текущий трек выпал из видимого списка: продолжаем с его начала
	next, changed := sess.Tick([]catalog.TrackID{idB})
	if !changed || next != idB {
		t.Errorf("Ожидался переход на первый видимый трек B, получено %s, %v", next, changed)
	}

	// Пустой видимый список останавливает воспроизведение
	sess.Seek(time.Minute)
	if _, changed := sess.Tick(nil); changed {
		t.Error("Ожидалось отсутствие перехода при пустом списке")
	}
	if _, ok := sess.CurrentID(); ok {
		t.Error("Ожидалось состояние Idle при пустом списке")
	}
}

func TestStartUnknownTrackFails(t *testing.T) {
	cat, idA, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}

	// Запуск трека, которого нет в каталоге, возвращает ошибку
	// и оставляет сессию в честном состоянии Idle
	if err := sess.Start(catalog.NewTrackID("/no/such.mp3")); err == nil {
		t.Error("Ожидалась ошибка запуска несуществующего трека")
	}
	if _, ok := sess.CurrentID(); ok {
		t.Error("Ожидалось состояние Idle после неудачного запуска")
	}
}

func TestLoadErrorLeavesIdle(t *testing.T) {
	cat, idA, _ := testCatalog()
	sink := newFakeSink()
	sink.loadErr = errors.New("файл поврежден")
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err == nil {
		t.Error("Ожидалась ошибка загрузки от аудио вывода")
	}
	if _, ok := sess.CurrentID(); ok {
		t.Error("Ожидалось состояние Idle после ошибки загрузки")
	}
	if status := sess.Status(); status.Track != nil {
		t.Error("Ожидался пустой снимок состояния")
	}
}

func TestVolumeStepsAndClamp(t *testing.T) {
	cat, _, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	// Громкость выше 1.0 не поднимается
	sess.VolumeUp()
	if got := sess.Volume(); got != 1.0 {
		t.Errorf("Ожидалась громкость 1.0, получено %v", got)
	}

	// Один шаг вниз
	sess.VolumeDown()
	if got := sess.Volume(); math.Abs(got-0.95) > 1e-9 {
		t.Errorf("Ожидалась громкость 0.95, получено %v", got)
	}

	// Ниже нуля не опускается
	for i := 0; i < 30; i++ {
		sess.VolumeDown()
	}
	if got := sess.Volume(); got != 0 {
		t.Errorf("Ожидалась громкость 0, получено %v", got)
	}
}

func TestToggleMuteKeepsPreviousVolume(t *testing.T) {
	cat, _, _ := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	// Устанавливаем промежуточную громкость и выключаем звук
	sink.volume = 0.6
	sess.ToggleMute()
	if got := sess.Volume(); got != 0 {
		t.Errorf("Ожидалась громкость 0 после выключения звука, получено %v", got)
	}

	// Повторное выключение при нулевой громкости возвращает прежнее значение,
	// а не затирает его нулем
	sess.ToggleMute()
	if got := sess.Volume(); got != 0.6 {
		t.Errorf("Ожидалась восстановленная громкость 0.6, получено %v", got)
	}
}

func TestNaturalCompletionScenario(t *testing.T) {
	trackA := catalog.NewTrack("Track A", "Artist", "Album", "/music/a.mp3", 10*time.Second)
	trackB := catalog.NewTrack("Track B", "Artist", "Album", "/music/b.mp3", 20*time.Second)
	cat := catalog.NewCatalog([]*catalog.Track{trackA, trackB})

	sink := newFakeSink()
	sess := NewSession(sink, cat)
	sess.interval = time.Second // Один тик — одна секунда, чтобы досчитать до конца
	defer sess.Close()

	if err := sess.Start(trackA.ID); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}

	// Девять тиков: трек A еще играет
	if _, changed := tick(sess, cat.IDs(), 9); changed {
		t.Fatal("Ожидалось отсутствие перехода до конца трека")
	}
	if got := sess.Status().Elapsed; got != 9*time.Second {
		t.Errorf("Ожидалось Elapsed 9s, получено %v", got)
	}

	// Десятый тик доигрывает трек A и запускает трек B с нуля
	next, changed := sess.Tick(cat.IDs())
	if !changed || next != trackB.ID {
		t.Fatalf("Ожидался автопереход на трек B, получено %s, %v", next, changed)
	}
	if got := sess.Status().Elapsed; got != 0 {
		t.Errorf("Ожидалось Elapsed 0 у трека B, получено %v", got)
	}
	if trackA.IsPlaying {
		t.Error("Ожидался снятый флаг IsPlaying у трека A")
	}
	if !trackB.IsPlaying {
		t.Error("Ожидался флаг IsPlaying у трека B")
	}
}

func TestStartReplacesCurrentTrack(t *testing.T) {
	cat, idA, idB := testCatalog()
	sink := newFakeSink()
	sess := NewSession(sink, cat)
	defer sess.Close()

	if err := sess.Start(idA); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	tick(sess, cat.IDs(), 3)

	// Запуск другого трека очищает вывод и обнуляет позицию
	if err := sess.Start(idB); err != nil {
		t.Fatalf("Ошибка запуска трека: %v", err)
	}
	if sink.loaded != "/music/b.mp3" {
		t.Errorf("Ожидался загруженный путь /music/b.mp3, получено %q", sink.loaded)
	}
	if got := sess.Status().Elapsed; got != 0 {
		t.Errorf("Ожидалось Elapsed 0 у нового трека, получено %v", got)
	}

	// Флаг воспроизведения переехал на новый трек
	trackA, _ := cat.ByID(idA)
	trackB, _ := cat.ByID(idB)
	if trackA.IsPlaying {
		t.Error("Ожидался снятый флаг IsPlaying у прежнего трека")
	}
	if !trackB.IsPlaying {
		t.Error("Ожидался флаг IsPlaying у нового трека")
	}
}
