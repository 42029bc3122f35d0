// Package session содержит машину состояний воспроизведения: что загружено,
// играет ли оно и сколько времени прошло. Сессия — единственный компонент,
// который командует внешним аудио выводом, и единственный источник правды
// о ходе воспроизведения.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/hazadus/go-rhythm/internal/catalog"
)

// DefaultInterval период фонового тика
const DefaultInterval = 100 * time.Millisecond

// volumeStep шаг изменения громкости
const volumeStep = 0.05

// Sink внешний аудио вывод. Каждый вызов атомарен сам по себе;
// составные последовательности сериализует сессия.
type Sink interface {
	Load(path string) error
	Clear()
	Play()
	Pause()
	IsPaused() bool
	Position() time.Duration
	TrySeek(pos time.Duration) error
	Volume() float64
	SetVolume(v float64)
}

// Direction направление ручного переключения трека
type Direction int

// Направления переключения
const (
	Next Direction = iota
	Previous
)

// Состояние сессии — явный тип-сумма: в каждом варианте только те поля,
// которые имеют смысл для этого варианта.
type state interface {
	sessionState()
}

// idleState ничего не загружено
type idleState struct{}

// playingState трек активно воспроизводится. Прошедшее время равно
// offset плюс время логических часов с момента startedAt: пауза,
// возобновление и перемотка перебазируют offset ровно один раз,
// поэтому точность не теряется.
type playingState struct {
	trackID   catalog.TrackID
	startedAt time.Duration // Показание логических часов при перебазировании
	offset    time.Duration
}

// pausedState трек заморожен на elapsed
type pausedState struct {
	trackID catalog.TrackID
	elapsed time.Duration
}

func (idleState) sessionState()    {}
func (playingState) sessionState() {}
func (pausedState) sessionState()  {}

// Status снимок состояния воспроизведения для отображения
type Status struct {
	Track     *catalog.Track
	Elapsed   time.Duration
	Duration  time.Duration
	IsPlaying bool
	IsPaused  bool
}

// Session владеет состоянием воспроизведения и аудио выводом
type Session struct {
	mu       sync.Mutex
	sink     Sink
	catalog  *catalog.Catalog
	interval time.Duration

	// Логические часы: продвигаются ровно на один интервал за каждый
	// полученный тик, поэтому прогресс детерминирован в единицах тиков
	clock time.Duration

	st         state
	repeat     bool
	prevVolume float64

	tickc  chan struct{}
	ticker *ticker
}

// NewSession создает сессию поверх аудио вывода и каталога
func NewSession(sink Sink, cat *catalog.Catalog) *Session {
	return &Session{
		sink:       sink,
		catalog:    cat,
		interval:   DefaultInterval,
		st:         idleState{},
		prevVolume: 1.0,
		tickc:      make(chan struct{}, 1),
	}
}

// Ticks возвращает канал фоновых тиков. Канал живет столько же,
// сколько сессия, и никогда не закрывается; тики приходят только
// пока трек воспроизводится.
func (s *Session) Ticks() <-chan struct{} {
	return s.tickc
}

// Interval возвращает период тика
func (s *Session) Interval() time.Duration {
	return s.interval
}

// Start останавливает текущее воспроизведение и запускает трек с указанным
// идентификатором. Очистка вывода, загрузка и запуск выполняются как одно
// целое под мьютексом сессии.
func (s *Session) Start(id catalog.TrackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(id)
}

// startLocked должен вызываться под мьютексом
func (s *Session) startLocked(id catalog.TrackID) error {
	track, ok := s.catalog.ByID(id)
	if !ok {
		s.stopLocked()
		return fmt.Errorf("трек %s не найден в каталоге", id)
	}

	s.sink.Clear()
	if err := s.sink.Load(track.Path); err != nil {
		// Вывод уже очищен, поэтому единственное честное состояние — Idle
		s.stopLocked()
		return fmt.Errorf("ошибка загрузки трека: %w", err)
	}
	s.sink.Play()

	s.st = playingState{
		trackID:   id,
		startedAt: s.clock,
		offset:    0,
	}
	s.catalog.MarkPlaying(id)
	s.ensureTicker()
	return nil
}

// TogglePause приостанавливает воспроизведение или возобновляет его
// с того же места. В состоянии Idle ничего не делает.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.st.(type) {
	case playingState:
		elapsed := s.elapsedLocked()
		s.sink.Pause()
		s.catalog.ClearPlaying()
		s.st = pausedState{trackID: st.trackID, elapsed: elapsed}
		s.stopTicker()

	case pausedState:
		s.sink.Play()
		s.catalog.MarkPlaying(st.trackID)
		s.st = playingState{
			trackID:   st.trackID,
			startedAt: s.clock,
			offset:    st.elapsed,
		}
		s.ensureTicker()
	}
}

// ToggleSelect реализует семантику пробела: если выбранный трек не тот,
// что сейчас загружен, запускает его; если тот же — полностью останавливает
// воспроизведение, а не ставит на паузу.
func (s *Session) ToggleSelect(id catalog.TrackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.currentIDLocked(); ok && current == id {
		s.stopLocked()
		return nil
	}
	return s.startLocked(id)
}

// Seek сдвигает позицию воспроизведения на delta. Новая позиция
// ограничивается диапазоном [0, длительность трека]. Если вывод
// не поддерживает перемотку, позиция в сессии все равно обновляется.
func (s *Session) Seek(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.st.(type) {
	case playingState:
		target := s.clampToDuration(st.trackID, s.elapsedLocked()+delta)
		_ = s.sink.TrySeek(target)
		s.st = playingState{
			trackID:   st.trackID,
			startedAt: s.clock,
			offset:    target,
		}

	case pausedState:
		target := s.clampToDuration(st.trackID, st.elapsed+delta)
		_ = s.sink.TrySeek(target)
		s.st = pausedState{trackID: st.trackID, elapsed: target}
	}
}

// Advance переключает воспроизведение на соседний трек в видимом списке.
// На границе списка ничего не делает: ручное переключение, в отличие от
// автоперехода, по кругу не ходит. Возвращает идентификатор нового трека,
// если переключение произошло.
func (s *Session) Advance(dir Direction, order []catalog.TrackID) (catalog.TrackID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.currentIDLocked()
	if !ok {
		return catalog.TrackID{}, false
	}

	pos := lo.IndexOf(order, current)
	if pos == -1 {
		return catalog.TrackID{}, false
	}

	var target catalog.TrackID
	switch dir {
	case Next:
		if pos >= len(order)-1 {
			return catalog.TrackID{}, false
		}
		target = order[pos+1]
	case Previous:
		if pos <= 0 {
			return catalog.TrackID{}, false
		}
		target = order[pos-1]
	}

	if err := s.startLocked(target); err != nil {
		return catalog.TrackID{}, false
	}
	return target, true
}

// Tick обрабатывает один фоновый тик: продвигает логические часы на один
// интервал и проверяет конец трека. При включенном повторе трек начинается
// заново, иначе выполняется автопереход на следующий видимый трек с
// переносом на первый после последнего. Возвращает идентификатор нового
// трека, если автопереход сменил трек.
func (s *Session) Tick(order []catalog.TrackID) (catalog.TrackID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.st.(playingState)
	if !ok {
		return catalog.TrackID{}, false
	}

	s.clock += s.interval

	track, found := s.catalog.ByID(st.trackID)
	if !found {
		s.stopLocked()
		return catalog.TrackID{}, false
	}

	// Нулевая длительность означает, что она неизвестна: такой трек
	// не должен мгновенно считаться законченным
	if track.Duration <= 0 || s.elapsedLocked() < track.Duration {
		return catalog.TrackID{}, false
	}

	if s.repeat {
		if err := s.startLocked(st.trackID); err != nil {
			return catalog.TrackID{}, false
		}
		return st.trackID, false
	}

	if len(order) == 0 {
		s.stopLocked()
		return catalog.TrackID{}, false
	}

	pos := lo.IndexOf(order, st.trackID)
	var next catalog.TrackID
	if pos == -1 {
		// Текущий трек выпал из видимого списка: продолжаем с его начала
		next = order[0]
	} else {
		next = order[(pos+1)%len(order)]
	}

	if err := s.startLocked(next); err != nil {
		return catalog.TrackID{}, false
	}
	return next, true
}

// Stop из любого состояния очищает вывод и переводит сессию в Idle
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked должен вызываться под мьютексом
func (s *Session) stopLocked() {
	s.sink.Clear()
	s.catalog.ClearPlaying()
	s.st = idleState{}
	s.stopTicker()
}

// Close останавливает воспроизведение и фоновый тикер
func (s *Session) Close() {
	s.Stop()
}

// Status возвращает снимок состояния для отрисовки
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.currentIDLocked()
	if !ok {
		return Status{}
	}
	track, found := s.catalog.ByID(id)
	if !found {
		return Status{}
	}

	elapsed := s.elapsedLocked()
	if track.Duration > 0 && elapsed > track.Duration {
		// Между последним тиком и автопереходом часы могут чуть
		// перескочить длительность; наружу это не показываем
		elapsed = track.Duration
	}

	_, playing := s.st.(playingState)
	_, paused := s.st.(pausedState)

	return Status{
		Track:     track,
		Elapsed:   elapsed,
		Duration:  track.Duration,
		IsPlaying: playing,
		IsPaused:  paused,
	}
}

// CurrentID возвращает идентификатор загруженного трека
func (s *Session) CurrentID() (catalog.TrackID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIDLocked()
}

// currentIDLocked должен вызываться под мьютексом
func (s *Session) currentIDLocked() (catalog.TrackID, bool) {
	switch st := s.st.(type) {
	case playingState:
		return st.trackID, true
	case pausedState:
		return st.trackID, true
	default:
		return catalog.TrackID{}, false
	}
}

// elapsedLocked вычисляет прошедшее время; должен вызываться под мьютексом
func (s *Session) elapsedLocked() time.Duration {
	switch st := s.st.(type) {
	case playingState:
		return st.offset + s.clock - st.startedAt
	case pausedState:
		return st.elapsed
	default:
		return 0
	}
}

// clampToDuration ограничивает позицию диапазоном [0, длительность трека]
func (s *Session) clampToDuration(id catalog.TrackID, pos time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	track, ok := s.catalog.ByID(id)
	if !ok {
		return pos
	}
	if track.Duration > 0 && pos > track.Duration {
		return track.Duration
	}
	return pos
}

// VolumeUp увеличивает громкость на один шаг с ограничением сверху
func (s *Session) VolumeUp() {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.sink.Volume() + volumeStep
	if v > 1.0 {
		v = 1.0
	}
	s.sink.SetVolume(v)
}

// VolumeDown уменьшает громкость на один шаг с ограничением снизу
func (s *Session) VolumeDown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.sink.Volume() - volumeStep
	if v < 0 {
		v = 0
	}
	s.sink.SetVolume(v)
}

// ToggleMute выключает звук, запоминая прежнюю громкость, либо
// восстанавливает ее. Повторное выключение при нулевой громкости
// не затирает запомненное значение.
func (s *Session) ToggleMute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := s.sink.Volume(); v > 0 {
		s.prevVolume = v
		s.sink.SetVolume(0)
	} else {
		s.sink.SetVolume(s.prevVolume)
	}
}

// Volume возвращает текущую громкость
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Volume()
}

// ToggleRepeat переключает режим повтора текущего трека
func (s *Session) ToggleRepeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = !s.repeat
}

// Repeat возвращает, включен ли повтор трека
func (s *Session) Repeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

// ensureTicker запускает фоновый тикер, если он еще не работает;
// должен вызываться под мьютексом
func (s *Session) ensureTicker() {
	if s.ticker == nil {
		s.ticker = startTicker(s.interval, s.tickc)
	}
}

// stopTicker останавливает тикер и дожидается выхода его горутины;
// должен вызываться под мьютексом
func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}
