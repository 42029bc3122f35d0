// Package app содержит основную логику TUI приложения
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/hazadus/go-rhythm/internal/catalog"
	"github.com/hazadus/go-rhythm/internal/playlist"
	"github.com/hazadus/go-rhythm/internal/session"
	"github.com/hazadus/go-rhythm/internal/utils"
	"github.com/hazadus/go-rhythm/internal/view"
)

// seekStep шаг перемотки по стрелкам
const seekStep = 5 * time.Second

// playlistViewport количество видимых строк списка плейлистов
const playlistViewport = 6

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5f87ff"))

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			MarginBottom(1)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	playingItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5fd7ff"))

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#888888"))

	detailsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00afaf")).
			PaddingLeft(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	quitTextStyle = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// tickMsg приходит при каждом тике фонового тикера сессии
type tickMsg struct{}

// Model представляет главную модель TUI
type Model struct {
	catalog *catalog.Catalog
	store   *playlist.Store
	view    *view.Model
	session *session.Session

	progressBar progress.Model
	nameInput   textinput.Model

	// Накопленный выбор треков для нового плейлиста
	chosen []catalog.TrackID

	showHelp    bool
	showInput   bool
	inputErr    string
	playbackErr string

	width    int
	height   int
	quitting bool

	saveFunc func() error // Функция для сохранения плейлистов
}

// NewModel создает новую главную модель
func NewModel(cat *catalog.Catalog, store *playlist.Store, vm *view.Model, sess *session.Session, saveFunc func() error) *Model {
	// Создаем прогресс-бар
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	// Создаем поле ввода названия плейлиста
	input := textinput.New()
	input.Placeholder = "Название плейлиста"
	input.CharLimit = 64
	input.Width = 32

	// Выбираем первый видимый трек, чтобы списку было с чего начинать
	vm.EnsureSelection()

	return &Model{
		catalog:     cat,
		store:       store,
		view:        vm,
		session:     sess,
		progressBar: prog,
		nameInput:   input,
		saveFunc:    saveFunc,
	}
}

// Init инициализирует модель и запускает ожидание тиков
func (m *Model) Init() tea.Cmd {
	return m.waitForTick()
}

// Close закрывает ресурсы модели
func (m *Model) Close() {
	if m.session != nil {
		m.session.Close()
	}
}

// Update обрабатывает сообщения
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-30)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m.handleTick()

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// handleTick обрабатывает один тик: продвигает сессию и синхронизирует
// выбор, если произошел автопереход на следующий трек
func (m *Model) handleTick() (tea.Model, tea.Cmd) {
	ids := m.view.VisibleIDs()
	if next, changed := m.session.Tick(ids); changed {
		m.view.SelectTrack(next)
		m.view.ScrollTo(next, m.trackViewport())
	}

	status := m.session.Status()
	var percent float64
	if status.Duration > 0 {
		percent = float64(status.Elapsed) / float64(status.Duration)
	}

	return m, tea.Batch(
		m.progressBar.SetPercent(percent),
		m.waitForTick(),
	)
}

// handleKey обрабатывает нажатие клавиши
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Глобальные горячие клавиши: выход с сохранением плейлистов
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m.quit()
	}

	if m.showInput {
		return m.handleInputKey(msg)
	}

	if m.showHelp {
		switch msg.String() {
		case "esc", "f1":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "up":
		m.view.MoveUp(m.trackViewport())

	case "down":
		m.view.MoveDown(m.trackViewport())

	case "ctrl+k":
		m.view.PrevPlaylist(playlistViewport)

	case "ctrl+j":
		m.view.NextPlaylist(playlistViewport)

	case "ctrl+@":
		// Ctrl+Пробел: запустить выбранный трек либо остановить его,
		// если он уже играет
		if id, ok := m.view.SelectedID(); ok {
			m.playbackErr = ""
			if err := m.session.ToggleSelect(id); err != nil {
				m.playbackErr = err.Error()
			}
		}

	case "ctrl+p":
		m.session.TogglePause()

	case "ctrl+h":
		m.advance(session.Previous)

	case "ctrl+l":
		m.advance(session.Next)

	case "ctrl+left":
		m.session.VolumeDown()

	case "ctrl+right":
		m.session.VolumeUp()

	case "ctrl+m":
		m.session.ToggleMute()

	case "ctrl+s":
		m.view.CycleField()

	case "ctrl+t":
		m.view.CycleSort()

	case "ctrl+r":
		m.session.ToggleRepeat()

	case "left":
		m.session.Seek(-seekStep)

	case "right":
		m.session.Seek(seekStep)

	case "f1":
		m.showHelp = true

	case "ctrl+n":
		m.showInput = true
		m.inputErr = ""
		m.nameInput.SetValue("")
		return m, m.nameInput.Focus()

	case "ctrl+a":
		m.toggleChosen()

	case "ctrl+x":
		m.deletePlaylist()

	case "backspace":
		m.view.BackspaceSearch()

	default:
		// Остальные печатаемые символы пополняют строку поиска
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			m.view.AppendSearch(msg.Runes[0])
		} else if msg.Type == tea.KeySpace {
			m.view.AppendSearch(' ')
		}
	}

	return m, nil
}

// handleInputKey обрабатывает клавиши в попапе ввода названия плейлиста
func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showInput = false
		m.inputErr = ""
		m.nameInput.SetValue("")
		return m, nil

	case "enter":
		m.submitPlaylist()
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// quit сохраняет плейлисты и завершает программу.
// Ошибка сохранения не мешает выходу.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.saveFunc != nil {
		_ = m.saveFunc()
	}
	m.session.Stop()
	m.quitting = true
	return m, tea.Quit
}

// advance переключает воспроизведение на соседний трек и синхронизирует выбор
func (m *Model) advance(dir session.Direction) {
	ids := m.view.VisibleIDs()
	if next, ok := m.session.Advance(dir, ids); ok {
		m.view.SelectTrack(next)
		m.view.ScrollTo(next, m.trackViewport())
	}
}

// toggleChosen добавляет выбранный трек в набор для нового плейлиста
// либо убирает его оттуда
func (m *Model) toggleChosen() {
	id, ok := m.view.SelectedID()
	if !ok {
		return
	}
	if lo.Contains(m.chosen, id) {
		m.chosen = lo.Without(m.chosen, id)
	} else {
		m.chosen = append(m.chosen, id)
	}
}

// deletePlaylist удаляет активный плейлист вместе с его файлом на диске
func (m *Model) deletePlaylist() {
	name := m.view.ActivePlaylist()
	if name == "" {
		return
	}
	m.store.Delete(name)
	m.view.ResetPlaylist()
	m.view.EnsureSelection()
}

// submitPlaylist проверяет ввод и создает новый плейлист.
// Ошибки валидации показываются прямо в попапе.
func (m *Model) submitPlaylist() {
	name := strings.TrimSpace(m.nameInput.Value())

	if err := m.store.Create(name, m.chosen); err != nil {
		m.inputErr = describeCreateError(err)
		return
	}

	m.showInput = false
	m.inputErr = ""
	m.nameInput.SetValue("")
	m.chosen = nil
}

// describeCreateError переводит ошибки валидации в точное сообщение:
// упоминается ровно то, чего не хватает
func describeCreateError(err error) string {
	emptyName := errors.Is(err, playlist.ErrEmptyName)
	noTracks := errors.Is(err, playlist.ErrNoTracks)

	switch {
	case emptyName && noTracks:
		return "Нужны название и хотя бы один трек (Ctrl+A)"
	case emptyName:
		return "Введите название плейлиста"
	case noTracks:
		return "Выберите хотя бы один трек (Ctrl+A)"
	default:
		return err.Error()
	}
}

// waitForTick ожидает следующий тик сессии.
// За одну итерацию цикла обрабатывается не более одного тика.
func (m *Model) waitForTick() tea.Cmd {
	return func() tea.Msg {
		<-m.session.Ticks()
		return tickMsg{}
	}
}

// trackViewport возвращает количество видимых строк списка треков
func (m *Model) trackViewport() int {
	vp := m.height - 12
	if vp < 1 {
		vp = 1
	}
	return vp
}

// View отображает интерфейс
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	if m.showHelp {
		return m.helpView()
	}

	if m.showInput {
		return m.inputView()
	}

	return m.browserView()
}

// browserView отображает основной экран: поиск, списки и строку состояния
func (m *Model) browserView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎵 go-rhythm"))
	b.WriteString("\n")
	b.WriteString(searchStyle.Render(fmt.Sprintf("Поиск (%s): %s▌", m.view.Field(), m.view.SearchText())))
	b.WriteString("\n")

	left := m.songListView()
	right := lipgloss.JoinVertical(lipgloss.Left, m.playlistView(), m.detailsView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n")

	b.WriteString(m.statusView())
	return b.String()
}

// songListView отображает видимое окно списка треков
func (m *Model) songListView() string {
	visible := m.view.Visible()
	selectedID, hasSelection := m.view.SelectedID()

	header := paneTitleStyle.Render(fmt.Sprintf("Треки (%d) — сортировка: %s", len(visible), m.view.SortKey()))

	vp := m.trackViewport()
	offset := m.view.TrackOffset()

	var rows []string
	for i := offset; i < len(visible) && i < offset+vp; i++ {
		track := visible[i]

		marker := " "
		if track.IsPlaying {
			marker = "♪"
		}
		chosenMark := " "
		if lo.Contains(m.chosen, track.ID) {
			chosenMark = "+"
		}

		row := fmt.Sprintf("%s%s %-40s %-24s %s",
			marker,
			chosenMark,
			utils.TruncateString(track.Title, 40),
			utils.TruncateString(track.Artist, 24),
			utils.FormatDuration(track.Duration))

		switch {
		case hasSelection && track.ID == selectedID:
			rows = append(rows, selectedItemStyle.Render("> "+row))
		case track.IsPlaying:
			rows = append(rows, playingItemStyle.Render("  "+row))
		default:
			rows = append(rows, itemStyle.Render(row))
		}
	}

	if len(rows) == 0 {
		rows = append(rows, itemStyle.Render("Ничего не найдено"))
	}

	return header + "\n" + strings.Join(rows, "\n")
}

// playlistView отображает видимое окно списка плейлистов
func (m *Model) playlistView() string {
	names := m.store.Names()
	offset := m.view.PlaylistOffset()

	var rows []string
	for i := offset; i < len(names) && i < offset+playlistViewport; i++ {
		if i == m.view.PlaylistIndex() {
			rows = append(rows, selectedItemStyle.Render("> "+names[i]))
		} else {
			rows = append(rows, itemStyle.Render(names[i]))
		}
	}

	return paneTitleStyle.Render("Плейлисты") + "\n" + strings.Join(rows, "\n")
}

// detailsView отображает сведения о выбранном треке
func (m *Model) detailsView() string {
	header := paneTitleStyle.Render("Выбранный трек")

	id, ok := m.view.SelectedID()
	if !ok {
		return header + "\n" + detailsStyle.Render("Трек не выбран")
	}
	track, found := m.catalog.ByID(id)
	if !found {
		return header + "\n" + detailsStyle.Render("Трек не выбран")
	}

	details := fmt.Sprintf(
		"🎤 %s\n🎵 %s\n💿 %s\n⏱  %s",
		utils.TruncateString(track.Artist, 28),
		utils.TruncateString(track.Title, 28),
		utils.TruncateString(track.Album, 28),
		utils.FormatDuration(track.Duration),
	)
	return header + "\n" + detailsStyle.Render(details)
}

// statusView отображает прогресс, громкость и подсказку
func (m *Model) statusView() string {
	status := m.session.Status()

	var state string
	switch {
	case status.IsPlaying:
		state = "▶️"
	case status.IsPaused:
		state = "⏸️"
	default:
		state = "⏹️"
	}

	timeText := fmt.Sprintf("%s / %s",
		utils.FormatDuration(status.Elapsed),
		utils.FormatDuration(status.Duration))

	volume := fmt.Sprintf("Громкость: %3.0f%%", m.session.Volume()*100)
	if m.session.Volume() == 0 {
		volume = "Громкость: 🔇"
	}

	repeat := ""
	if m.session.Repeat() {
		repeat = " 🔁"
	}

	line := fmt.Sprintf("%s %s  %s  %s%s", state, m.progressBar.View(), timeText, volume, repeat)

	if m.playbackErr != "" {
		line += "\n" + errorStyle.Render("Ошибка воспроизведения: "+m.playbackErr)
	}

	return statusStyle.Render(line) + "\n" + helpStyle.Render("F1: управление • Ctrl+C: выход")
}

// inputView отображает попап ввода названия нового плейлиста
func (m *Model) inputView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Новый плейлист"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Выбрано треков: %d\n\n", len(m.chosen)))
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")

	if m.inputErr != "" {
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("Enter: создать • Esc: отмена"))
	return b.String()
}

// helpView отображает справку по клавишам
func (m *Model) helpView() string {
	help := `Управление

- Стрелки вверх/вниз: навигация по трекам
- Ctrl+Пробел: запустить/остановить трек
- Ctrl+P: пауза/возобновление
- Ctrl+M: выключить/включить звук
- Ctrl+S: сменить поле поиска
- Ctrl+T: сменить сортировку
- Ctrl+стрелки влево/вправо: громкость
- Ctrl+L: следующий трек
- Ctrl+H: предыдущий трек
- Стрелка влево: -5 секунд
- Стрелка вправо: +5 секунд
- Backspace: удалить символ поиска
- Ctrl+A: выбрать трек для нового плейлиста
- Ctrl+N: ввод названия нового плейлиста
- Ctrl+K: плейлист выше
- Ctrl+J: плейлист ниже
- Enter: создать плейлист с введенным названием
- Ctrl+X: удалить выбранный плейлист
- Ctrl+R: повтор трека
- F1: показать/скрыть справку
- Esc: закрыть попап`

	return titleStyle.Render("🎵 go-rhythm") + "\n\n" + help + "\n\n" +
		helpStyle.Render("Esc или F1: закрыть")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
