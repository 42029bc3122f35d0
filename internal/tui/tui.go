// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-rhythm/internal/catalog"
	"github.com/hazadus/go-rhythm/internal/playlist"
	"github.com/hazadus/go-rhythm/internal/session"
	"github.com/hazadus/go-rhythm/internal/tui/app"
	"github.com/hazadus/go-rhythm/internal/view"
)

// App представляет основное TUI приложение
type App struct {
	model *app.Model
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(cat *catalog.Catalog, store *playlist.Store, vm *view.Model, sess *session.Session, saveFunc func() error) *App {
	return &App{
		model: app.NewModel(cat, store, vm, sess, saveFunc),
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	// Создаем программу Bubble Tea
	p := tea.NewProgram(tuiApp.model, tea.WithAltScreen())

	// Запускаем программу
	_, err := p.Run()

	// Закрываем сессию воспроизведения после завершения программы
	tuiApp.model.Close()

	return err
}
