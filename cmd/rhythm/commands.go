package main

import (
	"github.com/spf13/cobra"

	"github.com/hazadus/go-rhythm/internal/audio"
	"github.com/hazadus/go-rhythm/internal/session"
	"github.com/hazadus/go-rhythm/internal/tui"
	"github.com/hazadus/go-rhythm/internal/view"
)

// createRootCommand создает корневую команду с настроенными подкомандами.
// Запуск без аргументов открывает интерактивный плеер.
func (app *Application) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rhythm",
		Short: "A terminal music player",
		Long:  `A terminal music player: browse, search, sort and play local audio files, organized into playlists.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.runPlayer()
		},
	}

	rootCmd.AddCommand(app.createListCommand())
	rootCmd.AddCommand(app.createPlaylistsCommand())

	return rootCmd
}

// runPlayer собирает сессию воспроизведения и запускает интерактивный цикл.
// При выходе плейлисты сохраняются; неудача сохранения не считается ошибкой.
func (app *Application) runPlayer() error {
	sink := audio.NewOutput()
	sess := session.NewSession(sink, app.Catalog)
	vm := view.NewModel(app.Catalog, app.Store)

	saveFunc := func() error {
		return app.Store.Persist(app.Catalog)
	}

	tuiApp := tui.NewApp(app.Catalog, app.Store, vm, sess, saveFunc)
	return tuiApp.Run()
}
