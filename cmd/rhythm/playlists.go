package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-rhythm/internal/utils"
)

// createPlaylistsCommand создает команду playlists с привязкой к экземпляру приложения
func (app *Application) createPlaylistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "playlists",
		Short: "List all stored playlists",
		Long:  `Display the names of all stored playlists and their tracks.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listPlaylists()
		},
	}
}

func (app *Application) listPlaylists() {
	names := app.Store.Names()

	fmt.Printf("📚 Найдено плейлистов: %d\n\n", len(names))

	for _, name := range names {
		ids, _ := app.Store.Get(name)
		fmt.Printf("▸ %s (%d)\n", name, len(ids))

		for _, id := range ids {
			track, ok := app.Catalog.ByID(id)
			if !ok {
				// Трек из плейлиста отсутствует в каталоге этого запуска
				fmt.Printf("    ? %s\n", id)
				continue
			}
			fmt.Printf("    %s — %s\n",
				utils.TruncateString(track.Artist, 28),
				utils.TruncateString(track.Title, 40))
		}
		fmt.Println()
	}
}
