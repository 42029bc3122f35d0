package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-rhythm/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the music directory",
		Long:  `Display a list of all tracks found in the configured music directory.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listTracks()
		},
	}
}

func (app *Application) listTracks() {
	tracks := app.Catalog.Tracks()

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))

	// Выводим заголовок таблицы
	fmt.Printf("%-40s %-30s %-24s %s\n",
		"Название", "Исполнитель", "Альбом", "Длительность")
	fmt.Println(strings.Repeat("-", 104))

	// Выводим каждый трек
	for _, track := range tracks {
		// Неизвестная длительность показывается как N/A
		duration := utils.FormatDuration(track.Duration)
		if track.Duration == 0 {
			duration = "N/A"
		}

		fmt.Printf("%-40s %-30s %-24s %s\n",
			utils.TruncateString(track.Title, 38),
			utils.TruncateString(track.Artist, 28),
			utils.TruncateString(track.Album, 22),
			duration)
	}

	fmt.Println()
	fmt.Println("💡 Запустите 'rhythm' без аргументов для интерактивного плеера")
}
