package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hazadus/go-rhythm/internal/catalog"
	"github.com/hazadus/go-rhythm/internal/config"
	"github.com/hazadus/go-rhythm/internal/playlist"
)

const defaultConfigPath = "~/.rhythm"

// Application хранит зависимости, общие для всех команд приложения
type Application struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Store   *playlist.Store
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Сканируем музыкальную папку и восстанавливаем плейлисты.
	// Служебный плейлист со всеми треками пересоздается при каждом запуске.
	app := &Application{Config: cfg}
	app.Catalog = catalog.Scan(cfg.MusicDir)
	app.Store = playlist.NewStore(cfg.PlaylistsDir)
	app.Store.Restore()
	app.Store.SetAllSongs(app.Catalog.IDs())

	rootCmd := app.createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
