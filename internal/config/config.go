// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	MusicDir     string `yaml:"music_dir"`     // Папка с музыкой
	PlaylistsDir string `yaml:"playlists_dir"` // Папка с сохраненными плейлистами
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не считается ошибкой: в этом случае возвращается
// конфигурация со значениями по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	if config.MusicDir == "" {
		config.MusicDir = defaultMusicDir(home)
	}
	if config.PlaylistsDir == "" {
		config.PlaylistsDir = filepath.Join(home, ".config", "rhythm")
	}

	// Раскрываем тильду в путях
	config.MusicDir = strings.Replace(config.MusicDir, "~", home, 1)
	config.PlaylistsDir = strings.Replace(config.PlaylistsDir, "~", home, 1)

	return config, nil
}

// defaultMusicDir возвращает ~/Music, а если такой папки нет —
// текущую рабочую папку
func defaultMusicDir(home string) string {
	musicDir := filepath.Join(home, "Music")
	if info, err := os.Stat(musicDir); err == nil && info.IsDir() {
		return musicDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return musicDir
}
