package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"taggivm/internal/config"
)

// Environment variables read by GetDefaults and LoadConfig.
const (
	EnvConfigPath   = "TAGGIVM_CONFIG_PATH"
	EnvHome         = "TAGGIVM_HOME"
	EnvMusicDir     = "MUSIC_LIBRARY_PATH"
	EnvDatabasePath = "DATABASE_PATH"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - TAGGIVM_CONFIG_PATH: config file location (default: ~/.config/taggivm.toml)
//   - TAGGIVM_HOME: base directory for taggivm data (default: ~/.local/share/taggivm)
//   - MUSIC_LIBRARY_PATH: library root (default: ~/music)
//   - DATABASE_PATH: catalog database (default: <base_dir>/music.db)
func GetDefaults() (map[string]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath := envOr(EnvConfigPath, filepath.Join(homeDir, ".config", "taggivm.toml"))
	baseDir := envOr(EnvHome, filepath.Join(homeDir, ".local", "share", "taggivm"))

	return map[string]string{
		"config_path":   configPath,
		"base_dir":      baseDir,
		"log_dir":       filepath.Join(baseDir, "log"),
		"music_dir":     envOr(EnvMusicDir, filepath.Join(homeDir, "music")),
		"database_path": envOr(EnvDatabasePath, filepath.Join(baseDir, "music.db")),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadConfig reads the config file named by the defaults. Without a config
// file the defaults alone are used. MUSIC_LIBRARY_PATH and DATABASE_PATH, when
// set, override the file. The result is validated.
func LoadConfig() (*config.Config, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.NewConfig(defaults["music_dir"], defaults["base_dir"])
		cfg.Database.Path = defaults["database_path"]
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if v := os.Getenv(EnvMusicDir); v != "" {
		cfg.MusicDir = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.Database.Type = "sqlite"
		cfg.Database.Path = v
	}
	if cfg.MarkerName == "" {
		cfg.MarkerName = config.DefaultMarkerName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", defaults["config_path"], err)
	}
	return cfg, nil
}
