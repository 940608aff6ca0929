package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
)

// EnvPrefix prefixes every settings environment variable.
const EnvPrefix = "BATTLECODE_"

// Settings configure the server process.
type Settings struct {
	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR"`
	TCPAddr  string `yaml:"tcp_addr" env:"TCP_ADDR"`
	MapDir   string `yaml:"map_dir" env:"MAP_DIR"`

	// DefaultMap is used for pickup lobbies and create_game without a map.
	DefaultMap string `yaml:"default_map" env:"DEFAULT_MAP"`

	TurnTimeout time.Duration `yaml:"turn_timeout" env:"TURN_TIMEOUT"`
	MaxTurns    int           `yaml:"max_turns" env:"MAX_TURNS"`
	Debug       bool          `yaml:"debug" env:"DEBUG"`

	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`
	GameRetention   time.Duration `yaml:"game_retention" env:"GAME_RETENTION"`

	NgrokDomain    string `yaml:"ngrok_domain" env:"NGROK_DOMAIN"`
	NgrokAuthtoken string `yaml:"-" env:"NGROK_AUTHTOKEN"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		HTTPAddr:        ":8080",
		TCPAddr:         ":6147",
		MapDir:          "maps",
		TurnTimeout:     2 * time.Second,
		MaxTurns:        1000,
		CleanupInterval: 5 * time.Minute,
		GameRetention:   30 * time.Minute,
	}
}

// LoadSettings layers the built-in defaults, an optional YAML file and
// BATTLECODE_* environment variables, in that order. A .env file in the
// working directory is loaded first when present.
func LoadSettings(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	switch {
	case s.HTTPAddr == "" && s.TCPAddr == "":
		return errors.New("settings: at least one of http_addr and tcp_addr is required")
	case s.MapDir == "":
		return errors.New("settings: map_dir is required")
	case s.TurnTimeout < 0:
		return fmt.Errorf("settings: turn_timeout must not be negative, got %v", s.TurnTimeout)
	case s.MaxTurns < 0:
		return fmt.Errorf("settings: max_turns must not be negative, got %d", s.MaxTurns)
	case s.GameRetention < 0 || s.CleanupInterval < 0:
		return errors.New("settings: cleanup durations must not be negative")
	}
	return nil
}

// MatchOptions returns the defaults applied to hosted games.
func (s *Settings) MatchOptions() service.MatchOptions {
	return service.MatchOptions{
		Timeout:  s.TurnTimeout,
		MaxTurns: s.MaxTurns,
		Debug:    s.Debug,
	}
}
