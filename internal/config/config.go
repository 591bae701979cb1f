package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataPath    = "coffee.json"
	DefaultOutputPath  = "index.html"
	DefaultConfigPath  = "config.yaml"
	DefaultGeocoderURL = "https://geocode-maps.yandex.ru/1.x"
	DefaultServerAddr  = "0.0.0.0:8080"
	DefaultCount       = 5
)

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	APIKey     string
	DataPath   string
	OutputPath string
	ConfigPath string // Path to the YAML settings file
	DBPath     string // Empty disables lookup history
	LogLevel   string
}

// Settings holds tunables read from the YAML file.
type Settings struct {
	Count    int            `yaml:"count"`
	LogLevel string         `yaml:"log_level"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Map      MapConfig      `yaml:"map"`
	Server   ServerConfig   `yaml:"server"`
}

type GeocoderConfig struct {
	URL string `yaml:"url"`
}

type MapConfig struct {
	Zoom        int    `yaml:"zoom"`
	TileURL     string `yaml:"tile_url"`
	Attribution string `yaml:"attribution"`
	UserColor   string `yaml:"user_color"`
	ShopColor   string `yaml:"shop_color"`
	Labels      Labels `yaml:"labels"`
}

type Labels struct {
	YouAreHere string `yaml:"you_are_here"`
	Unit       string `yaml:"unit"`
	Separator  string `yaml:"separator"` // between shop name and distance in a popup
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultSettings returns the settings used when no YAML file is present.
func DefaultSettings() Settings {
	return Settings{
		Count:    DefaultCount,
		LogLevel: "info",
		Geocoder: GeocoderConfig{URL: DefaultGeocoderURL},
		Map: MapConfig{
			Zoom:        15,
			TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
			UserColor:   "red",
			ShopColor:   "blue",
			Labels: Labels{
				YouAreHere: "You are here",
				Unit:       "km",
				Separator:  ", ",
			},
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// GetAppConfig reads basic infrastructure settings from environment variables.
// A .env file in the working directory is loaded first if it exists; variables
// already present in the environment win.
func GetAppConfig() (AppConfig, error) {
	return GetAppConfigFrom(".env")
}

// GetAppConfigFrom is GetAppConfig with an explicit dotenv path.
func GetAppConfigFrom(envFile string) (AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := AppConfig{
		APIKey:     os.Getenv("API_KEY"),
		DataPath:   os.Getenv("DATA_PATH"),
		OutputPath: os.Getenv("OUTPUT_PATH"),
		ConfigPath: os.Getenv("CONFIG_PATH"),
		DBPath:     os.Getenv("DB_PATH"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}

	// Set defaults if not provided
	if cfg.DataPath == "" {
		cfg.DataPath = DefaultDataPath
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfigPath
	}

	return cfg, nil
}

// LoadSettings reads the YAML settings file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if cfg.Count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", cfg.Count)
	}
	return &cfg, nil
}
