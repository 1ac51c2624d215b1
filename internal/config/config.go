package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	DBDriver      string `mapstructure:"DB_DRIVER"`
	DBSource      string `mapstructure:"DB_SOURCE"`

	MapillaryAccessToken string `mapstructure:"MAPILLARY_ACCESS_TOKEN"`
	MapillaryBaseURL     string `mapstructure:"MAPILLARY_BASE_URL"`
	MapillaryLimit       int    `mapstructure:"MAPILLARY_LIMIT"`

	MapboxAccessToken string `mapstructure:"MAPBOX_ACCESS_TOKEN"`
	MapboxBaseURL     string `mapstructure:"MAPBOX_BASE_URL"`
	MapboxStyle       string `mapstructure:"MAPBOX_STYLE"`
	MapboxSampleCount int    `mapstructure:"MAPBOX_SAMPLE_COUNT"`
	MapboxZoom        int    `mapstructure:"MAPBOX_ZOOM"`

	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	CacheMaxAge     time.Duration `mapstructure:"CACHE_MAX_AGE"`

	MaxRadiusKm     float64 `mapstructure:"MAX_RADIUS_KM"`
	DefaultRadiusKm float64 `mapstructure:"DEFAULT_RADIUS_KM"`
	DefaultLimit    int     `mapstructure:"DEFAULT_LIMIT"`
	MaxLimit        int     `mapstructure:"MAX_LIMIT"`

	RefreshWorkers   int           `mapstructure:"REFRESH_WORKERS"`
	RefreshQueueSize int           `mapstructure:"REFRESH_QUEUE_SIZE"`
	RefreshTimeout   time.Duration `mapstructure:"REFRESH_TIMEOUT"`

	SeedLatitude  float64 `mapstructure:"SEED_LATITUDE"`
	SeedLongitude float64 `mapstructure:"SEED_LONGITUDE"`

	ArchiveEndpoint  string `mapstructure:"ARCHIVE_ENDPOINT"`
	ArchiveAccessKey string `mapstructure:"ARCHIVE_ACCESS_KEY"`
	ArchiveSecretKey string `mapstructure:"ARCHIVE_SECRET_KEY"`
	ArchiveBucket    string `mapstructure:"ARCHIVE_BUCKET"`
	ArchiveUseSSL    bool   `mapstructure:"ARCHIVE_USE_SSL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":         ":8080",
	"DB_DRIVER":              "sqlite",
	"DB_SOURCE":              "file:imagery.db",
	"MAPILLARY_ACCESS_TOKEN": "",
	"MAPILLARY_BASE_URL":     "https://graph.mapillary.com",
	"MAPILLARY_LIMIT":        30,
	"MAPBOX_ACCESS_TOKEN":    "",
	"MAPBOX_BASE_URL":        "https://api.mapbox.com",
	"MAPBOX_STYLE":           "mapbox/streets-v12",
	"MAPBOX_SAMPLE_COUNT":    10,
	"MAPBOX_ZOOM":            17,
	"PROVIDER_TIMEOUT":       "5s",
	"CACHE_MAX_AGE":          "60m",
	"MAX_RADIUS_KM":          50.0,
	"DEFAULT_RADIUS_KM":      2.0,
	"DEFAULT_LIMIT":          50,
	"MAX_LIMIT":              500,
	"REFRESH_WORKERS":        4,
	"REFRESH_QUEUE_SIZE":     64,
	"REFRESH_TIMEOUT":        "30s",
	"SEED_LATITUDE":          50.82055797368375,
	"SEED_LONGITUDE":         4.402875123647935,
	"ARCHIVE_ENDPOINT":       "",
	"ARCHIVE_ACCESS_KEY":     "",
	"ARCHIVE_SECRET_KEY":     "",
	"ARCHIVE_BUCKET":         "imagery-refresh",
	"ARCHIVE_USE_SSL":        false,
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "console",
}

// LoadConfig reads configuration from app.env in path, overridden by environment variables.
// A .env file in the working directory is loaded into the environment first if present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("config: failed to read app.env: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: failed to decode: %w", err)
	}

	if config.DBDriver != "postgres" && config.DBDriver != "sqlite" {
		return config, fmt.Errorf("config: unsupported DB_DRIVER %q", config.DBDriver)
	}
	return config, nil
}
