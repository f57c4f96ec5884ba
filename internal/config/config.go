package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported station store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Geocoder GeocoderConfig
	Search   SearchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	RequestTimeout time.Duration
}

// StoreConfig selects and bounds the station store.
type StoreConfig struct {
	Driver  string
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// GeocoderConfig holds the place-name lookup settings.
type GeocoderConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// SearchConfig holds nearby-search defaults.
type SearchConfig struct {
	DefaultRadiusKm int
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "chargemap")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "ev_charger_finder")
	v.SetDefault("GEOCODER_TIMEOUT", "10s")
	v.SetDefault("GEOCODER_CACHE_SIZE", 1000)
	v.SetDefault("GEOCODER_CACHE_TTL", "24h")
	v.SetDefault("SEARCH_DEFAULT_RADIUS_KM", 10)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver:  strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			Timeout: v.GetDuration("STORE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Geocoder: GeocoderConfig{
			URL:       strings.TrimRight(v.GetString("GEOCODER_URL"), "/"),
			UserAgent: v.GetString("GEOCODER_USER_AGENT"),
			Timeout:   v.GetDuration("GEOCODER_TIMEOUT"),
			CacheSize: v.GetInt("GEOCODER_CACHE_SIZE"),
			CacheTTL:  v.GetDuration("GEOCODER_CACHE_TTL"),
		},
		Search: SearchConfig{
			DefaultRadiusKm: v.GetInt("SEARCH_DEFAULT_RADIUS_KM"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q",
			StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Geocoder.URL == "" {
		return fmt.Errorf("GEOCODER_URL is required")
	}
	if c.Geocoder.UserAgent == "" {
		return fmt.Errorf("GEOCODER_USER_AGENT is required")
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}
	if c.Geocoder.CacheSize < 0 {
		return fmt.Errorf("GEOCODER_CACHE_SIZE must be non-negative")
	}

	if c.Search.DefaultRadiusKm < 1 || c.Search.DefaultRadiusKm > 100 {
		return fmt.Errorf("SEARCH_DEFAULT_RADIUS_KM must be between 1 and 100")
	}

	return nil
}

// Validate checks the PostgreSQL settings used by the postgres store driver.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
