package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultBoundariesURL = "https://raw.githubusercontent.com/chingchai/OpenGISData-Thailand/master/districts.geojson"
	// defaultStaticDir holds the bundled districts.json sample.
	defaultStaticDir = "data"
)

type Config struct {
	Server   ServerConfig
	Sources  SourcesConfig
	Province ProvinceConfig
	Map      MapConfig
	Sessions SessionConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string  `validate:"required"`
	Port         int     `validate:"min=1,max=65535"`
	RateLimitRPS float64 `validate:"gt=0"`
	StaticDir    string
}

type SourcesConfig struct {
	DistrictsURL    string `validate:"omitempty,source_url"`
	DistrictsDBPath string
	BoundariesURL   string `validate:"required,source_url"`
	FetchTimeout    time.Duration
	LocaleFile      string
}

type ProvinceConfig struct {
	Name           string `validate:"required"`
	DistrictPrefix string
	ProvinceField  string `validate:"required"`
	DistrictField  string `validate:"required"`
	StrictMatching bool
}

type MapConfig struct {
	CenterLat     float64 `validate:"min=-90,max=90"`
	CenterLng     float64 `validate:"min=-180,max=180"`
	Zoom          float64 `validate:"min=0,max=22"`
	FlyToZoom     float64 `validate:"min=0,max=22"`
	FlyToDuration time.Duration
}

type SessionConfig struct {
	IdleTTL        time.Duration
	LoadWorkers    int `validate:"min=1"`
	LoadQueueSize  int `validate:"min=1"`
	StyleCacheSize int `validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

func Load() (*Config, error) {
	host := getEnv("SERVER_HOST", "localhost")
	port := getEnvInt("SERVER_PORT", 8080)

	cfg := &Config{
		Server: ServerConfig{
			Host:         host,
			Port:         port,
			RateLimitRPS: getEnvFloat("RATE_LIMIT_RPS", 20),
			StaticDir:    getEnv("STATIC_DIR", defaultStaticDir),
		},
		Sources: SourcesConfig{
			// The default points at the server's own static /data route.
			DistrictsURL:    getEnv("DISTRICTS_URL", fmt.Sprintf("http://%s:%d/data/districts.json", host, port)),
			DistrictsDBPath: getEnv("DISTRICTS_DB_PATH", ""),
			BoundariesURL:   getEnv("BOUNDARIES_URL", defaultBoundariesURL),
			FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 0),
			LocaleFile:      getEnv("LOCALE_FILE", ""),
		},
		Province: ProvinceConfig{
			Name:           getEnv("PROVINCE_NAME", "ขอนแก่น"),
			DistrictPrefix: getEnv("DISTRICT_PREFIX", "อำเภอ"),
			ProvinceField:  getEnv("PROVINCE_FIELD", "pro_th"),
			DistrictField:  getEnv("DISTRICT_FIELD", "amp_th"),
			StrictMatching: getEnvBool("STRICT_MATCHING", true),
		},
		Map: MapConfig{
			CenterLat:     getEnvFloat("MAP_CENTER_LAT", 16.4419),
			CenterLng:     getEnvFloat("MAP_CENTER_LNG", 102.8360),
			Zoom:          getEnvFloat("MAP_ZOOM", 9),
			FlyToZoom:     getEnvFloat("FLY_TO_ZOOM", 11),
			FlyToDuration: getEnvDuration("FLY_TO_DURATION", 1500*time.Millisecond),
		},
		Sessions: SessionConfig{
			IdleTTL:        getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
			LoadWorkers:    getEnvInt("LOAD_WORKERS", 4),
			LoadQueueSize:  getEnvInt("LOAD_QUEUE_SIZE", 64),
			StyleCacheSize: getEnvInt("STYLE_CACHE_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) validate() error {
	v := validator.New()
	if err := v.RegisterValidation("source_url", isSourceURL); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Sources.DistrictsURL == "" && c.Sources.DistrictsDBPath == "" {
		return fmt.Errorf("one of DISTRICTS_URL or DISTRICTS_DB_PATH is required")
	}
	if c.Sources.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative")
	}
	if c.Map.FlyToDuration <= 0 {
		return fmt.Errorf("fly-to duration must be positive")
	}
	if c.Sessions.IdleTTL < 0 {
		return fmt.Errorf("session idle TTL must not be negative")
	}

	return nil
}

// isSourceURL accepts http(s) URLs with a host and file URLs with a path.
func isSourceURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
