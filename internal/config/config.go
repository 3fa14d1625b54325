// Package config loads nav-edge settings: defaults, then an optional YAML
// file, then environment variables, validated with struct tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "navedge.yml"

type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lt=65536"`
}

type RedisConfig struct {
	Addr              string `yaml:"addr" validate:"required,hostname_port"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db" validate:"gte=0"`
	IdempotencyTTLSec int    `yaml:"idempotencyTTLSec" validate:"gt=0"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" validate:"required"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps" validate:"gt=0"`
	Burst int `yaml:"burst" validate:"gte=0"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

type MapConfig struct {
	InitialLat  float64 `yaml:"initialLat" validate:"gte=-90,lte=90"`
	InitialLng  float64 `yaml:"initialLng" validate:"gte=-180,lte=180"`
	InitialZoom int     `yaml:"initialZoom" validate:"gte=0,lte=22"`
	Channel     string  `yaml:"channel" validate:"required"`
	Codec       string  `yaml:"codec" validate:"oneof=json msgpack"`
}

type LocationConfig struct {
	GpsdAddr        string  `yaml:"gpsdAddr" validate:"omitempty,hostname_port"`
	IPLookupURL     string  `yaml:"ipLookupURL" validate:"omitempty,url"`
	MaxAccuracyM    float64 `yaml:"maxAccuracyM" validate:"gt=0"`
	DeriveHeading   bool    `yaml:"deriveHeading"`
	MinCourseMeters float64 `yaml:"minCourseMeters" validate:"gte=0"`
}

type RoutingConfig struct {
	Provider    string `yaml:"provider" validate:"oneof=google osrm"`
	GoogleURL   string `yaml:"googleURL" validate:"omitempty,url"`
	OSRMBaseURL string `yaml:"osrmBaseURL" validate:"omitempty,url"`
	TimeoutMS   int    `yaml:"timeoutMS" validate:"gte=0"`
}

type PlacesConfig struct {
	BaseURL     string `yaml:"baseURL" validate:"omitempty,url"`
	MaxResults  int    `yaml:"maxResults" validate:"gte=1,lte=20"`
	Language    string `yaml:"language"`
	CacheSize   int    `yaml:"cacheSize" validate:"gte=0"`
	CacheTTLSec int    `yaml:"cacheTTLSec" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Log       LogConfig       `yaml:"log"`
	Map       MapConfig       `yaml:"map"`
	Location  LocationConfig  `yaml:"location"`
	Routing   RoutingConfig   `yaml:"routing"`
	Places    PlacesConfig    `yaml:"places"`
	// GoogleAPIKey is shared by directions and places.
	GoogleAPIKey string `yaml:"googleAPIKey"`
}

func (c AppConfig) RoutingTimeout() time.Duration {
	return time.Duration(c.Routing.TimeoutMS) * time.Millisecond
}

func (c AppConfig) IdempotencyTTL() time.Duration {
	return time.Duration(c.Redis.IdempotencyTTLSec) * time.Second
}

func Defaults() AppConfig {
	return AppConfig{
		Server:    ServerConfig{Port: 8080},
		Redis:     RedisConfig{Addr: "localhost:6379", IdempotencyTTLSec: 3600},
		RateLimit: RateLimitConfig{RPS: 2, Burst: 4},
		Log:       LogConfig{Level: "info"},
		Map: MapConfig{
			InitialLat:  40.758,
			InitialLng:  -73.9855,
			InitialZoom: 18,
			Channel:     "navedge:map",
			Codec:       "json",
		},
		Location: LocationConfig{MaxAccuracyM: 50, MinCourseMeters: 3},
		Routing:  RoutingConfig{Provider: "google", TimeoutMS: 10000},
		Places:   PlacesConfig{MaxResults: 8, Language: "en", CacheSize: 64, CacheTTLSec: 600},
	}
}

// Load reads path (a missing file is fine), applies environment overrides
// and validates the result.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("%s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return AppConfig{}, err
	}
	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Routing.Provider == "osrm" && cfg.Routing.OSRMBaseURL == "" {
		return AppConfig{}, errors.New("config: routing.osrmBaseURL required for the osrm provider")
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	cfg.Server.Port = envInt("PORT", cfg.Server.Port)
	cfg.Redis.Addr = env("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = env("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.IdempotencyTTLSec = envInt("IDEMPOTENCY_TTL_SEC", cfg.Redis.IdempotencyTTLSec)
	cfg.Auth.JWTSecret = env("JWT_HS256_SECRET", cfg.Auth.JWTSecret)
	cfg.RateLimit.RPS = envInt("RATE_LIMIT_RPS", cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.Log.Level = env("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = env("LOG_FILE", cfg.Log.File)
	cfg.Map.Channel = env("MAP_CHANNEL", cfg.Map.Channel)
	cfg.Map.Codec = env("MAP_CODEC", cfg.Map.Codec)
	cfg.Location.GpsdAddr = env("GPSD_ADDR", cfg.Location.GpsdAddr)
	cfg.Location.IPLookupURL = env("IP_LOOKUP_URL", cfg.Location.IPLookupURL)
	cfg.Location.MaxAccuracyM = envFloat("MAX_ACCURACY_M", cfg.Location.MaxAccuracyM)
	cfg.Routing.Provider = env("ROUTING_PROVIDER", cfg.Routing.Provider)
	cfg.Routing.OSRMBaseURL = env("OSRM_BASE_URL", cfg.Routing.OSRMBaseURL)
	cfg.GoogleAPIKey = env("GOOGLE_MAPS_API_KEY", cfg.GoogleAPIKey)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
