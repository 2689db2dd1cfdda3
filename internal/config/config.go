package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrLocationUnavailable is returned when neither the request nor the saved
// settings carry coordinates.
var ErrLocationUnavailable = errors.New("location unavailable")

// Config holds environment-based settings
type Config struct {
	AppEnv         string
	LogLevel       string
	ServerAddress  string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string

	AladhanBaseURL string
	HTTPTimeout    time.Duration

	JWTSecret         string
	AdminPasswordHash string

	UploadDir       string
	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string

	HadithDataPath   string
	DefaultLatitude  *float64
	DefaultLongitude *float64
	Timezone         *time.Location
}

// Load reads configuration from environment variables, after seeding them
// from envFiles (".env" when none are given). Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("loading %s: %w", f, err)
			}
		}
	}

	cfg := &Config{
		AppEnv:         getenv("APP_ENV", "production"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:  getenv("MQTT_CLIENT_ID", "salah-server"),
		MQTTTopic:     getenv("MQTT_TOPIC", "salah/alerts"),

		AladhanBaseURL: getenv("ALADHAN_BASE_URL", "https://api.aladhan.com/v1"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		UploadDir:       getenv("UPLOAD_DIR", "./uploads"),
		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),

		HadithDataPath: os.Getenv("HADITH_DATA_PATH"),
	}

	timeout, err := time.ParseDuration(getenv("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if cfg.DefaultLatitude, err = optionalFloat("DEFAULT_LATITUDE", -90, 90); err != nil {
		return nil, err
	}
	if cfg.DefaultLongitude, err = optionalFloat("DEFAULT_LONGITUDE", -180, 180); err != nil {
		return nil, err
	}

	cfg.Timezone, err = time.LoadLocation(getenv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	if cfg.UseSpaces && (cfg.SpacesBucket == "" || cfg.SpacesEndpoint == "") {
		return nil, fmt.Errorf("SPACES_BUCKET and SPACES_ENDPOINT are required when USE_SPACES=true")
	}
	return cfg, nil
}

// Development reports whether APP_ENV selects human-readable output.
func (c *Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// AdminEnabled reports whether the admin routes can authenticate anyone.
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func optionalFloat(key string, min, max float64) (*float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("%s out of range: %v", key, v)
	}
	return &v, nil
}
