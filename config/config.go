package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	// TokenTTLHours controls how long issued JWTs stay valid.
	TokenTTLHours int

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis for revoked tokens and the geocoding lookup cache
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	RateLimitPerMinute int
	AllowedOrigins     []string

	// Gin framework configuration
	GinMode string
	GinPath string

	// Media storage for post images
	MediaRoot string
	MediaURL  string
	// MaxImageSizeMB caps a single uploaded image payload.
	MaxImageSizeMB int

	// Geocoding collaborator (Nominatim-compatible)
	GeocoderEnabled    bool
	GeocoderBaseURL    string
	GeocoderUserAgent  string
	GeocoderTimeoutSec int

	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration from environment variables. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func loadJSONConfig(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	setString := func(key string, dst *string) {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}

	setString("app_port", &out.AppPort)
	setString("jwt_secret", &out.JWTSecret)
	setInt("token_ttl_hours", &out.TokenTTLHours)
	setString("database_uri", &out.DatabaseURI)
	setString("db_host", &out.DBHost)
	setString("db_port", &out.DBPort)
	setString("db_user", &out.DBUser)
	setString("db_password", &out.DBPassword)
	setString("db_name", &out.DBName)
	setString("redis_host", &out.RedisHost)
	setInt("redis_port", &out.RedisPort)
	setInt("redis_db", &out.RedisDB)
	setString("redis_password", &out.RedisPassword)
	setInt("rate_limit_per_minute", &out.RateLimitPerMinute)
	setString("gin_mode", &out.GinMode)
	setString("gin_path", &out.GinPath)
	setString("media_root", &out.MediaRoot)
	setString("media_url", &out.MediaURL)
	setInt("max_image_size_mb", &out.MaxImageSizeMB)
	setBool("geocoder_enabled", &out.GeocoderEnabled)
	setString("geocoder_base_url", &out.GeocoderBaseURL)
	setString("geocoder_user_agent", &out.GeocoderUserAgent)
	setInt("geocoder_timeout_sec", &out.GeocoderTimeoutSec)
	setString("log_level", &out.LogLevel)
	setString("log_path", &out.LogPath)
	setInt("log_max_size_mb", &out.LogMaxSizeMB)
	setInt("log_max_backups", &out.LogMaxBackups)
	setInt("log_max_age_days", &out.LogMaxAgeDays)
	setBool("log_compress", &out.LogCompress)

	if v, ok := raw["allowed_origins"]; ok {
		_ = json.Unmarshal(v, &out.AllowedOrigins)
	}
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.TokenTTLHours <= 0 {
		c.TokenTTLHours = 72
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "shotline"
	}
	if c.DBName == "" {
		c.DBName = "shotline"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/access.log"
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.MediaURL == "" {
		c.MediaURL = "/media"
	}
	if c.MaxImageSizeMB <= 0 {
		c.MaxImageSizeMB = 10
	}
	if c.GeocoderBaseURL == "" {
		c.GeocoderBaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.GeocoderUserAgent == "" {
		c.GeocoderUserAgent = "shotline/1.0 (+https://github.com/Kirill-Khudyakov/shotline)"
	}
	if c.GeocoderTimeoutSec <= 0 {
		c.GeocoderTimeoutSec = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/shotline.log"
	}
}

func applyEnvOverrides(c *AppConfig) {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		c.TokenTTLHours = mustParseInt(v)
	}
	c.DatabaseURI = getEnv("DATABASE_URI", c.DatabaseURI)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.GinPath = getEnv("GIN_PATH", c.GinPath)
	c.MediaRoot = getEnv("MEDIA_ROOT", c.MediaRoot)
	c.MediaURL = getEnv("MEDIA_URL", c.MediaURL)
	if v := os.Getenv("MAX_IMAGE_SIZE_MB"); v != "" {
		c.MaxImageSizeMB = mustParseInt(v)
	}
	if v := os.Getenv("GEOCODER_ENABLED"); v != "" {
		c.GeocoderEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	c.GeocoderBaseURL = getEnv("GEOCODER_BASE_URL", c.GeocoderBaseURL)
	c.GeocoderUserAgent = getEnv("GEOCODER_USER_AGENT", c.GeocoderUserAgent)
	if v := os.Getenv("GEOCODER_TIMEOUT_SEC"); v != "" {
		c.GeocoderTimeoutSec = mustParseInt(v)
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPath = getEnv("LOG_PATH", c.LogPath)
	if v := os.Getenv("LOG_MAX_SIZE_MB"); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := os.Getenv("LOG_MAX_BACKUPS"); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := os.Getenv("LOG_MAX_AGE_DAYS"); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = strings.EqualFold(v, "true") || v == "1"
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func mustParseInt(val string) int {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		log.Fatalf("invalid integer value %q", val)
	}
	return n
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
