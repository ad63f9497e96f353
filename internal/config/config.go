package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
// It is built once in main and handed to the components that need it.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Geocode  GeocodeConfig
	Mail     MailConfig
	Notify   NotifyConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8000" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"shareplate-api"`
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // admin stats key
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	File       string `envconfig:"LOG_FILE" default:""`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100" validate:"min=1"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5" validate:"min=0"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28" validate:"min=0"`
}

// DatabaseConfig selects and configures the store backend.
type DatabaseConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite" validate:"oneof=sqlite postgres postgresql mysql mongodb mongo"`
	Path     string `envconfig:"DB_PATH" default:"./data/shareplate.db"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"shareplate"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:""`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"25" validate:"min=1"`
	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"10" validate:"min=0"`

	MongoURI string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
}

// CacheConfig selects the token cache.
type CacheConfig struct {
	Type          string `envconfig:"CACHE_TYPE" default:"memory" validate:"oneof=memory redis"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix     string `envconfig:"CACHE_KEY_PREFIX" default:"shareplate:"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	TokenTTL          time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"720h" validate:"gt=0"`
	MinPasswordLength int           `envconfig:"AUTH_MIN_PASSWORD_LENGTH" default:"8" validate:"min=1"`
	BcryptCost        int           `envconfig:"AUTH_BCRYPT_COST" default:"10" validate:"min=4,max=31"`
}

// GeocodeConfig configures the Nominatim client.
type GeocodeConfig struct {
	Enabled   bool          `envconfig:"GEOCODE_ENABLED" default:"true"`
	BaseURL   string        `envconfig:"GEOCODE_BASE_URL" default:"https://nominatim.openstreetmap.org" validate:"omitempty,url"`
	UserAgent string        `envconfig:"GEOCODE_USER_AGENT" default:"shareplate_backend/1.0"`
	Timeout   time.Duration `envconfig:"GEOCODE_TIMEOUT" default:"10s" validate:"gt=0"`
}

// MailConfig configures outgoing email. An empty Host selects the log mailer.
type MailConfig struct {
	Host     string `envconfig:"EMAIL_HOST" default:""`
	Port     int    `envconfig:"EMAIL_PORT" default:"587"`
	Username string `envconfig:"EMAIL_HOST_USER" default:""`
	Password string `envconfig:"EMAIL_HOST_PASSWORD" default:""`
	UseTLS   bool   `envconfig:"EMAIL_USE_TLS" default:"true"`
	From     string `envconfig:"DEFAULT_FROM_EMAIL" default:"noreply@shareplate.local"`
}

// NotifyConfig bounds volunteer notifications.
type NotifyConfig struct {
	Enabled bool          `envconfig:"NOTIFY_ENABLED" default:"true"`
	Timeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"30s" validate:"gt=0"`
}

// CORSConfig holds allowed origins.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8080,http://localhost:3000,http://127.0.0.1:8080,http://localhost:5173"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Driver normalises Type into the name used by the repository layer.
func (d *DatabaseConfig) Driver() string {
	switch strings.ToLower(d.Type) {
	case "postgres", "postgresql":
		return "postgres"
	case "mysql":
		return "mysql"
	case "mongodb", "mongo":
		return "mongodb"
	default:
		return "sqlite"
	}
}

// DSN returns the connection string for the configured SQL backend.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver() {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:     d.Name,
			RawQuery: "sslmode=" + d.SSLMode,
		}
		return u.String()
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true",
			d.User, d.Password, d.Host, d.Port, d.Name)
	default:
		return d.Path
	}
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development" || a.Environment == "test"
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
