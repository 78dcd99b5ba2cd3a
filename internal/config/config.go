package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Calendar CalendarConfig
	Maps     MapsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// Location decides which calendar day counts as "today" for routes.
	Location *time.Location
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AdminEmail            string
	AdminPassword         string
}

// StorageConfig locates the object store.
type StorageConfig struct {
	RootDir        string
	PublicBaseURL  string
	MaxUploadBytes int
}

// CalendarConfig holds OAuth client values for the external calendar.
type CalendarConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	CalendarID    string
	APIBaseURL    string
	AuthURL       string
	TokenURL      string
	LookaheadDays int
	MaxResults    int

	// SuccessRedirect is where the OAuth callback sends the browser; empty answers JSON.
	SuccessRedirect string
}

// MapsConfig holds the mapping service embed key.
type MapsConfig struct {
	EmbedAPIKey string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "field-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Location:              loc,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*12),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminEmail:            os.Getenv("AUTH_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
		},
		Storage: StorageConfig{
			RootDir:        getEnv("STORAGE_ROOT_DIR", "data/objects"),
			PublicBaseURL:  getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/files"),
			MaxUploadBytes: getEnvAsInt("STORAGE_MAX_UPLOAD_BYTES", 20<<20),
		},
		Calendar: CalendarConfig{
			ClientID:        os.Getenv("CALENDAR_CLIENT_ID"),
			ClientSecret:    os.Getenv("CALENDAR_CLIENT_SECRET"),
			RedirectURL:     getEnv("CALENDAR_REDIRECT_URL", "http://localhost:8080/api/calendar/callback"),
			CalendarID:      getEnv("CALENDAR_ID", "primary"),
			APIBaseURL:      getEnv("CALENDAR_API_BASE_URL", "https://www.googleapis.com/calendar/v3"),
			AuthURL:         getEnv("CALENDAR_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
			TokenURL:        getEnv("CALENDAR_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			LookaheadDays:   getEnvAsInt("CALENDAR_LOOKAHEAD_DAYS", 0),
			MaxResults:      getEnvAsInt("CALENDAR_MAX_RESULTS", 250),
			SuccessRedirect: os.Getenv("CALENDAR_SUCCESS_REDIRECT"),
		},
		Maps: MapsConfig{
			EmbedAPIKey: os.Getenv("MAPS_EMBED_API_KEY"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Enabled reports whether OAuth client credentials are present.
func (c CalendarConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
