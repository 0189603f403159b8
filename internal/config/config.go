package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// RateLimit allows Requests per Window from a single client.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

// app config, loaded from the environment
type Config struct {
	Port string

	StoreBackend     string
	MongoURI         string
	MongoDBName      string
	Postgres         Postgres
	SQLitePath       string
	DBConnectTimeout time.Duration

	RedisAddr     string
	RedisPassword string

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	// Location delimits calendar days for same-day checks.
	Location *time.Location

	CORSOrigins     []string
	RateLimit       RateLimit
	AuthRateLimit   RateLimit
	CreateRateLimit RateLimit

	StatsRefreshSchedule string
	SeedOnStart          bool
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	expires, err := parseDuration(getEnvOrDefault("JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	loc, err := time.LoadLocation(getEnvOrDefault("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	config := &Config{
		Port: getEnvOrDefault("PORT", "8080"),

		StoreBackend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendMongo)),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDBName:  getEnvOrDefault("MONGO_DB_NAME", "random_challenge"),
		Postgres: Postgres{
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		},
		SQLitePath:       getEnvOrDefault("SQLITE_PATH", "random_challenge.db"),
		DBConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 30*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTExpiresIn: expires,
		BcryptCost:   getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),

		Location: loc,

		CORSOrigins: getEnvStringSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RateLimit: RateLimit{
			Requests: getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		AuthRateLimit: RateLimit{
			Requests: getEnvInt("AUTH_RATE_LIMIT_MAX_REQUESTS", 5),
			Window:   getEnvDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		CreateRateLimit: RateLimit{
			Requests: getEnvInt("CREATE_RATE_LIMIT_MAX_REQUESTS", 30),
			Window:   getEnvDuration("CREATE_RATE_LIMIT_WINDOW", time.Hour),
		},

		StatsRefreshSchedule: getEnvOrDefault("STATS_REFRESH_SCHEDULE", "@every 5m"),
		SeedOnStart:          getEnvBool("SEED_ON_START", false),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.StoreBackend {
	case BackendMongo:
		if config.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if config.Postgres.User == "" || config.Postgres.DB == "" {
			return errors.New("POSTGRES_USER and POSTGRES_DB are required for the postgres backend")
		}
	case BackendSQLite:
		if config.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return errors.New("unsupported store backend: " + config.StoreBackend + ". Currently supported: mongo, postgres, sqlite")
	}
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if config.BcryptCost < bcrypt.MinCost || config.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	for name, rl := range map[string]RateLimit{
		"RATE_LIMIT":        config.RateLimit,
		"AUTH_RATE_LIMIT":   config.AuthRateLimit,
		"CREATE_RATE_LIMIT": config.CreateRateLimit,
	} {
		if rl.Requests <= 0 || rl.Window <= 0 {
			return errors.New(name + " needs a positive request count and window")
		}
	}
	return nil
}

// parseDuration accepts time.ParseDuration syntax plus a whole-day "d" suffix.
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := parseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
