package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env                 string        // application environment (development, production)
	Port                string        // HTTP port to listen on
	JWTSecret           string        // secret used to sign JWTs
	TokenTTL            time.Duration // lifetime of issued tokens
	BcryptCost          int           // bcrypt cost for password hashing
	AllowedOrigin       string        // CORS origin of the frontend
	RegistrationEnabled bool          // whether /auth/register accepts new accounts

	StoreDriver string // mysql | mongo | memory

	DBUser string // MySQL user
	DBPass string // MySQL password (optional)
	DBHost string // MySQL host
	DBPort string // MySQL port
	DBName string // MySQL database

	MongoURI      string // MongoDB connection string
	MongoDatabase string // MongoDB database name

	RabbitMQURL  string // AMQP broker; empty disables event publishing
	AuditLogPath string // file the audit consumer appends to
}

// IsProduction reports whether internal error details must be hidden.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Load reads .env (when present) and the process environment. Missing or
// invalid required values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the current environment without exiting.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                 envStr("APP_ENV", "development"),
		Port:                envStr("APP_PORT", envStr("PORT", "5000")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TokenTTL:            envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:          envInt("BCRYPT_COST", 10),
		AllowedOrigin:       envStr("FRONTEND_URL", "*"),
		RegistrationEnabled: envBool("REGISTRATION_ENABLED", true),
		StoreDriver:         strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		DBUser:              os.Getenv("DB_USER"),
		DBPass:              os.Getenv("DB_PASS"),
		DBHost:              envStr("DB_HOST", "localhost"),
		DBPort:              envStr("DB_PORT", "3306"),
		DBName:              os.Getenv("DB_NAME"),
		MongoURI:            envStr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:       envStr("MONGODB_DATABASE", "portfolio"),
		RabbitMQURL:         envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		AuditLogPath:        envStr("AUDIT_LOG_PATH", "logs/content.log"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("missing required env var: JWT_SECRET")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %s", cfg.TokenTTL)
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		if cfg.DBUser == "" || cfg.DBName == "" {
			return Config{}, errors.New("mysql store needs DB_USER and DB_NAME")
		}
	case DriverMongo, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}
