package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Environment profiles
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

const (
	defaultSecretKey    = "dev-secret-key-change-in-production"
	defaultJWTSecretKey = "jwt-secret-key-change-in-production"
)

// DBConfig holds database configuration
type DBConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host      string
	Port      string
	Env       string
	SecretKey string
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// JWTConfig holds token configuration
type JWTConfig struct {
	SigningKey             string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	AllowOrigins []string
}

// UploadConfig holds the request size limit
type UploadConfig struct {
	MaxContentLength int64
}

// BodyLimit renders MaxContentLength in the format echo's BodyLimit expects.
func (u UploadConfig) BodyLimit() string {
	return strconv.FormatInt(u.MaxContentLength, 10) + "B"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// RedisConfig holds the optional token denylist backend
type RedisConfig struct {
	URL string
}

// Enabled reports whether a redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Config holds all configuration
type Config struct {
	DB     DBConfig
	Server ServerConfig
	JWT    JWTConfig
	CORS   CORSConfig
	Upload UploadConfig
	Log    LogConfig
	Redis  RedisConfig
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// Load loads configuration from the .env file and environment variables
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	env := getEnv("APP_ENV", EnvDevelopment)
	p, ok := profiles[env]
	if !ok {
		return nil, fmt.Errorf("unknown APP_ENV %q", env)
	}

	config := &Config{
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", p.databaseURL),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", p.dbLogLevel),
		},
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", getEnv("FLASK_HOST", "0.0.0.0")),
			Port:      getEnv("SERVER_PORT", getEnv("FLASK_PORT", "5000")),
			Env:       env,
			SecretKey: getEnv("SECRET_KEY", defaultSecretKey),
		},
		JWT: JWTConfig{
			SigningKey:             getEnv("JWT_SECRET_KEY", defaultJWTSecretKey),
			AccessTokenExpiration:  getEnvAsDuration("JWT_ACCESS_TOKEN_EXPIRES", p.accessTokenTTL),
			RefreshTokenExpiration: getEnvAsDuration("JWT_REFRESH_TOKEN_EXPIRES", 30*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Upload: UploadConfig{
			MaxContentLength: int64(getEnvAsInt("MAX_CONTENT_LENGTH", 16*1024*1024)),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", p.logLevel),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if c.JWT.AccessTokenExpiration <= 0 || c.JWT.RefreshTokenExpiration <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Upload.MaxContentLength <= 0 {
		return errors.New("MAX_CONTENT_LENGTH must be positive")
	}
	if !c.IsProduction() {
		return nil
	}
	if c.DB.URL == "" {
		return errors.New("DATABASE_URL is required in production")
	}
	if c.Server.SecretKey == defaultSecretKey {
		return errors.New("SECRET_KEY must be set in production")
	}
	if c.JWT.SigningKey == defaultJWTSecretKey {
		return errors.New("JWT_SECRET_KEY must be set in production")
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("database_url", maskDSN(c.DB.URL)),
		zap.String("server_address", c.Server.Address()),
		zap.Duration("access_token_ttl", c.JWT.AccessTokenExpiration),
		zap.Duration("refresh_token_ttl", c.JWT.RefreshTokenExpiration),
		zap.Strings("cors_origins", c.CORS.AllowOrigins),
		zap.Bool("token_denylist", c.Redis.Enabled()),
	}
}

type profile struct {
	databaseURL    string
	accessTokenTTL time.Duration
	dbLogLevel     logger.LogLevel
	logLevel       string
}

var profiles = map[string]profile{
	EnvDevelopment: {
		databaseURL:    "sqlite://dev.db",
		accessTokenTTL: time.Hour,
		dbLogLevel:     logger.Info,
		logLevel:       "debug",
	},
	EnvTesting: {
		databaseURL:    "sqlite://:memory:",
		accessTokenTTL: 5 * time.Second,
		dbLogLevel:     logger.Warn,
		logLevel:       "info",
	},
	EnvProduction: {
		accessTokenTTL: time.Hour,
		dbLogLevel:     logger.Warn,
		logLevel:       "info",
	},
}

// maskDSN hides the password of a URL-style DSN
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma separated environment variables
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
