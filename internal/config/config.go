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

type Config struct {
	Port      string
	JwtSecret string
	TokenTTL  time.Duration
	LogLevel  string

	// User/provenance persistence
	DBAdapter  string
	SQLiteFile string
	// PostgreSQL connection settings
	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Content store
	StorageType string
	DataDir     string
	AWSBucket   string
	AWSRegion   string

	// Upload pipeline
	TempDir        string
	WorkerCount    int
	MaxUploadBytes int64

	// Classifier
	ModelPath string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or returns the provided DSN
func (c *Config) BuildPostgresDSN() (string, error) {
	// If DSN is provided directly, use it
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}

	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable" // Default to disable for local development
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)

	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}

	return dsn, nil
}

func New() (*Config, error) {
	// .env is optional; real environment variables win over file values
	_ = godotenv.Load()

	c := &Config{
		Port:      getenv("PORT", "8080"),
		JwtSecret: getenv("JWT_SECRET", "change-me"),
		LogLevel:  getenv("LOG_LEVEL", "info"),

		DBAdapter:  getenv("DB_ADAPTER", "sqlite"),
		SQLiteFile: getenv("SQLITE_FILE", "./data/blocksharex.db"),

		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		PostgresHost:     getenv("POSTGRES_HOST", getenv("DB_HOST", "localhost")),
		PostgresPort:     getenv("POSTGRES_PORT", getenv("DB_PORT", "5432")),
		PostgresUser:     getenv("POSTGRES_USER", getenv("DB_USER", "blockshare")),
		PostgresPassword: getenv("POSTGRES_PASSWORD", getenv("DB_PASSWORD", "")),
		PostgresDB:       getenv("POSTGRES_DB", getenv("DB_NAME", "blocksharex")),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", getenv("DB_SSLMODE", "disable")),

		StorageType: getenv("STORAGE_TYPE", "local"),
		DataDir:     getenv("DATA_DIR", "./data/blobs"),
		AWSBucket:   getenv("AWS_BUCKET", ""),
		AWSRegion:   getenv("AWS_REGION", ""),

		TempDir:   getenv("TEMP_DIR", os.TempDir()),
		ModelPath: getenv("MODEL_PATH", "./models/recommender.json"),
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	c.TokenTTL = ttl

	workers, err := strconv.Atoi(getenv("WORKER_COUNT", "0"))
	if err != nil || workers < 0 {
		return nil, fmt.Errorf("invalid WORKER_COUNT: %s", getenv("WORKER_COUNT", "0"))
	}
	c.WorkerCount = workers

	maxUpload, err := strconv.ParseInt(getenv("MAX_UPLOAD_BYTES", "33554432"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %s", getenv("MAX_UPLOAD_BYTES", ""))
	}
	c.MaxUploadBytes = maxUpload

	if c.DBAdapter == "postgres" {
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	}

	if c.DBAdapter == "sqlite" && c.SQLiteFile == "" {
		return nil, errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
	}

	if c.StorageType == "s3" && c.AWSBucket == "" {
		return nil, errors.New("AWS_BUCKET must be set when STORAGE_TYPE=s3")
	}

	// Refuse the default secret outside local development
	env := strings.ToLower(getenv("ENV", ""))
	if env == "production" || env == "prod" {
		if c.JwtSecret == "" || c.JwtSecret == "change-me" {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %s", c.Port)
	}

	return c, nil
}
