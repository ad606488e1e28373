package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Log      LogConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port           int
	BaseURL        string
	AllowedOrigins []string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite3"
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	Path       string // sqlite file, only used with the sqlite3 driver
	TestDBName string // Separate database for testing
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret   string
	AdminEmails []string
}

// StorageConfig selects where attachment bytes are kept
type StorageConfig struct {
	Driver          string // "local" or "gcs"
	LocalDir        string
	Bucket          string
	CredentialsJSON string
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// GetMigrationURL returns the URL form golang-migrate expects for the configured driver
func (c *DatabaseConfig) GetMigrationURL() string {
	if c.Driver == "sqlite3" {
		return "sqlite3://" + c.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// LoadConfig loads the configuration from an optional .env file and environment variables
func LoadConfig() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USERNAME", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "condo")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "condo.db")
	v.SetDefault("TEST_DB_NAME", "condo_test")

	v.SetDefault("JWT_SECRET", "your-secret-key-here")
	v.SetDefault("AUTH_ADMIN_EMAILS", "")

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "data/attachments")
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("GCS_CREDENTIALS_JSON", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	return &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			BaseURL:        strings.TrimRight(v.GetString("SERVER_BASE_URL"), "/"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetInt("DB_PORT"),
			Username:   v.GetString("DB_USERNAME"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			Path:       v.GetString("DB_PATH"),
			TestDBName: v.GetString("TEST_DB_NAME"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("JWT_SECRET"),
			AdminEmails: splitList(strings.ToLower(v.GetString("AUTH_ADMIN_EMAILS"))),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("STORAGE_DRIVER"),
			LocalDir:        v.GetString("STORAGE_LOCAL_DIR"),
			Bucket:          v.GetString("GCS_BUCKET"),
			CredentialsJSON: v.GetString("GCS_CREDENTIALS_JSON"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// splitList turns a comma separated env value into a trimmed slice
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
