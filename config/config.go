package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	ListingsPath string `yaml:"listings_path"`
	LookupPath   string `yaml:"lookup_path"`
	OutputDir    string `yaml:"output_dir"`
	WriteRejects bool   `yaml:"write_rejects"`

	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	PostgresEnabled  bool   `yaml:"postgres_enabled"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`
	MaxRetries       int    `yaml:"max_retries"`

	// SQLitePath enables the SQLite mirror when non-empty.
	SQLitePath string `yaml:"sqlite_path"`
}

// Load reads the .env file and returns a Config populated from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ListingsPath: getEnv("LISTINGS_PATH", ""),
		LookupPath:   getEnv("LOOKUP_PATH", ""),
		OutputDir:    getEnv("OUTPUT_DIR", "./output"),
		WriteRejects: getEnvBool("WRITE_REJECTS", true),

		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "etl"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "etl"),
		PostgresDB:       getEnv("POSTGRES_DB", "marketplace"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 5),

		SQLitePath: getEnv("SQLITE_PATH", ""),
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "config: read %q", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return eris.Wrapf(err, "config: parse %q", path)
	}
	return nil
}

// Validate checks that both input sources are configured.
func (c *Config) Validate() error {
	var missing []string
	if c.ListingsPath == "" {
		missing = append(missing, "listings")
	}
	if c.LookupPath == "" {
		missing = append(missing, "lookup")
	}
	if c.OutputDir == "" {
		missing = append(missing, "outdir")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required setting(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
