package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Upsert lookup modes.
const (
	// LookupByID matches stored records by id; a renamed unit is updated.
	LookupByID = "id"
	// LookupByIDName matches by (id, name); a renamed unit is inserted again
	// and rejected by the primary key.
	LookupByIDName = "id_name"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	// Import
	ImportDir    string
	UpsertLookup string
	ShowProgress bool

	// Database
	DBDriver string
	DBDSN    string

	// Download
	TercURL         string
	SimcURL         string
	DownloadTimeout time.Duration

	// Logging
	LogMode string
}

func Load() (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load()

	cfg := &Config{
		ImportDir:    getEnv("TERYT_IMPORT_DIR", defaultImportDir()),
		UpsertLookup: getEnv("TERYT_UPSERT_LOOKUP", LookupByID),
		ShowProgress: getEnvAsBool("TERYT_SHOW_PROGRESS", true),

		DBDriver: getEnv("TERYT_DB_DRIVER", DriverSQLite),
		DBDSN:    getEnv("TERYT_DB_DSN", "teryt.db"),

		TercURL:         getEnv("TERYT_TERC_URL", ""),
		SimcURL:         getEnv("TERYT_SIMC_URL", ""),
		DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 10*time.Minute),

		LogMode: getEnv("LOG_MODE", "dev"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the importer cannot work with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q (expected %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	switch c.UpsertLookup {
	case LookupByID, LookupByIDName:
	default:
		return fmt.Errorf("unsupported upsert lookup %q (expected %s or %s)", c.UpsertLookup, LookupByID, LookupByIDName)
	}
	if c.ImportDir == "" {
		return fmt.Errorf("import directory is not set")
	}
	if c.DBDSN == "" {
		return fmt.Errorf("database dsn is not set")
	}
	return nil
}

// TercPath and SimcPath are where the importer expects the registry files.
func (c *Config) TercPath() string { return filepath.Join(c.ImportDir, "TERC.xml") }
func (c *Config) SimcPath() string { return filepath.Join(c.ImportDir, "SIMC.xml") }

// defaultImportDir is "import" next to the executable, or in the working
// directory when the executable cannot be located.
func defaultImportDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "import"
	}
	return filepath.Join(filepath.Dir(exe), "import")
}

// Вспомогательные функции для получения переменных окружения
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
