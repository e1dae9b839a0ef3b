package sqlstore

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects gorm to the configured database. sqlite runs on the pure Go
// modernc driver with foreign keys switched on.
func Open(driver, dsn string) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

func sqliteDSN(dsn string) string {
	var extra []string
	if !strings.Contains(dsn, "foreign_keys") {
		extra = append(extra, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		extra = append(extra, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		extra = append(extra, "_time_format=sqlite")
	}
	if len(extra) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}
