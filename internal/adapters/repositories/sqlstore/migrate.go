package sqlstore

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/terratensor/teryt/internal/platform/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. The same SQL serves sqlite and postgres.
func RunMigrations(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	dialect := "sqlite3"
	if db.Dialector.Name() == DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	if log != nil {
		goose.SetLogger(log)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
