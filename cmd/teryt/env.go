package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/terratensor/teryt/internal/adapters/repositories/sqlstore"
	"github.com/terratensor/teryt/internal/config"
	"github.com/terratensor/teryt/internal/platform/logger"
)

// commonFlags override the matching environment settings.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "import-dir", Usage: "directory holding TERC.xml and SIMC.xml (default $TERYT_IMPORT_DIR)"},
		&cli.StringFlag{Name: "db-driver", Usage: "database driver: sqlite or postgres (default $TERYT_DB_DRIVER)"},
		&cli.StringFlag{Name: "db-dsn", Usage: "database DSN or sqlite file (default $TERYT_DB_DSN)"},
	}
}

type env struct {
	cfg *config.Config
	log *logger.Logger
}

func setup(c *cli.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"import-dir", &cfg.ImportDir},
		{"db-driver", &cfg.DBDriver},
		{"db-dsn", &cfg.DBDSN},
	}
	for _, o := range overrides {
		if v := c.String(o.flag); v != "" {
			*o.target = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

// openStore connects to the configured database and brings its schema up to date.
func (e *env) openStore(ctx context.Context) (*sqlstore.Store, func(), error) {
	db, err := sqlstore.Open(e.cfg.DBDriver, e.cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := sqlstore.RunMigrations(ctx, db, e.log); err != nil {
		closeDB()
		return nil, nil, err
	}
	return sqlstore.NewStore(db), closeDB, nil
}
