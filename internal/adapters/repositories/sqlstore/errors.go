package sqlstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/terratensor/teryt/internal/core/domain"
)

// isConstraintViolation recognises integrity errors of every supported driver.
func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	// SQLSTATE class 23: integrity constraint violation
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "23"
	}

	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func wrapErr(kind domain.Kind, op, id string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		return &domain.StoreConstraintViolation{Kind: kind, Op: op, ID: id, Err: err}
	}
	return fmt.Errorf("%s %s %s: %w", op, kind, id, err)
}
