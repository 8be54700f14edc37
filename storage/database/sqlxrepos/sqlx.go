// Package sqlxrepos implements the course and class schedule repositories with hand-written SQL
// mapped through sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/coding7860/sparkminds-backend/core"
)

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// rebind turns "?" placeholders into postgres "$N" ones.
func rebind(q string) string {
	return sqlx.Rebind(sqlx.DOLLAR, q)
}

// selectRows scans every row of the query into dest (a pointer to a slice of db-tagged structs).
func selectRows(ctx context.Context, exec core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, rebind(q), args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

func queryRow(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) *sql.Row {
	return exec.QueryRowContext(ctx, rebind(q), args...)
}

// execAffecting runs the statement and returns notFound if no row was affected.
func execAffecting(ctx context.Context, exec core.DBExecutor, notFound error, q string, args ...interface{}) (int, error) {
	res, err := exec.ExecContext(ctx, rebind(q), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 && notFound != nil {
		return 0, notFound
	}
	return int(n), nil
}
