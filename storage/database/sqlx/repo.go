// Package sqlxrepos implements the core repositories with sqlx.
// Queries use "?" placeholders, rebound to the driver's bindvar, so they run on postgres, mysql and sqlite3.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) get(ctx context.Context, exec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	exe := repo.getExec(exec)
	return sqlx.GetContext(ctx, exe, dest, exe.Rebind(query), args...)
}

func (repo repository) sel(ctx context.Context, exec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	exe := repo.getExec(exec)
	return sqlx.SelectContext(ctx, exe, dest, exe.Rebind(query), args...)
}

func (repo repository) exe(ctx context.Context, exec []core.DBExecutor, query string, args ...interface{}) (sql.Result, error) {
	exe := repo.getExec(exec)
	return exe.ExecContext(ctx, exe.Rebind(query), args...)
}

// affected runs query and returns the number of rows it changed.
func (repo repository) affected(ctx context.Context, exec []core.DBExecutor, query string, args ...interface{}) (int64, error) {
	res, err := repo.exe(ctx, exec, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func orderBy(ordering []core.DBOrdering, dflt string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + dflt
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
