// Package sqlxrepos implements every repository on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type base struct {
	db *sqlx.DB
}

// getExec returns the transaction handed down by a service, or the pool.
func (b base) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 && svcExec[0] != nil {
		if exe, ok := svcExec[0].(sqlx.ExtContext); ok {
			return exe
		}
	}
	return b.db
}

type transactor struct {
	db *sqlx.DB
}

var _ core.Transactor = (*transactor)(nil) // interface compliance check

func NewTransactor(db *sqlx.DB) core.Transactor {
	return &transactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise, or when fn panics.
func (t *transactor) WithinTx(ctx context.Context, fn core.TxFunc) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return core.NewStoreError(errors.Wrapf(err, "rolling back: %v", rbErr), "rollback transaction")
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// pqError returns the postgres error behind err, if any.
func pqError(err error) (*pq.Error, bool) {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return pqErr, ok
}

func isUniqueViolation(err error) bool {
	pqErr, ok := pqError(err)
	return ok && pqErr.Code == uniqueViolation
}

// foreignKey returns the name of the violated foreign key constraint, eg. "students_user_id_fkey".
func foreignKey(err error) (string, bool) {
	pqErr, ok := pqError(err)
	if !ok || pqErr.Code != foreignKeyViolation {
		return "", false
	}
	return pqErr.Constraint, true
}

// validID reports whether id can be compared to a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.New().String()
}

// uuidArray binds ids as a uuid[] parameter, dropping the malformed ones (which match no row).
func uuidArray(ids []string) interface{} {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	return pq.Array(valid)
}

// where builds a conjunction of conditions written with `?` bind vars, see sqlx.Rebind.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// rowsAffected returns notFound when res touched no row.
func rowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
