package core

import (
	"context"
	"database/sql"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	// TxFunc runs inside a transaction. exec must be passed down to every repository call
	// that belongs to the transaction; it may be nil for stores without executors.
	TxFunc func(exec DBExecutor) error

	// Transactor runs a TxFunc atomically: everything fn writes is committed or nothing is.
	Transactor interface {
		WithinTx(ctx context.Context, fn TxFunc) error
	}
)

// Execs turns an optional executor into the variadic form repositories accept.
func Execs(exec DBExecutor) []DBExecutor {
	if exec == nil {
		return nil
	}
	return []DBExecutor{exec}
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
