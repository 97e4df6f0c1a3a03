package sqlhandle

import (
	"context"
	"database/sql"
)

// DB is the subset of database/sql the handle executes against. Both
// *sql.DB and *sql.Tx satisfy it, so statements run inside an open
// transaction without special casing.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ DB = &sql.DB{}
	_ DB = &sql.Tx{}
)
