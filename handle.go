package sqlhandle

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Option configures a Handle at construction.
type Option func(*Handle)

// WithLogger installs the sink that receives error lines before a
// failure is returned to the caller. The sink gets the message first,
// then the recorded stack trace.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(h *Handle) { h.log = logger }
}

// Handle owns a single driver connection and tracks at most one current
// prepared statement and at most one open transaction. Calls block
// until the driver returns; the handle is not safe for concurrent use.
type Handle struct {
	db     *sql.DB
	driver string

	stmt    *sql.Stmt
	stmtSQL string
	nparams int
	stmtTx  bool // statement was prepared inside the open transaction

	tx *sql.Tx

	log    logrus.FieldLogger
	closed bool
}

// Connect opens a connection described by cfg and verifies it with a
// ping, so credential problems surface here rather than on first use.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Handle, error) {
	h := &Handle{driver: cfg.driver()}
	for _, o := range opts {
		o(h)
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, h.fail(err.(*Error))
	}
	db, err := sql.Open(h.driver, dsn)
	if err != nil {
		return nil, h.fail(newError(KindConnection, "", "open "+h.driver+" connection", err))
	}
	// The handle models exactly one driver connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, h.fail(newError(KindConnection, "", "connect to "+h.driver, err))
	}
	h.db = db
	return h, nil
}

// Adopt wraps an already-open connection, providing the handle's
// convenience methods on top of it. Close still closes db.
func Adopt(db *sql.DB, driver string, opts ...Option) *Handle {
	h := &Handle{db: db, driver: driver}
	for _, o := range opts {
		o(h)
	}
	return h
}

// fail sends err through the sink and hands it back.
func (h *Handle) fail(err *Error) error {
	if h.log != nil {
		h.log.Error(err.Error())
		h.log.Errorf("%+v", err.cause)
	}
	return err
}

// runner returns the execution target, routing through the open
// transaction when one is active.
func (h *Handle) runner() DB {
	if h.tx != nil {
		return h.tx
	}
	return h.db
}

func (h *Handle) ready() *Error {
	if h.closed {
		return newError(KindConnection, "", "handle is closed", nil)
	}
	if h.db == nil {
		return newError(KindConnection, "", "not connected", nil)
	}
	return nil
}

// RunDirect executes query verbatim, with no placeholder binding, and
// returns its result set. Statements that produce no result set belong
// on Exec; some drivers delay execution until the rows are stepped.
// Nothing is escaped, so never pass untrusted input through it; use
// Query with placeholders instead.
func (h *Handle) RunDirect(ctx context.Context, query string) (*sql.Rows, error) {
	if e := h.ready(); e != nil {
		return nil, h.fail(e)
	}
	rows, err := h.runner().QueryContext(ctx, query)
	if err != nil {
		return nil, h.fail(newError(KindQuery, query, "execute statement", err))
	}
	return rows, nil
}

// Exec executes query verbatim through the driver's Exec path and is
// the call to use for statements that return no result set. Some
// drivers (sqlite3) only run a queried statement once its rows are
// stepped, so DDL and DML must not rely on RunDirect. Like RunDirect,
// nothing is escaped; never pass untrusted input.
func (h *Handle) Exec(ctx context.Context, query string) (sql.Result, error) {
	if e := h.ready(); e != nil {
		return nil, h.fail(e)
	}
	res, err := h.runner().ExecContext(ctx, query)
	if err != nil {
		return nil, h.fail(newError(KindQuery, query, "execute statement", err))
	}
	return res, nil
}

// Prepare compiles query and makes it the current statement, replacing
// (and closing) any previous one. On failure the previous statement
// stays current.
func (h *Handle) Prepare(ctx context.Context, query string) error {
	if e := h.ready(); e != nil {
		return h.fail(e)
	}
	bound := query
	if h.driver == "pgx" {
		bound = rebindDollar(query)
	}
	stmt, err := h.runner().PrepareContext(ctx, bound)
	if err != nil {
		return h.fail(newError(KindQuery, query, "prepare statement", err))
	}
	_ = h.CloseStatement()
	h.stmt = stmt
	h.stmtSQL = query
	h.nparams = numPlaceholders(query)
	h.stmtTx = h.tx != nil
	return nil
}

// Execute binds params positionally to the current statement and runs
// it. Every parameter is bound as text; the server coerces types.
func (h *Handle) Execute(ctx context.Context, params ...string) (*sql.Rows, error) {
	if e := h.ready(); e != nil {
		return nil, h.fail(e)
	}
	if h.stmt == nil {
		return nil, h.fail(newError(KindNotPrepared, "", "execute called with no statement prepared", nil))
	}
	if len(params) != h.nparams {
		return nil, h.fail(newError(KindBind, h.stmtSQL,
			fmt.Sprintf("statement wants %d parameters, got %d", h.nparams, len(params)), nil))
	}
	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p
	}
	stmt := h.stmt
	if h.tx != nil && !h.stmtTx {
		// A db-prepared statement would wait for the pool's only
		// connection, which the open transaction holds. Rebind it to
		// the transaction instead. database/sql keeps the underlying
		// statement alive until the returned rows are closed.
		stmt = h.tx.StmtContext(ctx, h.stmt)
		defer func() {
			_ = stmt.Close()
		}()
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, h.fail(newError(KindQuery, h.stmtSQL, "execute statement", err))
	}
	return rows, nil
}

// Query is Prepare followed by Execute.
func (h *Handle) Query(ctx context.Context, query string, params ...string) (*sql.Rows, error) {
	if err := h.Prepare(ctx, query); err != nil {
		return nil, err
	}
	return h.Execute(ctx, params...)
}

// CloseStatement releases the current statement. Calling it with
// nothing prepared is fine.
func (h *Handle) CloseStatement() error {
	if h.stmt == nil {
		return nil
	}
	err := h.stmt.Close()
	h.stmt = nil
	h.stmtSQL = ""
	h.nparams = 0
	h.stmtTx = false
	return err
}

// TxOptions are the flags passed to Begin.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Begin starts a transaction. With a non-empty name it additionally
// creates a savepoint; if a transaction is already open, only the
// savepoint is created.
func (h *Handle) Begin(ctx context.Context, opts TxOptions, name string) error {
	if e := h.ready(); e != nil {
		return h.fail(e)
	}
	if h.tx == nil {
		tx, err := h.db.BeginTx(ctx, &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})
		if err != nil {
			return h.fail(newError(KindQuery, "", "begin transaction", err))
		}
		h.tx = tx
	}
	if name != "" {
		return h.savepoint(ctx, spBegin, name)
	}
	return nil
}

// Commit commits the open transaction, or with a non-empty name
// releases that savepoint and leaves the transaction open.
func (h *Handle) Commit(ctx context.Context, name string) error {
	if e := h.ready(); e != nil {
		return h.fail(e)
	}
	if h.tx == nil {
		return h.fail(newError(KindQuery, "", "commit with no open transaction", nil))
	}
	if name != "" {
		return h.savepoint(ctx, spRelease, name)
	}
	if h.stmtTx {
		_ = h.CloseStatement()
	}
	err := h.tx.Commit()
	h.tx = nil
	if err != nil {
		return h.fail(newError(KindQuery, "", "commit transaction", err))
	}
	return nil
}

// Rollback rolls back the open transaction, or with a non-empty name
// rolls back to that savepoint and leaves the transaction open.
func (h *Handle) Rollback(ctx context.Context, name string) error {
	if e := h.ready(); e != nil {
		return h.fail(e)
	}
	if h.tx == nil {
		return h.fail(newError(KindQuery, "", "rollback with no open transaction", nil))
	}
	if name != "" {
		return h.savepoint(ctx, spRollback, name)
	}
	if h.stmtTx {
		_ = h.CloseStatement()
	}
	err := h.tx.Rollback()
	h.tx = nil
	if err != nil {
		return h.fail(newError(KindQuery, "", "rollback transaction", err))
	}
	return nil
}

type savepointOp int

const (
	spBegin savepointOp = iota
	spRelease
	spRollback
)

func (h *Handle) savepoint(ctx context.Context, op savepointOp, name string) error {
	if !savepointName.MatchString(name) {
		return h.fail(newError(KindBind, "", fmt.Sprintf("illegal savepoint name %q", name), nil))
	}
	var query string
	if h.driver == "sqlserver" {
		// T-SQL has its own savepoint dialect and no release at all.
		switch op {
		case spBegin:
			query = "SAVE TRANSACTION " + name
		case spRelease:
			return nil
		case spRollback:
			query = "ROLLBACK TRANSACTION " + name
		}
	} else {
		switch op {
		case spBegin:
			query = "SAVEPOINT " + name
		case spRelease:
			query = "RELEASE SAVEPOINT " + name
		case spRollback:
			query = "ROLLBACK TO SAVEPOINT " + name
		}
	}
	if _, err := h.tx.ExecContext(ctx, query); err != nil {
		return h.fail(newError(KindQuery, query, "savepoint control", err))
	}
	return nil
}

// Close releases the current statement, rolls back any open
// transaction and closes the connection. The handle is unusable
// afterwards; Close itself is idempotent.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	_ = h.CloseStatement()
	if h.tx != nil {
		_ = h.tx.Rollback()
		h.tx = nil
	}
	h.closed = true
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
