package sqlhandle

import (
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
)

// driverErrorCode pulls the error code out of the driver error types we
// know about. The numeric code is 0 when the driver exposes none;
// postgresql reports alphanumeric SQLSTATE codes which come back in the
// second return value.
func driverErrorCode(err error) (code int, sqlstate string) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return int(myErr.Number), ""
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return int(msErr.Number), ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return 0, pgErr.Code
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return int(sqErr.Code), ""
	}
	return 0, ""
}
