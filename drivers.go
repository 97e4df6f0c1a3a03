package sqlhandle

// mysql, sqlserver and sqlite3 register themselves through the imports
// in config.go and errcode.go; pgx only registers through its stdlib
// adapter.
import (
	_ "github.com/jackc/pgx/v5/stdlib"
)
