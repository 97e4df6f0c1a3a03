package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
)

// printRows writes rows as tab-separated lines, a header of column
// names first. NULLs print as the literal NULL.
func printRows(w io.Writer, rows *sql.Rows) error {
	defer func() {
		_ = rows.Close()
	}()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) > 0 {
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}

	values := make([]sql.NullString, len(cols))
	scanArgs := make([]interface{}, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			if v.Valid {
				fields[i] = v.String
			} else {
				fields[i] = "NULL"
			}
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}
	return rows.Err()
}
