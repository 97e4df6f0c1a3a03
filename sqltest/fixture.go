package sqltest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/nordsql/sqlhandle"
)

// Fixture provides a throwaway sqlite database with a connected handle.
// Hook records every line the handle's error sink emits, so tests can
// assert on how much gets logged.
type Fixture struct {
	Handle *sqlhandle.Handle
	DBName string
	Hook   *logrustest.Hook
	dir    string
}

func NewFixture() *Fixture {
	var fixture Fixture

	dir, err := os.MkdirTemp("", "sqlhandle-test")
	if err != nil {
		panic(err)
	}
	fixture.dir = dir
	fixture.DBName = strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")

	var logger *logrus.Logger
	logger, fixture.Hook = logrustest.NewNullLogger()

	fixture.Handle, err = sqlhandle.Connect(context.Background(), sqlhandle.Config{
		Driver:   "sqlite3",
		Database: filepath.Join(dir, fixture.DBName+".db"),
	}, sqlhandle.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	return &fixture
}

func (f *Fixture) Teardown() {
	if f.Handle != nil {
		_ = f.Handle.Close()
		f.Handle = nil
	}
	if f.dir != "" {
		_ = os.RemoveAll(f.dir)
		f.dir = ""
	}
}

// RunMigrationFile executes the ;-separated statements in filename.
func (f *Fixture) RunMigrationFile(filename string) {
	migrationSQL, err := os.ReadFile(filename)
	if err != nil {
		panic(err)
	}
	for _, part := range strings.Split(string(migrationSQL), ";\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f.mustRun(part)
	}
}

// Seed creates the entries table used by most tests.
func (f *Fixture) Seed() {
	f.mustRun(`create table entries (id integer primary key, name text not null)`)
	f.mustRun(`insert into entries (id, name) values (1, 'one'), (2, 'two'), (3, 'three')`)
}

func (f *Fixture) mustRun(query string) {
	if _, err := f.Handle.Exec(context.Background(), query); err != nil {
		panic(err)
	}
}
