package sqltest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordsql/sqlhandle"
)

func Test_Connect_BadTarget(t *testing.T) {
	ctx := context.Background()

	_, err := sqlhandle.Connect(ctx, sqlhandle.Config{
		Driver:   "sqlite3",
		Database: "/nonexistent-dir/no-such-place/db.sqlite",
	})
	require.Error(t, err)
	assert.True(t, sqlhandle.IsConnection(err))

	_, err = sqlhandle.Connect(ctx, sqlhandle.Config{Driver: "no-such-driver"})
	require.Error(t, err)
	assert.True(t, sqlhandle.IsConnection(err))
}

func Test_RunDirect_SelectOne(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	rows, err := fixture.Handle.RunDirect(ctx, `select 1`)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var v int
	require.NoError(t, rows.Scan(&v))
	assert.Equal(t, 1, v)
	assert.False(t, rows.Next())
	require.NoError(t, rows.Err())
}

func Test_RunDirect_MissingTable(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	_, err := fixture.Handle.RunDirect(ctx, `select * from no_such_table`)
	require.Error(t, err)
	assert.True(t, sqlhandle.IsQuery(err))

	var dberr *sqlhandle.Error
	require.ErrorAs(t, err, &dberr)
	assert.Equal(t, `select * from no_such_table`, dberr.SQL)
}

func Test_Exec_RunsDDLAndDML(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	// DDL and DML must take effect without anyone stepping a result set
	_, err := fixture.Handle.Exec(ctx, `create table t (id integer primary key)`)
	require.NoError(t, err)

	res, err := fixture.Handle.Exec(ctx, `insert into t (id) values (1), (2)`)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	rows, err := fixture.Handle.RunDirect(ctx, `select count(*) from t`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	assert.Equal(t, 2, n)
}

func Test_Query_Placeholder(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	fixture.Seed()
	ctx := context.Background()

	rows, err := fixture.Handle.Query(ctx, `select id, name from entries where id = ?`, "3")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var id int
	var name string
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, 3, id)
	assert.Equal(t, "three", name)
	assert.False(t, rows.Next(), "expected exactly one matching row")
	require.NoError(t, rows.Err())
}

func Test_Execute_WithoutPrepare(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()

	_, err := fixture.Handle.Execute(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, sqlhandle.IsNotPrepared(err))
}

func Test_Execute_ArityMismatch(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	fixture.Seed()
	ctx := context.Background()

	require.NoError(t, fixture.Handle.Prepare(ctx, `select name from entries where id = ?`))
	_, err := fixture.Handle.Execute(ctx, "1", "2")
	require.Error(t, err)
	assert.True(t, sqlhandle.IsBind(err))
}

func Test_Prepare_ReplacesCurrent(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	fixture.Seed()
	ctx := context.Background()

	require.NoError(t, fixture.Handle.Prepare(ctx, `select name from entries where id = ?`))
	require.NoError(t, fixture.Handle.Prepare(ctx, `select id from entries where name = ?`))

	rows, err := fixture.Handle.Execute(ctx, "two")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var id int
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, 2, id)
}

func Test_CloseStatement_Idempotent(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()

	require.NoError(t, fixture.Handle.CloseStatement())
	require.NoError(t, fixture.Handle.CloseStatement())
}

func Test_Transaction_Rollback(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	fixture.Seed()
	ctx := context.Background()

	require.NoError(t, fixture.Handle.Begin(ctx, sqlhandle.TxOptions{}, ""))
	res, err := fixture.Handle.Exec(ctx, `insert into entries (id, name) values (4, 'four')`)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, fixture.Handle.Rollback(ctx, ""))

	assert.Equal(t, 3, countEntries(t, fixture))
}

func Test_Transaction_Savepoint(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	fixture.Seed()
	ctx := context.Background()

	require.NoError(t, fixture.Handle.Begin(ctx, sqlhandle.TxOptions{}, ""))
	_, err := fixture.Handle.Exec(ctx, `insert into entries (id, name) values (4, 'four')`)
	require.NoError(t, err)

	require.NoError(t, fixture.Handle.Begin(ctx, sqlhandle.TxOptions{}, "sp1"))
	_, err = fixture.Handle.Exec(ctx, `insert into entries (id, name) values (5, 'five')`)
	require.NoError(t, err)

	require.NoError(t, fixture.Handle.Rollback(ctx, "sp1"))
	require.NoError(t, fixture.Handle.Commit(ctx, ""))

	assert.Equal(t, 4, countEntries(t, fixture))
}

func Test_Execute_InsideTransaction(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	fixture.Seed()
	ctx := context.Background()

	// statement prepared before Begin must not wait on the pool's
	// only connection once the transaction holds it
	require.NoError(t, fixture.Handle.Prepare(ctx, `select name from entries where id = ?`))
	require.NoError(t, fixture.Handle.Begin(ctx, sqlhandle.TxOptions{}, ""))

	done := make(chan error, 1)
	go func() {
		rows, err := fixture.Handle.Execute(ctx, "2")
		if err == nil {
			var name string
			if rows.Next() {
				err = rows.Scan(&name)
			} else {
				err = rows.Err()
			}
			_ = rows.Close()
			if err == nil && name != "two" {
				err = fmt.Errorf("got name %q", name)
			}
		}
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Execute blocked inside the open transaction")
	}

	// uncommitted writes must be visible to the rebound statement
	_, err := fixture.Handle.Exec(ctx, `insert into entries (id, name) values (4, 'four')`)
	require.NoError(t, err)
	require.NoError(t, fixture.Handle.Prepare(ctx, `select count(*) from entries where id >= ?`))
	rows, err := fixture.Handle.Execute(ctx, "4")
	require.NoError(t, err)
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	_ = rows.Close()
	assert.Equal(t, 1, n)

	require.NoError(t, fixture.Handle.Rollback(ctx, ""))
	assert.Equal(t, 3, countEntries(t, fixture))
}

func Test_Transaction_IllegalSavepointName(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	err := fixture.Handle.Begin(ctx, sqlhandle.TxOptions{}, "sp1; drop table entries")
	require.Error(t, err)
	assert.True(t, sqlhandle.IsBind(err))
}

func Test_Commit_WithoutBegin(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()

	err := fixture.Handle.Commit(context.Background(), "")
	require.Error(t, err)
	assert.True(t, sqlhandle.IsQuery(err))
}

func Test_FailuresHitTheSink(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	// message line plus stack trace line per failure
	fixture.Hook.Reset()
	_, err := fixture.Handle.RunDirect(ctx, `select * from no_such_table`)
	require.Error(t, err)
	assert.Len(t, fixture.Hook.Entries, 2)

	fixture.Hook.Reset()
	_, err = fixture.Handle.Execute(ctx)
	require.Error(t, err)
	assert.Len(t, fixture.Hook.Entries, 2)

	fixture.Hook.Reset()
	err = fixture.Handle.Prepare(ctx, `select * from (`)
	require.Error(t, err)
	assert.Len(t, fixture.Hook.Entries, 2)

	// Query delegates to Prepare; the failure must be logged only once
	fixture.Hook.Reset()
	_, err = fixture.Handle.Query(ctx, `select * from no_such_table where id = ?`, "1")
	require.Error(t, err)
	assert.Len(t, fixture.Hook.Entries, 2)
}

func Test_ClosedHandle(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	require.NoError(t, fixture.Handle.Close())
	require.NoError(t, fixture.Handle.Close())

	_, err := fixture.Handle.RunDirect(ctx, `select 1`)
	require.Error(t, err)
	assert.True(t, sqlhandle.IsConnection(err))

	err = fixture.Handle.Prepare(ctx, `select 1`)
	require.Error(t, err)
	assert.True(t, sqlhandle.IsConnection(err))
}

func Test_Adopt(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	h := sqlhandle.Adopt(db, "sqlite3")
	defer h.Close()

	rows, err := h.RunDirect(context.Background(), `select 40 + 2`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var v int
	require.NoError(t, rows.Scan(&v))
	assert.Equal(t, 42, v)
}

func Test_RunMigrationFile(t *testing.T) {
	fixture := NewFixture()
	defer fixture.Teardown()

	fixture.RunMigrationFile("testdata/0001.entries.sql")
	assert.Equal(t, 2, countEntries(t, fixture))
}

func countEntries(t *testing.T, fixture *Fixture) int {
	t.Helper()
	rows, err := fixture.Handle.RunDirect(context.Background(), `select count(*) from entries`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	return n
}
