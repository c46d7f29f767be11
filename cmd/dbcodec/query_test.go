package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/adapters/mysql"
	"github.com/ruslano69/dbcodec/pkg/toggles"
)

// fakeConn запоминает аргументы запроса и отдает заранее заданные строки
type fakeConn struct {
	cols []base.Column
	rows [][]any
	args []any
	err  error
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (adapters.ResultSet, error) {
	c.args = args
	if c.err != nil {
		return nil, c.err
	}
	return base.NewSQLCursor(mysql.DialectName, &base.StaticRows{Rows: c.rows}, c.cols), nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return 0, nil
}

func (c *fakeConn) Close(ctx context.Context) error { return nil }

func column(name, typeName string) base.Column {
	return base.Column{Name: name, TypeName: typeName, Type: mysql.ColumnType(typeName)}
}

func newTestState(conn adapters.Conn) *adapters.ConnectionState {
	d := mysql.New(adapters.Config{Toggles: toggles.New(toggles.Snapshot{})})
	return adapters.NewState(conn, d)
}

func TestRunQuery(t *testing.T) {
	conn := &fakeConn{
		cols: []base.Column{
			column("id", "BIGINT"),
			column("name", "VARCHAR"),
			column("flags", "BIT"),
			column("note", "VARCHAR"),
		},
		rows: [][]any{
			{int64(7), []byte("Ann"), []byte{1, 2}, nil},
			{int64(8), []byte("Bob \"B\""), []byte{0}, []byte("x")},
		},
	}
	state := newTestState(conn)

	var out bytes.Buffer
	rows, err := runQuery(context.Background(), state, "SELECT ?, ?, ?",
		[]string{"42", nullArg, "x"}, []string{"bigint", "varchar"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	assert.Equal(t, []any{int64(42), nil, "x"}, conn.args)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"id":7,"name":"Ann","flags":258,"note":null}`, lines[0])
	assert.Equal(t, `{"id":8,"name":"Bob \"B\"","flags":0,"note":"x"}`, lines[1])
}

func TestRunQuery_BindError(t *testing.T) {
	conn := &fakeConn{}
	state := newTestState(conn)

	var out bytes.Buffer
	_, err := runQuery(context.Background(), state, "SELECT ?", []string{"abc"}, []string{"integer"}, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, adapters.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "bind parameter 1")
	assert.Nil(t, conn.args, "query must not run after a bind error")
}

func TestRunQuery_QueryError(t *testing.T) {
	conn := &fakeConn{err: errors.New("boom")}
	state := newTestState(conn)

	var out bytes.Buffer
	_, err := runQuery(context.Background(), state, "SELECT 1", nil, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, out.String())
}

func TestPrintToggles(t *testing.T) {
	tbl := toggles.New(toggles.Snapshot{ArrayRaw: toggles.True})

	var out bytes.Buffer
	require.NoError(t, printToggles(&out, tbl.Get, []string{toggles.ArrayRaw, toggles.KillCancelTimer}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{toggles.ArrayRaw, "true"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{toggles.KillCancelTimer, "nil"}, strings.Fields(lines[1]))

	err := printToggles(&out, tbl.Get, []string{"no.such.toggle"})
	assert.Error(t, err)
}
