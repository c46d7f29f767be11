package base

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// SQLConn реализует adapters.Conn поверх одного *sql.Conn.
// Используется для MySQL и для SQLite в тестах.
type SQLConn struct {
	Dialect string
	Conn    *sql.Conn
	// Classify сопоставляет DatabaseTypeName коду типа; nil = schema.GenericType
	Classify func(typeName string) schema.JDBCType
}

var (
	_ adapters.Conn        = (*SQLConn)(nil)
	_ adapters.ProbeOpener = (*SQLConn)(nil)
	_ adapters.Validator   = (*SQLConn)(nil)
)

// NewSQLConn создает SQLConn
func NewSQLConn(dialect string, conn *sql.Conn, classify func(string) schema.JDBCType) *SQLConn {
	return &SQLConn{Dialect: dialect, Conn: conn, Classify: classify}
}

func (c *SQLConn) classify(typeName string) schema.JDBCType {
	if c.Classify != nil {
		return c.Classify(typeName)
	}
	return schema.GenericType(typeName)
}

// Query выполняет запрос и возвращает курсор с метаданными колонок
func (c *SQLConn) Query(ctx context.Context, query string, args ...any) (adapters.ResultSet, error) {
	rows, err := c.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	cols := make([]Column, len(types))
	for i, ct := range types {
		cols[i] = Column{
			Name:     ct.Name(),
			TypeName: ct.DatabaseTypeName(),
			Type:     c.classify(ct.DatabaseTypeName()),
		}
	}
	return NewSQLCursor(c.Dialect, rows, cols), nil
}

// Exec выполняет команду и возвращает число затронутых строк
func (c *SQLConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Close возвращает соединение в пул database/sql
func (c *SQLConn) Close(ctx context.Context) error {
	return c.Conn.Close()
}

// PrepareProbe подготавливает пробный запрос
func (c *SQLConn) PrepareProbe(ctx context.Context, query string) (adapters.ProbeStatement, error) {
	stmt, err := c.Conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlProbe{stmt: stmt}, nil
}

// IsValid проверяет соединение через Ping
func (c *SQLConn) IsValid(ctx context.Context, timeout time.Duration) (bool, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := c.Conn.PingContext(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

type sqlProbe struct {
	stmt *sql.Stmt
}

func (p *sqlProbe) Exec(ctx context.Context) error {
	_, err := p.stmt.ExecContext(ctx)
	return err
}

func (p *sqlProbe) Close() error { return p.stmt.Close() }
