package base

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// Column - метаданные колонки результата
type Column struct {
	Name     string
	TypeName string
	Type     schema.JDBCType
}

// RowSource - источник строк (*sql.Rows или StaticRows)
type RowSource interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// SQLCursor - adapters.ResultSet поверх database/sql строк.
// Каждая строка сканируется в []any, геттеры приводят значения к нужному типу.
type SQLCursor struct {
	dialect string
	src     RowSource
	cols    []Column
	row     []any
	wasNull bool
	err     error
}

var _ adapters.ResultSet = (*SQLCursor)(nil)

// NewSQLCursor создает курсор
func NewSQLCursor(dialect string, src RowSource, cols []Column) *SQLCursor {
	return &SQLCursor{dialect: dialect, src: src, cols: cols}
}

// Next переходит к следующей строке
func (c *SQLCursor) Next() bool {
	if c.err != nil || !c.src.Next() {
		return false
	}
	row := make([]any, len(c.cols))
	dest := make([]any, len(c.cols))
	for i := range row {
		dest[i] = &row[i]
	}
	if err := c.src.Scan(dest...); err != nil {
		c.err = fmt.Errorf("failed to scan row: %w", err)
		return false
	}
	c.row = row
	return true
}

// Err возвращает ошибку итерации
func (c *SQLCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.src.Err()
}

// Close закрывает источник строк
func (c *SQLCursor) Close() error { return c.src.Close() }

// ColumnCount возвращает количество колонок
func (c *SQLCursor) ColumnCount() int { return len(c.cols) }

// ColumnName возвращает имя колонки
func (c *SQLCursor) ColumnName(index int) string {
	if col, ok := c.column(index); ok {
		return col.Name
	}
	return ""
}

// ColumnType возвращает код типа колонки
func (c *SQLCursor) ColumnType(index int) schema.JDBCType {
	if col, ok := c.column(index); ok {
		return col.Type
	}
	return schema.TypeOther
}

// ColumnTypeName возвращает имя типа колонки
func (c *SQLCursor) ColumnTypeName(index int) string {
	if col, ok := c.column(index); ok {
		return col.TypeName
	}
	return ""
}

// WasNull сообщает, был ли NULL прочитан последним геттером
func (c *SQLCursor) WasNull() bool { return c.wasNull }

func (c *SQLCursor) column(index int) (Column, bool) {
	if index < 1 || index > len(c.cols) {
		return Column{}, false
	}
	return c.cols[index-1], true
}

func (c *SQLCursor) value(index int) (any, error) {
	if c.row == nil {
		return nil, fmt.Errorf("no current row")
	}
	if index < 1 || index > len(c.row) {
		return nil, fmt.Errorf("column index %d out of range [1, %d]", index, len(c.row))
	}
	v := c.row[index-1]
	c.wasNull = v == nil
	return v, nil
}

func (c *SQLCursor) convertErr(index int, v any, target string) error {
	return adapters.Errorf(adapters.ErrTypeMismatch, c.dialect, fmt.Sprintf("extract column %d", index),
		"cannot read %T as %s", v, target)
}

// GetString реализует adapters.ResultSet
func (c *SQLCursor) GetString(index int) (string, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999999"), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// GetBool реализует adapters.ResultSet
func (c *SQLCursor) GetBool(index int) (bool, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return false, err
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case []byte:
		if c.ColumnType(index) == schema.TypeBit && len(x) <= 8 {
			return bitsToInt(x) != 0, nil
		}
		if b, ok := ParseBool(string(x)); ok {
			return b, nil
		}
	case string:
		if b, ok := ParseBool(x); ok {
			return b, nil
		}
	}
	return false, c.convertErr(index, v, "boolean")
}

// GetInt64 реализует adapters.ResultSet. BIT колонки, пришедшие байтами,
// читаются как беззнаковое число big-endian.
func (c *SQLCursor) GetInt64(index int) (int64, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return 0, err
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float64:
		if x == math.Trunc(x) {
			return int64(x), nil
		}
	case []byte:
		if c.ColumnType(index) == schema.TypeBit && len(x) <= 8 {
			return int64(bitsToInt(x)), nil
		}
		if i, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64); err == nil {
			return i, nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, c.convertErr(index, v, "integer")
}

func bitsToInt(b []byte) uint64 {
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return binary.BigEndian.Uint64(buf[:])
}

// GetFloat64 реализует adapters.ResultSet
func (c *SQLCursor) GetFloat64(index int) (float64, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case []byte:
		if f, err := ParseFloat(string(x)); err == nil {
			return f, nil
		}
	case string:
		if f, err := ParseFloat(x); err == nil {
			return f, nil
		}
	}
	return 0, c.convertErr(index, v, "float")
}

// GetBytes реализует adapters.ResultSet
func (c *SQLCursor) GetBytes(index int) ([]byte, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return nil, err
	}
	switch x := v.(type) {
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out, nil
	case string:
		return []byte(x), nil
	}
	return nil, c.convertErr(index, v, "bytes")
}

// GetDate реализует adapters.ResultSet
func (c *SQLCursor) GetDate(index int) (civil.Date, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return civil.Date{}, err
	}
	switch x := v.(type) {
	case time.Time:
		return civil.DateOf(x), nil
	case []byte, string:
		if ts, err := ParseTimestamp(asText(x)); err == nil {
			return civil.DateOf(ts), nil
		}
	}
	return civil.Date{}, c.convertErr(index, v, "date")
}

// GetTime реализует adapters.ResultSet
func (c *SQLCursor) GetTime(index int) (civil.Time, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return civil.Time{}, err
	}
	switch x := v.(type) {
	case time.Time:
		return civil.TimeOf(x), nil
	case []byte, string:
		s := strings.TrimSpace(asText(x))
		if t, err := civil.ParseTime(s); err == nil {
			return t, nil
		}
		if ts, err := ParseTimestamp(s); err == nil {
			return civil.TimeOf(ts), nil
		}
	}
	return civil.Time{}, c.convertErr(index, v, "time")
}

// GetTimestamp реализует adapters.ResultSet
func (c *SQLCursor) GetTimestamp(index int) (time.Time, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case []byte, string:
		if ts, err := ParseTimestamp(asText(x)); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, c.convertErr(index, v, "timestamp")
}

// GetObject реализует adapters.ResultSet. Байты небинарных колонок
// возвращаются строкой.
func (c *SQLCursor) GetObject(index int) (any, error) {
	v, err := c.value(index)
	if err != nil || v == nil {
		return nil, err
	}
	if b, ok := v.([]byte); ok && !c.ColumnType(index).IsBinary() {
		return string(b), nil
	}
	return v, nil
}

// GetArray реализует adapters.ResultSet; database/sql массивов не отдает
func (c *SQLCursor) GetArray(index int) (adapters.Array, error) {
	return nil, adapters.Errorf(adapters.ErrUnsupportedValue, c.dialect, fmt.Sprintf("extract column %d", index),
		"arrays are not available through database/sql")
}

func asText(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v.(string)
}

// StaticRows - RowSource из заранее известных строк
type StaticRows struct {
	Rows [][]any
	pos  int
	err  error
}

// Next реализует RowSource
func (r *StaticRows) Next() bool {
	if r.pos >= len(r.Rows) {
		return false
	}
	r.pos++
	return true
}

// Scan реализует RowSource; dest - указатели *any
func (r *StaticRows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.Rows) {
		return fmt.Errorf("scan called without a row")
	}
	row := r.Rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return fmt.Errorf("destination %d is %T, expected *any", i, d)
		}
		*p = row[i]
	}
	return nil
}

// Err реализует RowSource
func (r *StaticRows) Err() error { return r.err }

// Close реализует RowSource
func (r *StaticRows) Close() error { return nil }
