package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// RawRows - строки результата в текстовом формате (pgx.Rows или StaticRows)
type RawRows interface {
	Next() bool
	RawValues() [][]byte
	FieldDescriptions() []pgconn.FieldDescription
	Err() error
	Close()
}

// Cursor - adapters.ResultSet поверх текстовых значений сервера.
// Запрос выполняется с текстовым форматом результата, поэтому текст
// сервера (суффикс BC, infinity) доступен без потерь; типизированные
// геттеры разбирают его через pgtype.Map.
type Cursor struct {
	m       *pgtype.Map
	rows    RawRows
	fields  []pgconn.FieldDescription
	raw     [][]byte
	wasNull bool
}

var _ adapters.ResultSet = (*Cursor)(nil)

// NewCursor создает курсор; m - карта типов соединения
func NewCursor(m *pgtype.Map, rows RawRows) *Cursor {
	return &Cursor{m: m, rows: rows}
}

func (c *Cursor) fieldDescriptions() []pgconn.FieldDescription {
	if c.fields == nil {
		c.fields = c.rows.FieldDescriptions()
	}
	return c.fields
}

// Next переходит к следующей строке. Значения копируются: pgx
// переиспользует буферы между строками.
func (c *Cursor) Next() bool {
	if !c.rows.Next() {
		return false
	}
	values := c.rows.RawValues()
	c.raw = make([][]byte, len(values))
	for i, v := range values {
		if v != nil {
			c.raw[i] = append([]byte{}, v...)
		}
	}
	return true
}

// Err возвращает ошибку итерации
func (c *Cursor) Err() error { return c.rows.Err() }

// Close закрывает строки
func (c *Cursor) Close() error {
	c.rows.Close()
	return c.rows.Err()
}

// ColumnCount возвращает количество колонок
func (c *Cursor) ColumnCount() int { return len(c.fieldDescriptions()) }

// ColumnName возвращает имя колонки
func (c *Cursor) ColumnName(index int) string {
	if f, ok := c.field(index); ok {
		return f.Name
	}
	return ""
}

// ColumnType возвращает код JDBC по OID колонки
func (c *Cursor) ColumnType(index int) schema.JDBCType {
	if f, ok := c.field(index); ok {
		return JDBCTypeForOID(c.m, f.DataTypeOID)
	}
	return schema.TypeOther
}

// ColumnTypeName возвращает имя типа PostgreSQL
func (c *Cursor) ColumnTypeName(index int) string {
	if f, ok := c.field(index); ok {
		return typeName(c.m, f.DataTypeOID)
	}
	return ""
}

// WasNull сообщает, был ли NULL прочитан последним геттером
func (c *Cursor) WasNull() bool { return c.wasNull }

func (c *Cursor) field(index int) (pgconn.FieldDescription, bool) {
	fields := c.fieldDescriptions()
	if index < 1 || index > len(fields) {
		return pgconn.FieldDescription{}, false
	}
	return fields[index-1], true
}

func (c *Cursor) value(index int) ([]byte, uint32, error) {
	if c.raw == nil {
		return nil, 0, fmt.Errorf("no current row")
	}
	if index < 1 || index > len(c.raw) {
		return nil, 0, fmt.Errorf("column index %d out of range [1, %d]", index, len(c.raw))
	}
	f, _ := c.field(index)
	v := c.raw[index-1]
	c.wasNull = v == nil
	return v, f.DataTypeOID, nil
}

func (c *Cursor) mismatch(index int, raw []byte, target string) error {
	return adapters.Errorf(adapters.ErrTypeMismatch, DialectName, fmt.Sprintf("extract column %d", index),
		"cannot read %q as %s", raw, target)
}

func (c *Cursor) infinite(index int, target string) error {
	return adapters.Errorf(adapters.ErrUnsupportedValue, DialectName, fmt.Sprintf("extract column %d", index),
		"infinite %s has no finite representation", target)
}

// GetString возвращает текст сервера как есть
func (c *Cursor) GetString(index int) (string, error) {
	raw, _, err := c.value(index)
	if err != nil || raw == nil {
		return "", err
	}
	return string(raw), nil
}

// GetBool реализует adapters.ResultSet
func (c *Cursor) GetBool(index int) (bool, error) {
	raw, _, err := c.value(index)
	if err != nil || raw == nil {
		return false, err
	}
	if b, ok := base.ParseBool(string(raw)); ok {
		return b, nil
	}
	return false, c.mismatch(index, raw, "boolean")
}

// GetInt64 реализует adapters.ResultSet
func (c *Cursor) GetInt64(index int) (int64, error) {
	raw, oid, err := c.value(index)
	if err != nil || raw == nil {
		return 0, err
	}
	if i, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return i, nil
	}
	var i int64
	if err := c.m.Scan(oid, pgtype.TextFormatCode, raw, &i); err != nil {
		return 0, c.mismatch(index, raw, "integer")
	}
	return i, nil
}

// GetFloat64 реализует adapters.ResultSet
func (c *Cursor) GetFloat64(index int) (float64, error) {
	raw, _, err := c.value(index)
	if err != nil || raw == nil {
		return 0, err
	}
	f, err := base.ParseFloat(string(raw))
	if err != nil {
		return 0, c.mismatch(index, raw, "float")
	}
	return f, nil
}

// GetBytes декодирует bytea (\x...), остальные типы отдает текстом
func (c *Cursor) GetBytes(index int) ([]byte, error) {
	raw, oid, err := c.value(index)
	if err != nil || raw == nil {
		return nil, err
	}
	if oid != pgtype.ByteaOID {
		return append([]byte{}, raw...), nil
	}
	var b []byte
	if err := c.m.Scan(oid, pgtype.TextFormatCode, raw, &b); err != nil {
		return nil, c.mismatch(index, raw, "bytea")
	}
	return b, nil
}

// GetDate реализует adapters.ResultSet
func (c *Cursor) GetDate(index int) (civil.Date, error) {
	raw, oid, err := c.value(index)
	if err != nil || raw == nil {
		return civil.Date{}, err
	}
	if oid == pgtype.DateOID {
		var d pgtype.Date
		if err := c.m.Scan(oid, pgtype.TextFormatCode, raw, &d); err != nil {
			return civil.Date{}, c.mismatch(index, raw, "date")
		}
		if d.InfinityModifier != pgtype.Finite {
			return civil.Date{}, c.infinite(index, "date")
		}
		return civil.DateOf(d.Time), nil
	}
	ts, err := c.GetTimestamp(index)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(ts), nil
}

// GetTime реализует adapters.ResultSet; смещение timetz отбрасывается
func (c *Cursor) GetTime(index int) (civil.Time, error) {
	raw, _, err := c.value(index)
	if err != nil || raw == nil {
		return civil.Time{}, err
	}
	s := string(raw)
	if len(s) > 8 {
		if i := strings.IndexAny(s[8:], "+-"); i >= 0 {
			s = s[:8+i]
		}
	}
	t, err := civil.ParseTime(s)
	if err != nil {
		if ts, tsErr := base.ParseTimestamp(string(raw)); tsErr == nil {
			return civil.TimeOf(ts), nil
		}
		return civil.Time{}, c.mismatch(index, raw, "time")
	}
	return t, nil
}

// GetTimestamp реализует adapters.ResultSet. Бесконечность - ErrUnsupportedValue;
// текст с бесконечностью доступен через GetString.
func (c *Cursor) GetTimestamp(index int) (time.Time, error) {
	raw, oid, err := c.value(index)
	if err != nil || raw == nil {
		return time.Time{}, err
	}

	switch oid {
	case pgtype.TimestamptzOID:
		var ts pgtype.Timestamptz
		if err := c.m.Scan(oid, pgtype.TextFormatCode, raw, &ts); err != nil {
			return time.Time{}, c.mismatch(index, raw, "timestamptz")
		}
		if ts.InfinityModifier != pgtype.Finite {
			return time.Time{}, c.infinite(index, "timestamp")
		}
		return ts.Time, nil
	case pgtype.TimestampOID:
		var ts pgtype.Timestamp
		if err := c.m.Scan(oid, pgtype.TextFormatCode, raw, &ts); err != nil {
			return time.Time{}, c.mismatch(index, raw, "timestamp")
		}
		if ts.InfinityModifier != pgtype.Finite {
			return time.Time{}, c.infinite(index, "timestamp")
		}
		return ts.Time, nil
	case pgtype.DateOID:
		d, err := c.GetDate(index)
		if err != nil {
			return time.Time{}, err
		}
		return d.In(time.UTC), nil
	}

	ts, err := base.ParseTimestamp(string(raw))
	if err != nil {
		return time.Time{}, c.mismatch(index, raw, "timestamp")
	}
	return ts, nil
}

// GetObject возвращает uuid.UUID для uuid, schema.Interval для interval,
// map[string]*string для hstore и Object с текстом для прочих типов
func (c *Cursor) GetObject(index int) (any, error) {
	raw, oid, err := c.value(index)
	if err != nil || raw == nil {
		return nil, err
	}

	switch oid {
	case pgtype.UUIDOID:
		u, err := uuid.ParseBytes(raw)
		if err != nil {
			return nil, c.mismatch(index, raw, "uuid")
		}
		return u, nil
	case pgtype.IntervalOID:
		iv, err := schema.ParseInterval(string(raw))
		if err != nil {
			return nil, c.mismatch(index, raw, "interval")
		}
		return iv, nil
	}

	if t, ok := c.m.TypeForOID(oid); ok {
		if codec, isHstore := t.Codec.(pgtype.HstoreCodec); isHstore {
			h, err := codec.DecodeValue(c.m, oid, pgtype.TextFormatCode, raw)
			if err != nil {
				return nil, c.mismatch(index, raw, "hstore")
			}
			return map[string]*string(h.(pgtype.Hstore)), nil
		}
	}

	return Object{Type: typeName(c.m, oid), Value: string(raw)}, nil
}

// GetArray разбирает литерал массива; NULL дает nil
func (c *Cursor) GetArray(index int) (adapters.Array, error) {
	raw, oid, err := c.value(index)
	if err != nil || raw == nil {
		return nil, err
	}
	arr, err := newArray(c.m, oid, string(raw))
	if err != nil {
		return nil, adapters.NewError(adapters.ErrTypeMismatch, DialectName, fmt.Sprintf("extract column %d", index), err)
	}
	return arr, nil
}

// StaticRows - RawRows из заранее известных текстовых значений
type StaticRows struct {
	Fields []pgconn.FieldDescription
	Rows   [][][]byte
	pos    int
}

// Next реализует RawRows
func (r *StaticRows) Next() bool {
	if r.pos >= len(r.Rows) {
		return false
	}
	r.pos++
	return true
}

// RawValues реализует RawRows
func (r *StaticRows) RawValues() [][]byte { return r.Rows[r.pos-1] }

// FieldDescriptions реализует RawRows
func (r *StaticRows) FieldDescriptions() []pgconn.FieldDescription { return r.Fields }

// Err реализует RawRows
func (r *StaticRows) Err() error { return nil }

// Close реализует RawRows
func (r *StaticRows) Close() {}

// ExtractColumn извлекает значение колонки по правилам PostgreSQL
func (d *Dialect) ExtractColumn(rs adapters.ResultSet, index int, code schema.JDBCType) (schema.Value, error) {
	v, err := d.extract(rs, index, code)
	base.ObserveExtract(d.Name(), code, err)
	return v, err
}

func (d *Dialect) extract(rs adapters.ResultSet, index int, code schema.JDBCType) (schema.Value, error) {
	switch code {
	case schema.TypeBit:
		// BIT приходит и для bool ('t'/'f'), и для битовых строк ("0110")
		bits, err := rs.GetString(index)
		if err != nil || rs.WasNull() {
			return schema.Null(), err
		}
		if len(bits) > 1 {
			return schema.String(bits), nil
		}
		b, ok := base.ParseBool(bits)
		if !ok {
			return schema.Value{}, adapters.Errorf(adapters.ErrTypeMismatch, d.Name(),
				fmt.Sprintf("extract column %d", index), "cannot read %q as boolean", bits)
		}
		return schema.Bool(b), nil

	case schema.TypeTimestamp, schema.TypeTimestampWithTimezone:
		s, err := rs.GetString(index)
		if err != nil || rs.WasNull() {
			return schema.Null(), err
		}
		if d.TimestampCaster != nil {
			return d.TimestampCaster(s)
		}
		return schema.String(s), nil

	case schema.TypeArray:
		if d.toggles.ArrayRaw() {
			s, err := rs.GetString(index)
			if err != nil || rs.WasNull() {
				return schema.Null(), err
			}
			return schema.String(s), nil
		}
		return d.codec.ExtractArray(rs, index, d.extract)

	case schema.TypeOther, schema.TypeJavaObject:
		obj, err := rs.GetObject(index)
		if err != nil {
			return schema.Value{}, err
		}
		if obj == nil && rs.WasNull() {
			return schema.Null(), nil
		}
		return d.objectToValue(rs, index, obj)
	}

	return d.codec.Extract(rs, index, code)
}

func (d *Dialect) objectToValue(rs adapters.ResultSet, index int, obj any) (schema.Value, error) {
	switch o := obj.(type) {
	case uuid.UUID:
		return schema.String(o.String()), nil
	case schema.Interval:
		if d.toggles.IntervalRaw() {
			return schema.String(o.String()), nil
		}
		return schema.String(formatInterval(o)), nil
	case map[string]*string:
		if d.toggles.HstoreRaw() {
			s, err := rs.GetString(index)
			if err != nil {
				return schema.Value{}, err
			}
			return schema.String(s), nil
		}
		return schema.Hstore(o), nil
	case Object:
		return schema.String(o.Value), nil
	}
	return schema.FromNative(obj), nil
}
