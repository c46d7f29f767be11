package base

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// ElementExtractor извлекает одно значение; используется для элементов массивов
type ElementExtractor func(rs adapters.ResultSet, index int, code schema.JDBCType) (schema.Value, error)

// Codec - общая матрица связывания и извлечения по коду типа.
// Диалекты обрабатывают свои особые случаи и откатываются к Codec.
type Codec struct {
	Dialect string
}

func (c Codec) bindOp(index int) string {
	return fmt.Sprintf("bind parameter %d", index)
}

// Mismatch создает ошибку ErrTypeMismatch для параметра
func (c Codec) Mismatch(index int, v schema.Value, target string) error {
	return adapters.Errorf(adapters.ErrTypeMismatch, c.Dialect, c.bindOp(index),
		"cannot bind %s value as %s", v.Kind(), target)
}

// Unsupported создает ошибку ErrUnsupportedValue для параметра
func (c Codec) Unsupported(index int, v schema.Value, target string) error {
	return adapters.Errorf(adapters.ErrUnsupportedValue, c.Dialect, c.bindOp(index),
		"%s value %q has no %s representation", v.Kind(), v.String(), target)
}

// Unrepresentable создает ошибку ErrUnrepresentableValue для параметра
func (c Codec) Unrepresentable(index int, typeName string, err error) error {
	return adapters.NewError(adapters.ErrUnrepresentableValue, c.Dialect, c.bindOp(index),
		fmt.Errorf("invalid %s: %w", typeName, err))
}

// Bind связывает значение по коду типа
func (c Codec) Bind(stmt adapters.Statement, index int, v schema.Value, code schema.JDBCType) error {
	if v.IsNull() {
		return stmt.SetNull(index, code)
	}

	switch {
	case code == schema.TypeBit || code == schema.TypeBoolean:
		b, err := c.AsBool(index, v)
		if err != nil {
			return err
		}
		return stmt.SetBool(index, b)

	case code.IsIntegral():
		i, err := c.AsInt64(index, v)
		if err != nil {
			return err
		}
		return stmt.SetInt64(index, i)

	case code == schema.TypeReal || code == schema.TypeFloat || code == schema.TypeDouble:
		f, err := c.AsFloat64(index, v)
		if err != nil {
			return err
		}
		return stmt.SetFloat64(index, f)

	case code == schema.TypeNumeric || code == schema.TypeDecimal:
		d, err := c.AsDecimal(index, v)
		if err != nil {
			return err
		}
		return stmt.SetString(index, d)

	case code.IsText():
		return stmt.SetString(index, v.String())

	case code == schema.TypeDate:
		d, err := c.AsDate(index, v)
		if err != nil {
			return err
		}
		return stmt.SetDate(index, d)

	case code == schema.TypeTime || code == schema.TypeTimeWithTimezone:
		t, err := c.AsClock(index, v)
		if err != nil {
			return err
		}
		return stmt.SetTime(index, t)

	case code == schema.TypeTimestamp || code == schema.TypeTimestampWithTimezone:
		ts, err := c.AsTimestamp(index, v)
		if err != nil {
			return err
		}
		return stmt.SetTimestamp(index, ts)

	case code.IsBinary():
		return c.BindBinary(stmt, index, v)

	case code == schema.TypeArray:
		return c.Unsupported(index, v, "generic array")

	default:
		if v.Kind() == schema.KindString {
			return stmt.SetString(index, v.String())
		}
		return stmt.SetObject(index, v.Native())
	}
}

// BindBinary передает байты с явной длиной, поток - как есть
func (c Codec) BindBinary(stmt adapters.Statement, index int, v schema.Value) error {
	switch v.Kind() {
	case schema.KindBytes:
		b, _ := v.Bytes()
		return stmt.SetBinaryStream(index, bytes.NewReader(b), int64(len(b)))
	case schema.KindStream:
		r, n, _ := v.Stream()
		return stmt.SetBinaryStream(index, r, n)
	case schema.KindString:
		s := v.String()
		return stmt.SetBinaryStream(index, strings.NewReader(s), int64(len(s)))
	default:
		return c.Mismatch(index, v, "binary")
	}
}

// AsBool приводит значение к bool
func (c Codec) AsBool(index int, v schema.Value) (bool, error) {
	switch v.Kind() {
	case schema.KindBool:
		b, _ := v.Bool()
		return b, nil
	case schema.KindInt:
		i, _ := v.Int64()
		return i != 0, nil
	case schema.KindString, schema.KindBitString, schema.KindDecimal:
		if b, ok := ParseBool(v.String()); ok {
			return b, nil
		}
	}
	return false, c.Mismatch(index, v, "boolean")
}

// ParseBool разбирает текстовые формы логического значения
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1", "y", "yes", "on":
		return true, true
	case "f", "false", "0", "n", "no", "off":
		return false, true
	}
	return false, false
}

// AsInt64 приводит значение к int64
func (c Codec) AsInt64(index int, v schema.Value) (int64, error) {
	switch v.Kind() {
	case schema.KindInt:
		i, _ := v.Int64()
		return i, nil
	case schema.KindBool:
		if b, _ := v.Bool(); b {
			return 1, nil
		}
		return 0, nil
	case schema.KindFloat:
		f, _ := v.Float64()
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f), nil
		}
	case schema.KindString, schema.KindDecimal:
		if i, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, c.Mismatch(index, v, "integer")
}

// AsFloat64 приводит значение к float64
func (c Codec) AsFloat64(index int, v schema.Value) (float64, error) {
	switch v.Kind() {
	case schema.KindFloat:
		f, _ := v.Float64()
		return f, nil
	case schema.KindInt:
		i, _ := v.Int64()
		return float64(i), nil
	case schema.KindString, schema.KindDecimal:
		if f, err := ParseFloat(v.String()); err == nil {
			return f, nil
		}
	}
	return 0, c.Mismatch(index, v, "float")
}

// ParseFloat разбирает число, включая Infinity, -Infinity и NaN
func ParseFloat(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// AsDecimal приводит значение к десятичному тексту
func (c Codec) AsDecimal(index int, v schema.Value) (string, error) {
	switch v.Kind() {
	case schema.KindDecimal, schema.KindInt:
		return v.String(), nil
	case schema.KindFloat:
		f, _ := v.Float64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return "", c.Unsupported(index, v, "decimal")
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case schema.KindString:
		s := strings.TrimSpace(v.String())
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return s, nil
		}
	}
	return "", c.Mismatch(index, v, "decimal")
}

// AsDate приводит значение к дате
func (c Codec) AsDate(index int, v schema.Value) (civil.Date, error) {
	switch v.Kind() {
	case schema.KindTime:
		return v.Date(), nil
	case schema.KindString:
		if ts, err := ParseTimestamp(v.String()); err == nil {
			return civil.DateOf(ts), nil
		}
	}
	return civil.Date{}, c.Mismatch(index, v, "date")
}

// AsClock приводит значение ко времени суток
func (c Codec) AsClock(index int, v schema.Value) (civil.Time, error) {
	switch v.Kind() {
	case schema.KindTime:
		return v.Clock(), nil
	case schema.KindString:
		if t, err := civil.ParseTime(strings.TrimSpace(v.String())); err == nil {
			return t, nil
		}
		if ts, err := ParseTimestamp(v.String()); err == nil {
			return civil.TimeOf(ts), nil
		}
	}
	return civil.Time{}, c.Mismatch(index, v, "time")
}

// AsTimestamp приводит значение к метке времени. Бесконечность не
// представима в общей матрице.
func (c Codec) AsTimestamp(index int, v schema.Value) (time.Time, error) {
	switch v.Kind() {
	case schema.KindTime:
		t, _, _ := v.Time()
		return t, nil
	case schema.KindString:
		if ts, err := ParseTimestamp(v.String()); err == nil {
			return ts, nil
		}
	case schema.KindFloat:
		if f, _ := v.Float64(); math.IsInf(f, 0) {
			return time.Time{}, c.Unsupported(index, v, "timestamp")
		}
	}
	return time.Time{}, c.Mismatch(index, v, "timestamp")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"15:04:05.999999999",
}

// ParseTimestamp разбирает метку времени в распространенных текстовых формах
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Extract извлекает значение по коду типа. Каждый геттер проверяется через WasNull.
func (c Codec) Extract(rs adapters.ResultSet, index int, code schema.JDBCType) (schema.Value, error) {
	switch {
	case code == schema.TypeNull:
		return schema.Null(), nil

	case code == schema.TypeBit || code == schema.TypeBoolean:
		b, err := rs.GetBool(index)
		return nullOr(rs, err, func() schema.Value { return schema.Bool(b) })

	case code.IsIntegral():
		i, err := rs.GetInt64(index)
		return nullOr(rs, err, func() schema.Value { return schema.Int(i) })

	case code == schema.TypeReal || code == schema.TypeFloat || code == schema.TypeDouble:
		f, err := rs.GetFloat64(index)
		return nullOr(rs, err, func() schema.Value { return schema.Float(f) })

	case code == schema.TypeNumeric || code == schema.TypeDecimal:
		s, err := rs.GetString(index)
		return nullOr(rs, err, func() schema.Value { return schema.Decimal(s) })

	case code.IsText():
		s, err := rs.GetString(index)
		return nullOr(rs, err, func() schema.Value { return schema.String(s) })

	case code == schema.TypeDate:
		d, err := rs.GetDate(index)
		return nullOr(rs, err, func() schema.Value { return schema.Date(d) })

	case code == schema.TypeTime || code == schema.TypeTimeWithTimezone:
		t, err := rs.GetTime(index)
		return nullOr(rs, err, func() schema.Value { return schema.TimeOfDay(t) })

	case code == schema.TypeTimestamp || code == schema.TypeTimestampWithTimezone:
		ts, err := rs.GetTimestamp(index)
		return nullOr(rs, err, func() schema.Value {
			return schema.Timestamp(ts, code == schema.TypeTimestampWithTimezone)
		})

	case code.IsBinary():
		b, err := rs.GetBytes(index)
		return nullOr(rs, err, func() schema.Value { return schema.Bytes(b) })

	case code == schema.TypeArray:
		return c.ExtractArray(rs, index, c.Extract)

	default:
		obj, err := rs.GetObject(index)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.FromNative(obj), nil
	}
}

// ExtractArray проходит по строкам массива, беря колонку 2 (значение), и
// извлекает каждый элемент с кодом BaseType. Free у массива не вызывается:
// как минимум один драйвер его не реализует.
func (c Codec) ExtractArray(rs adapters.ResultSet, index int, elem ElementExtractor) (schema.Value, error) {
	arr, err := rs.GetArray(index)
	if err != nil {
		return schema.Value{}, err
	}
	if arr == nil || rs.WasNull() {
		return schema.Null(), nil
	}

	baseType := arr.BaseType()
	rows, err := arr.ResultSet()
	if err != nil {
		return schema.Value{}, err
	}
	defer rows.Close()

	var elems []schema.Value
	for rows.Next() {
		v, err := elem(rows, 2, baseType)
		if err != nil {
			return schema.Value{}, err
		}
		elems = append(elems, v)
	}
	if err := rows.Err(); err != nil {
		return schema.Value{}, err
	}
	return schema.Array(arr.BaseTypeName(), elems...), nil
}

func nullOr(rs adapters.ResultSet, err error, value func() schema.Value) (schema.Value, error) {
	if err != nil {
		return schema.Value{}, err
	}
	if rs.WasNull() {
		return schema.Null(), nil
	}
	return value(), nil
}
