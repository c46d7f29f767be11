package postgres

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// NewStatement создает набор параметров PostgreSQL. NULL с кодом BLOB
// отклоняется: драйвер путает bytea и oid.
func (d *Dialect) NewStatement() adapters.PreparedStatement {
	return base.NewParams(d.Name(), pgArg).RefuseNull(schema.TypeBlob)
}

// pgArg превращает записанный параметр в аргумент pgx
func pgArg(p base.Param) (any, error) {
	switch p.Kind {
	case base.ParamNull:
		return nil, nil
	case base.ParamTimestamp:
		t := p.Value.(time.Time)
		switch t.UnixMilli() {
		case DatePositiveInfinity:
			return "infinity", nil
		case DateNegativeInfinity:
			return "-infinity", nil
		}
		return t, nil
	case base.ParamDate:
		return pgtype.Date{Time: p.Value.(civil.Date).In(time.UTC), Valid: true}, nil
	case base.ParamTime:
		return p.Value.(civil.Time).String(), nil
	case base.ParamObject:
		if o, ok := p.Value.(Object); ok {
			// текст разбирается сервером по типу параметра
			return o.Value, nil
		}
		return p.Value, nil
	default:
		return base.DefaultArg(p)
	}
}

// BindParameter связывает значение по правилам PostgreSQL.
// columnType главнее code; code используется, когда имя типа не задано.
func (d *Dialect) BindParameter(stmt adapters.Statement, index int, v schema.Value, columnType string, code schema.JDBCType) error {
	err := d.bind(stmt, index, v, columnType, code)
	base.ObserveBind(d.Name(), code, err)
	return err
}

func (d *Dialect) bind(stmt adapters.Statement, index int, v schema.Value, columnType string, code schema.JDBCType) error {
	if code == schema.TypeNull && columnType != "" {
		code = TypeFor(columnType)
	}

	if v.IsNull() {
		if code == schema.TypeBlob {
			return stmt.SetNull(index, schema.TypeBinary)
		}
		return stmt.SetNull(index, code)
	}

	switch columnType {
	case "bit", "bit_varying":
		return d.bindBitString(stmt, index, v)

	case "cidr", "citext", "hstore", "inet", "ltree", "macaddr", "tsvector", "json", "jsonb":
		return stmt.SetObject(index, Object{Type: columnType, Value: v.String()})

	case "interval":
		iv, ok := v.Interval()
		if !ok {
			parsed, err := schema.ParseInterval(v.String())
			if err != nil {
				return d.codec.Unrepresentable(index, columnType, err)
			}
			iv = parsed
		}
		return stmt.SetObject(index, toPgInterval(iv))

	case "line":
		var line pgtype.Line
		if err := line.Scan(v.String()); err != nil {
			return d.codec.Unrepresentable(index, columnType, err)
		}
		return stmt.SetObject(index, line)

	case "lseg":
		var lseg pgtype.Lseg
		if err := lseg.Scan(v.String()); err != nil {
			return d.codec.Unrepresentable(index, columnType, err)
		}
		return stmt.SetObject(index, lseg)

	case "point":
		var point pgtype.Point
		if err := point.Scan(v.String()); err != nil {
			return d.codec.Unrepresentable(index, columnType, err)
		}
		return stmt.SetObject(index, point)

	case "uuid":
		return d.bindUUID(stmt, index, v)

	case "":
		// без имени типа строка вида UUID связывается как uuid, иначе
		// сервер не сравнит ее с колонкой uuid
		if v.Kind() == schema.KindString {
			if s := v.String(); len(s) == 36 && uuidPattern.MatchString(s) {
				return d.bindUUID(stmt, index, v)
			}
		}

	default:
		if strings.HasSuffix(columnType, "range") {
			return d.bindRange(stmt, index, v, columnType)
		}
	}

	switch {
	case code == schema.TypeTimestamp || code == schema.TypeTimestampWithTimezone ||
		strings.HasPrefix(columnType, "timestamp"):
		// timestamptz в каталоге - OTHER, поэтому проверяется и имя
		if f, ok := v.Float64(); ok && math.IsInf(f, 0) {
			sentinel := DatePositiveInfinity
			if f < 0 {
				sentinel = DateNegativeInfinity
			}
			return stmt.SetTimestamp(index, time.UnixMilli(sentinel))
		}

	case code == schema.TypeArray || v.Kind() == schema.KindArray:
		if v.Kind() != schema.KindArray {
			return d.codec.Mismatch(index, v, "array")
		}
		return stmt.SetString(index, formatArrayLiteral(v))

	case v.Kind() == schema.KindUUID:
		return d.bindUUID(stmt, index, v)

	case v.Kind() == schema.KindRange:
		return d.bindRange(stmt, index, v, v.Tag()+"range")

	case v.Kind() == schema.KindBitString:
		return d.bindBitString(stmt, index, v)

	case v.Kind() == schema.KindInterval:
		iv, _ := v.Interval()
		return stmt.SetObject(index, toPgInterval(iv))

	case v.Kind() == schema.KindHstore || v.Kind() == schema.KindJSON || v.Kind() == schema.KindPgObject:
		typ := v.Tag()
		if v.Kind() == schema.KindHstore {
			typ = "hstore"
		}
		return stmt.SetObject(index, Object{Type: typ, Value: v.String()})
	}

	return d.codec.Bind(stmt, index, v, code)
}

// bindBitString передает строку из 0 и 1 как есть, иначе читает ее
// как шестнадцатеричную ("a3" -> "10100011")
func (d *Dialect) bindBitString(stmt adapters.Statement, index int, v schema.Value) error {
	bits := v.String()
	if bits != "" && !binaryStringPattern.MatchString(bits) {
		expanded, err := hexToBits(bits)
		if err != nil {
			return d.codec.Unrepresentable(index, "bit string", err)
		}
		bits = expanded
	}
	return stmt.SetObject(index, Object{Type: "bit", Value: bits})
}

func (d *Dialect) bindUUID(stmt adapters.Statement, index int, v schema.Value) error {
	u, ok := v.UUID()
	if !ok {
		parsed, err := uuid.Parse(v.String())
		if err != nil {
			return d.codec.Unrepresentable(index, "uuid", err)
		}
		u = parsed
	}
	return stmt.SetObject(index, pgtype.UUID{Bytes: u, Valid: true})
}

// bindRange проверяет границы диапазона по его подтипу и передает текст
func (d *Dialect) bindRange(stmt adapters.Statement, index int, v schema.Value, columnType string) error {
	name, subtype := rangeSubtypeFor(columnType)
	text := v.String()
	if err := validateRange(subtype, text); err != nil {
		return d.codec.Unrepresentable(index, name, err)
	}
	return stmt.SetObject(index, Object{Type: name, Value: text})
}

func validateRange(subtype schema.RangeSubtype, text string) error {
	t := strings.TrimSpace(text)
	if strings.EqualFold(t, "empty") {
		return nil
	}
	if len(t) < 3 || !strings.ContainsRune("[(", rune(t[0])) || !strings.ContainsRune("])", rune(t[len(t)-1])) {
		return fmt.Errorf("malformed range literal %q", text)
	}

	bounds, err := splitRangeBounds(t[1 : len(t)-1])
	if err != nil {
		return fmt.Errorf("malformed range literal %q: %w", text, err)
	}
	for _, b := range bounds {
		if err := validateBound(subtype, b); err != nil {
			return fmt.Errorf("invalid %s range bound %q: %w", subtype, b, err)
		}
	}
	return nil
}

func splitRangeBounds(inner string) ([2]string, error) {
	var bounds [2]string
	comma := -1
	inQuote := false
	for i := 0; i < len(inner); i++ {
		switch c := inner[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == ',':
			if comma >= 0 {
				return bounds, fmt.Errorf("too many bounds")
			}
			comma = i
		}
	}
	if comma < 0 {
		return bounds, fmt.Errorf("missing ','")
	}
	bounds[0] = unquoteBound(inner[:comma])
	bounds[1] = unquoteBound(inner[comma+1:])
	return bounds, nil
}

func unquoteBound(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `""`, `"`)
		return r.Replace(s[1 : len(s)-1])
	}
	return s
}

// validateBound отклоняет только то, что сервер не примет для числового
// подтипа. Границы дат и меток времени сервер разбирает сам: его формат
// ввода (BC, точность до минут, названия месяцев) шире любого локального.
func validateBound(subtype schema.RangeSubtype, b string) error {
	if b == "" {
		return nil
	}
	switch subtype {
	case schema.RangeInt4:
		return validateInteger(b, 32)
	case schema.RangeInt8:
		return validateInteger(b, 64)
	case schema.RangeNum:
		switch strings.ToLower(strings.TrimLeft(b, "+-")) {
		case "infinity", "inf":
			return nil
		}
		if _, ok := new(big.Float).SetString(strings.ReplaceAll(b, "_", "")); !ok {
			return fmt.Errorf("invalid numeric %q", b)
		}
	}
	return nil
}

// validateInteger принимает десятичную запись и префиксы 0x, 0o, 0b
func validateInteger(b string, bits int) error {
	digits := strings.TrimLeft(b, "+-")
	if len(digits) > 2 && digits[0] == '0' && strings.ContainsRune("xXoObB", rune(digits[1])) {
		_, err := strconv.ParseInt(b, 0, bits)
		return err
	}
	_, err := strconv.ParseInt(strings.ReplaceAll(b, "_", ""), 10, bits)
	return err
}
