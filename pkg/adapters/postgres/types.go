package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// TypeFor сопоставляет имя типа PostgreSQL коду JDBC.
// Специфичные типы PostgreSQL передаются как OTHER, остальные - через
// общий каталог.
func TypeFor(name string) schema.JDBCType {
	switch name {
	case "bit", "bit_varying", "citext", "daterange", "hstore",
		"int4range", "int8range", "interval", "json", "jsonb",
		"line", "lseg", "ltree", "numrange", "point",
		"tsrange", "tstzrange", "tsvector", "uuid":
		return schema.TypeOther
	}
	return schema.GenericType(name)
}

// Catalog - каталог типов PostgreSQL
var Catalog schema.Catalog = schema.CatalogFunc(TypeFor)

// Object - значение, которое передается серверу текстом и разбирается им
// по типу параметра (аналог PGobject)
type Object struct {
	Type  string
	Value string
}

// String возвращает текст объекта
func (o Object) String() string { return o.Value }

// Метки бесконечности для меток времени (миллисекунды Unix).
// Совпадают со значениями драйвера PostgreSQL JDBC.
const (
	DatePositiveInfinity int64 = 9223372036825200000
	DateNegativeInfinity int64 = -9223372036832400000
)

var (
	binaryStringPattern = regexp.MustCompile(`^[01]+$`)
	uuidPattern         = regexp.MustCompile(`^[0-9a-fA-F]{8}-(?:[0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}$`)
)

// hexToBits раскрывает каждую шестнадцатеричную цифру в 4 бита
func hexToBits(s string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s) * 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return "", fmt.Errorf("invalid hex digit %q at position %d", c, i)
		}
		fmt.Fprintf(&sb, "%04b", d)
	}
	return sb.String(), nil
}

// rangeSubtypes - шесть зарегистрированных диапазонных типов
var rangeSubtypes = map[string]schema.RangeSubtype{
	"daterange": schema.RangeDate,
	"tsrange":   schema.RangeTS,
	"tstzrange": schema.RangeTSTZ,
	"int4range": schema.RangeInt4,
	"int8range": schema.RangeInt8,
	"numrange":  schema.RangeNum,
}

// RangeTypes - имена диапазонных типов в порядке регистрации
var RangeTypes = []string{"daterange", "tsrange", "tstzrange", "int4range", "int8range", "numrange"}

// rangeSubtypeFor возвращает подтип диапазона; неизвестные *range - numrange
func rangeSubtypeFor(columnType string) (string, schema.RangeSubtype) {
	if st, ok := rangeSubtypes[columnType]; ok {
		return columnType, st
	}
	return "numrange", schema.RangeNum
}

// JDBCTypeForOID возвращает код JDBC для OID колонки так же, как его
// сообщает драйвер PostgreSQL JDBC: bool и bit - BIT, массивы - ARRAY,
// неизвестные типы - OTHER.
func JDBCTypeForOID(m *pgtype.Map, oid uint32) schema.JDBCType {
	switch oid {
	case pgtype.BoolOID, pgtype.BitOID:
		return schema.TypeBit
	case pgtype.Int2OID:
		return schema.TypeSmallInt
	case pgtype.Int4OID:
		return schema.TypeInteger
	case pgtype.Int8OID, pgtype.OIDOID:
		return schema.TypeBigInt
	case pgtype.Float4OID:
		return schema.TypeReal
	case pgtype.Float8OID:
		return schema.TypeDouble
	case pgtype.NumericOID:
		return schema.TypeNumeric
	case pgtype.BPCharOID, pgtype.QCharOID:
		return schema.TypeChar
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.NameOID:
		return schema.TypeVarchar
	case pgtype.DateOID:
		return schema.TypeDate
	case pgtype.TimeOID, pgtype.TimetzOID:
		return schema.TypeTime
	case pgtype.TimestampOID, pgtype.TimestamptzOID:
		return schema.TypeTimestamp
	case pgtype.ByteaOID:
		return schema.TypeBinary
	case pgtype.XMLOID:
		return schema.TypeSQLXML
	}

	if m != nil {
		if t, ok := m.TypeForOID(oid); ok {
			if _, isArray := t.Codec.(*pgtype.ArrayCodec); isArray {
				return schema.TypeArray
			}
		}
	}
	return schema.TypeOther
}

// typeName возвращает имя типа по OID ("" для незарегистрированных)
func typeName(m *pgtype.Map, oid uint32) string {
	if m == nil {
		return ""
	}
	if t, ok := m.TypeForOID(oid); ok {
		return t.Name
	}
	return ""
}
