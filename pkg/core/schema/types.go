package schema

import "strconv"

// JDBCType представляет грубый код типа SQL, общий для всех драйверов.
// Числовые значения совпадают с java.sql.Types, чтобы коды из логов
// и метаданных драйверов можно было сравнивать напрямую.
type JDBCType int

// Поддерживаемые коды типов
const (
	TypeBit                   JDBCType = -7
	TypeTinyInt               JDBCType = -6
	TypeSmallInt              JDBCType = 5
	TypeInteger               JDBCType = 4
	TypeBigInt                JDBCType = -5
	TypeFloat                 JDBCType = 6
	TypeReal                  JDBCType = 7
	TypeDouble                JDBCType = 8
	TypeNumeric               JDBCType = 2
	TypeDecimal               JDBCType = 3
	TypeChar                  JDBCType = 1
	TypeVarchar               JDBCType = 12
	TypeLongVarchar           JDBCType = -1
	TypeDate                  JDBCType = 91
	TypeTime                  JDBCType = 92
	TypeTimestamp             JDBCType = 93
	TypeBinary                JDBCType = -2
	TypeVarbinary             JDBCType = -3
	TypeLongVarbinary         JDBCType = -4
	TypeNull                  JDBCType = 0
	TypeOther                 JDBCType = 1111
	TypeJavaObject            JDBCType = 2000
	TypeArray                 JDBCType = 2003
	TypeBlob                  JDBCType = 2004
	TypeClob                  JDBCType = 2005
	TypeBoolean               JDBCType = 16
	TypeSQLXML                JDBCType = 2009
	TypeTimeWithTimezone      JDBCType = 2013
	TypeTimestampWithTimezone JDBCType = 2014
)

var typeNames = map[JDBCType]string{
	TypeBit:                   "BIT",
	TypeTinyInt:               "TINYINT",
	TypeSmallInt:              "SMALLINT",
	TypeInteger:               "INTEGER",
	TypeBigInt:                "BIGINT",
	TypeFloat:                 "FLOAT",
	TypeReal:                  "REAL",
	TypeDouble:                "DOUBLE",
	TypeNumeric:               "NUMERIC",
	TypeDecimal:               "DECIMAL",
	TypeChar:                  "CHAR",
	TypeVarchar:               "VARCHAR",
	TypeLongVarchar:           "LONGVARCHAR",
	TypeDate:                  "DATE",
	TypeTime:                  "TIME",
	TypeTimestamp:             "TIMESTAMP",
	TypeBinary:                "BINARY",
	TypeVarbinary:             "VARBINARY",
	TypeLongVarbinary:         "LONGVARBINARY",
	TypeNull:                  "NULL",
	TypeOther:                 "OTHER",
	TypeJavaObject:            "JAVA_OBJECT",
	TypeArray:                 "ARRAY",
	TypeBlob:                  "BLOB",
	TypeClob:                  "CLOB",
	TypeBoolean:               "BOOLEAN",
	TypeSQLXML:                "SQLXML",
	TypeTimeWithTimezone:      "TIME_WITH_TIMEZONE",
	TypeTimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
}

func (t JDBCType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "JDBCType(" + strconv.Itoa(int(t)) + ")"
}

// IsNumeric проверяет является ли тип числовым
func (t JDBCType) IsNumeric() bool {
	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt,
		TypeFloat, TypeReal, TypeDouble, TypeNumeric, TypeDecimal:
		return true
	default:
		return false
	}
}

// IsIntegral проверяет является ли тип целочисленным
func (t JDBCType) IsIntegral() bool {
	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt:
		return true
	default:
		return false
	}
}

// IsText проверяет является ли тип текстовым
func (t JDBCType) IsText() bool {
	switch t {
	case TypeChar, TypeVarchar, TypeLongVarchar, TypeClob, TypeSQLXML:
		return true
	default:
		return false
	}
}

// IsBinary проверяет является ли тип бинарным
func (t JDBCType) IsBinary() bool {
	switch t {
	case TypeBinary, TypeVarbinary, TypeLongVarbinary, TypeBlob:
		return true
	default:
		return false
	}
}

// IsTemporal проверяет является ли тип временным
func (t JDBCType) IsTemporal() bool {
	switch t {
	case TypeDate, TypeTime, TypeTimestamp, TypeTimeWithTimezone, TypeTimestampWithTimezone:
		return true
	default:
		return false
	}
}

// Catalog сопоставляет имя SQL типа коду JDBCType.
type Catalog interface {
	TypeFor(name string) JDBCType
}

// CatalogFunc адаптирует функцию к интерфейсу Catalog
type CatalogFunc func(name string) JDBCType

// TypeFor реализует Catalog
func (f CatalogFunc) TypeFor(name string) JDBCType { return f(name) }

// GenericCatalog - общий маппер, к которому откатываются все диалекты
var GenericCatalog Catalog = CatalogFunc(GenericType)

// GenericType возвращает код для общего (не диалектного) имени типа.
// Поиск чувствителен к регистру; неизвестные имена дают TypeOther.
func GenericType(name string) JDBCType {
	switch name {
	case "string", "varchar":
		return TypeVarchar
	case "char":
		return TypeChar
	case "text", "clob":
		return TypeClob
	case "integer":
		return TypeInteger
	case "bigint":
		return TypeBigInt
	case "smallint":
		return TypeSmallInt
	case "tinyint":
		return TypeTinyInt
	case "float":
		return TypeFloat
	case "real":
		return TypeReal
	case "double":
		return TypeDouble
	case "decimal":
		return TypeDecimal
	case "numeric":
		return TypeNumeric
	case "date":
		return TypeDate
	case "time":
		return TypeTime
	case "datetime", "timestamp":
		return TypeTimestamp
	case "binary", "blob":
		return TypeBlob
	case "boolean":
		return TypeBoolean
	case "bit":
		return TypeBit
	case "array":
		return TypeArray
	case "xml":
		return TypeSQLXML
	default:
		return TypeOther
	}
}
