package mysql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// TypeFor - у MySQL нет собственных имен типов, все имена
// обрабатывает общий каталог
func TypeFor(name string) schema.JDBCType {
	return schema.GenericType(name)
}

// Catalog - каталог типов MySQL
var Catalog schema.Catalog = schema.CatalogFunc(TypeFor)

// ColumnType сопоставляет DatabaseTypeName драйвера коду типа
//
// Маппинг:
//
//	BIT                          -> BIT
//	TINYINT, SMALLINT, INT, ...  -> целые (UNSIGNED не влияет)
//	DECIMAL                      -> DECIMAL
//	DATETIME, TIMESTAMP          -> TIMESTAMP
//	TEXT, ENUM, SET, JSON        -> текстовые
//	BLOB, BINARY, VARBINARY      -> двоичные
func ColumnType(databaseTypeName string) schema.JDBCType {
	name := strings.TrimPrefix(strings.ToUpper(databaseTypeName), "UNSIGNED ")

	switch name {
	case "BIT":
		return schema.TypeBit
	case "TINYINT":
		return schema.TypeTinyInt
	case "SMALLINT", "YEAR":
		return schema.TypeSmallInt
	case "MEDIUMINT", "INT", "INTEGER":
		return schema.TypeInteger
	case "BIGINT":
		return schema.TypeBigInt
	case "FLOAT":
		return schema.TypeReal
	case "DOUBLE":
		return schema.TypeDouble
	case "DECIMAL":
		return schema.TypeDecimal
	case "DATE":
		return schema.TypeDate
	case "TIME":
		return schema.TypeTime
	case "DATETIME", "TIMESTAMP":
		return schema.TypeTimestamp
	case "CHAR":
		return schema.TypeChar
	case "VARCHAR", "ENUM", "SET", "JSON":
		return schema.TypeVarchar
	case "TINYTEXT", "TEXT", "MEDIUMTEXT", "LONGTEXT":
		return schema.TypeLongVarchar
	case "BINARY":
		return schema.TypeBinary
	case "VARBINARY":
		return schema.TypeVarbinary
	case "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB":
		return schema.TypeLongVarbinary
	case "NULL":
		return schema.TypeNull
	}
	return schema.TypeOther
}

var connectorVersionPattern = regexp.MustCompile(`mysql\-connector\-java-(\d)\.(\d)\.(\d+)`)

// cancelTimerAffected сообщает, течет ли таймер отмены у драйвера этой
// версии: все до 5.0.x включительно и 5.1.0 - 5.1.10. Строки, не
// похожие на версию Connector/J, дают false.
func cancelTimerAffected(driverVersion string) bool {
	m := connectorVersionPattern.FindStringSubmatch(driverVersion)
	if m == nil {
		return false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	switch {
	case major < 5:
		return true
	case major == 5 && minor == 0:
		return true
	case major == 5 && minor == 1:
		return patch < 11
	}
	return false
}
