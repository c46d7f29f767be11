package adapters

import (
	"io"
	"time"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// Statement - приемник параметров подготовленного запроса.
// Индексы параметров начинаются с 1.
type Statement interface {
	SetNull(index int, code schema.JDBCType) error
	SetBool(index int, v bool) error
	SetInt64(index int, v int64) error
	SetFloat64(index int, v float64) error
	SetString(index int, v string) error
	SetBytes(index int, v []byte) error
	SetDate(index int, v civil.Date) error
	SetTime(index int, v civil.Time) error
	SetTimestamp(index int, v time.Time) error
	// SetBinaryStream передает поток; length < 0 означает "до конца потока"
	SetBinaryStream(index int, r io.Reader, length int64) error
	SetObject(index int, v any) error
}

// PreparedStatement - Statement, который превращается в аргументы драйвера
type PreparedStatement interface {
	Statement
	// Args возвращает аргументы в порядке индексов
	Args() ([]any, error)
}

// ResultSet - курсор результата. Индексы колонок начинаются с 1.
// WasNull сообщает, был ли NULL прочитан последним геттером.
type ResultSet interface {
	Next() bool
	Err() error
	Close() error

	ColumnCount() int
	ColumnName(index int) string
	ColumnType(index int) schema.JDBCType
	ColumnTypeName(index int) string

	WasNull() bool
	GetString(index int) (string, error)
	GetBool(index int) (bool, error)
	GetInt64(index int) (int64, error)
	GetFloat64(index int) (float64, error)
	GetBytes(index int) ([]byte, error)
	GetDate(index int) (civil.Date, error)
	GetTime(index int) (civil.Time, error)
	GetTimestamp(index int) (time.Time, error)
	GetObject(index int) (any, error)
	GetArray(index int) (Array, error)
}

// Array - значение массива из ResultSet
type Array interface {
	// BaseType - код типа элементов
	BaseType() schema.JDBCType
	// BaseTypeName - имя типа элементов
	BaseTypeName() string
	// ResultSet - строки массива: колонка 1 - индекс, колонка 2 - значение
	ResultSet() (ResultSet, error)
	// Free освобождает ресурсы массива
	Free() error
}
