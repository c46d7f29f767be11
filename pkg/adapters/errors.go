package adapters

import (
	"fmt"
	"strings"
)

// ErrorKind классифицирует ошибки кодека и соединения.
// Каждый вид сам является ошибкой, поэтому работает
// errors.Is(err, adapters.ErrTypeMismatch).
type ErrorKind int

const (
	// ErrNullHostility - драйвер не принимает NULL с таким кодом типа
	ErrNullHostility ErrorKind = iota + 1
	// ErrUnrepresentableValue - текст значения не разбирается в тип колонки
	ErrUnrepresentableValue
	// ErrUnsupportedValue - значение не имеет представления в диалекте
	ErrUnsupportedValue
	// ErrTypeMismatch - форма значения не подходит типу колонки
	ErrTypeMismatch
	// ErrDriverBug - сбой обходного пути драйвера
	ErrDriverBug
	// ErrConnectionBroken - соединение не получено или разорвано
	ErrConnectionBroken
	// ErrUnsupportedDriver - драйвер не умеет проверять соединение
	ErrUnsupportedDriver
)

var kindNames = map[ErrorKind]string{
	ErrNullHostility:        "null hostility",
	ErrUnrepresentableValue: "unrepresentable value",
	ErrUnsupportedValue:     "unsupported value",
	ErrTypeMismatch:         "type mismatch",
	ErrDriverBug:            "driver bug",
	ErrConnectionBroken:     "connection broken",
	ErrUnsupportedDriver:    "unsupported driver",
}

func (k ErrorKind) Error() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error - ошибка с видом, диалектом и операцией. Исходная ошибка драйвера
// (с SQLSTATE и сообщением) доступна через errors.As / Unwrap.
type Error struct {
	Kind    ErrorKind
	Dialect string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Dialect != "" {
		parts = append(parts, e.Dialect)
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	parts = append(parts, e.Kind.Error())
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap возвращает исходную ошибку
func (e *Error) Unwrap() error { return e.Err }

// Is сопоставляет ошибку с видом
func (e *Error) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// NewError создает ошибку заданного вида
func NewError(kind ErrorKind, dialect, op string, err error) *Error {
	return &Error{Kind: kind, Dialect: dialect, Op: op, Err: err}
}

// Errorf создает ошибку заданного вида с форматированным сообщением
func Errorf(kind ErrorKind, dialect, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Dialect: dialect, Op: op, Err: fmt.Errorf(format, args...)}
}
