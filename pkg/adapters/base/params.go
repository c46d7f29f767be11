package base

import (
	"fmt"
	"io"
	"time"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// ParamKind - каким сеттером был задан параметр
type ParamKind uint8

const (
	ParamUnset ParamKind = iota
	ParamNull
	ParamBool
	ParamInt
	ParamFloat
	ParamString
	ParamBytes
	ParamDate
	ParamTime
	ParamTimestamp
	ParamStream
	ParamObject
)

// Param - один записанный параметр
type Param struct {
	Kind ParamKind
	// Value: bool, int64, float64, string, []byte, civil.Date, civil.Time,
	// time.Time, io.Reader или произвольный объект
	Value any
	// NullType - код типа для ParamNull
	NullType schema.JDBCType
	// Length - объявленная длина для ParamStream (< 0 = до конца потока)
	Length int64
}

// ArgConverter превращает записанный параметр в аргумент драйвера
type ArgConverter func(p Param) (any, error)

// Params - записывающая реализация adapters.PreparedStatement.
// Сеттеры только запоминают значения; Args превращает их в аргументы драйвера.
type Params struct {
	dialect string
	params  []Param
	convert ArgConverter
	refused map[schema.JDBCType]bool
}

var _ adapters.PreparedStatement = (*Params)(nil)

// NewParams создает набор параметров; convert == nil означает DefaultArg
func NewParams(dialect string, convert ArgConverter) *Params {
	if convert == nil {
		convert = DefaultArg
	}
	return &Params{dialect: dialect, convert: convert}
}

// RefuseNull запрещает NULL с указанными кодами типа (ошибка ErrNullHostility)
func (p *Params) RefuseNull(codes ...schema.JDBCType) *Params {
	if p.refused == nil {
		p.refused = make(map[schema.JDBCType]bool, len(codes))
	}
	for _, code := range codes {
		p.refused[code] = true
	}
	return p
}

func (p *Params) set(index int, param Param) error {
	if index < 1 {
		return fmt.Errorf("invalid parameter index %d: indexes start at 1", index)
	}
	for len(p.params) < index {
		p.params = append(p.params, Param{})
	}
	p.params[index-1] = param
	return nil
}

// SetNull реализует adapters.Statement
func (p *Params) SetNull(index int, code schema.JDBCType) error {
	if p.refused[code] {
		return adapters.Errorf(adapters.ErrNullHostility, p.dialect, fmt.Sprintf("bind parameter %d", index),
			"driver rejects NULL typed as %s", code)
	}
	return p.set(index, Param{Kind: ParamNull, NullType: code})
}

// SetBool реализует adapters.Statement
func (p *Params) SetBool(index int, v bool) error {
	return p.set(index, Param{Kind: ParamBool, Value: v})
}

// SetInt64 реализует adapters.Statement
func (p *Params) SetInt64(index int, v int64) error {
	return p.set(index, Param{Kind: ParamInt, Value: v})
}

// SetFloat64 реализует adapters.Statement
func (p *Params) SetFloat64(index int, v float64) error {
	return p.set(index, Param{Kind: ParamFloat, Value: v})
}

// SetString реализует adapters.Statement
func (p *Params) SetString(index int, v string) error {
	return p.set(index, Param{Kind: ParamString, Value: v})
}

// SetBytes реализует adapters.Statement
func (p *Params) SetBytes(index int, v []byte) error {
	return p.set(index, Param{Kind: ParamBytes, Value: v})
}

// SetDate реализует adapters.Statement
func (p *Params) SetDate(index int, v civil.Date) error {
	return p.set(index, Param{Kind: ParamDate, Value: v})
}

// SetTime реализует adapters.Statement
func (p *Params) SetTime(index int, v civil.Time) error {
	return p.set(index, Param{Kind: ParamTime, Value: v})
}

// SetTimestamp реализует adapters.Statement
func (p *Params) SetTimestamp(index int, v time.Time) error {
	return p.set(index, Param{Kind: ParamTimestamp, Value: v})
}

// SetBinaryStream реализует adapters.Statement
func (p *Params) SetBinaryStream(index int, r io.Reader, length int64) error {
	if r == nil {
		return fmt.Errorf("nil binary stream for parameter %d", index)
	}
	return p.set(index, Param{Kind: ParamStream, Value: r, Length: length})
}

// SetObject реализует adapters.Statement
func (p *Params) SetObject(index int, v any) error {
	return p.set(index, Param{Kind: ParamObject, Value: v})
}

// Len возвращает количество параметров (по наибольшему индексу)
func (p *Params) Len() int { return len(p.params) }

// Param возвращает записанный параметр по индексу (с 1)
func (p *Params) Param(index int) (Param, bool) {
	if index < 1 || index > len(p.params) {
		return Param{}, false
	}
	return p.params[index-1], true
}

// Args возвращает аргументы драйвера. Потоки читаются один раз и
// заменяются прочитанными байтами.
func (p *Params) Args() ([]any, error) {
	args := make([]any, len(p.params))
	for i := range p.params {
		param := &p.params[i]
		if param.Kind == ParamUnset {
			return nil, fmt.Errorf("parameter %d is not bound", i+1)
		}
		if param.Kind == ParamStream {
			data, err := ReadStream(param.Value.(io.Reader), param.Length)
			if err != nil {
				return nil, fmt.Errorf("failed to read binary stream for parameter %d: %w", i+1, err)
			}
			*param = Param{Kind: ParamBytes, Value: data}
		}

		arg, err := p.convert(*param)
		if err != nil {
			return nil, fmt.Errorf("failed to convert parameter %d: %w", i+1, err)
		}
		args[i] = arg
	}
	return args, nil
}

// ReadStream читает поток целиком или ровно length байт.
// Короткий поток при заданной длине - ошибка, а не усечение.
func ReadStream(r io.Reader, length int64) ([]byte, error) {
	if length < 0 {
		return io.ReadAll(r)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("expected %d bytes: %w", length, err)
	}
	return buf, nil
}

// DefaultArg - преобразование по умолчанию для database/sql драйверов.
// Даты и время суток передаются текстом.
func DefaultArg(p Param) (any, error) {
	switch p.Kind {
	case ParamNull:
		return nil, nil
	case ParamDate:
		return p.Value.(civil.Date).String(), nil
	case ParamTime:
		return p.Value.(civil.Time).String(), nil
	case ParamStream:
		return ReadStream(p.Value.(io.Reader), p.Length)
	default:
		return p.Value, nil
	}
}
