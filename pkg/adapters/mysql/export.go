package mysql

import (
	"errors"
	"fmt"

	"github.com/golang-sql/civil"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// ExtractColumn извлекает значение колонки по правилам MySQL
func (d *Dialect) ExtractColumn(rs adapters.ResultSet, index int, code schema.JDBCType) (schema.Value, error) {
	v, err := d.extract(rs, index, code)
	base.ObserveExtract(d.Name(), code, err)
	return v, err
}

func (d *Dialect) extract(rs adapters.ResultSet, index int, code schema.JDBCType) (schema.Value, error) {
	switch code {
	case schema.TypeBit:
		// BIT(n) - число, а не логическое значение
		i, err := rs.GetInt64(index)
		if err != nil {
			return schema.Value{}, err
		}
		if rs.WasNull() {
			return schema.Null(), nil
		}
		return schema.Int(i), nil

	case schema.TypeTime:
		return d.extractTime(rs, index)
	}

	return d.codec.Extract(rs, index, code)
}

// extractTime возвращает время суток строкой HH:MM:SS. Дробная часть
// берется из той же ячейки, прочитанной как метка времени, и
// добавляется девятью цифрами, если она не нулевая.
func (d *Dialect) extractTime(rs adapters.ResultSet, index int) (schema.Value, error) {
	t, err := rs.GetTime(index)
	if err != nil {
		if !errors.Is(err, adapters.ErrTypeMismatch) {
			return schema.Value{}, err
		}
		// TIME вне суток ("838:59:59") отдается текстом сервера
		s, strErr := rs.GetString(index)
		if strErr != nil {
			return schema.Value{}, err
		}
		return schema.String(s), nil
	}
	if rs.WasNull() {
		return schema.Null(), nil
	}

	ts, err := rs.GetTimestamp(index)
	if err != nil {
		return schema.Value{}, err
	}
	return schema.String(formatTime(t, ts.Nanosecond())), nil
}

func formatTime(t civil.Time, nanos int) string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if nanos != 0 {
		s += fmt.Sprintf(".%09d", nanos)
	}
	return s
}
