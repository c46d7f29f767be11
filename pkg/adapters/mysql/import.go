package mysql

import (
	"time"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// NewStatement создает набор параметров для go-sql-driver/mysql
func (d *Dialect) NewStatement() adapters.PreparedStatement {
	return base.NewParams(d.Name(), base.DefaultArg)
}

// BindParameter связывает значение по правилам MySQL: метки времени и
// время суток идут через setTimestamp, остальное - общая матрица
func (d *Dialect) BindParameter(stmt adapters.Statement, index int, v schema.Value, columnType string, code schema.JDBCType) error {
	err := d.bind(stmt, index, v, columnType, code)
	base.ObserveBind(d.Name(), code, err)
	return err
}

func (d *Dialect) bind(stmt adapters.Statement, index int, v schema.Value, columnType string, code schema.JDBCType) error {
	if code == schema.TypeNull && columnType != "" {
		code = TypeFor(columnType)
	}

	switch code {
	case schema.TypeTimestamp, schema.TypeTimestampWithTimezone, schema.TypeTime, schema.TypeTimeWithTimezone:
		if v.IsNull() {
			return stmt.SetNull(index, code)
		}
		return d.bindTimestamp(stmt, index, v, code == schema.TypeDate)
	}

	return d.codec.Bind(stmt, index, v, code)
}

// bindTimestamp передает метку времени. Если расположение драйвера
// известно (параметр loc в DSN), драйвер сам переводит зоны и момент
// передается без изменений. Иначе момент сдвигается на смещение
// локальной зоны: старые драйверы игнорировали зону.
func (d *Dialect) bindTimestamp(stmt adapters.Statement, index int, v schema.Value, dateOnly bool) error {
	ts, err := d.codec.AsTimestamp(index, v)
	if err != nil {
		return err
	}

	if d.loc != nil {
		return stmt.SetTimestamp(index, ts)
	}
	return stmt.SetTimestamp(index, legacyShift(ts, dateOnly))
}

// legacyShift переводит момент в локальную зону и вычитает ее смещение.
// Для DATE точность ограничена миллисекундами.
func legacyShift(ts time.Time, dateOnly bool) time.Time {
	local := ts.In(time.Local)
	_, offset := local.Zone()

	shifted := time.UnixMilli(local.UnixMilli() - int64(offset)*1000)
	if !dateOnly {
		shifted = shifted.Add(time.Duration(local.Nanosecond() % int(time.Millisecond)))
	}
	return shifted
}
