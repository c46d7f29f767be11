package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/adapters/base"
)

// AfterConnect - хук pgxpool.Config.AfterConnect. Ошибки регистрации
// логируются и не прерывают подключение.
func (d *Dialect) AfterConnect(ctx context.Context, conn *pgx.Conn) error {
	d.registerTypes(ctx, conn)
	return nil
}

// registerTypes делает диапазонные типы и hstore известными карте типов
// соединения: сначала TypeForName, затем загрузка по имени с сервера
func (d *Dialect) registerTypes(ctx context.Context, conn *pgx.Conn) {
	m := conn.TypeMap()

	for _, name := range RangeTypes {
		if _, ok := m.TypeForName(name); ok {
			base.ObserveQuirk(DialectName, name, base.ResultSkipped)
			continue
		}

		t, err := conn.LoadType(ctx, name)
		if err != nil {
			d.logger.Debug().Err(err).Str("type", name).Msg("failed to load range type")
			base.ObserveQuirk(DialectName, name, base.ResultError)
			continue
		}
		m.RegisterType(t)
		base.ObserveQuirk(DialectName, name, base.ResultOK)
	}

	d.registerHstore(ctx, conn, m)
}

// registerHstore регистрирует hstore; OID зависит от базы, так как
// hstore - расширение
func (d *Dialect) registerHstore(ctx context.Context, conn *pgx.Conn, m *pgtype.Map) {
	if _, ok := m.TypeForName("hstore"); ok {
		base.ObserveQuirk(DialectName, "hstore", base.ResultSkipped)
		return
	}

	var oid uint32
	if err := conn.QueryRow(ctx, "SELECT 'hstore'::regtype::oid").Scan(&oid); err != nil {
		d.logger.Debug().Err(err).Msg("hstore extension not available")
		base.ObserveQuirk(DialectName, "hstore", base.ResultSkipped)
		return
	}

	m.RegisterType(&pgtype.Type{Name: "hstore", OID: oid, Codec: pgtype.HstoreCodec{}})
	base.ObserveQuirk(DialectName, "hstore", base.ResultOK)
}
