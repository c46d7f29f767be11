package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
	"github.com/ruslano69/dbcodec/pkg/toggles"
)

// DialectName идентификатор диалекта MySQL
const DialectName = "mysql"

// Compile-time check: Dialect должен реализовывать интерфейс adapters.Dialect
var _ adapters.Dialect = (*Dialect)(nil)

func init() {
	// Регистрируем MySQL диалект в фабрике
	adapters.Register(DialectName, func(cfg adapters.Config) adapters.Dialect {
		return New(cfg)
	})
}

// Dialect - правила MySQL
type Dialect struct {
	cfg     adapters.Config
	toggles *toggles.Table
	logger  zerolog.Logger
	codec   base.Codec
	probe   base.Probe
	quirks  *Quirks

	// loc - расположение драйвера из DSN; nil - неизвестно
	loc *time.Location
}

// New создает диалект MySQL. Расположение драйвера берется из параметра
// loc в DSN (по умолчанию UTC у go-sql-driver/mysql).
func New(cfg adapters.Config) *Dialect {
	tbl := cfg.Toggles
	if tbl == nil {
		tbl = toggles.Default()
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	logger = logger.With().Str("dialect", DialectName).Logger()

	d := &Dialect{
		cfg:     cfg,
		toggles: tbl,
		logger:  logger,
		codec:   base.Codec{Dialect: DialectName},
		probe:   base.Probe{Dialect: DialectName, Logger: logger},
		quirks:  processQuirks,
	}

	if cfg.DSN != "" {
		if mc, err := mysql.ParseDSN(cfg.DSN); err == nil {
			d.loc = mc.Loc
		} else {
			logger.Debug().Err(err).Msg("DSN not parsed, timestamps use local offset shift")
		}
	}
	return d
}

// Name возвращает имя диалекта
func (d *Dialect) Name() string { return DialectName }

// TypeFor реализует adapters.Dialect
func (d *Dialect) TypeFor(name string) schema.JDBCType { return TypeFor(name) }

// CasePolicy - MySQL не хранит идентификаторы в верхнем регистре
func (d *Dialect) CasePolicy() adapters.CasePolicy { return adapters.CasePreserve }

// DefaultSchema возвращает схему без изменений
func (d *Dialect) DefaultSchema(s string) string { return s }

// GeneratedKeys - MySQL всегда выполняет с RETURN_GENERATED_KEYS
func (d *Dialect) GeneratedKeys() bool { return true }

// Location возвращает расположение драйвера или nil
func (d *Dialect) Location() *time.Location { return d.loc }

// Connect открывает одно соединение через go-sql-driver/mysql
func (d *Dialect) Connect(ctx context.Context) (adapters.Conn, error) {
	mc, err := mysql.ParseDSN(d.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if d.cfg.Timeout > 0 && mc.Timeout == 0 {
		mc.Timeout = d.cfg.Timeout
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	db := sql.OpenDB(connector)
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewConn(db, conn), nil
}

// ApplyQuirks останавливает поток очистки и таймер отмены, если это
// требуется флагами или версией драйвера
func (d *Dialect) ApplyQuirks(ctx context.Context, conn adapters.Conn) {
	d.quirks.Apply(conn, d.toggles, d.logger)
}

// IsAlive реализует adapters.Dialect
func (d *Dialect) IsAlive(ctx context.Context, conn adapters.Conn, probeSQL string, timeout time.Duration) (bool, error) {
	return d.probe.IsAlive(ctx, conn, probeSQL, timeout)
}

// Conn - adapters.Conn поверх *sql.Conn go-sql-driver/mysql
type Conn struct {
	*base.SQLConn
	db *sql.DB
}

var (
	_ adapters.Conn        = (*Conn)(nil)
	_ adapters.ProbeOpener = (*Conn)(nil)
	_ adapters.Validator   = (*Conn)(nil)
	_ Unwrapper            = (*Conn)(nil)
	_ VersionReporter      = (*Conn)(nil)
)

// NewConn оборачивает соединение; db закрывается вместе с ним (может быть nil)
func NewConn(db *sql.DB, conn *sql.Conn) *Conn {
	return &Conn{SQLConn: base.NewSQLConn(DialectName, conn, ColumnType), db: db}
}

// Query выполняет запрос; разрыв соединения дает ErrConnectionBroken
func (c *Conn) Query(ctx context.Context, query string, args ...any) (adapters.ResultSet, error) {
	rs, err := c.SQLConn.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyErr("query", err)
	}
	return rs, nil
}

// Exec выполняет команду; разрыв соединения дает ErrConnectionBroken
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	n, err := c.SQLConn.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyErr("exec", err)
	}
	return n, nil
}

// Close закрывает соединение и его *sql.DB
func (c *Conn) Close(ctx context.Context) error {
	err := c.SQLConn.Close(ctx)
	if c.db != nil {
		if dbErr := c.db.Close(); err == nil {
			err = dbErr
		}
	}
	return err
}

// Unwrap возвращает *sql.Conn
func (c *Conn) Unwrap() any { return c.SQLConn.Conn }

// DriverVersion возвращает версию модуля драйвера из информации сборки
func (c *Conn) DriverVersion() string { return driverVersion() }

// ServerVersion возвращает версию сервера MySQL
func (c *Conn) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.SQLConn.Conn.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

var driverVersion = sync.OnceValue(func() string {
	const module = "github.com/go-sql-driver/mysql"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == module {
				return "go-sql-driver/mysql " + dep.Version
			}
		}
	}
	return "go-sql-driver/mysql (unknown)"
})

func classifyErr(op string, err error) error {
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return adapters.NewError(adapters.ErrConnectionBroken, DialectName, op, err)
	}
	return err
}
