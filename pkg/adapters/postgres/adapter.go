package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
	"github.com/ruslano69/dbcodec/pkg/toggles"
)

// DialectName - имя диалекта в ошибках, логах и метриках
const DialectName = "postgresql"

// Compile-time check: Dialect должен реализовывать интерфейс adapters.Dialect
var _ adapters.Dialect = (*Dialect)(nil)

// Регистрация диалекта в глобальной фабрике
func init() {
	ctor := func(cfg adapters.Config) adapters.Dialect { return New(cfg) }
	adapters.Register("postgres", ctor)
	adapters.Register("postgresql", ctor)
}

// Dialect - правила PostgreSQL
type Dialect struct {
	cfg     adapters.Config
	toggles *toggles.Table
	logger  zerolog.Logger
	codec   base.Codec
	probe   base.Probe

	// TimestampCaster приводит текст метки времени к значению приложения.
	// nil - текст сервера возвращается как есть.
	TimestampCaster func(text string) (schema.Value, error)
}

// New создает диалект PostgreSQL
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

	return &Dialect{
		cfg:     cfg,
		toggles: tbl,
		logger:  logger,
		codec:   base.Codec{Dialect: DialectName},
		probe:   base.Probe{Dialect: DialectName, Logger: logger},
	}
}

// Name возвращает имя диалекта
func (d *Dialect) Name() string { return DialectName }

// TypeFor реализует adapters.Dialect
func (d *Dialect) TypeFor(name string) schema.JDBCType { return TypeFor(name) }

// CasePolicy - идентификаторы не преобразуются
func (d *Dialect) CasePolicy() adapters.CasePolicy { return adapters.CasePreserve }

// DefaultSchema подставляет "public": без схемы драйвер ищет по всем схемам
func (d *Dialect) DefaultSchema(s string) string {
	if s == "" {
		return "public"
	}
	return s
}

// GeneratedKeys выключен по умолчанию: без сгенерированных ключей драйвер
// возвращает все строки вместо пустого набора
func (d *Dialect) GeneratedKeys() bool { return d.toggles.GeneratedKeys() }

// Connect открывает соединение pgx без применения обходных путей
func (d *Dialect) Connect(ctx context.Context) (adapters.Conn, error) {
	config, err := pgx.ParseConfig(d.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if d.cfg.Timeout > 0 {
		config.ConnectTimeout = d.cfg.Timeout
	}

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewConn(conn), nil
}

// OpenPool создает пул соединений; обходные пути применяются к каждому
// новому соединению через AfterConnect
func (d *Dialect) OpenPool(ctx context.Context) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(d.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if d.cfg.Timeout > 0 {
		config.ConnConfig.ConnectTimeout = d.cfg.Timeout
	}
	config.AfterConnect = d.AfterConnect

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// ApplyQuirks регистрирует диапазонные типы и hstore в карте типов соединения
func (d *Dialect) ApplyQuirks(ctx context.Context, conn adapters.Conn) {
	c, ok := conn.(*Conn)
	if !ok {
		d.logger.Debug().Str("conn", fmt.Sprintf("%T", conn)).Msg("not a pgx connection, type registration skipped")
		base.ObserveQuirk(DialectName, "register_types", base.ResultSkipped)
		return
	}
	d.registerTypes(ctx, c.conn)
}

// IsAlive реализует adapters.Dialect
func (d *Dialect) IsAlive(ctx context.Context, conn adapters.Conn, probeSQL string, timeout time.Duration) (bool, error) {
	return d.probe.IsAlive(ctx, conn, probeSQL, timeout)
}

// Conn - adapters.Conn поверх *pgx.Conn
type Conn struct {
	conn *pgx.Conn
}

var (
	_ adapters.Conn        = (*Conn)(nil)
	_ adapters.ProbeOpener = (*Conn)(nil)
	_ adapters.Validator   = (*Conn)(nil)
)

// NewConn оборачивает соединение pgx
func NewConn(conn *pgx.Conn) *Conn { return &Conn{conn: conn} }

// PgxConn возвращает *pgx.Conn для прямого доступа
func (c *Conn) PgxConn() *pgx.Conn { return c.conn }

// Query выполняет запрос с текстовым форматом результата
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (adapters.ResultSet, error) {
	queryArgs := make([]any, 0, len(args)+1)
	queryArgs = append(queryArgs, pgx.QueryResultFormats{pgx.TextFormatCode})
	queryArgs = append(queryArgs, args...)

	rows, err := c.conn.Query(ctx, sql, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return NewCursor(c.conn.TypeMap(), rows), nil
}

// Exec выполняет SQL команду
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close закрывает соединение
func (c *Conn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// ServerVersion возвращает версию PostgreSQL
func (c *Conn) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.conn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

const probeStatementName = "dbcodec_probe"

// PrepareProbe подготавливает именованный пробный запрос
func (c *Conn) PrepareProbe(ctx context.Context, sql string) (adapters.ProbeStatement, error) {
	if _, err := c.conn.Prepare(ctx, probeStatementName, sql); err != nil {
		return nil, err
	}
	return &probeStatement{conn: c.conn}, nil
}

// IsValid проверяет соединение через Ping
func (c *Conn) IsValid(ctx context.Context, timeout time.Duration) (bool, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if c.conn.IsClosed() {
		return false, nil
	}
	if err := c.conn.Ping(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

type probeStatement struct {
	conn *pgx.Conn
}

func (p *probeStatement) Exec(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, probeStatementName)
	return err
}

func (p *probeStatement) Close() error {
	if p.conn.IsClosed() {
		return nil
	}
	return p.conn.Deallocate(context.Background(), probeStatementName)
}
