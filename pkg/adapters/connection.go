package adapters

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ruslano69/dbcodec/pkg/retry"
)

// CasePolicy - политика регистра идентификаторов между приложением и драйвером
type CasePolicy int

const (
	// CasePreserve - идентификаторы передаются как есть
	CasePreserve CasePolicy = iota
	// CaseUpper - драйвер хранит имена в верхнем регистре
	CaseUpper
	// CaseLower - драйвер хранит имена в нижнем регистре
	CaseLower
)

// ForApplication переводит идентификатор драйвера в форму приложения
func (p CasePolicy) ForApplication(id string) string {
	if p == CaseUpper && id == strings.ToUpper(id) {
		return strings.ToLower(id)
	}
	return id
}

// ForDriver переводит идентификатор приложения в форму драйвера
func (p CasePolicy) ForDriver(id string) string {
	switch p {
	case CaseUpper:
		return strings.ToUpper(id)
	case CaseLower:
		return strings.ToLower(id)
	default:
		return id
	}
}

// ConnectionState - соединение драйвера вместе с диалектом, политикой
// регистра и однократным флагом применения обходных путей.
type ConnectionState struct {
	Conn    Conn
	Dialect Dialect
	Case    CasePolicy

	quirksApplied atomic.Bool
}

// NewState оборачивает уже открытое соединение, не применяя обходные пути
func NewState(conn Conn, dialect Dialect) *ConnectionState {
	return &ConnectionState{Conn: conn, Dialect: dialect, Case: dialect.CasePolicy()}
}

// ApplyQuirks применяет обходные пути драйвера ровно один раз.
// Возвращает true, если этот вызов их применил.
func (s *ConnectionState) ApplyQuirks(ctx context.Context) bool {
	if !s.quirksApplied.CompareAndSwap(false, true) {
		return false
	}
	s.Dialect.ApplyQuirks(ctx, s.Conn)
	return true
}

// QuirksApplied сообщает, применены ли обходные пути
func (s *ConnectionState) QuirksApplied() bool {
	return s.quirksApplied.Load()
}

// CaseConvertForApplication переводит идентификатор в форму приложения
func (s *ConnectionState) CaseConvertForApplication(id string) string {
	return s.Case.ForApplication(id)
}

// CaseConvertForDriver переводит идентификатор в форму драйвера
func (s *ConnectionState) CaseConvertForDriver(id string) string {
	return s.Case.ForDriver(id)
}

// IsAlive проверяет соединение через диалект; nil состояние не живо
func (s *ConnectionState) IsAlive(ctx context.Context, probeSQL string, timeout time.Duration) (bool, error) {
	if s == nil || s.Conn == nil {
		return false, nil
	}
	return s.Dialect.IsAlive(ctx, s.Conn, probeSQL, timeout)
}

// Close закрывает соединение драйвера
func (s *ConnectionState) Close(ctx context.Context) error {
	if s == nil || s.Conn == nil {
		return nil
	}
	return s.Conn.Close(ctx)
}

type connectOptions struct {
	retry retry.Config
}

// ConnectOption настраивает NewConnection
type ConnectOption func(*connectOptions)

// WithRetry включает повторы получения соединения
func WithRetry(cfg retry.Config) ConnectOption {
	return func(o *connectOptions) {
		o.retry = cfg
	}
}

// NewConnection получает соединение через factory, оборачивает его в
// ConnectionState и применяет обходные пути диалекта до возврата.
// Ошибки получения соединения имеют вид ErrConnectionBroken.
func NewConnection(ctx context.Context, dialect Dialect, factory ConnFactory, opts ...ConnectOption) (*ConnectionState, error) {
	options := connectOptions{retry: retry.DefaultConfig()}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := options.retry
	if cfg.Retryable == nil {
		cfg.Retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}
	retryer, err := retry.NewRetryer(cfg)
	if err != nil {
		return nil, err
	}

	var conn Conn
	err = retryer.Do(ctx, func(ctx context.Context) error {
		c, err := factory(ctx)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, NewError(ErrConnectionBroken, dialect.Name(), "new connection", err)
	}

	state := NewState(conn, dialect)
	state.ApplyQuirks(ctx)
	return state, nil
}
