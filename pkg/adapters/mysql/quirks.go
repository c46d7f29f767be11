package mysql

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/toggles"
)

// Имена обходных путей в логах и метриках
const (
	quirkCleanupShutdown = "stop_cleanup_thread"
	quirkCancelTimer     = "kill_cancel_timer"
)

// Capability интерфейсы соединения. Обходные пути ищут их через
// утверждение типа; отсутствие возможности отключает обходной путь.
type (
	// Unwrapper отдает соединение под оберткой
	Unwrapper interface {
		Unwrap() any
	}

	// VersionReporter сообщает строку версии драйвера
	VersionReporter interface {
		DriverVersion() string
	}

	// ProxyReporter сообщает, что соединение - прокси балансировщика
	ProxyReporter interface {
		IsProxy() bool
	}

	// CancelTimerProvider отдает внутренний таймер отмены запросов драйвера
	CancelTimerProvider interface {
		CancelTimer() Canceler
	}

	// Canceler - останавливаемый таймер
	Canceler interface {
		Cancel()
	}

	// rawConn - *sql.Conn: доступ к соединению драйвера внутри замыкания
	rawConn interface {
		Raw(f func(driverConn any) error) error
	}
)

// Состояние поиска возможности таймера отмены
const (
	capabilityUnevaluated int32 = iota
	capabilityAvailable
	capabilityUnavailable
)

var errCancelTimerUnavailable = errors.New("driver connection exposes no cancel timer")

// Quirks - разделяемое процессом состояние обходных путей MySQL:
// однократная остановка потока очистки, автоопределенное решение о
// таймере отмены и закешированный результат поиска его возможности.
type Quirks struct {
	// ShutdownCleanup останавливает поток очистки брошенных соединений
	// драйвера. nil - драйвер такого потока не имеет.
	ShutdownCleanup func() error

	mu            sync.Mutex
	cleanupOnce   sync.Once
	killDetected  atomic.Int32 // toggles.TriState
	cancelTimerOK atomic.Int32
}

var processQuirks = &Quirks{}

// RegisterCleanupShutdown задает хук остановки потока очистки для всех
// соединений процесса
func RegisterCleanupShutdown(fn func() error) {
	processQuirks.mu.Lock()
	defer processQuirks.mu.Unlock()
	processQuirks.ShutdownCleanup = fn
}

// Apply выполняет оба обходных пути для нового соединения.
// Ошибки логируются и не возвращаются.
func (q *Quirks) Apply(conn adapters.Conn, tbl *toggles.Table, logger zerolog.Logger) {
	if tbl.StopCleanupThread().IsTrue() {
		q.stopCleanupThread(logger)
	} else {
		base.ObserveQuirk(DialectName, quirkCleanupShutdown, base.ResultDisabled)
	}

	if !q.shouldKillCancelTimer(conn, tbl) {
		base.ObserveQuirk(DialectName, quirkCancelTimer, base.ResultDisabled)
		return
	}
	if err := q.killCancelTimer(conn); err != nil {
		logger.Debug().Err(err).Msg("cancel timer not stopped")
		base.ObserveQuirk(DialectName, quirkCancelTimer, base.ResultError)
		return
	}
	base.ObserveQuirk(DialectName, quirkCancelTimer, base.ResultOK)
}

// stopCleanupThread вызывает хук один раз за процесс. Отсутствие хука
// считается успехом.
func (q *Quirks) stopCleanupThread(logger zerolog.Logger) {
	q.cleanupOnce.Do(func() {
		q.mu.Lock()
		shutdown := q.ShutdownCleanup
		q.mu.Unlock()

		if shutdown == nil {
			logger.Debug().Msg("driver has no cleanup thread to stop")
			base.ObserveQuirk(DialectName, quirkCleanupShutdown, base.ResultSkipped)
			return
		}
		if err := shutdown(); err != nil {
			logger.Debug().Err(err).Msg("cleanup thread shutdown failed")
			base.ObserveQuirk(DialectName, quirkCleanupShutdown, base.ResultError)
			return
		}
		base.ObserveQuirk(DialectName, quirkCleanupShutdown, base.ResultOK)
	})
}

// shouldKillCancelTimer: явный флаг главнее; иначе решение определяется
// по версии драйвера первого соединения и запоминается на процесс
func (q *Quirks) shouldKillCancelTimer(conn adapters.Conn, tbl *toggles.Table) bool {
	if explicit := tbl.KillCancelTimer(); explicit != toggles.Unset {
		return explicit.IsTrue()
	}

	if detected := toggles.TriState(q.killDetected.Load()); detected != toggles.Unset {
		return detected.IsTrue()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if detected := toggles.TriState(q.killDetected.Load()); detected != toggles.Unset {
		return detected.IsTrue()
	}

	version := ""
	if vr, ok := conn.(VersionReporter); ok {
		version = vr.DriverVersion()
	}
	detected := toggles.Tri(cancelTimerAffected(version))
	q.killDetected.Store(int32(detected))
	return detected.IsTrue()
}

// killCancelTimer останавливает таймер отмены соединения. Прокси
// балансировщика пропускается.
func (q *Quirks) killCancelTimer(conn adapters.Conn) error {
	if q.cancelTimerOK.Load() == capabilityUnavailable {
		return errCancelTimerUnavailable
	}

	u, ok := conn.(Unwrapper)
	if !ok {
		return fmt.Errorf("connection %T cannot be unwrapped", conn)
	}

	target := u.Unwrap()
	if raw, ok := target.(rawConn); ok {
		return raw.Raw(q.cancelOn)
	}
	return q.cancelOn(target)
}

func (q *Quirks) cancelOn(target any) error {
	if p, ok := target.(ProxyReporter); ok && p.IsProxy() {
		return nil
	}

	provider, ok := target.(CancelTimerProvider)
	if !ok {
		q.cancelTimerOK.CompareAndSwap(capabilityUnevaluated, capabilityUnavailable)
		return fmt.Errorf("%w: %T", errCancelTimerUnavailable, target)
	}
	q.cancelTimerOK.CompareAndSwap(capabilityUnevaluated, capabilityAvailable)

	if timer := provider.CancelTimer(); timer != nil {
		timer.Cancel()
	}
	return nil
}
