// Package toggles содержит процессные флаги, управляющие "сырым" выводом
// массивов, hstore и интервалов PostgreSQL, генерируемыми ключами и
// обходными путями драйвера MySQL.
//
// Таблица - это неизменяемый снимок за atomic.Pointer: чтение не берет
// блокировок, запись заменяет снимок целиком.
package toggles

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// TriState - флаг с тремя состояниями. Unset означает "адаптеру еще не сказали".
type TriState int8

const (
	Unset TriState = iota
	True
	False
)

func (s TriState) String() string {
	switch s {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unset"
	}
}

// IsTrue проверяет что флаг явно включен
func (s TriState) IsTrue() bool { return s == True }

// Value возвращает true, false или nil для Unset
func (s TriState) Value() any {
	switch s {
	case True:
		return true
	case False:
		return false
	default:
		return nil
	}
}

// Tri превращает bool в TriState
func Tri(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Имена флагов
const (
	ArrayRaw          = "postgresql.array.raw"
	HstoreRaw         = "postgresql.hstore.raw"
	IntervalRaw       = "postgresql.iterval.raw"
	GeneratedKeys     = "postgresql.generated_keys"
	StopCleanupThread = "mysql.stop_cleanup_thread"
	KillCancelTimer   = "mysql.kill_cancel_timer"
)

// aliases - дополнительные имена, под которыми флаги принимаются
var aliases = map[string]string{
	"postgresql.interval.raw":   IntervalRaw,
	"postgresql.generated.keys": GeneratedKeys,
}

// Names возвращает канонические имена всех флагов
func Names() []string {
	names := []string{ArrayRaw, HstoreRaw, IntervalRaw, GeneratedKeys, StopCleanupThread, KillCancelTimer}
	sort.Strings(names)
	return names
}

// Canonical возвращает каноническое имя флага или false для неизвестного
func Canonical(name string) (string, bool) {
	if alias, ok := aliases[name]; ok {
		return alias, true
	}
	switch name {
	case ArrayRaw, HstoreRaw, IntervalRaw, GeneratedKeys, StopCleanupThread, KillCancelTimer:
		return name, true
	}
	return "", false
}

// Snapshot - неизменяемый набор значений всех флагов
type Snapshot struct {
	ArrayRaw          TriState
	HstoreRaw         TriState
	IntervalRaw       bool
	GeneratedKeys     bool
	StopCleanupThread TriState
	KillCancelTimer   TriState
}

// Table - таблица флагов времени выполнения
type Table struct {
	current atomic.Pointer[Snapshot]
}

// New создает таблицу с начальным снимком
func New(initial Snapshot) *Table {
	t := &Table{}
	t.current.Store(&initial)
	return t
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default возвращает таблицу процесса, загруженную из окружения при первом обращении
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = New(LoadEnv(os.LookupEnv))
	})
	return defaultTable
}

// Snapshot возвращает текущий снимок
func (t *Table) Snapshot() Snapshot {
	return *t.current.Load()
}

// ArrayRaw сообщает, возвращать ли массивы PostgreSQL текстом драйвера
func (t *Table) ArrayRaw() bool { return t.current.Load().ArrayRaw.IsTrue() }

// HstoreRaw сообщает, возвращать ли hstore текстом вместо отображения
func (t *Table) HstoreRaw() bool { return t.current.Load().HstoreRaw.IsTrue() }

// IntervalRaw сообщает, возвращать ли интервал в текстовой форме драйвера
func (t *Table) IntervalRaw() bool { return t.current.Load().IntervalRaw }

// GeneratedKeys сообщает, включено ли получение генерируемых ключей PostgreSQL
func (t *Table) GeneratedKeys() bool { return t.current.Load().GeneratedKeys }

// StopCleanupThread возвращает флаг остановки потока очистки MySQL
func (t *Table) StopCleanupThread() TriState { return t.current.Load().StopCleanupThread }

// KillCancelTimer возвращает явное решение об отключении таймера отмены MySQL
func (t *Table) KillCancelTimer() TriState { return t.current.Load().KillCancelTimer }

// Get возвращает значение флага: true, false или nil для Unset
func (t *Table) Get(name string) (any, error) {
	canonical, ok := Canonical(name)
	if !ok {
		return nil, fmt.Errorf("unknown toggle: %s (available toggles: %v)", name, Names())
	}

	s := t.current.Load()
	switch canonical {
	case ArrayRaw:
		return s.ArrayRaw.Value(), nil
	case HstoreRaw:
		return s.HstoreRaw.Value(), nil
	case IntervalRaw:
		return s.IntervalRaw, nil
	case GeneratedKeys:
		return s.GeneratedKeys, nil
	case StopCleanupThread:
		return s.StopCleanupThread.Value(), nil
	default:
		return s.KillCancelTimer.Value(), nil
	}
}

// Set меняет флаг. Для трехзначных флагов bool задает True/False,
// nil сбрасывает в Unset, любое другое значение включает флаг.
// Для двузначных флагов nil выключает флаг, любое не-bool значение включает.
func (t *Table) Set(name string, value any) error {
	canonical, ok := Canonical(name)
	if !ok {
		return fmt.Errorf("unknown toggle: %s (available toggles: %v)", name, Names())
	}

	for {
		old := t.current.Load()
		next := *old
		switch canonical {
		case ArrayRaw:
			next.ArrayRaw = triFrom(value)
		case HstoreRaw:
			next.HstoreRaw = triFrom(value)
		case IntervalRaw:
			next.IntervalRaw = biFrom(value)
		case GeneratedKeys:
			next.GeneratedKeys = biFrom(value)
		case StopCleanupThread:
			next.StopCleanupThread = triFrom(value)
		case KillCancelTimer:
			next.KillCancelTimer = triFrom(value)
		}
		if t.current.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// Apply применяет набор значений, например секцию toggles из yaml конфигурации
func (t *Table) Apply(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := t.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func triFrom(value any) TriState {
	switch v := value.(type) {
	case nil:
		return Unset
	case bool:
		return Tri(v)
	case TriState:
		return v
	default:
		return True
	}
}

func biFrom(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case TriState:
		return v == True
	default:
		return true
	}
}

// EnvName возвращает имя переменной окружения в форме DBCODEC_UPPER_SNAKE
func EnvName(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return "DBCODEC_" + strings.ToUpper(r.Replace(name))
}

// LoadEnv читает флаги из окружения. Сначала проверяется точное имя флага,
// затем форма DBCODEC_*. Истинным считается только "true" без учета регистра.
func LoadEnv(lookup func(string) (string, bool)) Snapshot {
	read := func(names ...string) (bool, bool) {
		for _, name := range names {
			for _, key := range []string{name, EnvName(name)} {
				if raw, ok := lookup(key); ok {
					return strings.EqualFold(strings.TrimSpace(raw), "true"), true
				}
			}
		}
		return false, false
	}
	tri := func(names ...string) TriState {
		if v, ok := read(names...); ok {
			return Tri(v)
		}
		return Unset
	}

	var s Snapshot
	s.ArrayRaw = tri(ArrayRaw)
	s.HstoreRaw = tri(HstoreRaw)
	s.IntervalRaw, _ = read(IntervalRaw, "postgresql.interval.raw")
	s.GeneratedKeys, _ = read(GeneratedKeys, "postgresql.generated.keys")
	s.StopCleanupThread = tri(StopCleanupThread)
	s.KillCancelTimer = tri(KillCancelTimer)
	return s
}
