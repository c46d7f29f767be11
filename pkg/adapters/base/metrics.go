package base

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

var (
	// bindTotal counts parameter binds by type code and outcome.
	bindTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbcodec_bind_total",
			Help: "Total number of parameter binds by dialect, type code and result",
		},
		[]string{"dialect", "code", "result"},
	)

	// extractTotal counts column extractions by type code and outcome.
	extractTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbcodec_extract_total",
			Help: "Total number of column extractions by dialect, type code and result",
		},
		[]string{"dialect", "code", "result"},
	)

	// livenessChecks counts connection liveness checks.
	livenessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbcodec_liveness_checks_total",
			Help: "Total number of connection liveness checks by dialect and result",
		},
		[]string{"dialect", "result"},
	)

	// quirksTotal counts driver quirk executions.
	quirksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbcodec_quirks_total",
			Help: "Total number of driver quirk executions by dialect, quirk and result",
		},
		[]string{"dialect", "quirk", "result"},
	)
)

// Значения метки result
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultAlive    = "alive"
	ResultDead     = "dead"
	ResultSkipped  = "skipped"
	ResultDisabled = "disabled"
)

// ObserveBind учитывает связывание параметра
func ObserveBind(dialect string, code schema.JDBCType, err error) {
	bindTotal.WithLabelValues(dialect, code.String(), resultLabel(err)).Inc()
}

// ObserveExtract учитывает извлечение колонки
func ObserveExtract(dialect string, code schema.JDBCType, err error) {
	extractTotal.WithLabelValues(dialect, code.String(), resultLabel(err)).Inc()
}

// ObserveQuirk учитывает выполнение обходного пути драйвера
func ObserveQuirk(dialect, quirk, result string) {
	quirksTotal.WithLabelValues(dialect, quirk, result).Inc()
}

// BindCounter возвращает счетчик связываний (для тестов)
func BindCounter(dialect string, code schema.JDBCType, result string) prometheus.Counter {
	return bindTotal.WithLabelValues(dialect, code.String(), result)
}

// LivenessCounter возвращает счетчик проверок живости (для тестов)
func LivenessCounter(dialect, result string) prometheus.Counter {
	return livenessChecks.WithLabelValues(dialect, result)
}

// QuirkCounter возвращает счетчик обходных путей (для тестов)
func QuirkCounter(dialect, quirk, result string) prometheus.Counter {
	return quirksTotal.WithLabelValues(dialect, quirk, result)
}

func resultLabel(err error) string {
	if err == nil {
		return ResultOK
	}
	var typed *adapters.Error
	if errors.As(err, &typed) {
		return strings.ReplaceAll(typed.Kind.Error(), " ", "_")
	}
	return ResultError
}
