package base

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/dbcodec/pkg/adapters"
)

// Probe проверяет живость соединения: пробным запросом, если он задан,
// иначе через adapters.Validator.
type Probe struct {
	Dialect string
	Logger  zerolog.Logger
}

// IsAlive возвращает true, если соединение пригодно к работе.
// Ошибки драйвера логируются и превращаются в false; наружу выходит
// только ErrUnsupportedDriver.
func (p Probe) IsAlive(ctx context.Context, conn adapters.Conn, probeSQL string, timeout time.Duration) (bool, error) {
	if conn == nil {
		p.observe(false)
		return false, nil
	}

	if probeSQL != "" {
		err := p.runProbe(ctx, conn, probeSQL, timeout)
		if err != nil {
			p.Logger.Debug().Err(err).Str("sql", probeSQL).Msg("liveness probe failed")
		}
		p.observe(err == nil)
		return err == nil, nil
	}

	validator, ok := conn.(adapters.Validator)
	if !ok {
		p.Logger.Warn().Msg("driver does not support connection validation, upgrade the driver or set a probe query")
		livenessChecks.WithLabelValues(p.Dialect, resultLabel(adapters.ErrUnsupportedDriver)).Inc()
		return false, adapters.Errorf(adapters.ErrUnsupportedDriver, p.Dialect, "is alive",
			"%T has no validity check", conn)
	}

	alive, err := validator.IsValid(ctx, timeout)
	if err != nil {
		p.Logger.Debug().Err(err).Msg("connection validity check failed")
		alive = false
	}
	p.observe(alive)
	return alive, nil
}

func (p Probe) runProbe(ctx context.Context, conn adapters.Conn, probeSQL string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opener, ok := conn.(adapters.ProbeOpener)
	if !ok {
		_, err := conn.Exec(ctx, probeSQL)
		return err
	}

	stmt, err := opener.PrepareProbe(ctx, probeSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	return stmt.Exec(ctx)
}

func (p Probe) observe(alive bool) {
	result := ResultDead
	if alive {
		result = ResultAlive
	}
	livenessChecks.WithLabelValues(p.Dialect, result).Inc()
}
