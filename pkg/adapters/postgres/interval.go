package postgres

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// formatInterval форматирует интервал в виде "Y years M months D days HH:MM:SS".
// Нулевые единицы опускаются; время выводится, только если оно не 00:00:00.
func formatInterval(iv schema.Interval) string {
	var sb strings.Builder

	if iv.Years != 0 {
		sb.WriteString(strconv.Itoa(iv.Years) + " years ")
	}
	if iv.Months != 0 {
		sb.WriteString(strconv.Itoa(iv.Months) + " months ")
	}
	if iv.Days != 0 {
		sb.WriteString(strconv.Itoa(iv.Days) + " days ")
	}

	secs := int(iv.Seconds)
	if iv.Hours != 0 || iv.Minutes != 0 || secs != 0 {
		writeClockPart(&sb, iv.Hours)
		sb.WriteByte(':')
		writeClockPart(&sb, iv.Minutes)
		sb.WriteByte(':')
		writeClockPart(&sb, secs)
		return sb.String()
	}

	return strings.TrimSuffix(sb.String(), " ")
}

func writeClockPart(sb *strings.Builder, n int) {
	if n < 10 {
		sb.WriteByte('0')
	}
	sb.WriteString(strconv.Itoa(n))
}

// toPgInterval переводит интервал в pgtype.Interval (месяцы, дни, микросекунды).
// Секунды округляются до ближайшей микросекунды, как при разборе текста сервером.
func toPgInterval(iv schema.Interval) pgtype.Interval {
	micros := (int64(iv.Hours)*3600+int64(iv.Minutes)*60)*1_000_000 + int64(math.Round(iv.Seconds*1_000_000))
	return pgtype.Interval{
		Months:       int32(iv.Years*12 + iv.Months),
		Days:         int32(iv.Days),
		Microseconds: micros,
		Valid:        true,
	}
}
