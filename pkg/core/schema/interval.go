package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval - интервал времени в разбивке по единицам, как его отдает
// сервер PostgreSQL. Секунды хранят дробную часть.
type Interval struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
	Seconds float64
}

// IsZero проверяет что все единицы интервала нулевые
func (iv Interval) IsZero() bool {
	return iv.Years == 0 && iv.Months == 0 && iv.Days == 0 &&
		iv.Hours == 0 && iv.Minutes == 0 && iv.Seconds == 0
}

// String возвращает подробную текстовую форму:
// "2 years 0 mons 0 days 0 hours 3 mins 0.00 secs".
func (iv Interval) String() string {
	return fmt.Sprintf("%d years %d mons %d days %d hours %d mins %s secs",
		iv.Years, iv.Months, iv.Days, iv.Hours, iv.Minutes, formatSeconds(iv.Seconds))
}

// formatSeconds форматирует секунды с 2..6 знаками после точки
func formatSeconds(secs float64) string {
	s := strconv.FormatFloat(secs, 'f', 6, 64)
	dot := strings.IndexByte(s, '.')
	end := len(s)
	for end > dot+3 && s[end-1] == '0' {
		end--
	}
	return s[:end]
}

// ParseInterval разбирает текст интервала в подробной форме ("@ 1 year 2 mons ago"),
// в стиле postgres ("1 year 2 mons -3 days 04:05:06.5") или ISO 8601 ("P1Y2M3DT4H5M6.5S").
func ParseInterval(text string) (Interval, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Interval{}, fmt.Errorf("empty interval")
	}
	if s[0] == 'P' || (len(s) > 1 && s[0] == '-' && s[1] == 'P') {
		return parseISOInterval(s)
	}

	var iv Interval
	ago := false
	s = strings.TrimSpace(strings.TrimPrefix(s, "@"))
	if strings.HasSuffix(s, " ago") {
		ago = true
		s = strings.TrimSuffix(s, " ago")
	}

	fields := strings.Fields(s)
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if strings.Contains(field, ":") {
			if err := parseClock(field, &iv); err != nil {
				return Interval{}, fmt.Errorf("invalid interval %q: %w", text, err)
			}
			continue
		}
		if i+1 >= len(fields) {
			return Interval{}, fmt.Errorf("invalid interval %q: missing unit after %q", text, field)
		}
		unit := strings.ToLower(fields[i+1])
		i++

		if strings.HasPrefix(unit, "sec") {
			secs, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Interval{}, fmt.Errorf("invalid interval %q: %w", text, err)
			}
			iv.Seconds += secs
			continue
		}

		n, err := strconv.Atoi(field)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval %q: %w", text, err)
		}
		switch {
		case strings.HasPrefix(unit, "year"):
			iv.Years += n
		case strings.HasPrefix(unit, "mon"):
			iv.Months += n
		case strings.HasPrefix(unit, "day"):
			iv.Days += n
		case strings.HasPrefix(unit, "hour"):
			iv.Hours += n
		case strings.HasPrefix(unit, "min"):
			iv.Minutes += n
		default:
			return Interval{}, fmt.Errorf("invalid interval %q: unknown unit %q", text, unit)
		}
	}

	if ago {
		iv = iv.negate()
	}
	return iv, nil
}

func (iv Interval) negate() Interval {
	return Interval{
		Years:   -iv.Years,
		Months:  -iv.Months,
		Days:    -iv.Days,
		Hours:   -iv.Hours,
		Minutes: -iv.Minutes,
		Seconds: -iv.Seconds,
	}
}

// parseClock разбирает часть вида [-]HH:MM[:SS[.ffffff]]
func parseClock(field string, iv *Interval) error {
	neg := false
	switch field[0] {
	case '-':
		neg = true
		field = field[1:]
	case '+':
		field = field[1:]
	}

	parts := strings.Split(field, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("bad time part %q", field)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return err
	}
	var secs float64
	if len(parts) == 3 {
		if secs, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return err
		}
	}

	if neg {
		hours, mins, secs = -hours, -mins, -secs
	}
	iv.Hours += hours
	iv.Minutes += mins
	iv.Seconds += secs
	return nil
}

func parseISOInterval(text string) (Interval, error) {
	var iv Interval
	s := text
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	s = s[1:] // 'P'

	inTime := false
	for len(s) > 0 {
		if s[0] == 'T' {
			inTime = true
			s = s[1:]
			continue
		}
		end := 0
		for end < len(s) && (s[end] == '-' || s[end] == '+' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
			end++
		}
		if end == 0 || end >= len(s) {
			return Interval{}, fmt.Errorf("invalid interval %q", text)
		}
		num, designator := s[:end], s[end]
		s = s[end+1:]

		if inTime && designator == 'S' {
			secs, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return Interval{}, fmt.Errorf("invalid interval %q: %w", text, err)
			}
			iv.Seconds += secs
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid interval %q: %w", text, err)
		}
		switch {
		case !inTime && designator == 'Y':
			iv.Years += n
		case !inTime && designator == 'M':
			iv.Months += n
		case !inTime && designator == 'W':
			iv.Days += 7 * n
		case !inTime && designator == 'D':
			iv.Days += n
		case inTime && designator == 'H':
			iv.Hours += n
		case inTime && designator == 'M':
			iv.Minutes += n
		default:
			return Interval{}, fmt.Errorf("invalid interval %q: unexpected designator %q", text, designator)
		}
	}

	if neg {
		iv = iv.negate()
	}
	return iv, nil
}
