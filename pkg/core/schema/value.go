package schema

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// Kind - тег варианта Value
type Kind uint8

// Поддерживаемые виды значений
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindBytes
	KindTime
	KindUUID
	KindJSON
	KindInterval
	KindRange
	KindArray
	KindHstore
	KindBitString
	KindPgObject
	KindStream
)

var kindNames = [...]string{
	KindNull:      "Null",
	KindBool:      "Bool",
	KindInt:       "Int",
	KindFloat:     "Float",
	KindDecimal:   "Decimal",
	KindString:    "String",
	KindBytes:     "Bytes",
	KindTime:      "Time",
	KindUUID:      "UUID",
	KindJSON:      "Json",
	KindInterval:  "Interval",
	KindRange:     "Range",
	KindArray:     "Array",
	KindHstore:    "Hstore",
	KindBitString: "BitString",
	KindPgObject:  "PgObject",
	KindStream:    "Stream",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// TimeKind уточняет вид временного значения
type TimeKind uint8

const (
	// TimeStamp - дата и время
	TimeStamp TimeKind = iota
	// TimeDate - только дата
	TimeDate
	// TimeClock - только время суток
	TimeClock
)

// RangeSubtype - подтип диапазона PostgreSQL
type RangeSubtype string

// Подтипы диапазонов
const (
	RangeDate RangeSubtype = "date"
	RangeTS   RangeSubtype = "ts"
	RangeTSTZ RangeSubtype = "tstz"
	RangeInt4 RangeSubtype = "int4"
	RangeInt8 RangeSubtype = "int8"
	RangeNum  RangeSubtype = "num"
)

// Value - нейтральное к диалекту значение ячейки или параметра.
// Нулевое значение Value - это SQL NULL.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	tag   string
	bytes []byte
	t     time.Time
	tk    TimeKind
	zoned bool
	u     uuid.UUID
	iv    Interval
	elems []Value
	h     map[string]*string
	r     io.Reader
}

// Null возвращает SQL NULL
func Null() Value { return Value{} }

// Bool создает логическое значение
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int создает целое значение
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float создает значение с плавающей точкой (допускается ±Inf)
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Decimal создает десятичное значение из текстового представления
func Decimal(s string) Value { return Value{kind: KindDecimal, s: s} }

// String создает строковое значение
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes создает бинарное значение
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// Timestamp создает метку времени; zoned означает что смещение зоны значимо
func Timestamp(t time.Time, zoned bool) Value {
	return Value{kind: KindTime, t: t, tk: TimeStamp, zoned: zoned}
}

// Date создает значение "только дата"
func Date(d civil.Date) Value {
	return Value{kind: KindTime, t: d.In(time.UTC), tk: TimeDate}
}

// TimeOfDay создает значение "только время" с наносекундами
func TimeOfDay(c civil.Time) Value {
	return Value{kind: KindTime, t: civil.DateTime{Date: civil.Date{Year: 1970, Month: time.January, Day: 1}, Time: c}.In(time.UTC), tk: TimeClock}
}

// UUID создает значение UUID
func UUID(u uuid.UUID) Value { return Value{kind: KindUUID, u: u} }

// JSON создает значение json или jsonb
func JSON(payload string, binary bool) Value {
	tag := "json"
	if binary {
		tag = "jsonb"
	}
	return Value{kind: KindJSON, s: payload, tag: tag}
}

// IntervalValue создает значение интервала
func IntervalValue(iv Interval) Value { return Value{kind: KindInterval, iv: iv} }

// Range создает диапазон с текстовым выражением границ, например "[1,10)"
func Range(subtype RangeSubtype, text string) Value {
	return Value{kind: KindRange, s: text, tag: string(subtype)}
}

// Array создает массив; elemType - имя типа элементов
func Array(elemType string, elems ...Value) Value {
	return Value{kind: KindArray, tag: elemType, elems: elems}
}

// Hstore создает отображение строка -> строка или NULL
func Hstore(m map[string]*string) Value { return Value{kind: KindHstore, h: m} }

// BitString создает битовую строку из символов 0 и 1
func BitString(bits string) Value { return Value{kind: KindBitString, s: bits} }

// PgObject создает непрозрачный объект (имя типа + текст)
func PgObject(typeName, text string) Value {
	return Value{kind: KindPgObject, s: text, tag: typeName}
}

// Stream создает потоковое значение для BLOB; length < 0 означает "неизвестно"
func Stream(r io.Reader, length int64) Value {
	return Value{kind: KindStream, r: r, i: length}
}

// Kind возвращает тег варианта
func (v Value) Kind() Kind { return v.kind }

// IsNull проверяет является ли значение SQL NULL
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool возвращает логическое значение
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int64 возвращает целое значение
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInt }

// Float64 возвращает значение с плавающей точкой
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat }

// Bytes возвращает бинарное значение
func (v Value) Bytes() ([]byte, bool) { return v.bytes, v.kind == KindBytes }

// Time возвращает временное значение и его вид
func (v Value) Time() (time.Time, TimeKind, bool) { return v.t, v.tk, v.kind == KindTime }

// Zoned сообщает задано ли смещение зоны у метки времени
func (v Value) Zoned() bool { return v.zoned }

// UUID возвращает значение UUID
func (v Value) UUID() (uuid.UUID, bool) { return v.u, v.kind == KindUUID }

// Interval возвращает интервал
func (v Value) Interval() (Interval, bool) { return v.iv, v.kind == KindInterval }

// Elements возвращает элементы массива
func (v Value) Elements() ([]Value, bool) { return v.elems, v.kind == KindArray }

// Hstore возвращает отображение hstore
func (v Value) Hstore() (map[string]*string, bool) { return v.h, v.kind == KindHstore }

// Stream возвращает поток и объявленную длину
func (v Value) Stream() (io.Reader, int64, bool) { return v.r, v.i, v.kind == KindStream }

// Tag возвращает имя типа для JSON, Range, Array и PgObject
func (v Value) Tag() string { return v.tag }

// Text возвращает текст для Decimal, String, Json, Range, BitString и PgObject
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindDecimal, KindString, KindJSON, KindRange, KindBitString, KindPgObject:
		return v.s, true
	default:
		return "", false
	}
}

// Date возвращает дату временного значения
func (v Value) Date() civil.Date { return civil.DateOf(v.t) }

// Clock возвращает время суток временного значения
func (v Value) Clock() civil.Time { return civil.TimeOf(v.t) }

// String возвращает текстовое представление значения, используемое при
// связывании параметров с типами, которые драйвер принимает как текст.
func (v Value) String() string {
	switch v.kind {
	case KindNull, KindStream:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBytes:
		return string(v.bytes)
	case KindTime:
		switch v.tk {
		case TimeDate:
			return civil.DateOf(v.t).String()
		case TimeClock:
			return civil.TimeOf(v.t).String()
		default:
			if v.zoned {
				return v.t.Format("2006-01-02 15:04:05.999999999-07:00")
			}
			return v.t.Format("2006-01-02 15:04:05.999999999")
		}
	case KindUUID:
		return v.u.String()
	case KindInterval:
		return v.iv.String()
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			if e.IsNull() {
				parts[i] = "NULL"
				continue
			}
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindHstore:
		return formatHstore(v.h)
	default:
		return v.s
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatHstore(m map[string]*string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(k))
		sb.WriteString("=>")
		if m[k] == nil {
			sb.WriteString("NULL")
		} else {
			sb.WriteString(strconv.Quote(*m[k]))
		}
	}
	return sb.String()
}

// Native возвращает Go-значение для передачи драйверу как объект
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBytes:
		return v.bytes
	case KindTime:
		switch v.tk {
		case TimeDate:
			return civil.DateOf(v.t)
		case TimeClock:
			return civil.TimeOf(v.t)
		default:
			return v.t
		}
	case KindUUID:
		return v.u
	case KindInterval:
		return v.iv
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Native()
		}
		return out
	case KindHstore:
		return v.h
	case KindStream:
		return v.r
	default:
		return v.s
	}
}

// FromNative превращает значение, полученное от драйвера, в Value
func FromNative(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return Decimal(strconv.FormatUint(t, 10))
		}
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []byte:
		return Bytes(t)
	case time.Time:
		return Timestamp(t, t.Location() != time.UTC)
	case civil.Date:
		return Date(t)
	case civil.Time:
		return TimeOfDay(t)
	case uuid.UUID:
		return UUID(t)
	case Interval:
		return IntervalValue(t)
	case map[string]*string:
		return Hstore(t)
	case map[string]string:
		m := make(map[string]*string, len(t))
		for k, val := range t {
			m[k] = &val
		}
		return Hstore(m)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = FromNative(e)
		}
		return Array("", elems...)
	case fmt.Stringer:
		return String(t.String())
	default:
		return String(fmt.Sprint(t))
	}
}

// MarshalJSON реализует json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull, KindStream:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return json.Marshal(formatFloat(v.f))
		}
		return json.Marshal(v.f)
	case KindBytes:
		return json.Marshal(v.bytes)
	case KindJSON:
		if json.Valid([]byte(v.s)) {
			return []byte(v.s), nil
		}
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.elems)
	case KindHstore:
		return json.Marshal(v.h)
	default:
		return json.Marshal(v.String())
	}
}
