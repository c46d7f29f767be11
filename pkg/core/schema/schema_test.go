package schema

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

func TestGenericType(t *testing.T) {
	tests := []struct {
		name     string
		expected JDBCType
	}{
		{"string", TypeVarchar},
		{"text", TypeClob},
		{"integer", TypeInteger},
		{"bigint", TypeBigInt},
		{"float", TypeFloat},
		{"decimal", TypeDecimal},
		{"date", TypeDate},
		{"time", TypeTime},
		{"datetime", TypeTimestamp},
		{"timestamp", TypeTimestamp},
		{"binary", TypeBlob},
		{"boolean", TypeBoolean},
		{"bit", TypeBit},
		{"xml", TypeSQLXML},
		{"array", TypeArray},
		// регистр имеет значение
		{"INTEGER", TypeOther},
		{"daterange", TypeOther},
		{"", TypeOther},
	}

	for _, tt := range tests {
		if got := GenericType(tt.name); got != tt.expected {
			t.Errorf("GenericType(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestJDBCTypeString(t *testing.T) {
	if TypeOther.String() != "OTHER" {
		t.Errorf("TypeOther.String() = %s", TypeOther.String())
	}
	if JDBCType(4242).String() != "JDBCType(4242)" {
		t.Errorf("unknown code string = %s", JDBCType(4242).String())
	}
	if !TypeBlob.IsBinary() || TypeBlob.IsText() {
		t.Error("BLOB must be binary only")
	}
	if !TypeBigInt.IsIntegral() || TypeDouble.IsIntegral() {
		t.Error("integral classification is wrong")
	}
}

func TestIntervalString(t *testing.T) {
	tests := []struct {
		iv       Interval
		expected string
	}{
		{Interval{Years: 2, Minutes: 3}, "2 years 0 mons 0 days 0 hours 3 mins 0.00 secs"},
		{Interval{Days: 1, Seconds: 1.5}, "0 years 0 mons 1 days 0 hours 0 mins 1.50 secs"},
		{Interval{Seconds: 0.123456}, "0 years 0 mons 0 days 0 hours 0 mins 0.123456 secs"},
		{Interval{Seconds: 0.1234567}, "0 years 0 mons 0 days 0 hours 0 mins 0.123457 secs"},
	}

	for _, tt := range tests {
		if got := tt.iv.String(); got != tt.expected {
			t.Errorf("%+v.String() = %q, want %q", tt.iv, got, tt.expected)
		}
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected Interval
	}{
		{"2 years 0 mons 0 days 0 hours 3 mins 0.00 secs", Interval{Years: 2, Minutes: 3}},
		{"1 year 2 mons -3 days 04:05:06.5", Interval{Years: 1, Months: 2, Days: -3, Hours: 4, Minutes: 5, Seconds: 6.5}},
		{"-04:05:06", Interval{Hours: -4, Minutes: -5, Seconds: -6}},
		{"@ 1 year 2 mons ago", Interval{Years: -1, Months: -2}},
		{"00:00:00", Interval{}},
		{"P1Y2M3DT4H5M6.5S", Interval{Years: 1, Months: 2, Days: 3, Hours: 4, Minutes: 5, Seconds: 6.5}},
		{"PT90M", Interval{Minutes: 90}},
		{"P2W", Interval{Days: 14}},
	}

	for _, tt := range tests {
		got, err := ParseInterval(tt.input)
		if err != nil {
			t.Errorf("ParseInterval(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseInterval(%q) = %+v, want %+v", tt.input, got, tt.expected)
		}
	}
}

func TestParseIntervalErrors(t *testing.T) {
	for _, input := range []string{"", "forever", "3", "1 fortnight", "P1X", "12:xx"} {
		if _, err := ParseInterval(input); err == nil {
			t.Errorf("ParseInterval(%q) expected error", input)
		}
	}
}

func TestIntervalRoundTrip(t *testing.T) {
	// текстовая форма разбирается обратно в тот же интервал
	iv := Interval{Years: 1, Months: 11, Days: 30, Hours: 23, Minutes: 59, Seconds: 59.25}
	got, err := ParseInterval(iv.String())
	if err != nil {
		t.Fatalf("ParseInterval: %v", err)
	}
	if got != iv {
		t.Errorf("round trip = %+v, want %+v", got, iv)
	}
}

func TestValueString(t *testing.T) {
	u := uuid.MustParse("A0EEBC99-9C0B-4EF8-BB6D-6BB9BD380A11")
	ts := time.Date(2024, 3, 1, 10, 20, 30, 123000000, time.UTC)
	s := "x"

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null(), ""},
		{"bool", Bool(true), "true"},
		{"int", Int(-42), "-42"},
		{"float", Float(1.5), "1.5"},
		{"infinity", Float(math.Inf(1)), "Infinity"},
		{"decimal", Decimal("12.3400"), "12.3400"},
		{"uuid lowercased", UUID(u), "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"},
		{"date", Date(civil.Date{Year: 2024, Month: 2, Day: 29}), "2024-02-29"},
		{"time", TimeOfDay(civil.Time{Hour: 1, Minute: 2, Second: 3, Nanosecond: 500}), "01:02:03.000000500"},
		{"timestamp", Timestamp(ts, false), "2024-03-01 10:20:30.123"},
		{"json", JSON(`{"a":1}`, true), `{"a":1}`},
		{"range", Range(RangeInt4, "[1,10)"), "[1,10)"},
		{"array", Array("int4", Int(1), Null(), Int(3)), "{1,NULL,3}"},
		{"hstore", Hstore(map[string]*string{"b": nil, "a": &s}), `"a"=>"x", "b"=>NULL`},
		{"pgobject", PgObject("inet", "10.0.0.1"), "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValueAccessors(t *testing.T) {
	if !Null().IsNull() || Int(0).IsNull() {
		t.Error("only Null must be null")
	}
	if _, ok := Int(1).Float64(); ok {
		t.Error("Int must not report a float")
	}
	if text, ok := JSON("[]", false).Text(); !ok || text != "[]" {
		t.Errorf("Text() = %q, %v", text, ok)
	}
	if JSON("[]", false).Tag() != "json" || JSON("[]", true).Tag() != "jsonb" {
		t.Error("json tags are wrong")
	}
	r := strings.NewReader("abc")
	if got, n, ok := Stream(r, 3).Stream(); !ok || n != 3 || got != r {
		t.Error("stream accessor is wrong")
	}
}

func TestTimeKinds(t *testing.T) {
	clock := civil.Time{Hour: 23, Minute: 59, Second: 58, Nanosecond: 1}
	date := civil.Date{Year: 2024, Month: time.February, Day: 29}
	ts := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  Value
		kind   TimeKind
		native any
	}{
		{"timestamp", Timestamp(ts, false), TimeStamp, ts},
		{"date", Date(date), TimeDate, date},
		{"clock", TimeOfDay(clock), TimeClock, clock},
		{"clock from native", FromNative(clock), TimeClock, clock},
	}

	for _, tt := range tests {
		_, kind, ok := tt.value.Time()
		if !ok || kind != tt.kind {
			t.Errorf("%s: Time() kind = %v, %v; want %v", tt.name, kind, ok, tt.kind)
		}
		if got := tt.value.Native(); got != tt.native {
			t.Errorf("%s: Native() = %v, want %v", tt.name, got, tt.native)
		}
	}
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Kind
	}{
		{"nil", nil, KindNull},
		{"int32", int32(7), KindInt},
		{"float32", float32(1), KindFloat},
		{"bytes", []byte{1}, KindBytes},
		{"time", time.Now(), KindTime},
		{"civil date", civil.Date{Year: 2000, Month: 1, Day: 1}, KindTime},
		{"uuid", uuid.New(), KindUUID},
		{"map", map[string]string{"a": "b"}, KindHstore},
		{"slice", []any{int64(1), nil}, KindArray},
		{"struct", struct{ A int }{1}, KindString},
	}

	for _, tt := range tests {
		if got := FromNative(tt.input).Kind(); got != tt.expected {
			t.Errorf("FromNative(%s) kind = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{Null(), "null"},
		{Int(5), "5"},
		{Float(math.Inf(-1)), `"-Infinity"`},
		{JSON(`{"a":[1,2]}`, false), `{"a":[1,2]}`},
		{JSON(`not json`, false), `"not json"`},
		{Array("int4", Int(1), Null()), "[1,null]"},
		{IntervalValue(Interval{Days: 1}), `"0 years 0 mons 1 days 0 hours 0 mins 0.00 secs"`},
	}

	for _, tt := range tests {
		data, err := tt.value.MarshalJSON()
		if err != nil {
			t.Errorf("MarshalJSON(%v) error: %v", tt.value.Kind(), err)
			continue
		}
		if string(data) != tt.expected {
			t.Errorf("MarshalJSON(%v) = %s, want %s", tt.value.Kind(), data, tt.expected)
		}
	}
}
