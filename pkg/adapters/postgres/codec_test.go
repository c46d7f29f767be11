package postgres

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/adapters/base"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
	"github.com/ruslano69/dbcodec/pkg/toggles"
)

const testHstoreOID = 16400

func newTestDialect(snap toggles.Snapshot) *Dialect {
	return New(adapters.Config{Type: "postgres", Toggles: toggles.New(snap)})
}

func TestTypeFor(t *testing.T) {
	tests := []struct {
		name     string
		expected schema.JDBCType
	}{
		{"bit", schema.TypeOther},
		{"bit_varying", schema.TypeOther},
		{"hstore", schema.TypeOther},
		{"tstzrange", schema.TypeOther},
		{"uuid", schema.TypeOther},
		{"jsonb", schema.TypeOther},
		{"integer", schema.TypeInteger},
		{"text", schema.TypeClob},
		{"datetime", schema.TypeTimestamp},
		{"UUID", schema.TypeOther},
		{"Integer", schema.TypeOther},
	}

	for _, tt := range tests {
		if got := TypeFor(tt.name); got != tt.expected {
			t.Errorf("TypeFor(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func bindOne(t *testing.T, d *Dialect, v schema.Value, columnType string, code schema.JDBCType) base.Param {
	t.Helper()
	stmt := d.NewStatement().(*base.Params)
	if err := d.BindParameter(stmt, 1, v, columnType, code); err != nil {
		t.Fatalf("BindParameter(%v, %q): %v", v, columnType, err)
	}
	p, ok := stmt.Param(1)
	if !ok {
		t.Fatal("parameter 1 not recorded")
	}
	return p
}

func TestBind_BitString(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})

	tests := []struct {
		input    string
		expected string
	}{
		{"0110", "0110"},
		{"a3", "10100011"},
		{"F", "1111"},
	}

	for _, tt := range tests {
		p := bindOne(t, d, schema.String(tt.input), "bit_varying", schema.TypeOther)
		if p.Value != (Object{Type: "bit", Value: tt.expected}) {
			t.Errorf("bind %q = %#v, want bits %q", tt.input, p.Value, tt.expected)
		}
	}

	err := d.BindParameter(d.NewStatement(), 1, schema.String("xyz"), "bit", schema.TypeOther)
	if !errors.Is(err, adapters.ErrUnrepresentableValue) {
		t.Errorf("Expected ErrUnrepresentableValue, got %v", err)
	}
}

func TestBind_InfiniteTimestamp(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})
	stmt := d.NewStatement()

	if err := d.BindParameter(stmt, 1, schema.Float(math.Inf(1)), "timestamp", schema.TypeTimestamp); err != nil {
		t.Fatalf("bind +Inf: %v", err)
	}
	if err := d.BindParameter(stmt, 2, schema.Float(math.Inf(-1)), "", schema.TypeTimestamp); err != nil {
		t.Fatalf("bind -Inf: %v", err)
	}
	if err := d.BindParameter(stmt, 3, schema.Float(math.Inf(1)), "timestamptz", schema.TypeNull); err != nil {
		t.Fatalf("bind +Inf timestamptz: %v", err)
	}
	if err := d.BindParameter(stmt, 4, schema.Float(math.Inf(-1)), "timestamp with time zone", schema.TypeOther); err != nil {
		t.Fatalf("bind -Inf timestamp with time zone: %v", err)
	}

	p, _ := stmt.(*base.Params).Param(1)
	if p.Kind != base.ParamTimestamp {
		t.Fatalf("Expected timestamp parameter, got %+v", p)
	}

	args, err := stmt.Args()
	if err != nil {
		t.Fatalf("Args: %v", err)
	}
	if args[0] != "infinity" || args[1] != "-infinity" || args[2] != "infinity" || args[3] != "-infinity" {
		t.Errorf("args = %v", args)
	}
}

func TestBind_BlobNull(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})

	p := bindOne(t, d, schema.Null(), "", schema.TypeBlob)
	if p.Kind != base.ParamNull || p.NullType != schema.TypeBinary {
		t.Errorf("BLOB null bound as %+v, want NULL typed BINARY", p)
	}

	err := d.NewStatement().SetNull(1, schema.TypeBlob)
	if !errors.Is(err, adapters.ErrNullHostility) {
		t.Errorf("Expected ErrNullHostility, got %v", err)
	}
}

func TestBind_ObjectTypes(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})
	u := uuid.MustParse("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11")

	tests := []struct {
		name       string
		value      schema.Value
		columnType string
		expected   any
	}{
		{"json", schema.String(`{"a":1}`), "json", Object{Type: "json", Value: `{"a":1}`}},
		{"inet", schema.String("10.0.0.1"), "inet", Object{Type: "inet", Value: "10.0.0.1"}},
		{"uuid column", schema.String(u.String()), "uuid", pgtype.UUID{Bytes: u, Valid: true}},
		{"uuid detected", schema.String(u.String()), "", pgtype.UUID{Bytes: u, Valid: true}},
		{"int4range", schema.String("[1,10)"), "int4range", Object{Type: "int4range", Value: "[1,10)"}},
		{"unknown range", schema.String("[1.5,2)"), "floatrange", Object{Type: "numrange", Value: "[1.5,2)"}},
		{"daterange", schema.String("[2024-01-01,infinity)"), "daterange", Object{Type: "daterange", Value: "[2024-01-01,infinity)"}},
		{"empty range", schema.String("empty"), "tsrange", Object{Type: "tsrange", Value: "empty"}},
		{"daterange BC", schema.String("[0044-03-15 BC,0044-03-20 BC)"), "daterange",
			Object{Type: "daterange", Value: "[0044-03-15 BC,0044-03-20 BC)"}},
		{"tsrange minutes", schema.String("[2010-01-01 14:30,2010-01-01 15:30)"), "tsrange",
			Object{Type: "tsrange", Value: "[2010-01-01 14:30,2010-01-01 15:30)"}},
		{"tstzrange quoted", schema.String(`["2010-01-01 14:30:00+05:30",)`), "tstzrange",
			Object{Type: "tstzrange", Value: `["2010-01-01 14:30:00+05:30",)`}},
		{"numrange huge", schema.String("[1e400,)"), "numrange", Object{Type: "numrange", Value: "[1e400,)"}},
		{"numrange infinity", schema.String("(-Infinity,0]"), "numrange", Object{Type: "numrange", Value: "(-Infinity,0]"}},
		{"int8range hex", schema.String("[0x10,1_000)"), "int8range", Object{Type: "int8range", Value: "[0x10,1_000)"}},
		{"int4range leading zero", schema.String("[09,10)"), "int4range", Object{Type: "int4range", Value: "[09,10)"}},
		{"point", schema.String("(1.5,2)"), "point", pgtype.Point{P: pgtype.Vec2{X: 1.5, Y: 2}, Valid: true}},
		{"interval", schema.String("1 year 2 mons 3 days 04:05:06"), "interval",
			pgtype.Interval{Months: 14, Days: 3, Microseconds: (4*3600 + 5*60 + 6) * 1_000_000, Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := bindOne(t, d, tt.value, tt.columnType, schema.TypeOther)
			if p.Kind != base.ParamObject || p.Value != tt.expected {
				t.Errorf("bound %#v, want %#v", p.Value, tt.expected)
			}
		})
	}
}

func TestBind_Unrepresentable(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})

	tests := []struct {
		name       string
		value      string
		columnType string
	}{
		{"range bound", "[a,10)", "int4range"},
		{"range shape", "1,10", "int8range"},
		{"range bounds count", "[1,2,3]", "numrange"},
		{"int4range overflow", "[1,99999999999)", "int4range"},
		{"numrange text", "[one,2)", "numrange"},
		{"interval", "three days", "interval"},
		{"uuid", "not-a-uuid", "uuid"},
		{"point", "(1;2)", "point"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.BindParameter(d.NewStatement(), 1, schema.String(tt.value), tt.columnType, schema.TypeOther)
			if !errors.Is(err, adapters.ErrUnrepresentableValue) {
				t.Errorf("Expected ErrUnrepresentableValue, got %v", err)
			}
		})
	}
}

func TestBind_FallsBackToGeneric(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})

	p := bindOne(t, d, schema.String("not a uuid but text"), "", schema.TypeVarchar)
	if p.Kind != base.ParamString || p.Value != "not a uuid but text" {
		t.Errorf("Unexpected param: %+v", p)
	}

	p = bindOne(t, d, schema.Int(42), "integer", schema.TypeNull)
	if p.Kind != base.ParamInt || p.Value != int64(42) {
		t.Errorf("Unexpected param: %+v", p)
	}

	p = bindOne(t, d, schema.Array("text", schema.String("a b"), schema.Null(), schema.Int(3)), "", schema.TypeArray)
	if p.Value != `{"a b",NULL,3}` {
		t.Errorf("array literal = %v", p.Value)
	}
}

// cursorOf строит курсор из одной строки значений с OID колонок
func cursorOf(t *testing.T, m *pgtype.Map, oids []uint32, row ...[]byte) *Cursor {
	t.Helper()
	fields := make([]pgconn.FieldDescription, len(oids))
	for i, oid := range oids {
		fields[i] = pgconn.FieldDescription{Name: "c", DataTypeOID: oid}
	}
	c := NewCursor(m, &StaticRows{Fields: fields, Rows: [][][]byte{row}})
	if !c.Next() {
		t.Fatal("Next returned false")
	}
	return c
}

func TestExtract(t *testing.T) {
	m := pgtype.NewMap()
	m.RegisterType(&pgtype.Type{Name: "hstore", OID: testHstoreOID, Codec: pgtype.HstoreCodec{}})
	d := newTestDialect(toggles.Snapshot{})

	tests := []struct {
		name     string
		oid      uint32
		raw      []byte
		expected string
		kind     schema.Kind
	}{
		{"bool true", pgtype.BoolOID, []byte("t"), "true", schema.KindBool},
		{"bit one", pgtype.BitOID, []byte("1"), "true", schema.KindBool},
		{"bit string", pgtype.BitOID, []byte("0110"), "0110", schema.KindString},
		{"bit null", pgtype.BitOID, nil, "", schema.KindNull},
		{"infinite timestamp", pgtype.TimestampOID, []byte("infinity"), "infinity", schema.KindString},
		{"bc timestamp", pgtype.TimestamptzOID, []byte("0001-12-31 22:59:59+00 BC"), "0001-12-31 22:59:59+00 BC", schema.KindString},
		{"int array", pgtype.Int4ArrayOID, []byte("{1,2,NULL,4}"), "{1,2,NULL,4}", schema.KindArray},
		{"uuid", pgtype.UUIDOID, []byte("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"), "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", schema.KindString},
		{"interval", pgtype.IntervalOID, []byte("2 years 0 mons 0 days 0 hours 3 mins 0.00 secs"), "2 years 00:03:00", schema.KindString},
		{"zero interval", pgtype.IntervalOID, []byte("00:00:00"), "", schema.KindString},
		{"jsonb", pgtype.JSONBOID, []byte(`{"a": 1}`), `{"a": 1}`, schema.KindString},
		{"hstore", testHstoreOID, []byte(`"a"=>"1", "b"=>NULL`), `"a"=>"1", "b"=>NULL`, schema.KindHstore},
		{"numeric", pgtype.NumericOID, []byte("12.50"), "12.50", schema.KindDecimal},
		{"bytea", pgtype.ByteaOID, []byte(`\xdead`), "\xde\xad", schema.KindBytes},
		{"int8", pgtype.Int8OID, []byte("-9"), "-9", schema.KindInt},
		{"date", pgtype.DateOID, []byte("2024-02-29"), "2024-02-29", schema.KindTime},
		{"text null", pgtype.TextOID, nil, "", schema.KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := cursorOf(t, m, []uint32{tt.oid}, tt.raw)
			v, err := d.ExtractColumn(rs, 1, rs.ColumnType(1))
			if err != nil {
				t.Fatalf("ExtractColumn: %v", err)
			}
			if v.Kind() != tt.kind || v.String() != tt.expected {
				t.Errorf("got %s %q, want %s %q", v.Kind(), v.String(), tt.kind, tt.expected)
			}
		})
	}
}

func TestExtract_ArrayElements(t *testing.T) {
	m := pgtype.NewMap()
	d := newTestDialect(toggles.Snapshot{})

	rs := cursorOf(t, m, []uint32{pgtype.Int4ArrayOID}, []byte("{1,2,NULL,4}"))
	v, err := d.ExtractColumn(rs, 1, schema.TypeArray)
	if err != nil {
		t.Fatalf("ExtractColumn: %v", err)
	}
	elems, _ := v.Elements()
	expected := []schema.Value{schema.Int(1), schema.Int(2), schema.Null(), schema.Int(4)}
	if len(elems) != len(expected) {
		t.Fatalf("elements = %v", elems)
	}
	for i := range expected {
		if elems[i].Kind() != expected[i].Kind() || elems[i].String() != expected[i].String() {
			t.Errorf("element %d = %v, want %v", i, elems[i], expected[i])
		}
	}

	// вложенный массив
	rs = cursorOf(t, m, []uint32{pgtype.TextArrayOID}, []byte(`{{a,"b c"},{NULL,d}}`))
	v, err = d.ExtractColumn(rs, 1, schema.TypeArray)
	if err != nil {
		t.Fatalf("nested: %v", err)
	}
	if v.String() != "{{a,b c},{NULL,d}}" {
		t.Errorf("nested = %s", v)
	}
}

func TestExtract_RawToggles(t *testing.T) {
	m := pgtype.NewMap()
	m.RegisterType(&pgtype.Type{Name: "hstore", OID: testHstoreOID, Codec: pgtype.HstoreCodec{}})
	d := newTestDialect(toggles.Snapshot{
		ArrayRaw:    toggles.True,
		HstoreRaw:   toggles.True,
		IntervalRaw: true,
	})

	tests := []struct {
		oid      uint32
		raw      string
		expected string
	}{
		{pgtype.Int4ArrayOID, "{1,2}", "{1,2}"},
		{testHstoreOID, `"k"=>"v"`, `"k"=>"v"`},
		{pgtype.IntervalOID, "1 day", "0 years 0 mons 1 days 0 hours 0 mins 0.00 secs"},
	}

	for _, tt := range tests {
		rs := cursorOf(t, m, []uint32{tt.oid}, []byte(tt.raw))
		v, err := d.ExtractColumn(rs, 1, rs.ColumnType(1))
		if err != nil {
			t.Fatalf("ExtractColumn(%q): %v", tt.raw, err)
		}
		if v.Kind() != schema.KindString || v.String() != tt.expected {
			t.Errorf("raw %q = %s %q, want %q", tt.raw, v.Kind(), v.String(), tt.expected)
		}
	}
}

func TestExtract_TimestampCaster(t *testing.T) {
	m := pgtype.NewMap()
	d := newTestDialect(toggles.Snapshot{})
	d.TimestampCaster = func(text string) (schema.Value, error) {
		ts, err := base.ParseTimestamp(text)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.Timestamp(ts, false), nil
	}

	rs := cursorOf(t, m, []uint32{pgtype.TimestampOID}, []byte("2024-03-01 10:00:00"))
	v, err := d.ExtractColumn(rs, 1, schema.TypeTimestamp)
	if err != nil {
		t.Fatalf("ExtractColumn: %v", err)
	}
	if v.Kind() != schema.KindTime || v.String() != "2024-03-01 10:00:00" {
		t.Errorf("got %s %q", v.Kind(), v.String())
	}
}

func TestCursor_InfiniteTimestampGetter(t *testing.T) {
	rs := cursorOf(t, pgtype.NewMap(), []uint32{pgtype.TimestamptzOID}, []byte("-infinity"))
	if _, err := rs.GetTimestamp(1); !errors.Is(err, adapters.ErrUnsupportedValue) {
		t.Errorf("Expected ErrUnsupportedValue, got %v", err)
	}
}

func TestToPgInterval_SubSecond(t *testing.T) {
	tests := []struct {
		seconds float64
		micros  int64
	}{
		{0.000249, 249},
		{0.000251, 251},
		{0.1, 100000},
		{1.000001, 1000001},
		{59.999999, 59999999},
		{-0.000249, -249},
	}

	for _, tt := range tests {
		got := toPgInterval(schema.Interval{Seconds: tt.seconds})
		if got.Microseconds != tt.micros {
			t.Errorf("toPgInterval(%v s) = %d us, want %d", tt.seconds, got.Microseconds, tt.micros)
		}
	}

	for us := int64(0); us < 1_000_000; us++ {
		seconds := float64(us) / 1_000_000
		if got := toPgInterval(schema.Interval{Seconds: seconds}).Microseconds; got != us {
			t.Fatalf("toPgInterval(%v s) = %d us, want %d", seconds, got, us)
		}
	}

	iv := toPgInterval(schema.Interval{Years: 1, Months: 2, Days: 3, Hours: 4, Minutes: 5, Seconds: 6.000249})
	expected := pgtype.Interval{Months: 14, Days: 3, Microseconds: (4*3600+5*60+6)*1_000_000 + 249, Valid: true}
	if iv != expected {
		t.Errorf("toPgInterval = %+v, want %+v", iv, expected)
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		iv       schema.Interval
		expected string
	}{
		{schema.Interval{Years: 2, Minutes: 3}, "2 years 00:03:00"},
		{schema.Interval{Months: 1, Days: 2}, "1 months 2 days"},
		{schema.Interval{Hours: 12, Minutes: 5, Seconds: 7.9}, "12:05:07"},
		{schema.Interval{Days: 1, Seconds: 0.5}, "1 days"},
		{schema.Interval{}, ""},
	}

	for _, tt := range tests {
		if got := formatInterval(tt.iv); got != tt.expected {
			t.Errorf("formatInterval(%+v) = %q, want %q", tt.iv, got, tt.expected)
		}
	}
}

func TestParseArrayLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected []string // "<nil>" - NULL
		nested   bool
	}{
		{"{}", nil, false},
		{"{1,2,3}", []string{"1", "2", "3"}, false},
		{`{"a,b","c\"d",NULL,"NULL"}`, []string{"a,b", `c"d`, "<nil>", "NULL"}, false},
		{"[0:1]={7,8}", []string{"7", "8"}, false},
		{`{{1,2},{"}",4}}`, []string{"{1,2}", `{"}",4}`}, true},
	}

	for _, tt := range tests {
		lit, err := parseArrayLiteral(tt.input)
		if err != nil {
			t.Errorf("parseArrayLiteral(%q): %v", tt.input, err)
			continue
		}
		if len(lit.elems) != len(tt.expected) || lit.nested != tt.nested {
			t.Errorf("parseArrayLiteral(%q) = %q nested=%v", tt.input, lit.elems, lit.nested)
			continue
		}
		for i, e := range lit.elems {
			got := "<nil>"
			if e != nil {
				got = string(e)
			}
			if got != tt.expected[i] {
				t.Errorf("parseArrayLiteral(%q)[%d] = %q, want %q", tt.input, i, got, tt.expected[i])
			}
		}
	}

	for _, bad := range []string{"1,2", "{1,2", `{"a}`, "{{1,2}"} {
		if _, err := parseArrayLiteral(bad); err == nil {
			t.Errorf("parseArrayLiteral(%q): expected error", bad)
		}
	}
}

func TestPolicy(t *testing.T) {
	d := newTestDialect(toggles.Snapshot{})
	if d.DefaultSchema("") != "public" || d.DefaultSchema("sales") != "sales" {
		t.Error("default schema must be public")
	}
	if d.GeneratedKeys() {
		t.Error("generated keys must be off by default")
	}
	if d.CasePolicy().ForApplication("Users") != "Users" {
		t.Error("identifiers must be preserved")
	}

	tbl := toggles.New(toggles.Snapshot{})
	d = New(adapters.Config{Toggles: tbl})
	if err := tbl.Set("postgresql.generated.keys", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !d.GeneratedKeys() {
		t.Error("legacy toggle name must enable generated keys")
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"postgres", "postgresql"} {
		if !adapters.IsRegistered(name) {
			t.Errorf("%s must be registered", name)
		}
	}
}
