package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// arrayLiteral - разобранный текст массива верхнего уровня.
// nil элемент - NULL; вложенные массивы остаются текстом.
type arrayLiteral struct {
	elems  [][]byte
	nested bool
}

// parseArrayLiteral разбирает текстовую форму массива PostgreSQL,
// например {1,2,NULL,"a b"} или [0:1]={1,2}
func parseArrayLiteral(s string) (arrayLiteral, error) {
	var lit arrayLiteral

	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return lit, fmt.Errorf("invalid array literal %q: missing '=' after dimensions", s)
		}
		s = strings.TrimSpace(s[eq+1:])
	}
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return lit, fmt.Errorf("invalid array literal %q", s)
	}

	body := s[1 : len(s)-1]
	if strings.TrimSpace(body) == "" {
		return lit, nil
	}

	i := 0
	for {
		for i < len(body) && body[i] == ' ' {
			i++
		}
		if i >= len(body) {
			return lit, fmt.Errorf("invalid array literal %q: missing element", s)
		}

		switch body[i] {
		case '"':
			var sb strings.Builder
			i++
			closed := false
			for i < len(body) {
				c := body[i]
				if c == '\\' && i+1 < len(body) {
					sb.WriteByte(body[i+1])
					i += 2
					continue
				}
				i++
				if c == '"' {
					closed = true
					break
				}
				sb.WriteByte(c)
			}
			if !closed {
				return lit, fmt.Errorf("invalid array literal %q: unterminated quote", s)
			}
			lit.elems = append(lit.elems, []byte(sb.String()))

		case '{':
			end, err := matchBrace(body, i)
			if err != nil {
				return lit, fmt.Errorf("invalid array literal %q: %w", s, err)
			}
			lit.elems = append(lit.elems, []byte(body[i:end+1]))
			lit.nested = true
			i = end + 1

		default:
			start := i
			for i < len(body) && body[i] != ',' {
				i++
			}
			elem := strings.TrimSpace(body[start:i])
			if strings.EqualFold(elem, "NULL") {
				lit.elems = append(lit.elems, nil)
			} else {
				lit.elems = append(lit.elems, []byte(elem))
			}
		}

		for i < len(body) && body[i] == ' ' {
			i++
		}
		if i >= len(body) {
			return lit, nil
		}
		if body[i] != ',' {
			return lit, fmt.Errorf("invalid array literal %q: unexpected %q at %d", s, body[i], i+1)
		}
		i++
	}
}

// matchBrace возвращает позицию '}', закрывающей '{' в позиции start
func matchBrace(s string, start int) (int, error) {
	depth := 0
	inQuote := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == '{':
			depth++
		case !inQuote && c == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced braces")
}

// formatArrayLiteral строит текст массива для связывания
func formatArrayLiteral(v schema.Value) string {
	elems, _ := v.Elements()
	parts := make([]string, len(elems))
	for i, e := range elems {
		switch {
		case e.IsNull():
			parts[i] = "NULL"
		case e.Kind() == schema.KindArray:
			parts[i] = formatArrayLiteral(e)
		default:
			parts[i] = quoteArrayElement(e.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func quoteArrayElement(s string) string {
	if s != "" && !strings.EqualFold(s, "NULL") && !strings.ContainsAny(s, "{}\",\\ \t\n") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// pgArray - adapters.Array поверх разобранного литерала
type pgArray struct {
	m        *pgtype.Map
	oid      uint32
	baseOID  uint32
	baseName string
	baseType schema.JDBCType
	lit      arrayLiteral
}

var _ adapters.Array = (*pgArray)(nil)

func newArray(m *pgtype.Map, oid uint32, text string) (*pgArray, error) {
	t, ok := m.TypeForOID(oid)
	if !ok {
		return nil, fmt.Errorf("unknown array type oid %d", oid)
	}
	codec, ok := t.Codec.(*pgtype.ArrayCodec)
	if !ok {
		return nil, fmt.Errorf("type %s is not an array", t.Name)
	}

	lit, err := parseArrayLiteral(text)
	if err != nil {
		return nil, err
	}

	arr := &pgArray{m: m, oid: oid, lit: lit}
	if lit.nested {
		// элементы - подмассивы того же типа
		arr.baseOID, arr.baseName, arr.baseType = oid, t.Name, schema.TypeArray
	} else {
		elem := codec.ElementType
		arr.baseOID, arr.baseName, arr.baseType = elem.OID, elem.Name, JDBCTypeForOID(m, elem.OID)
	}
	return arr, nil
}

func (a *pgArray) BaseType() schema.JDBCType { return a.baseType }
func (a *pgArray) BaseTypeName() string      { return a.baseName }

// Free не поддерживается, как и в драйвере PostgreSQL JDBC
func (a *pgArray) Free() error {
	return fmt.Errorf("array free is not implemented")
}

// ResultSet возвращает строки (индекс, значение), индексы с 1
func (a *pgArray) ResultSet() (adapters.ResultSet, error) {
	rows := make([][][]byte, len(a.lit.elems))
	for i, elem := range a.lit.elems {
		rows[i] = [][]byte{[]byte(strconv.Itoa(i + 1)), elem}
	}
	fields := []pgconn.FieldDescription{
		{Name: "INDEX", DataTypeOID: pgtype.Int4OID},
		{Name: "VALUE", DataTypeOID: a.baseOID},
	}
	return NewCursor(a.m, &StaticRows{Fields: fields, Rows: rows}), nil
}
