package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/ruslano69/dbcodec/pkg/adapters"
	"github.com/ruslano69/dbcodec/pkg/core/schema"
)

// nullArg - аргумент командной строки, означающий NULL
const nullArg = `\N`

// runQuery связывает аргументы через диалект, выполняет запрос и пишет
// строки результата в w по одному JSON объекту на строку.
// types[i] - имя типа колонки для аргумента i; пустое имя - VARCHAR.
func runQuery(ctx context.Context, state *adapters.ConnectionState, query string, args, types []string, w io.Writer) (int, error) {
	dialect := state.Dialect

	stmt := dialect.NewStatement()
	for i, arg := range args {
		columnType := ""
		if i < len(types) {
			columnType = types[i]
		}
		code := schema.TypeVarchar
		if columnType != "" {
			code = schema.TypeNull
		}

		v := schema.String(arg)
		if arg == nullArg {
			v = schema.Null()
		}
		if err := dialect.BindParameter(stmt, i+1, v, columnType, code); err != nil {
			return 0, fmt.Errorf("bind parameter %d: %w", i+1, err)
		}
	}

	driverArgs, err := stmt.Args()
	if err != nil {
		return 0, fmt.Errorf("build arguments: %w", err)
	}

	rs, err := state.Conn.Query(ctx, query, driverArgs...)
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	defer rs.Close()

	names := make([][]byte, rs.ColumnCount())
	for i := range names {
		name := state.CaseConvertForApplication(rs.ColumnName(i + 1))
		if names[i], err = json.Marshal(name); err != nil {
			return 0, err
		}
	}

	rows := 0
	var line bytes.Buffer
	for rs.Next() {
		line.Reset()
		line.WriteByte('{')
		for i := range names {
			index := i + 1
			v, err := dialect.ExtractColumn(rs, index, rs.ColumnType(index))
			if err != nil {
				return rows, fmt.Errorf("row %d column %s: %w", rows+1, rs.ColumnName(index), err)
			}
			data, err := v.MarshalJSON()
			if err != nil {
				return rows, fmt.Errorf("row %d column %s: %w", rows+1, rs.ColumnName(index), err)
			}
			if i > 0 {
				line.WriteByte(',')
			}
			line.Write(names[i])
			line.WriteByte(':')
			line.Write(data)
		}
		line.WriteString("}\n")
		if _, err := w.Write(line.Bytes()); err != nil {
			return rows, err
		}
		rows++
	}
	if err := rs.Err(); err != nil {
		return rows, fmt.Errorf("read rows: %w", err)
	}

	return rows, nil
}

// printToggles пишет таблицу флагов: имя и значение (nil - не задан)
func printToggles(w io.Writer, get func(string) (any, error), names []string) error {
	for _, name := range names {
		v, err := get(name)
		if err != nil {
			return err
		}
		if v == nil {
			v = "nil"
		}
		if _, err := fmt.Fprintf(w, "%-28s %v\n", name, v); err != nil {
			return err
		}
	}
	return nil
}
