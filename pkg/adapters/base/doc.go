// Package base предоставляет общие части диалектов: универсальную матрицу
// связывания и извлечения значений, записывающий набор параметров,
// курсор поверх database/sql, проверку живости соединения и метрики.
//
// # Основные компоненты
//
// Codec - общая матрица по коду JDBC типа:
//   - Bind() - значение → сеттер Statement
//   - Extract() - геттер ResultSet → значение (с учетом WasNull)
//   - ExtractArray() - обход строк массива по колонке 2
//
// Params - реализация adapters.PreparedStatement, которая запоминает
// параметры и превращает их в аргументы драйвера через ArgConverter.
//
// SQLConn и SQLCursor - adapters.Conn и adapters.ResultSet поверх *sql.Conn.
//
// Probe - проверка живости соединения (пробный запрос или IsValid).
//
// # Использование
//
// Диалект обрабатывает свои особые случаи и откатывается к Codec:
//
//	func (d *Dialect) BindParameter(stmt adapters.Statement, index int, v schema.Value, columnType string, code schema.JDBCType) error {
//	    if special(columnType) {
//	        return d.bindSpecial(stmt, index, v)
//	    }
//	    return d.codec.Bind(stmt, index, v, code)
//	}
//
// # Метрики
//
// Пакет регистрирует счетчики dbcodec_bind_total, dbcodec_extract_total,
// dbcodec_liveness_checks_total и dbcodec_quirks_total.
package base
