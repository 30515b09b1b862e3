package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// SqliteAdapter dumps every row of every table of an sqlite database.
type SqliteAdapter struct {
	meta Metadata
}

// NewSqliteAdapter creates the sqlite adapter
func NewSqliteAdapter() *SqliteAdapter {
	return &SqliteAdapter{meta: Metadata{
		Name:         "sqlite",
		Version:      1,
		Description:  "Uses sqlite bindings to convert sqlite databases into a simple plain text format",
		FastMatchers: extensionMatchers("db", "db3", "sqlite", "sqlite3"),
		SlowMatchers: mimeMatchers("application/x-sqlite3"),
	}}
}

func (a *SqliteAdapter) Metadata() *Metadata { return &a.meta }

// Adapt needs a real file, the database is opened read-only by path.
func (a *SqliteAdapter) Adapt(ctx context.Context, ai Info) error {
	if !ai.IsRealFile {
		ai.logger().Warn("sqlite adapter can only work on real files", "file", ai.FilepathHint)
		return nil
	}

	abs, err := filepath.Abs(ai.FilepathHint)
	if err != nil {
		return err
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tables, err := sqliteTables(ctx, db)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := dumpTable(ctx, db, table, ai.Output, ai.LinePrefix); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}
	return nil
}

func sqliteTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// dumpTable writes one line per row: "<prefix><table>: col=value, col=value".
func dumpTable(ctx context.Context, db *sql.DB, table string, out io.Writer, prefix string) error {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoted)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var line strings.Builder
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		line.Reset()
		line.WriteString(prefix)
		line.WriteString(table)
		line.WriteString(": ")
		for i, col := range cols {
			if i > 0 {
				line.WriteString(", ")
			}
			line.WriteString(col)
			line.WriteByte('=')
			line.WriteString(formatValue(values[i]))
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(out, line.String()); err != nil {
			return err
		}
	}
	return rows.Err()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return fmt.Sprintf("[blob, %d bytes]", len(v))
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
