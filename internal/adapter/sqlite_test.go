package adapter

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE people (id INTEGER, name TEXT, note TEXT)`,
		`INSERT INTO people VALUES (1, 'ann', NULL), (2, 'bo', 'likes tea')`,
		`CREATE TABLE "odd ""name""" (v TEXT)`,
		`INSERT INTO "odd ""name""" VALUES ('x')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())

	var out bytes.Buffer
	ai := Info{FilepathHint: path, IsRealFile: true, Output: &out, LinePrefix: "db: "}
	require.NoError(t, NewSqliteAdapter().Adapt(context.Background(), ai))

	want := `db: odd "name": v=x` + "\n" +
		"db: people: id=1, name=ann, note=NULL\n" +
		"db: people: id=2, name=bo, note=likes tea\n"
	assert.Equal(t, want, out.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "text", formatValue([]byte("text")))
	assert.Equal(t, "[blob, 2 bytes]", formatValue([]byte{0xff, 0xfe}))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "1.5", formatValue(1.5))
}
