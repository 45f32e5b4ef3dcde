package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/sqlmeta/internal/config"
)

func newTestDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE customers (
			id INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email TEXT
		);
		CREATE TABLE migrations (version INTEGER NOT NULL);
		INSERT INTO customers (id, name, email) VALUES (1, 'Ann', NULL);
	`)
	require.NoError(t, err)
	return "sqlite://" + path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "disabled"))
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	url := newTestDB(t)

	out, err := execute(t, "--db-url", url, "--exclude", "migrations")
	require.NoError(t, err)

	want := strings.Join([]string{
		"TABLE main.customers (PK: id)",
		"  id: BigInt IDENTITY(1,1) NOT NULL",
		"  name: NVarChar(100) NOT NULL",
		"  email: NVarChar(max)",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestSchemaSubcommand(t *testing.T) {
	url := newTestDB(t)

	out, err := execute(t, "schema", "--db-url", url, "--tables", "customers", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Name": "customers"`)
	assert.NotContains(t, out, "migrations")
}

func TestSchemaCommandOutputDir(t *testing.T) {
	url := newTestDB(t)
	dir := filepath.Join(t.TempDir(), "docs")

	out, err := execute(t, "--db-url", url, "--output-dir", dir, "--format", "markdown")
	require.NoError(t, err)
	assert.Empty(t, out)

	for _, name := range []string{"_overview.md", "main.customers.md", "main.migrations.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSchemaCommandBelowSplitThreshold(t *testing.T) {
	url := newTestDB(t)
	dir := filepath.Join(t.TempDir(), "docs")

	out, err := execute(t, "--db-url", url, "--output-dir", dir, "--split-threshold", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE main.customers")

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRecordsCommand(t *testing.T) {
	url := newTestDB(t)

	out, err := execute(t, "records", "customers", "--db-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ann"`)
	assert.Contains(t, out, `"email": null`)
}

func TestTemplateCommand(t *testing.T) {
	url := newTestDB(t)

	for _, args := range [][]string{
		{"template", "customers", "--db-url", url},
		{"template", "main.customers", "--update", "--db-url", url},
	} {
		out, err := execute(t, args...)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"name\": null,\n  \"email\": null\n}\n", out)
	}
}

func TestExistsCommand(t *testing.T) {
	url := newTestDB(t)

	out, err := execute(t, "exists", "customers", "--db-url", url)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "exists", "invoices", "--db-url", url)
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestCommandErrors(t *testing.T) {
	url := newTestDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing url", args: []string{}},
		{name: "bad scheme", args: []string{"--db-url", "oracle://db"}},
		{name: "bad format", args: []string{"--db-url", url, "--format", "yaml"}},
		{name: "output and output dir", args: []string{"--db-url", url, "-o", "a.txt", "-d", "out"}},
		{name: "unknown table", args: []string{"records", "invoices", "--db-url", url}},
		{name: "missing table argument", args: []string{"template", "--db-url", url}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SQLMETA_DATABASE_URL", "")
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Log
		wantLevel zerolog.Level
		wantErr   bool
	}{
		{name: "console info", cfg: config.Log{Level: "info", Format: "console"}, wantLevel: zerolog.InfoLevel},
		{name: "json debug", cfg: config.Log{Level: "debug", Format: "json"}, wantLevel: zerolog.DebugLevel},
		{name: "disabled", cfg: config.Log{Level: "disabled", Format: "json"}, wantLevel: zerolog.Disabled},
		{name: "unknown level", cfg: config.Log{Level: "loud", Format: "json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(tt.cfg, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, logger.GetLevel())
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.Log{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info().Str("table", "main.customers").Msg("read")
	assert.Contains(t, buf.String(), `"table":"main.customers"`)
	assert.Contains(t, buf.String(), `"level":"info"`)
}
