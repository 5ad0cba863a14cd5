package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbkeeper/internal/admin"
	"dbkeeper/internal/core"
	"dbkeeper/internal/replay"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"", textFormatter{}},
		{"text", textFormatter{}},
		{"TEXT", textFormatter{}},
		{"  text  ", textFormatter{}},
		{"json", jsonFormatter{}},
		{"JSON", jsonFormatter{}},
		{"summary", summaryFormatter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestNewFormatterInvalidFormat(t *testing.T) {
	f, err := NewFormatter("yaml")
	assert.Error(t, err)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "unsupported format: yaml")
	assert.Contains(t, err.Error(), "use 'text', 'json', or 'summary'")
}

func sampleRestore() *admin.RestoreResult {
	return &admin.RestoreResult{
		Database:   "shop",
		Statements: 42,
		Duration:   1234 * time.Millisecond,
		Warnings: []replay.Warning{
			{Level: replay.WarnCaution, Message: "TRUNCATE TABLE will delete all rows from the table", SQL: "TRUNCATE TABLE t"},
		},
	}
}

func sampleReport() *replay.Report {
	return &replay.Report{
		Statements: 5,
		Types:      map[string]int{"INSERT": 3, "CREATE TABLE": 2},
		Tables:     []string{"orders", "customers"},
	}
}

func TestTextFormatter(t *testing.T) {
	f := textFormatter{}

	out, err := f.FormatDatabases([]string{"app", "shop"})
	require.NoError(t, err)
	assert.Equal(t, "app\nshop\n", out)

	out, err = f.FormatDatabases(nil)
	require.NoError(t, err)
	assert.Equal(t, "No databases.\n", out)

	out, err = f.FormatRestore(sampleRestore())
	require.NoError(t, err)
	assert.Contains(t, out, "Restored database shop\n")
	assert.Contains(t, out, "Statements: 42\n")
	assert.Contains(t, out, "Duration:   1.234s\n")
	assert.Contains(t, out, "[CAUTION] TRUNCATE TABLE will delete all rows")
	assert.Contains(t, out, "      TRUNCATE TABLE t\n")

	out, err = f.FormatReport(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "Statements: 5\n\nBy type:\n"+
		"  INSERT           3\n"+
		"  CREATE TABLE     2\n"+
		"\nTables: orders, customers\n", out)

	out, err = f.FormatServer(&core.ServerInfo{
		Engine: core.EngineMariaDB, Version: "10.11.6", Database: "shop",
		Tables: []core.TableInfo{{Name: "orders", Engine: "InnoDB"}, {Name: "log"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Engine:  mariadb\nVersion: 10.11.6\nDatabase: shop\n  - orders (InnoDB)\n  - log\n", out)
}

func TestFormattersHandleNil(t *testing.T) {
	for _, name := range []string{"text", "json", "summary"} {
		t.Run(name, func(t *testing.T) {
			f, err := NewFormatter(name)
			require.NoError(t, err)
			_, err = f.FormatRestore(nil)
			assert.NoError(t, err)
			_, err = f.FormatReport(nil)
			assert.NoError(t, err)
			_, err = f.FormatServer(nil)
			assert.NoError(t, err)
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	f := jsonFormatter{}

	out, err := f.FormatDatabases(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"format":"json","count":0,"databases":[]}`, out)

	out, err = f.FormatRestore(sampleRestore())
	require.NoError(t, err)
	var restore map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &restore))
	assert.Equal(t, "shop", restore["database"])
	assert.EqualValues(t, 42, restore["statements"])
	assert.EqualValues(t, 1234, restore["durationMs"])
	assert.Len(t, restore["warnings"], 1)

	report := sampleReport()
	report.Warnings = []replay.Warning{{Level: replay.WarnDanger, Message: "USE switches the replay away from the target database"}}
	out, err = f.FormatReport(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"format": "json",
		"statements": 5,
		"types": {"INSERT": 3, "CREATE TABLE": 2},
		"tables": ["orders", "customers"],
		"warnings": [{"level": "DANGER", "message": "USE switches the replay away from the target database"}],
		"danger": true
	}`, out)

	out, err = f.FormatServer(&core.ServerInfo{Engine: core.EngineMySQL, Version: "8.0.36"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"format":"json","engine":"mysql","version":"8.0.36"}`, out)
}

func TestSummaryFormatter(t *testing.T) {
	f := summaryFormatter{}

	out, err := f.FormatDatabases([]string{"shop"})
	require.NoError(t, err)
	assert.Equal(t, "1 database\n", out)

	out, err = f.FormatRestore(sampleRestore())
	require.NoError(t, err)
	assert.Equal(t, "shop: 42 statements, 1 warning (1.2s)\n", out)

	out, err = f.FormatReport(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "Dump Summary\n============\n\n"+
		"Statements: 5\n"+
		"Types:      INSERT=3, CREATE TABLE=2\n"+
		"Warnings:   0\n", out)

	out, err = f.FormatReport(&replay.Report{})
	require.NoError(t, err)
	assert.Equal(t, "No statements.\n", out)

	out, err = f.FormatServer(&core.ServerInfo{Engine: core.EngineSQLite, Version: "3.45.1", Database: "main",
		Tables: []core.TableInfo{{Name: "a"}, {Name: "b"}}})
	require.NoError(t, err)
	assert.Equal(t, "sqlite 3.45.1, main (2 tables)\n", out)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "0 tables", plural(0, "table"))
	assert.Equal(t, "1 table", plural(1, "table"))
	assert.Equal(t, "3 tables", plural(3, "table"))
}
