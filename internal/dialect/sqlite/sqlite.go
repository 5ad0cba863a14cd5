// Package sqlite provides the SQLite dialect. SQLite has one database per
// file, so the database lifecycle statements act on attached schemas.
package sqlite

import (
	"strings"

	"dbkeeper/internal/core"
	"dbkeeper/internal/dialect"
)

func init() {
	dialect.RegisterDialect(core.EngineSQLite, func() dialect.Dialect {
		return &Dialect{}
	})
}

type Dialect struct{}

func (d *Dialect) Name() core.Engine            { return core.EngineSQLite }
func (d *Dialect) Generator() dialect.Generator { return Generator{} }

type Generator struct{}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func (Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Generator) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// CreateDatabase attaches an in-memory schema; SQLite has no character set
// or collation at database level.
func (g Generator) CreateDatabase(name, _, _ string) string {
	return "ATTACH DATABASE ':memory:' AS " + g.QuoteIdentifier(name)
}

func (g Generator) DropDatabase(name string) string {
	return "DETACH DATABASE " + g.QuoteIdentifier(name)
}

func (g Generator) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + g.QuoteIdentifier(name)
}

func (Generator) ListDatabases() string {
	return "SELECT name FROM pragma_database_list ORDER BY name"
}

func (Generator) ListTables() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}
