// Package mysql provides the MySQL and MariaDB dialects: identifier and string
// quoting plus the database and table lifecycle statements.
package mysql

import (
	"strings"

	"dbkeeper/internal/core"
	"dbkeeper/internal/dialect"
)

// Defaults applied by CreateDatabase when no charset or collation is given.
const (
	DefaultCharset   = "utf8mb4"
	DefaultCollation = "utf8mb4_unicode_ci"
)

// SystemDatabases are the schemas every server ships with.
var SystemDatabases = []string{"information_schema", "mysql", "performance_schema", "sys"}

func init() {
	dialect.RegisterDialect(core.EngineMySQL, func() dialect.Dialect {
		return NewMySQLDialect()
	})
	dialect.RegisterDialect(core.EngineMariaDB, func() dialect.Dialect {
		return &Dialect{name: core.EngineMariaDB, generator: NewMySQLGenerator()}
	})
}

// Dialect represents the MySQL dialect struct.
type Dialect struct {
	name      core.Engine
	generator *Generator
}

// NewMySQLDialect initializes a new MySQL dialect instance.
func NewMySQLDialect() *Dialect {
	return &Dialect{name: core.EngineMySQL, generator: NewMySQLGenerator()}
}

// Name returns the engine the dialect was registered for.
func (d *Dialect) Name() core.Engine {
	return d.name
}

// Generator returns the statement generator.
func (d *Dialect) Generator() dialect.Generator {
	return d.generator
}

// Generator is a stateless struct for generating MySQL statements.
type Generator struct{}

// NewMySQLGenerator initializes a new MySQL statement generator instance.
func NewMySQLGenerator() *Generator {
	return &Generator{}
}

// CreateDatabase renders CREATE DATABASE with an explicit character set and
// collation, falling back to utf8mb4.
func (g *Generator) CreateDatabase(name, charset, collation string) string {
	if charset == "" {
		charset = DefaultCharset
	}
	if collation == "" && charset == DefaultCharset {
		collation = DefaultCollation
	}

	var b strings.Builder
	b.WriteString("CREATE DATABASE ")
	b.WriteString(g.QuoteIdentifier(name))
	b.WriteString(" CHARACTER SET ")
	b.WriteString(charset)
	if collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(collation)
	}
	return b.String()
}

func (g *Generator) DropDatabase(name string) string {
	return "DROP DATABASE IF EXISTS " + g.QuoteIdentifier(name)
}

func (g *Generator) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + g.QuoteIdentifier(name)
}

// ListDatabases excludes the system schemas.
func (g *Generator) ListDatabases() string {
	quoted := make([]string, len(SystemDatabases))
	for i, name := range SystemDatabases {
		quoted[i] = g.QuoteString(name)
	}
	return "SELECT schema_name FROM information_schema.schemata WHERE schema_name NOT IN (" +
		strings.Join(quoted, ", ") + ") ORDER BY schema_name"
}

func (g *Generator) ListTables() string {
	return "SELECT table_name FROM information_schema.tables " +
		"WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name"
}

// QuoteIdentifier is a function used for quote identification inside an SQL dialect.
func (g *Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString is a function used for quote string inside an SQL dialect.
func (g *Generator) QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString("''")
		case '\\': // Backslash escaped
			b.WriteString(`\\`)
		case '\x00': // NUL byte
			b.WriteString(`\0`)
		case '\n': // Newline
			b.WriteString(`\n`)
		case '\r': // Carriage return
			b.WriteString(`\r`)
		case '\x1A': // Ctrl+Z
			b.WriteString(`\Z`)
		default:
			b.WriteRune(char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// IsSystemDatabase reports whether name is one of SystemDatabases.
func IsSystemDatabase(name string) bool {
	for _, s := range SystemDatabases {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
