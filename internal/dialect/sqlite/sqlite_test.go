package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbkeeper/internal/core"
	"dbkeeper/internal/dialect"
)

func TestDialectRegistration(t *testing.T) {
	d, err := dialect.GetDialect(core.EngineSQLite)
	require.NoError(t, err)
	assert.Equal(t, core.EngineSQLite, d.Name())
}

func TestQuoting(t *testing.T) {
	g := Generator{}
	assert.Equal(t, `"orders"`, g.QuoteIdentifier(" orders "))
	assert.Equal(t, `"a""b"`, g.QuoteIdentifier(`a"b`))
	assert.Equal(t, `'it''s'`, g.QuoteString("it's"))
}

func TestStatements(t *testing.T) {
	g := Generator{}
	assert.Equal(t, `DROP TABLE IF EXISTS "orders"`, g.DropTable("orders"))
	assert.Equal(t, `ATTACH DATABASE ':memory:' AS "aux"`, g.CreateDatabase("aux", "utf8mb4", ""))
	assert.Equal(t, `DETACH DATABASE "aux"`, g.DropDatabase("aux"))
	assert.Contains(t, g.ListTables(), "sqlite_master")
}
