// Package dialect provides a unified interface for the SQL the administrative
// and session layers send through the driver. Every engine quotes identifiers
// and spells database and table lifecycle statements its own way; callers go
// through this interface instead of formatting SQL themselves.
package dialect

import (
	"fmt"
	"sort"

	"dbkeeper/internal/core"
)

// Generator renders the lifecycle statements of one engine.
type Generator interface {
	QuoteIdentifier(name string) string
	QuoteString(value string) string
	CreateDatabase(name, charset, collation string) string
	DropDatabase(name string) string
	DropTable(name string) string
	// ListDatabases returns a query yielding one user database name per row,
	// ordered by name.
	ListDatabases() string
	// ListTables returns a query yielding one base table name per row for the
	// current database, ordered by name.
	ListTables() string
}

// Dialect couples an engine with its statement generator.
type Dialect interface {
	Name() core.Engine
	Generator() Generator
}

var registry = map[core.Engine]func() Dialect{}

// RegisterDialect creates a new registry entry for the specified engine.
func RegisterDialect(e core.Engine, ctor func() Dialect) {
	registry[e] = ctor
}

// GetDialect returns the dialect registered for the engine.
func GetDialect(e core.Engine) (Dialect, error) {
	ctor, ok := registry[e]
	if !ok {
		return nil, fmt.Errorf("no dialect registered for engine %q", e)
	}
	return ctor(), nil
}

// Registered lists the engines that have a dialect, sorted.
func Registered() []core.Engine {
	out := make([]core.Engine, 0, len(registry))
	for e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
