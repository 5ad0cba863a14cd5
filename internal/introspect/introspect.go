// Package introspect reports which server a connection talks to and what its
// current database holds. Implementations register themselves per engine.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"dbkeeper/internal/core"
)

// Querier is satisfied by *sql.DB and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Introspecter interface {
	// Server identifies the server flavor and version.
	Server(ctx context.Context, q Querier) (*core.ServerInfo, error)
	// Tables lists the base tables of the current database, ordered by name.
	Tables(ctx context.Context, q Querier) ([]core.TableInfo, error)
}

var (
	registry = make(map[core.Engine]func() Introspecter)
	mu       sync.RWMutex
)

func Register(engine core.Engine, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[engine] = fn
}

func NewIntrospecter(engine core.Engine) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[engine]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported engine %v", engine)
	}

	return fn(), nil
}

// Introspect returns the server information together with the tables of the
// current database.
func Introspect(ctx context.Context, engine core.Engine, q Querier) (*core.ServerInfo, error) {
	i, err := NewIntrospecter(engine)
	if err != nil {
		return nil, err
	}
	info, err := i.Server(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("introspect server: %w", err)
	}
	if info.Database == "" {
		return info, nil
	}
	if info.Tables, err = i.Tables(ctx, q); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}
	return info, nil
}

// TableNames extracts the names from tables.
func TableNames(tables []core.TableInfo) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
