// Package mysql contains the introspect implementation for MySQL and MariaDB.
// Both speak the same protocol, so the flavor is detected from the server's
// version comment.
package mysql

import (
	"context"
	"database/sql"

	"dbkeeper/internal/core"
	"dbkeeper/internal/introspect"
)

func init() {
	introspect.Register(core.EngineMySQL, New)
	introspect.Register(core.EngineMariaDB, New)
}

type introspecter struct{}

func New() introspect.Introspecter {
	return &introspecter{}
}

func (i *introspecter) Server(ctx context.Context, q introspect.Querier) (*core.ServerInfo, error) {
	info := new(core.ServerInfo)

	var database sql.NullString
	if err := q.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&database); err != nil {
		return nil, err
	}
	info.Database = database.String

	engine, comment, err := detectEngine(ctx, q)
	if err != nil {
		return nil, err
	}
	info.Engine = engine
	info.Comment = comment
	info.Version = getVersion(ctx, q)

	return info, nil
}
