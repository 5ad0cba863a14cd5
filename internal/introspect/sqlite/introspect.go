// Package sqlite contains the introspect implementation for SQLite.
package sqlite

import (
	"context"

	"dbkeeper/internal/core"
	"dbkeeper/internal/introspect"
)

func init() {
	introspect.Register(core.EngineSQLite, New)
}

type sqliteIntrospecter struct{}

func New() introspect.Introspecter {
	return &sqliteIntrospecter{}
}

func (i *sqliteIntrospecter) Server(ctx context.Context, q introspect.Querier) (*core.ServerInfo, error) {
	info := &core.ServerInfo{Engine: core.EngineSQLite, Database: "main"}
	if err := q.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&info.Version); err != nil {
		return nil, err
	}
	return info, nil
}

func (i *sqliteIntrospecter) Tables(ctx context.Context, q introspect.Querier) ([]core.TableInfo, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []core.TableInfo
	for rows.Next() {
		var t core.TableInfo
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
