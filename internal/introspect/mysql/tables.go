package mysql

import (
	"context"
	"database/sql"

	"dbkeeper/internal/core"
	"dbkeeper/internal/introspect"
)

func (i *introspecter) Tables(ctx context.Context, q introspect.Querier) ([]core.TableInfo, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name, engine, table_collation, table_comment
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []core.TableInfo
	for rows.Next() {
		var name string
		var engine, collation, comment sql.NullString
		if err := rows.Scan(&name, &engine, &collation, &comment); err != nil {
			return nil, err
		}
		tables = append(tables, core.TableInfo{
			Name:      name,
			Engine:    engine.String,
			Collation: collation.String,
			Comment:   comment.String,
		})
	}

	return tables, rows.Err()
}
