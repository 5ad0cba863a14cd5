package mysql

import (
	"context"
	"strings"

	"dbkeeper/internal/core"
	"dbkeeper/internal/introspect"
)

func detectEngine(ctx context.Context, q introspect.Querier) (core.Engine, string, error) {
	var varName, comment string

	err := q.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", err
	}

	return EngineFromComment(comment), comment, nil
}

// EngineFromComment maps a version_comment value to an engine.
func EngineFromComment(comment string) core.Engine {
	if strings.Contains(strings.ToLower(comment), "mariadb") {
		return core.EngineMariaDB
	}
	return core.EngineMySQL
}

func getVersion(ctx context.Context, q introspect.Querier) string {
	var version string
	_ = q.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return TrimVersion(version)
}

// TrimVersion drops the build suffix of a server version: "10.11.6-MariaDB-1"
// becomes "10.11.6".
func TrimVersion(version string) string {
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	return version
}
