package admin

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"dbkeeper/internal/core"
	"dbkeeper/internal/dialect"
	_ "dbkeeper/internal/dialect/mysql"
	"dbkeeper/internal/introspect"
	_ "dbkeeper/internal/introspect/mysql"
	"dbkeeper/internal/replay"
)

// Catalog is the driver side of an Administrator.
type Catalog interface {
	Databases(ctx context.Context) ([]string, error)
	Exec(ctx context.Context, statement string) error
	Server(ctx context.Context) (*core.ServerInfo, error)
	// Replay executes a dump body inside database.
	Replay(ctx context.Context, database, body string) (*replay.Result, error)
	Close() error
}

type sqlCatalog struct {
	db       *sql.DB
	engine   core.Engine
	creds    core.Credentials
	gen      dialect.Generator
	replayer *replay.Replayer
}

// OpenCatalog connects to the server described by creds and pings it.
func OpenCatalog(ctx context.Context, engine core.Engine, creds core.Credentials, log zerolog.Logger) (Catalog, error) {
	d, err := dialect.GetDialect(engine)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", creds.MySQLDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}
	log.Debug().Str("host", creds.Host).Str("port", creds.Port).Msg("connected to server")

	return &sqlCatalog{
		db:       db,
		engine:   engine,
		creds:    creds,
		gen:      d.Generator(),
		replayer: replay.New(log),
	}, nil
}

func (c *sqlCatalog) Databases(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, c.gen.ListDatabases())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *sqlCatalog) Exec(ctx context.Context, statement string) error {
	_, err := c.db.ExecContext(ctx, statement)
	return err
}

func (c *sqlCatalog) Server(ctx context.Context) (*core.ServerInfo, error) {
	i, err := introspect.NewIntrospecter(c.engine)
	if err != nil {
		return nil, err
	}
	return i.Server(ctx, c.db)
}

// Replay uses a dedicated single connection so that session variables set
// by the dump stay in effect for the statements after them.
func (c *sqlCatalog) Replay(ctx context.Context, database, body string) (*replay.Result, error) {
	db, err := sql.Open("mysql", c.creds.WithDatabase(database).MySQLDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	return c.replayer.ReplayBody(ctx, db, body)
}

func (c *sqlCatalog) Close() error {
	return c.db.Close()
}
