package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"dbkeeper/internal/core"
	_ "dbkeeper/internal/dialect/mysql"
	_ "dbkeeper/internal/introspect/mysql"
	"dbkeeper/internal/logging"
)

func init() {
	for _, engine := range []core.Engine{core.EngineMySQL, core.EngineMariaDB} {
		Register(engine, func(ctx context.Context, cfg Config) (Session, error) {
			return OpenMySQL(ctx, engine, cfg)
		})
	}
}

type mysqlSession struct {
	*sqlSession
}

// OpenMySQL connects to cfg.Credentials.Database, which must exist. engine
// selects the MySQL or MariaDB dialect and introspecter.
func OpenMySQL(ctx context.Context, engine core.Engine, cfg Config) (Session, error) {
	log := logging.OrNop(cfg.Logger)
	creds := cfg.Credentials
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	if creds.Database == "" {
		return nil, errors.New("invalid credentials: database is required")
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
	log.Info().Str("database", creds.Database).Msg("connection established")

	s, err := newMySQLSession(db, engine, creds.Database, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newMySQLSession(db *sql.DB, engine core.Engine, database string, cfg Config, log zerolog.Logger) (*mysqlSession, error) {
	base, err := newSQLSession(db, engine, database, cfg, log)
	if err != nil {
		return nil, err
	}
	return &mysqlSession{sqlSession: base}, nil
}

// Teardown drops the session's database and closes the connection.
func (s *mysqlSession) Teardown(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.gen.DropDatabase(s.name))
	if closeErr := s.db.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("teardown %s: %w", s.name, err)
	}
	s.log.Info().Str("database", s.name).Msg("database dropped")
	return nil
}
