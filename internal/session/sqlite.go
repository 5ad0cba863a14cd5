package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"

	"dbkeeper/internal/core"
	_ "dbkeeper/internal/dialect/sqlite"
	_ "dbkeeper/internal/introspect/sqlite"
	"dbkeeper/internal/logging"
)

// MemoryPath names the in-memory SQLite database.
const MemoryPath = ":memory:"

func init() {
	Register(core.EngineSQLite, OpenSQLite)
}

type sqliteSession struct {
	*sqlSession
	path string
	fs   afero.Fs
}

// OpenSQLite opens the database file at cfg.Path, creating it when missing,
// or an in-memory database when the path is empty.
func OpenSQLite(ctx context.Context, cfg Config) (Session, error) {
	log := logging.OrNop(cfg.Logger)
	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	log.Info().Str("path", path).Msg("connection established")

	base, err := newSQLSession(db, core.EngineSQLite, path, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &sqliteSession{sqlSession: base, path: path, fs: fsys}, nil
}

// Teardown closes the connection and removes the database file.
func (s *sqliteSession) Teardown(context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("teardown %s: %w", s.path, err)
	}
	if s.path == MemoryPath {
		return nil
	}
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("teardown %s: %w", s.path, err)
	}
	s.log.Info().Str("path", s.path).Msg("database file removed")
	return nil
}
