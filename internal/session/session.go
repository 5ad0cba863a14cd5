// Package session opens a working connection to one database and manages the
// tables a schema describes: it reads, writes, initializes, clears and tears
// the database down. Variants register themselves per engine.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"dbkeeper/internal/core"
	"dbkeeper/internal/dialect"
	"dbkeeper/internal/introspect"
	"dbkeeper/internal/schema"
)

// ErrNoSchema is returned by Initialize when the session has no schema.
var ErrNoSchema = errors.New("no schema configured")

// Row is one result row keyed by column name. Byte slices are returned as
// strings.
type Row map[string]any

// Session is an open connection to a single database.
type Session interface {
	// Name identifies the database: its name, or the SQLite file path.
	Name() string
	Read(ctx context.Context, query string, args ...any) ([]Row, error)
	// Write executes query in autocommit mode and returns the rows affected.
	Write(ctx context.Context, query string, args ...any) (int64, error)
	// WriteMany executes query once per parameter set inside one transaction.
	WriteMany(ctx context.Context, query string, params [][]any) (int64, error)
	// Initialize clears the database and creates every schema table in order.
	Initialize(ctx context.Context) error
	// Clear drops the schema tables in reverse order.
	Clear(ctx context.Context) error
	// Teardown removes the database itself and closes the session.
	Teardown(ctx context.Context) error
	// Tables lists the base tables present in the database.
	Tables(ctx context.Context) ([]string, error)
	Close() error
}

// Config describes the database a session opens.
type Config struct {
	Credentials core.Credentials
	// Path is the SQLite database file. Empty means in-memory.
	Path   string
	Schema *schema.Schema
	// Delay is waited between table operations of Initialize and Clear.
	Delay  time.Duration
	Fs     afero.Fs
	Logger *zerolog.Logger
}

// Opener opens the session of one engine.
type Opener func(ctx context.Context, cfg Config) (Session, error)

var (
	registry = make(map[core.Engine]Opener)
	mu       sync.RWMutex
)

func Register(engine core.Engine, fn Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[engine] = fn
}

// Open opens a session on the engine's registered variant.
func Open(ctx context.Context, engine core.Engine, cfg Config) (Session, error) {
	mu.RLock()
	fn, ok := registry[engine]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no session for engine %q", engine)
	}
	return fn(ctx, cfg)
}

// Engines lists the engines with a registered session, sorted.
func Engines() []core.Engine {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]core.Engine, 0, len(registry))
	for e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sqlSession holds what the variants share: everything but how the
// connection is opened and how the database is torn down.
type sqlSession struct {
	db     *sql.DB
	engine core.Engine
	name   string
	gen    dialect.Generator
	schema *schema.Schema
	delay  time.Duration
	log    zerolog.Logger
}

func newSQLSession(db *sql.DB, engine core.Engine, name string, cfg Config, log zerolog.Logger) (*sqlSession, error) {
	d, err := dialect.GetDialect(engine)
	if err != nil {
		return nil, err
	}
	return &sqlSession{
		db:     db,
		engine: engine,
		name:   name,
		gen:    d.Generator(),
		schema: cfg.Schema,
		delay:  cfg.Delay,
		log:    log,
	}, nil
}

func (s *sqlSession) Name() string { return s.name }

func (s *sqlSession) Read(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return out, nil
}

func (s *sqlSession) Write(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return n, nil
}

func (s *sqlSession) WriteMany(ctx context.Context, query string, params [][]any) (total int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write many: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("write many: prepare: %w", err)
	}
	defer stmt.Close()

	for i, args := range params {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("write many: parameter set %d: %w", i+1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write many: parameter set %d: %w", i+1, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write many: commit: %w", err)
	}
	return total, nil
}

func (s *sqlSession) Initialize(ctx context.Context) error {
	if s.schema == nil {
		return ErrNoSchema
	}

	errs := []error{s.Clear(ctx)}
	for i, t := range s.schema.Tables {
		if i > 0 {
			if err := s.wait(ctx); err != nil {
				return err
			}
		}
		if _, err := s.db.ExecContext(ctx, t.Statement); err != nil {
			s.log.Warn().Err(err).Str("table", t.Name).Msg("skipped table creation")
			errs = append(errs, fmt.Errorf("create table %s: %w", t.Name, err))
			continue
		}
		s.log.Info().Str("table", t.Name).Msg("table created")
	}
	return errors.Join(errs...)
}

func (s *sqlSession) Clear(ctx context.Context) error {
	if s.schema == nil {
		return nil
	}

	names := s.schema.Names()
	slices.Reverse(names)

	var errs []error
	for i, name := range names {
		if i > 0 {
			if err := s.wait(ctx); err != nil {
				return err
			}
		}
		if _, err := s.db.ExecContext(ctx, s.gen.DropTable(name)); err != nil {
			s.log.Warn().Err(err).Str("table", name).Msg("skipped table drop")
			errs = append(errs, fmt.Errorf("drop table %s: %w", name, err))
			continue
		}
		s.log.Debug().Str("table", name).Msg("table dropped")
	}
	return errors.Join(errs...)
}

func (s *sqlSession) Tables(ctx context.Context) ([]string, error) {
	i, err := introspect.NewIntrospecter(s.engine)
	if err != nil {
		return nil, err
	}
	tables, err := i.Tables(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return introspect.TableNames(tables), nil
}

func (s *sqlSession) Close() error {
	return s.db.Close()
}

func (s *sqlSession) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
