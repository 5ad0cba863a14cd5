// Package replay analyzes and applies the body of a SQL dump through a
// database/sql connection. It is the driver-side alternative to piping the
// body into the mysql client.
package replay

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Result describes a finished replay.
type Result struct {
	Applied  int
	Duration time.Duration
}

// StatementError reports the statement a replay stopped at.
type StatementError struct {
	Index     int
	Statement string
	Applied   int
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d failed: %v\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
		e.Index+1, e.Err, truncateSQL(e.Statement), e.Applied)
}

func (e *StatementError) Unwrap() error { return e.Err }

// Replayer executes dump statements one by one, without a transaction
// wrapper: dumps are mostly DDL, which commits implicitly on MySQL.
type Replayer struct {
	analyzer *Analyzer
	log      zerolog.Logger
}

// New returns a Replayer logging progress to log.
func New(log zerolog.Logger) *Replayer {
	return &Replayer{analyzer: NewAnalyzer(), log: log}
}

// Analyzer exposes the analyzer used to split bodies.
func (r *Replayer) Analyzer() *Analyzer {
	return r.analyzer
}

// ReplayBody splits body and executes every statement on db.
func (r *Replayer) ReplayBody(ctx context.Context, db Execer, body string) (*Result, error) {
	return r.Replay(ctx, db, r.analyzer.Split(body))
}

// Replay executes statements in order and stops at the first failure.
func (r *Replayer) Replay(ctx context.Context, db Execer, statements []string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		r.log.Trace().Int("index", i+1).Int("total", len(statements)).Str("sql", truncateSQL(stmt)).Msg("executing statement")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			res.Duration = time.Since(start)
			return res, &StatementError{Index: i, Statement: stmt, Applied: res.Applied, Err: err}
		}
		res.Applied++
	}

	res.Duration = time.Since(start)
	r.log.Debug().Int("statements", res.Applied).Dur("duration", res.Duration).Msg("replay finished")
	return res, nil
}
