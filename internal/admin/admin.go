// Package admin manages whole databases on a server: creating, deleting,
// listing, exporting, restoring, duplicating and renaming them. Catalog
// queries and DDL go through a driver connection; dumps and replays go
// through the engine's command-line tools.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"dbkeeper/internal/core"
	"dbkeeper/internal/executor"
	"dbkeeper/internal/replay"
)

var (
	ErrDatabaseExists = errors.New("database already exists")
	ErrInvalidName    = errors.New("invalid database name")
)

// Administrator is implemented once per engine.
type Administrator interface {
	// Create creates name. An existing database is an ErrDatabaseExists
	// unless overwrite is set, in which case it is dropped first.
	Create(ctx context.Context, name string, overwrite bool) error
	// Delete drops name. A missing database is logged and ignored.
	Delete(ctx context.Context, name string) error
	// List returns the user databases, sorted.
	List(ctx context.Context) ([]string, error)
	// Backup dumps every database into outputFile and returns its path.
	Backup(ctx context.Context, outputFile string) (string, error)
	// Restore replays a single-database dump. name overrides the database
	// name found in the dump when set.
	Restore(ctx context.Context, inputFile, name string) (*RestoreResult, error)
	// Export dumps name into outputFile and returns its path.
	Export(ctx context.Context, name, outputFile string) (string, error)
	Duplicate(ctx context.Context, name, newName string, overwrite bool) error
	Rename(ctx context.Context, name, newName string) error
	// Ping checks the server is reachable through the admin tool.
	Ping(ctx context.Context) error
	Info(ctx context.Context) (*core.ServerInfo, error)
	Close() error
}

// RestoreResult describes a finished restore.
type RestoreResult struct {
	Database   string           `json:"database"`
	Statements int              `json:"statements"`
	Warnings   []replay.Warning `json:"warnings,omitempty"`
	Duration   time.Duration    `json:"duration"`
}

// ReplayMode selects how dump bodies are applied.
type ReplayMode string

const (
	// ReplayClient pipes the body into the engine's client tool.
	ReplayClient ReplayMode = "client"
	// ReplayDriver executes the body statement by statement over the driver.
	ReplayDriver ReplayMode = "driver"
)

// ParseReplayMode maps a configuration value to a ReplayMode. Empty means
// ReplayClient.
func ParseReplayMode(s string) (ReplayMode, error) {
	switch ReplayMode(s) {
	case "", ReplayClient:
		return ReplayClient, nil
	case ReplayDriver:
		return ReplayDriver, nil
	default:
		return "", fmt.Errorf("unknown replay mode %q", s)
	}
}

// Options configure an Administrator. Zero values get defaults.
type Options struct {
	Credentials core.Credentials
	// Runner runs the command-line tools. Defaults to executor.ExecRunner.
	Runner executor.Runner
	// Catalog is the driver connection. Opened from Credentials when nil.
	Catalog Catalog
	// Fs is used to read dumps. Defaults to the OS filesystem.
	Fs     afero.Fs
	Logger *zerolog.Logger
	// StrictUse rejects dumps with more than one USE statement.
	StrictUse bool
	Charset   string
	Collation string
	// Tools overrides tool executables by tool name.
	Tools  map[string]string
	Replay ReplayMode
}

// Factory builds the Administrator of one engine.
type Factory func(ctx context.Context, engine core.Engine, opts Options) (Administrator, error)

var (
	registry = make(map[core.Engine]Factory)
	mu       sync.RWMutex
)

func Register(engine core.Engine, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[engine] = f
}

// New builds the Administrator registered for engine.
func New(ctx context.Context, engine core.Engine, opts Options) (Administrator, error) {
	mu.RLock()
	f, ok := registry[engine]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no administrator for engine %q", engine)
	}
	return f(ctx, engine, opts)
}

// Engines lists the engines with a registered Administrator.
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
