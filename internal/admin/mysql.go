package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"dbkeeper/internal/command"
	"dbkeeper/internal/core"
	"dbkeeper/internal/dialect"
	"dbkeeper/internal/dump"
	"dbkeeper/internal/executor"
	"dbkeeper/internal/logging"
	"dbkeeper/internal/replay"
)

// DefaultBackupFile is the file Backup writes when none is given.
const DefaultBackupFile = "backup.sql"

// PasswordEnv carries the password to the client tools.
const PasswordEnv = "MYSQL_PWD"

func init() {
	Register(core.EngineMySQL, NewMySQL)
	Register(core.EngineMariaDB, NewMySQL)
}

// MySQL administers MySQL and MariaDB servers. The two differ only in their
// tool names and in the column statistics option MariaDB's dump tool lacks.
type MySQL struct {
	engine      core.Engine
	creds       core.Credentials
	builder     *command.Builder
	runner      executor.Runner
	catalog     Catalog
	fs          afero.Fs
	log         zerolog.Logger
	gen         dialect.Generator
	transformer dump.Transformer
	analyzer    *replay.Analyzer
	charset     string
	collation   string
	replay      ReplayMode
}

// NewMySQL validates the credentials and connects the catalog.
func NewMySQL(ctx context.Context, engine core.Engine, opts Options) (Administrator, error) {
	log := logging.OrNop(opts.Logger)

	creds := opts.Credentials
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	if creds.Database != "" {
		log.Warn().Str("database", creds.Database).Msg("database is ignored by the administrator")
		creds.Database = ""
	}

	var registry *command.Registry
	switch engine {
	case core.EngineMySQL:
		registry = command.MySQLRegistry()
	case core.EngineMariaDB:
		registry = command.MariaDBRegistry()
	default:
		return nil, fmt.Errorf("engine %q is not served by the MySQL administrator", engine)
	}
	registry, err := registry.WithExecutables(opts.Tools)
	if err != nil {
		return nil, fmt.Errorf("tool overrides: %w", err)
	}

	d, err := dialect.GetDialect(engine)
	if err != nil {
		return nil, err
	}

	mode, err := ParseReplayMode(string(opts.Replay))
	if err != nil {
		return nil, err
	}

	base := command.NewOptions()
	for _, kv := range [][2]string{{"host", creds.Host}, {"port", creds.Port}, {"user", creds.User}} {
		if kv[1] != "" {
			base.Set(kv[0], command.Scalar(kv[1]))
		}
	}

	a := &MySQL{
		engine:      engine,
		creds:       creds,
		builder:     command.NewBuilder(registry, base),
		runner:      opts.Runner,
		catalog:     opts.Catalog,
		fs:          opts.Fs,
		log:         log,
		gen:         d.Generator(),
		transformer: dump.Transformer{StrictUse: opts.StrictUse},
		analyzer:    replay.NewAnalyzer(),
		charset:     opts.Charset,
		collation:   opts.Collation,
		replay:      mode,
	}
	if a.runner == nil {
		a.runner = executor.ExecRunner{}
	}
	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}
	if a.catalog == nil {
		if a.catalog, err = OpenCatalog(ctx, engine, creds, log); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *MySQL) Create(ctx context.Context, name string, overwrite bool) error {
	if err := validateName(name); err != nil {
		return err
	}

	exists, err := a.exists(ctx, name)
	if err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	if exists {
		if !overwrite {
			return fmt.Errorf("create %q: %w", name, ErrDatabaseExists)
		}
		a.log.Warn().Str("database", name).Msg("database already exists; it will be deleted and recreated")
		if err := a.drop(ctx, name); err != nil {
			return fmt.Errorf("create %q: %w", name, err)
		}
	}

	if err := a.catalog.Exec(ctx, a.gen.CreateDatabase(name, a.charset, a.collation)); err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	a.log.Info().Str("database", name).Msg("database created")
	return nil
}

func (a *MySQL) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	exists, err := a.exists(ctx, name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if !exists {
		a.log.Warn().Str("database", name).Msg("no operation was performed; the database does not exist")
		return nil
	}
	if err := a.drop(ctx, name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	a.log.Info().Str("database", name).Msg("database deleted")
	return nil
}

func (a *MySQL) List(ctx context.Context) ([]string, error) {
	names, err := a.catalog.Databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return names, nil
}

func (a *MySQL) Backup(ctx context.Context, outputFile string) (string, error) {
	if outputFile == "" {
		outputFile = DefaultBackupFile
	}
	if err := a.prepareOutput(outputFile); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	overrides := command.NewOptions(command.Opt("output", command.Scalar(outputFile)))
	a.addColumnStatistics(overrides)
	overrides.Set("__all_databases", command.Flag())

	if _, err := a.run(ctx, command.ToolExport, overrides, nil); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	a.log.Info().Str("file", outputFile).Msg("all databases backed up")
	return outputFile, nil
}

func (a *MySQL) Export(ctx context.Context, name, outputFile string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if outputFile == "" {
		outputFile = name
	}
	if !strings.HasSuffix(outputFile, ".sql") {
		outputFile += ".sql"
	}
	if err := a.prepareOutput(outputFile); err != nil {
		return "", fmt.Errorf("export %q: %w", name, err)
	}

	overrides := command.NewOptions(command.Opt("output", command.Scalar(outputFile)))
	a.addDumpDatabase(overrides, name)

	if _, err := a.run(ctx, command.ToolExport, overrides, nil); err != nil {
		return "", fmt.Errorf("export %q: %w", name, err)
	}
	a.log.Info().Str("database", name).Str("file", outputFile).Msg("database exported")
	return outputFile, nil
}

func (a *MySQL) Restore(ctx context.Context, inputFile, name string) (*RestoreResult, error) {
	start := time.Now()

	data, err := afero.ReadFile(a.fs, inputFile)
	if err != nil {
		return nil, fmt.Errorf("restore: read %s: %w", inputFile, err)
	}

	resolved, body, err := a.transformer.Transform(name, string(data))
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", inputFile, err)
	}

	report := a.analyzer.Analyze(body)
	for _, w := range report.Warnings {
		a.log.Warn().Str("level", string(w.Level)).Str("sql", w.SQL).Msg(w.Message)
	}

	if err := a.Create(ctx, resolved, false); err != nil {
		return nil, fmt.Errorf("restore %s: %w", inputFile, err)
	}
	if err := a.load(ctx, resolved, body); err != nil {
		return nil, fmt.Errorf("restore %s: %w", inputFile, err)
	}

	a.log.Info().Str("database", resolved).Int("statements", report.Statements).Msg("database restored")
	return &RestoreResult{
		Database:   resolved,
		Statements: report.Statements,
		Warnings:   report.Warnings,
		Duration:   time.Since(start),
	}, nil
}

func (a *MySQL) Duplicate(ctx context.Context, name, newName string, overwrite bool) error {
	if err := errors.Join(validateName(name), validateName(newName)); err != nil {
		return err
	}
	if name == newName {
		return fmt.Errorf("duplicate %q: %w: source and target are the same", name, ErrInvalidName)
	}

	if overwrite {
		if err := a.Delete(ctx, newName); err != nil {
			return fmt.Errorf("duplicate %q: %w", name, err)
		}
	}
	if err := a.Create(ctx, newName, false); err != nil {
		return fmt.Errorf("duplicate %q: %w", name, err)
	}

	overrides := command.NewOptions()
	a.addDumpDatabase(overrides, name)
	res, err := a.run(ctx, command.ToolExport, overrides, nil)
	if err != nil {
		return fmt.Errorf("duplicate %q: %w", name, err)
	}

	_, body, err := a.transformer.Transform(newName, res.Stdout)
	if err != nil {
		return fmt.Errorf("duplicate %q: %w", name, err)
	}
	if err := a.load(ctx, newName, body); err != nil {
		return fmt.Errorf("duplicate %q: %w", name, err)
	}

	a.log.Info().Str("database", name).Str("copy", newName).Msg("database duplicated")
	return nil
}

func (a *MySQL) Rename(ctx context.Context, name, newName string) error {
	if err := a.Duplicate(ctx, name, newName, false); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if err := a.Delete(ctx, name); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (a *MySQL) Ping(ctx context.Context) error {
	overrides := command.NewOptions(command.Opt("command", command.Scalar("ping")))
	if _, err := a.run(ctx, command.ToolAdmin, overrides, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (a *MySQL) Info(ctx context.Context) (*core.ServerInfo, error) {
	info, err := a.catalog.Server(ctx)
	if err != nil {
		return nil, fmt.Errorf("server info: %w", err)
	}
	return info, nil
}

func (a *MySQL) Close() error {
	return a.catalog.Close()
}

func (a *MySQL) exists(ctx context.Context, name string) (bool, error) {
	names, err := a.catalog.Databases(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func (a *MySQL) drop(ctx context.Context, name string) error {
	return a.catalog.Exec(ctx, a.gen.DropDatabase(name))
}

// load replays a cleaned dump body into database.
func (a *MySQL) load(ctx context.Context, database, body string) error {
	if a.replay == ReplayDriver {
		res, err := a.catalog.Replay(ctx, database, body)
		if err != nil {
			return err
		}
		a.log.Debug().Int("statements", res.Applied).Dur("duration", res.Duration).Msg("dump replayed over the driver")
		return nil
	}

	overrides := command.NewOptions(command.Opt("database", command.Scalar(database)))
	_, err := a.run(ctx, command.ToolMain, overrides, strings.NewReader(body))
	return err
}

// addDumpDatabase sets the options that make the dump tool emit one
// database together with its CREATE DATABASE and USE statements.
func (a *MySQL) addDumpDatabase(overrides *command.Options, name string) {
	a.addColumnStatistics(overrides)
	overrides.Set("databases", command.Flag())
	overrides.Set("db_name", command.Scalar(name))
}

// addColumnStatistics disables the column statistics query mysqldump 8 runs
// by default, which older servers reject. MariaDB's dump tool has no such
// option.
func (a *MySQL) addColumnStatistics(overrides *command.Options) {
	if a.engine == core.EngineMySQL {
		overrides.Set("__column_statistics", command.Int(0))
	}
}

func (a *MySQL) prepareOutput(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// run builds and executes a tool command. The password travels in the
// child's environment only.
func (a *MySQL) run(ctx context.Context, tool string, overrides *command.Options, stdin io.Reader) (*executor.Result, error) {
	args, err := a.builder.Build(tool, overrides)
	if err != nil {
		return nil, err
	}

	var env map[string]string
	if a.creds.Password != "" {
		env = map[string]string{PasswordEnv: a.creds.Password}
	}

	a.log.Info().Str("command", command.Join(args)).Msg("running")
	res, err := a.runner.Run(ctx, executor.Command{Args: args, Stdin: stdin, Env: env})
	if err != nil {
		return nil, err
	}
	a.log.Debug().Int("exit", res.ExitCode).Dur("duration", res.Duration).Msg("finished")
	if err := res.Err(); err != nil {
		return res, fmt.Errorf("%s: %w", args[0], err)
	}
	return res, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	return nil
}
