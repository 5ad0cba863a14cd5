// Package config loads dbkeeper settings. Values are layered: built-in
// defaults, then the TOML file, then .env files, then the process
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"dbkeeper/internal/core"
	"dbkeeper/internal/logging"
)

// DefaultPath is the config file picked up from the working directory when
// none is given explicitly.
const DefaultPath = "dbkeeper.toml"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DBKEEPER_"

// Config holds the full TOML-driven configuration.
type Config struct {
	Engine     string            `toml:"engine"` // mysql|mariadb
	Connection core.Credentials  `toml:"connection"`
	Tools      map[string]string `toml:"tools"`
	Restore    RestoreConfig     `toml:"restore"`
	Session    SessionConfig     `toml:"session"`
	Log        LogConfig         `toml:"log"`
}

type RestoreConfig struct {
	StrictUse bool   `toml:"strict_use"`
	Charset   string `toml:"charset"`
	Collation string `toml:"collation"` // empty lets the dialect pick one for the charset
	Replay    string `toml:"replay"`    // client|driver
}

// SessionConfig selects the database a session opens.
type SessionConfig struct {
	Engine   string `toml:"engine"` // mysql|mariadb|sqlite
	Database string `toml:"database"`
	Path     string `toml:"path"`   // sqlite file, empty for in-memory
	Schema   string `toml:"schema"` // table definition file
	Delay    string `toml:"delay"`  // pause between tables during initialization
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console|json
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Engine: string(core.EngineMySQL),
		Connection: core.Credentials{
			Host: "127.0.0.1",
			Port: core.DefaultMySQLPort,
			User: "root",
		},
		Tools: map[string]string{},
		Restore: RestoreConfig{
			Charset: "utf8mb4",
			Replay:  "client",
		},
		Session: SessionConfig{
			Engine: string(core.EngineMySQL),
			Delay:  "0s",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Loader reads configuration through an afero filesystem.
type Loader struct {
	Fs afero.Fs
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load reads path from the OS filesystem and overlays envFiles and the
// process environment.
func Load(path string, envFiles ...string) (*Config, error) {
	return Loader{Fs: afero.NewOsFs()}.Load(path, envFiles...)
}

// Load builds a Config. An empty path skips the TOML layer.
func (l Loader) Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := l.decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	fileEnv := map[string]string{}
	for _, name := range envFiles {
		values, err := l.readEnvFile(name)
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			fileEnv[k] = v
		}
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l Loader) decodeFile(path string, cfg *Config) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func (l Loader) readEnvFile(name string) (map[string]string, error) {
	name, err := homedir.Expand(name)
	if err != nil {
		return nil, fmt.Errorf("expand env file path: %w", err)
	}
	f, err := l.Fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", name, err)
	}
	return values, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(suffix string, dst *string) {
		if v, ok := lookup(EnvPrefix + suffix); ok {
			*dst = v
		}
	}
	set("ENGINE", &c.Engine)
	set("HOST", &c.Connection.Host)
	set("PORT", &c.Connection.Port)
	set("USER", &c.Connection.User)
	set("PASSWORD", &c.Connection.Password)
	set("DATABASE", &c.Session.Database)
	set("LOG_LEVEL", &c.Log.Level)
}

func (c *Config) expandPaths() error {
	var err error
	if c.Session.Path, err = homedir.Expand(c.Session.Path); err != nil {
		return fmt.Errorf("expand session.path: %w", err)
	}
	if c.Session.Schema, err = homedir.Expand(c.Session.Schema); err != nil {
		return fmt.Errorf("expand session.schema: %w", err)
	}
	for tool, exe := range c.Tools {
		if c.Tools[tool], err = homedir.Expand(exe); err != nil {
			return fmt.Errorf("expand tools.%s: %w", tool, err)
		}
	}
	return nil
}

// Validate checks enumerated values and required connection settings.
func (c *Config) Validate() error {
	var errs []error

	engine, err := core.ParseEngine(c.Engine)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("engine: %w", err))
	case engine == core.EngineSQLite:
		errs = append(errs, errors.New("engine must be mysql or mariadb; sqlite is only available to sessions"))
	}
	if _, err := core.ParseEngine(c.Session.Engine); err != nil {
		errs = append(errs, fmt.Errorf("session.engine: %w", err))
	}
	if err := c.Connection.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("connection: %w", err))
	}
	if _, err := c.SessionDelay(); err != nil {
		errs = append(errs, err)
	}
	switch c.Restore.Replay {
	case "", "client", "driver":
	default:
		errs = append(errs, errors.New("restore.replay must be one of: client, driver"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, errors.New("log.format must be one of: console, json"))
	}

	return errors.Join(errs...)
}

// AdminEngine returns the parsed top-level engine.
func (c *Config) AdminEngine() core.Engine {
	e, _ := core.ParseEngine(c.Engine)
	return e
}

// SessionEngine returns the parsed session engine.
func (c *Config) SessionEngine() core.Engine {
	e, _ := core.ParseEngine(c.Session.Engine)
	return e
}

// SessionCredentials returns the connection settings pointed at
// session.database, or at connection.database when the former is empty.
func (c *Config) SessionCredentials() core.Credentials {
	if c.Session.Database == "" {
		return c.Connection
	}
	return c.Connection.WithDatabase(c.Session.Database)
}

// SessionDelay parses session.delay.
func (c *Config) SessionDelay() (time.Duration, error) {
	if c.Session.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Session.Delay)
	if err != nil {
		return 0, fmt.Errorf("session.delay: %w", err)
	}
	if d < 0 {
		return 0, errors.New("session.delay must not be negative")
	}
	return d, nil
}

// Exists reports whether path names a regular file on fs.
func Exists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
