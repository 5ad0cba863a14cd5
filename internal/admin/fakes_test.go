package admin

import (
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"

	"dbkeeper/internal/core"
	"dbkeeper/internal/executor"
	"dbkeeper/internal/replay"
)

type fakeCatalog struct {
	mu        sync.Mutex
	databases map[string]bool
	execs     []string
	replays   map[string]string
	execErr   error
	closed    bool
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{databases: map[string]bool{}, replays: map[string]string{}}
	for _, n := range names {
		c.databases[n] = true
	}
	return c
}

func (c *fakeCatalog) Databases(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	for n := range c.databases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (c *fakeCatalog) Exec(_ context.Context, statement string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, statement)
	if c.execErr != nil {
		return c.execErr
	}
	name := statement[strings.Index(statement, "`")+1:]
	name = name[:strings.Index(name, "`")]
	switch {
	case strings.HasPrefix(statement, "CREATE DATABASE"):
		c.databases[name] = true
	case strings.HasPrefix(statement, "DROP DATABASE"):
		delete(c.databases, name)
	}
	return nil
}

func (c *fakeCatalog) Server(context.Context) (*core.ServerInfo, error) {
	return &core.ServerInfo{Engine: core.EngineMySQL, Version: "8.0.36"}, nil
}

func (c *fakeCatalog) Replay(_ context.Context, database, body string) (*replay.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replays[database] = body
	return &replay.Result{Applied: strings.Count(body, ";")}, nil
}

func (c *fakeCatalog) Close() error {
	c.closed = true
	return nil
}

type recordedCommand struct {
	Args  []string
	Stdin string
	Env   map[string]string
}

// fakeRunner records commands and answers them by executable name.
type fakeRunner struct {
	mu       sync.Mutex
	commands []recordedCommand
	results  map[string]*executor.Result
	err      error
}

func (r *fakeRunner) Run(_ context.Context, cmd executor.Command) (*executor.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := recordedCommand{Args: slices.Clone(cmd.Args), Env: cmd.Env}
	if cmd.Stdin != nil {
		data, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return nil, err
		}
		rec.Stdin = string(data)
	}
	r.commands = append(r.commands, rec)

	if r.err != nil {
		return nil, r.err
	}
	if res, ok := r.results[cmd.Args[0]]; ok {
		return res, nil
	}
	return &executor.Result{}, nil
}

func (r *fakeRunner) last() recordedCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commands) == 0 {
		panic(errors.New("no commands recorded"))
	}
	return r.commands[len(r.commands)-1]
}
