package command

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Tool names shared by every registry.
const (
	ToolMain   = "main"
	ToolAdmin  = "admin"
	ToolExport = "export"
)

// ErrUnknownTool is matched by every UnknownToolError.
var ErrUnknownTool = errors.New("unknown tool")

// UnknownToolError reports a tool name missing from a Registry.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// Tool is an executable together with its known-flag table.
type Tool struct {
	Name       string
	Executable string
	Flags      map[string]string
}

// Registry maps tool names to tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name] = t
	}
	return r
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, &UnknownToolError{Tool: name}
	}
	return t, nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.tools))
}

// WithExecutables returns a copy of r where the executables of the named
// tools are replaced. Overrides for unregistered tools fail.
func (r *Registry) WithExecutables(overrides map[string]string) (*Registry, error) {
	out := &Registry{tools: maps.Clone(r.tools)}
	for name, exe := range overrides {
		t, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		if exe != "" {
			t.Executable = exe
		}
		out.tools[name] = t
	}
	return out, nil
}

// mysqlFlags is the flag table shared by the MySQL and MariaDB client tools.
var mysqlFlags = map[string]string{
	"host":      "--host",
	"port":      "--port",
	"user":      "--user",
	"password":  "--password",
	"database":  "--database",
	"statement": "--execute",
	"databases": "--databases",
	"output":    "--result-file",
}

// MySQLFlags returns a copy of the MySQL client flag table.
func MySQLFlags() map[string]string {
	return maps.Clone(mysqlFlags)
}

// MySQLRegistry returns the tools shipped with MySQL.
func MySQLRegistry() *Registry {
	return NewRegistry(
		Tool{Name: ToolMain, Executable: "mysql", Flags: MySQLFlags()},
		Tool{Name: ToolAdmin, Executable: "mysqladmin", Flags: MySQLFlags()},
		Tool{Name: ToolExport, Executable: "mysqldump", Flags: MySQLFlags()},
	)
}

// MariaDBRegistry returns the tools shipped with MariaDB.
func MariaDBRegistry() *Registry {
	return NewRegistry(
		Tool{Name: ToolMain, Executable: "mariadb", Flags: MySQLFlags()},
		Tool{Name: ToolAdmin, Executable: "mariadb-admin", Flags: MySQLFlags()},
		Tool{Name: ToolExport, Executable: "mariadb-dump", Flags: MySQLFlags()},
	)
}

// Builder renders command lines for the tools of a registry on top of a set
// of persistent options.
type Builder struct {
	registry *Registry
	base     *Options
}

// NewBuilder returns a Builder. base is copied.
func NewBuilder(registry *Registry, base *Options) *Builder {
	return &Builder{registry: registry, base: base.Clone()}
}

// Build renders the command line for tool with overrides applied.
func (b *Builder) Build(tool string, overrides *Options) ([]string, error) {
	t, err := b.registry.Lookup(tool)
	if err != nil {
		return nil, err
	}
	return Build(t.Executable, t.Flags, b.base, overrides), nil
}
