// Package core holds the small set of types every other package agrees on: the
// database engines dbkeeper knows about, connection credentials and the server
// information reported by introspection.
package core

import (
	"fmt"
	"strings"
)

// Engine identifies a supported database engine.
type Engine string

const (
	EngineMySQL   Engine = "mysql"
	EngineMariaDB Engine = "mariadb"
	EngineSQLite  Engine = "sqlite"
)

// SupportedEngines returns a slice of all supported engine values.
func SupportedEngines() []Engine {
	return []Engine{
		EngineMySQL,
		EngineMariaDB,
		EngineSQLite,
	}
}

// IsValidEngine reports whether e is a recognized engine string.
func IsValidEngine(e string) bool {
	for _, supported := range SupportedEngines() {
		if strings.EqualFold(string(supported), e) {
			return true
		}
	}
	return false
}

// ParseEngine normalizes s into an Engine. An empty string means MySQL.
func ParseEngine(s string) (Engine, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return EngineMySQL, nil
	}
	if !IsValidEngine(s) {
		return "", fmt.Errorf("unsupported engine %q (must be mysql, mariadb or sqlite)", s)
	}
	return Engine(s), nil
}

// ServerInfo describes the server a connection talks to and, when one is
// selected, its current database.
type ServerInfo struct {
	Engine   Engine      `json:"engine"`
	Version  string      `json:"version"`
	Comment  string      `json:"comment,omitempty"`
	Database string      `json:"database,omitempty"`
	Tables   []TableInfo `json:"tables,omitempty"`
}

// TableInfo is a base table of the current database.
type TableInfo struct {
	Name      string `json:"name"`
	Engine    string `json:"engine,omitempty"`
	Collation string `json:"collation,omitempty"`
	Comment   string `json:"comment,omitempty"`
}
