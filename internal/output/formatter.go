// Package output provides a set of formatters for the results of database
// operations. It is extendable and for now provides three formats: text,
// JSON and summary.
package output

import (
	"fmt"
	"strings"

	"dbkeeper/internal/admin"
	"dbkeeper/internal/core"
	"dbkeeper/internal/replay"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter renders operation results.
type Formatter interface {
	FormatDatabases(names []string) (string, error)
	FormatRestore(*admin.RestoreResult) (string, error)
	FormatReport(*replay.Report) (string, error)
	FormatServer(*core.ServerInfo) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to text format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatText:
		return textFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'text', 'json', or 'summary'", name)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
