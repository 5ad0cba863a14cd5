package output

import (
	"fmt"
	"strings"
	"time"

	"dbkeeper/internal/admin"
	"dbkeeper/internal/core"
	"dbkeeper/internal/replay"
)

type textFormatter struct{}

// FormatDatabases prints one database name per line.
func (textFormatter) FormatDatabases(names []string) (string, error) {
	if len(names) == 0 {
		return "No databases.\n", nil
	}
	return strings.Join(names, "\n") + "\n", nil
}

func (textFormatter) FormatRestore(r *admin.RestoreResult) (string, error) {
	if r == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Restored database %s\n", r.Database)
	fmt.Fprintf(&sb, "Statements: %d\n", r.Statements)
	fmt.Fprintf(&sb, "Duration:   %s\n", r.Duration.Round(time.Millisecond))
	writeWarnings(&sb, r.Warnings)
	return sb.String(), nil
}

func (textFormatter) FormatReport(r *replay.Report) (string, error) {
	if r == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Statements: %d\n", r.Statements)
	if r.Unparseable > 0 {
		fmt.Fprintf(&sb, "Unparseable: %d\n", r.Unparseable)
	}
	if len(r.Types) > 0 {
		sb.WriteString("\nBy type:\n")
		for _, t := range r.SortedTypes() {
			fmt.Fprintf(&sb, "  %-16s %d\n", t, r.Types[t])
		}
	}
	if len(r.Tables) > 0 {
		fmt.Fprintf(&sb, "\nTables: %s\n", strings.Join(r.Tables, ", "))
	}
	writeWarnings(&sb, r.Warnings)
	return sb.String(), nil
}

func (textFormatter) FormatServer(info *core.ServerInfo) (string, error) {
	if info == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Engine:  %s\n", info.Engine)
	fmt.Fprintf(&sb, "Version: %s\n", info.Version)
	if info.Comment != "" {
		fmt.Fprintf(&sb, "Comment: %s\n", info.Comment)
	}
	if info.Database != "" {
		fmt.Fprintf(&sb, "Database: %s\n", info.Database)
	}
	for _, t := range info.Tables {
		fmt.Fprintf(&sb, "  - %s", t.Name)
		if t.Engine != "" {
			fmt.Fprintf(&sb, " (%s)", t.Engine)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func writeWarnings(sb *strings.Builder, warnings []replay.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nWarnings: %d\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(sb, "  [%s] %s\n", w.Level, w.Message)
		if w.SQL != "" {
			fmt.Fprintf(sb, "      %s\n", w.SQL)
		}
	}
}
