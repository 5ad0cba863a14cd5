package output

import (
	"fmt"
	"strings"
	"time"

	"dbkeeper/internal/admin"
	"dbkeeper/internal/core"
	"dbkeeper/internal/replay"
)

type summaryFormatter struct{}

// FormatDatabases reports only how many databases there are.
func (summaryFormatter) FormatDatabases(names []string) (string, error) {
	return plural(len(names), "database") + "\n", nil
}

// FormatRestore formats a restore as one line.
// Example output:
//
//	shop: 42 statements, 1 warning (1.2s)
func (summaryFormatter) FormatRestore(r *admin.RestoreResult) (string, error) {
	if r == nil {
		return "Nothing restored.\n", nil
	}
	return fmt.Sprintf("%s: %s, %s (%s)\n",
		r.Database, plural(r.Statements, "statement"), plural(len(r.Warnings), "warning"),
		r.Duration.Round(100*time.Millisecond)), nil
}

// FormatReport formats a preflight report as a compact summary.
// Example output:
//
//	Dump Summary
//	============
//
//	Statements: 5
//	Types:      INSERT=3, CREATE TABLE=2
//	Warnings:   0
func (summaryFormatter) FormatReport(r *replay.Report) (string, error) {
	if r == nil || r.Statements == 0 {
		return "No statements.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Dump Summary\n")
	sb.WriteString("============\n\n")

	parts := make([]string, 0, len(r.Types))
	for _, t := range r.SortedTypes() {
		parts = append(parts, fmt.Sprintf("%s=%d", t, r.Types[t]))
	}

	fmt.Fprintf(&sb, "Statements: %d\n", r.Statements)
	fmt.Fprintf(&sb, "Types:      %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(&sb, "Warnings:   %d\n", len(r.Warnings))
	if r.HasDanger() {
		sb.WriteString("\nThe dump contains DANGER statements; review it before restoring.\n")
	}
	return sb.String(), nil
}

func (summaryFormatter) FormatServer(info *core.ServerInfo) (string, error) {
	if info == nil {
		return "", nil
	}
	line := fmt.Sprintf("%s %s", info.Engine, info.Version)
	if info.Database != "" {
		line += fmt.Sprintf(", %s (%s)", info.Database, plural(len(info.Tables), "table"))
	}
	return line + "\n", nil
}
