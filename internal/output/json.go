package output

import (
	"encoding/json"

	"dbkeeper/internal/admin"
	"dbkeeper/internal/core"
	"dbkeeper/internal/replay"
)

type jsonFormatter struct{}

type databasesPayload struct {
	Format    string   `json:"format"`
	Count     int      `json:"count"`
	Databases []string `json:"databases"`
}

type restorePayload struct {
	Format     string           `json:"format"`
	Database   string           `json:"database,omitempty"`
	Statements int              `json:"statements"`
	DurationMs int64            `json:"durationMs"`
	Warnings   []replay.Warning `json:"warnings,omitempty"`
}

type reportPayload struct {
	Format string `json:"format"`
	*replay.Report
	Danger bool `json:"danger"`
}

type serverPayload struct {
	Format string `json:"format"`
	*core.ServerInfo
}

type Payload interface {
	databasesPayload | restorePayload | reportPayload | serverPayload
}

func (jsonFormatter) FormatDatabases(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	return marshalJSON(databasesPayload{Format: string(FormatJSON), Count: len(names), Databases: names})
}

func (jsonFormatter) FormatRestore(r *admin.RestoreResult) (string, error) {
	payload := restorePayload{Format: string(FormatJSON)}
	if r != nil {
		payload.Database = r.Database
		payload.Statements = r.Statements
		payload.DurationMs = r.Duration.Milliseconds()
		payload.Warnings = r.Warnings
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatReport(r *replay.Report) (string, error) {
	if r == nil {
		r = &replay.Report{}
	}
	return marshalJSON(reportPayload{Format: string(FormatJSON), Report: r, Danger: r.HasDanger()})
}

func (jsonFormatter) FormatServer(info *core.ServerInfo) (string, error) {
	if info == nil {
		info = &core.ServerInfo{}
	}
	return marshalJSON(serverPayload{Format: string(FormatJSON), ServerInfo: info})
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
