package replay

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
)

// WarningLevel grades how much attention a statement in a dump deserves.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Warning points at one statement of a dump body.
type Warning struct {
	Level   WarningLevel `json:"level"`
	Message string       `json:"message"`
	SQL     string       `json:"sql,omitempty"`
}

// Report summarizes a dump body before it is replayed.
type Report struct {
	Statements  int            `json:"statements"`
	Types       map[string]int `json:"types"`
	Tables      []string       `json:"tables,omitempty"`
	Warnings    []Warning      `json:"warnings,omitempty"`
	Unparseable int            `json:"unparseable,omitempty"`
}

// HasDanger reports whether any warning is at WarnDanger.
func (r *Report) HasDanger() bool {
	for _, w := range r.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}

// SortedTypes returns the statement types in descending count order, ties by
// name.
func (r *Report) SortedTypes() []string {
	types := make([]string, 0, len(r.Types))
	for t := range r.Types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if r.Types[types[i]] != r.Types[types[j]] {
			return r.Types[types[i]] > r.Types[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

// StatementAnalysis classifies one statement.
type StatementAnalysis struct {
	StatementType string
	Table         string
	Level         WarningLevel
	Reason        string
}

// Analyzer uses TiDB's AST parser to classify dump statements.
type Analyzer struct {
	parser *parser.Parser
}

// NewAnalyzer creates a new AST-based statement analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{parser: parser.New()}
}

// Analyze splits body into statements and classifies each of them.
func (a *Analyzer) Analyze(body string) *Report {
	return a.AnalyzeStatements(a.Split(body))
}

// AnalyzeStatements classifies already split statements.
func (a *Analyzer) AnalyzeStatements(statements []string) *Report {
	report := &Report{Types: map[string]int{}}
	seen := map[string]bool{}

	for _, stmt := range statements {
		analysis := a.AnalyzeStatement(stmt)
		report.Statements++
		report.Types[analysis.StatementType]++
		if analysis.StatementType == "UNPARSEABLE" {
			report.Unparseable++
		}
		if analysis.StatementType == "CREATE TABLE" && analysis.Table != "" && !seen[analysis.Table] {
			seen[analysis.Table] = true
			report.Tables = append(report.Tables, analysis.Table)
		}
		if analysis.Level != "" {
			report.Warnings = append(report.Warnings, Warning{
				Level:   analysis.Level,
				Message: analysis.Reason,
				SQL:     truncateSQL(stmt),
			})
		}
	}
	return report
}

// AnalyzeStatement parses a single SQL statement and returns analysis results.
func (a *Analyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil {
		analysis := &StatementAnalysis{StatementType: "UNPARSEABLE"}
		a.analyzeOtherStatement(analysis, sql)
		return analysis
	}
	if len(stmtNodes) == 0 {
		return &StatementAnalysis{StatementType: "EMPTY"}
	}
	return a.analyzeNode(stmtNodes[0], sql)
}

func (a *Analyzer) analyzeNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{}

	switch stmt := node.(type) {
	case *ast.CreateTableStmt:
		analysis.StatementType = "CREATE TABLE"
		analysis.Table = stmt.Table.Name.O
	case *ast.CreateViewStmt:
		analysis.StatementType = "CREATE VIEW"
		analysis.Table = stmt.ViewName.Name.O
	case *ast.CreateIndexStmt:
		analysis.StatementType = "CREATE INDEX"
	case *ast.InsertStmt:
		analysis.StatementType = "INSERT"
		if stmt.IsReplace {
			analysis.StatementType = "REPLACE"
		}
	case *ast.DropTableStmt:
		analysis.StatementType = "DROP TABLE"
		if stmt.IsView {
			analysis.StatementType = "DROP VIEW"
		}
		if !stmt.IfExists {
			analysis.Level = WarnCaution
			analysis.Reason = analysis.StatementType + " without IF EXISTS fails when the object is missing"
		}
	case *ast.DropDatabaseStmt:
		analysis.StatementType = "DROP DATABASE"
		analysis.Level = WarnDanger
		analysis.Reason = "DROP DATABASE will permanently delete the entire database"
	case *ast.CreateDatabaseStmt:
		analysis.StatementType = "CREATE DATABASE"
		analysis.Level = WarnDanger
		analysis.Reason = "CREATE DATABASE switches the replay away from the target database"
	case *ast.UseStmt:
		analysis.StatementType = "USE"
		analysis.Level = WarnDanger
		analysis.Reason = "USE switches the replay away from the target database"
	case *ast.TruncateTableStmt:
		analysis.StatementType = "TRUNCATE TABLE"
		analysis.Level = WarnCaution
		analysis.Reason = "TRUNCATE TABLE will delete all rows from the table"
	case *ast.DeleteStmt:
		analysis.StatementType = "DELETE"
		analysis.Level = WarnCaution
		analysis.Reason = "DELETE will remove rows from the table"
	case *ast.UpdateStmt:
		analysis.StatementType = "UPDATE"
	case *ast.AlterTableStmt:
		analysis.StatementType = "ALTER TABLE"
	case *ast.LockTablesStmt:
		analysis.StatementType = "LOCK TABLES"
	case *ast.UnlockTablesStmt:
		analysis.StatementType = "UNLOCK TABLES"
	case *ast.SetStmt:
		analysis.StatementType = "SET"
	case *ast.GrantStmt, *ast.RevokeStmt, *ast.CreateUserStmt, *ast.DropUserStmt:
		analysis.StatementType = "ACCOUNT"
		analysis.Level = WarnCaution
		analysis.Reason = "account management statements change server-wide state"
	default:
		a.analyzeOtherStatement(analysis, originalSQL)
	}
	return analysis
}

var routineKeywords = []string{
	"CREATE TRIGGER", "CREATE PROCEDURE", "CREATE FUNCTION", "CREATE EVENT",
	"CREATE DEFINER", "DROP TRIGGER", "DROP PROCEDURE", "DROP FUNCTION", "DROP EVENT",
}

func (a *Analyzer) analyzeOtherStatement(analysis *StatementAnalysis, originalSQL string) {
	if analysis.StatementType == "" {
		analysis.StatementType = "OTHER"
	}
	upper := strings.ToUpper(strings.TrimSpace(originalSQL))
	for _, keyword := range routineKeywords {
		if strings.HasPrefix(upper, keyword) {
			analysis.StatementType = "ROUTINE"
			return
		}
	}
	if analysis.StatementType == "UNPARSEABLE" {
		analysis.Level = WarnCaution
		analysis.Reason = "statement could not be parsed; it is replayed verbatim"
	}
}

// Split breaks a dump body into statements. The TiDB parser is tried first so
// that semicolons inside literals are handled; bodies it rejects fall back to
// a line splitter that honors DELIMITER directives.
func (a *Analyzer) Split(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	stmtNodes, _, err := a.parser.Parse(body, "", "")
	if err == nil && len(stmtNodes) > 0 {
		var statements []string
		for _, node := range stmtNodes {
			if node == nil {
				continue
			}
			stmt := strings.TrimSuffix(strings.TrimSpace(node.Text()), ";")
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
		if len(statements) > 0 {
			return statements
		}
	}

	return SplitLines(body)
}

// SplitLines splits body on lines ending in the current delimiter. Comment
// lines are skipped and "DELIMITER x" lines change the delimiter.
func SplitLines(body string) []string {
	var statements []string
	var current strings.Builder
	delimiter := ";"

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		stmt = strings.TrimSpace(strings.TrimSuffix(stmt, delimiter))
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for line := range strings.SplitSeq(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if current.Len() == 0 && (trimmed == "" || strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "#")) {
			continue
		}
		if fields := strings.Fields(trimmed); len(fields) == 2 && strings.EqualFold(fields[0], "DELIMITER") {
			flush()
			delimiter = fields[1]
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, delimiter) {
			flush()
		}
	}
	flush()

	return statements
}

func truncateSQL(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if utf8.RuneCountInString(stmt) > 80 {
		return string([]rune(stmt)[:77]) + "..."
	}
	return stmt
}

// Summary renders the report in one line.
func (r *Report) Summary() string {
	parts := make([]string, 0, len(r.Types))
	for _, t := range r.SortedTypes() {
		parts = append(parts, fmt.Sprintf("%s=%d", t, r.Types[t]))
	}
	return fmt.Sprintf("%d statements (%s), %d warnings", r.Statements, strings.Join(parts, ", "), len(r.Warnings))
}
