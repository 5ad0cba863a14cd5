package replay

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analyzeStatementTests = []struct {
	name      string
	sql       string
	wantType  string
	wantLevel WarningLevel
	wantTable string
}{
	{"CREATE TABLE records its name", "CREATE TABLE `orders` (id INT PRIMARY KEY)", "CREATE TABLE", "", "orders"},
	{"INSERT is quiet", "INSERT INTO orders VALUES (1),(2)", "INSERT", "", ""},
	{"REPLACE is its own type", "REPLACE INTO orders VALUES (1)", "REPLACE", "", ""},
	{"DROP TABLE IF EXISTS is quiet", "DROP TABLE IF EXISTS `orders`", "DROP TABLE", "", ""},
	{"DROP TABLE without IF EXISTS", "DROP TABLE orders", "DROP TABLE", WarnCaution, ""},
	{"DROP DATABASE is dangerous", "DROP DATABASE shop", "DROP DATABASE", WarnDanger, ""},
	{"CREATE DATABASE is dangerous", "CREATE DATABASE shop", "CREATE DATABASE", WarnDanger, ""},
	{"USE is dangerous", "USE shop", "USE", WarnDanger, ""},
	{"TRUNCATE warns", "TRUNCATE TABLE orders", "TRUNCATE TABLE", WarnCaution, ""},
	{"DELETE warns", "DELETE FROM orders WHERE id = 1", "DELETE", WarnCaution, ""},
	{"LOCK TABLES", "LOCK TABLES `orders` WRITE", "LOCK TABLES", "", ""},
	{"UNLOCK TABLES", "UNLOCK TABLES", "UNLOCK TABLES", "", ""},
	{"SET", "SET NAMES utf8mb4", "SET", "", ""},
	{"GRANT warns", "GRANT SELECT ON shop.* TO 'app'@'%'", "ACCOUNT", WarnCaution, ""},
	{"garbage is unparseable", "THIS IS NOT SQL", "UNPARSEABLE", WarnCaution, ""},
}

func TestAnalyzeStatement(t *testing.T) {
	a := NewAnalyzer()
	for _, tt := range analyzeStatementTests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.AnalyzeStatement(tt.sql)
			assert.Equal(t, tt.wantType, got.StatementType)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantTable, got.Table)
		})
	}
}

func TestAnalyzeStatementRoutineFallback(t *testing.T) {
	got := NewAnalyzer().AnalyzeStatement("CREATE DEFINER=`root`@`%` TRIGGER trg BEFORE INSERT ON orders FOR EACH ROW SET NEW.id = 1")
	assert.Equal(t, "ROUTINE", got.StatementType)
	assert.Empty(t, got.Level)
}

func TestAnalyzeReport(t *testing.T) {
	body := strings.Join([]string{
		"DROP TABLE IF EXISTS `orders`;",
		"CREATE TABLE `orders` (id INT PRIMARY KEY);",
		"INSERT INTO `orders` VALUES (1),(2);",
		"DROP TABLE IF EXISTS `items`;",
		"CREATE TABLE `items` (id INT PRIMARY KEY);",
		"INSERT INTO `items` VALUES (1);",
		"DROP DATABASE other;",
	}, "\n")

	report := NewAnalyzer().Analyze(body)

	assert.Equal(t, 7, report.Statements)
	assert.Equal(t, 2, report.Types["CREATE TABLE"])
	assert.Equal(t, 2, report.Types["INSERT"])
	assert.Equal(t, []string{"orders", "items"}, report.Tables)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnDanger, report.Warnings[0].Level)
	assert.True(t, report.HasDanger())
	assert.Equal(t, []string{"CREATE TABLE", "DROP TABLE", "INSERT", "DROP DATABASE"}, report.SortedTypes())
	assert.Equal(t, "7 statements (CREATE TABLE=2, DROP TABLE=2, INSERT=2, DROP DATABASE=1), 1 warnings", report.Summary())
}

func TestAnalyzeEmptyBody(t *testing.T) {
	report := NewAnalyzer().Analyze("  \n\n")
	assert.Zero(t, report.Statements)
	assert.False(t, report.HasDanger())
}

func TestSplitWithParser(t *testing.T) {
	body := "CREATE TABLE t (v VARCHAR(10));\nINSERT INTO t VALUES ('a;b');\n"
	stmts := NewAnalyzer().Split(body)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "'a;b'")
	assert.False(t, strings.HasSuffix(stmts[1], ";"))
}

func TestSplitFallsBackOnDelimiter(t *testing.T) {
	body := strings.Join([]string{
		"CREATE TABLE t (id INT);",
		"DELIMITER ;;",
		"CREATE TRIGGER trg BEFORE INSERT ON t FOR EACH ROW BEGIN",
		"  SET NEW.id = NEW.id + 1;",
		"END ;;",
		"DELIMITER ;",
		"INSERT INTO t VALUES (1);",
	}, "\n")

	stmts := NewAnalyzer().Split(body)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE t (id INT)", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TRIGGER trg"))
	assert.Contains(t, stmts[1], "SET NEW.id = NEW.id + 1;")
	assert.True(t, strings.HasSuffix(stmts[1], "END"))
	assert.Equal(t, "INSERT INTO t VALUES (1)", stmts[2])
}

func TestSplitLines(t *testing.T) {
	t.Run("basic split", func(t *testing.T) {
		assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, SplitLines("SELECT 1;\nSELECT 2;"))
	})

	t.Run("skip comments", func(t *testing.T) {
		assert.Len(t, SplitLines("-- comment\nSELECT 1;\n# another\nSELECT 2;"), 2)
	})

	t.Run("multi-line statement", func(t *testing.T) {
		stmts := SplitLines("CREATE TABLE t (\n  id INT\n);\n")
		require.Len(t, stmts, 1)
		assert.Equal(t, "CREATE TABLE t (\n  id INT\n)", stmts[0])
	})

	t.Run("trailing content without delimiter", func(t *testing.T) {
		assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, SplitLines("SELECT 1;\nSELECT 2"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SplitLines(""))
	})

	t.Run("only comments and blanks", func(t *testing.T) {
		assert.Empty(t, SplitLines("-- just a comment\n\n-- another one"))
	})
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", truncateSQL("  SELECT\n  1 "))

	long := strings.Repeat("A", 100)
	got := truncateSQL(long)
	assert.Len(t, got, 80)
	assert.True(t, strings.HasSuffix(got, "..."))

	multibyte := "INSERT INTO t VALUES ('" + strings.Repeat("żółw", 30) + "')"
	got = truncateSQL(multibyte)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 80, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(multibyte, strings.TrimSuffix(got, "...")))
}
