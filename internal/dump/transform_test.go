package dump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mysqldumpOutput = `-- MySQL dump 10.13  Distrib 8.0.36, for Linux (x86_64)
--
-- Host: 127.0.0.1    Database: shop
-- ------------------------------------------------------

/*!40101 SET @OLD_CHARACTER_SET_CLIENT=@@CHARACTER_SET_CLIENT */;

--
-- Current Database: ` + "`shop`" + `
--

CREATE DATABASE /*!32312 IF NOT EXISTS*/ ` + "`shop`" + ` /*!40100 DEFAULT CHARACTER SET utf8mb4 */;

USE ` + "`shop`" + `;

DROP TABLE IF EXISTS ` + "`orders`" + `;
CREATE TABLE ` + "`orders`" + ` (
  ` + "`id`" + ` int NOT NULL,
  PRIMARY KEY (` + "`id`" + `)
) ENGINE=InnoDB;

INSERT INTO ` + "`orders`" + ` VALUES (1),(2);
`

func TestTransformExactScenario(t *testing.T) {
	name, body, err := Transform("", "CREATE DATABASE foo;\nUSE foo;\nCREATE TABLE t (id INT);\n")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)
	assert.Equal(t, "CREATE TABLE t (id INT);\n", body)
}

func TestTransformKeepsDDLInOrder(t *testing.T) {
	name, body, err := Transform("", mysqldumpOutput)
	require.NoError(t, err)
	assert.Equal(t, "shop", name)

	assert.NotContains(t, body, "CREATE DATABASE")
	assert.NotContains(t, body, "USE `shop`;")

	var original []string
	for _, line := range strings.Split(mysqldumpOutput, "\n") {
		if !strings.HasPrefix(line, "CREATE DATABASE") && !strings.HasPrefix(line, "USE ") {
			original = append(original, line)
		}
	}
	assert.Equal(t, strings.Join(original, "\n"), body)
}

func TestTransformOverrideName(t *testing.T) {
	name, body, err := Transform("bar", "CREATE DATABASE foo;\nUSE foo;\nCREATE TABLE foo.t (id INT);\n")
	require.NoError(t, err)
	assert.Equal(t, "bar", name)
	assert.Equal(t, "CREATE TABLE bar.t (id INT);\n", body)
}

func TestTransformOverrideSameName(t *testing.T) {
	name, body, err := Transform("shop", mysqldumpOutput)
	require.NoError(t, err)
	assert.Equal(t, "shop", name)
	assert.Contains(t, body, "INSERT INTO `orders` VALUES (1),(2);")
}

func TestTransformOverrideIsUnscoped(t *testing.T) {
	_, body, err := Transform("crm", "CREATE DATABASE app;\nUSE app;\nCREATE TABLE apples (id INT);\n")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE crmles (id INT);\n", body)
}

func TestTransformCreateStatementCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"missing", "USE foo;\nCREATE TABLE t (id INT);\n", ErrMissingCreateStatement},
		{"multiple", "CREATE DATABASE foo;\nCREATE SCHEMA bar;\nUSE foo;\n", ErrMultipleCreateStatements},
		{"not at end of line", "CREATE DATABASE foo; -- comment\nUSE foo;\n", ErrMissingCreateStatement},
		{"empty", "", ErrMissingCreateStatement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, body, err := Transform("", tt.text)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, name)
			assert.Empty(t, body)
		})
	}
}

func TestTransformMissingUse(t *testing.T) {
	_, _, err := Transform("", "CREATE DATABASE foo;\nCREATE TABLE t (id INT);\n")
	assert.ErrorIs(t, err, ErrMissingUseStatement)
}

func TestExtractNameQuoting(t *testing.T) {
	tests := []struct {
		name string
		use  string
		want string
		err  error
	}{
		{"bare", "USE foo;", "foo", nil},
		{"backticks", "USE `foo`;", "foo", nil},
		{"double quotes", `USE "foo";`, "foo", nil},
		{"mismatched quotes", "USE `foo\";", "", ErrMissingUseStatement},
		{"unbalanced quote", "USE `foo;", "", ErrMissingUseStatement},
		{"crlf", "USE foo;\r", "foo", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractName("CREATE DATABASE foo;\n" + tt.use + "\n")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractNameMultipleUse(t *testing.T) {
	text := "CREATE DATABASE foo;\nUSE foo;\nUSE bar;\n"

	got, err := ExtractName(text)
	require.NoError(t, err)
	assert.Equal(t, "foo", got)

	_, err = Transformer{StrictUse: true}.ExtractName(text)
	assert.ErrorIs(t, err, ErrMultipleUseStatements)

	got, err = Transformer{StrictUse: true}.ExtractName("CREATE DATABASE foo;\nUSE `foo`;\n")
	require.NoError(t, err)
	assert.Equal(t, "foo", got)
}

func TestStripIdempotent(t *testing.T) {
	_, body, err := Transform("", mysqldumpOutput)
	require.NoError(t, err)
	assert.Equal(t, body, Strip(body))
}

func TestStripDropsLifecycleLines(t *testing.T) {
	in := "DROP SCHEMA IF EXISTS foo;\nCREATE SCHEMA foo;\n\nUSE foo;\nSELECT 1;\n\n"
	assert.Equal(t, "\nSELECT 1;\n\n", Strip(in))
}

func TestStripWithoutTrailingNewline(t *testing.T) {
	assert.Equal(t, "SELECT 1;", Strip("USE foo;\nSELECT 1;"))
	assert.Equal(t, "", Strip(""))
}
