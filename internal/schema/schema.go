// Package schema loads the ordered table definitions a session creates when
// it initializes its database.
package schema

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// TableDef is one table and the statement that creates it.
type TableDef struct {
	Name      string `toml:"name" yaml:"name"`
	Statement string `toml:"statement" yaml:"statement"`
}

// Schema is an ordered list of tables. Tables are created in order and
// dropped in reverse order, so referenced tables come first.
type Schema struct {
	Tables []TableDef `toml:"tables" yaml:"tables"`
}

// Names returns the table names in creation order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Load reads a schema file. The format follows the extension: .toml, or
// .yaml/.yml.
func Load(fs afero.Fs, path string) (*Schema, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var s Schema
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, fmt.Errorf("parse schema: %w", err)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown schema keys: %s", strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("parse schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema format %q (use .toml, .yaml or .yml)", ext)
	}

	if err := s.Normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Normalize fills missing table names from their CREATE TABLE statements
// and validates the result.
func (s *Schema) Normalize() error {
	p := parser.New()
	seen := make(map[string]bool, len(s.Tables))
	var errs []error

	for i := range s.Tables {
		t := &s.Tables[i]
		t.Name = strings.TrimSpace(t.Name)
		t.Statement = strings.TrimSpace(t.Statement)

		if t.Statement == "" {
			errs = append(errs, fmt.Errorf("table %d: statement is required", i+1))
			continue
		}
		if t.Name == "" {
			name, err := TableName(p, t.Statement)
			if err != nil {
				errs = append(errs, fmt.Errorf("table %d: %w", i+1, err))
				continue
			}
			t.Name = name
		}

		key := strings.ToLower(t.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("table %q is defined more than once", t.Name))
		}
		seen[key] = true
	}
	return errors.Join(errs...)
}

// TableName returns the table a CREATE TABLE statement creates.
func TableName(p *parser.Parser, statement string) (string, error) {
	nodes, _, err := p.Parse(statement, "", "")
	if err != nil {
		return "", fmt.Errorf("derive table name: %w", err)
	}
	if len(nodes) != 1 {
		return "", fmt.Errorf("derive table name: expected one statement, got %d", len(nodes))
	}
	create, ok := nodes[0].(*ast.CreateTableStmt)
	if !ok {
		return "", errors.New("derive table name: statement is not CREATE TABLE")
	}
	return create.Table.Name.O, nil
}
