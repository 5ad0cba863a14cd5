// Package dump prepares mysqldump output for replay under a chosen database
// name. It validates the database lifecycle statements a single-database dump
// carries, optionally renames the database, and strips those statements so
// the body can be replayed into any database.
package dump

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrMissingCreateStatement   = errors.New("dump does not contain a CREATE DATABASE statement")
	ErrMultipleCreateStatements = errors.New("dump contains multiple CREATE DATABASE statements")
	ErrMissingUseStatement      = errors.New("dump does not contain a USE statement")
	ErrMultipleUseStatements    = errors.New("dump contains multiple USE statements")
)

var (
	createPattern = regexp.MustCompile(`(?m)CREATE (?:SCHEMA|DATABASE) [^;\n]+;\r?$`)

	// RE2 has no backreferences: both quote groups are captured and compared.
	usePattern = regexp.MustCompile("(?m)USE ([`\"]?)([^`\";\n]+)([`\"]?);\r?$")

	stripPatterns = []*regexp.Regexp{
		regexp.MustCompile(`DROP (?:DATABASE|SCHEMA) IF EXISTS [^;]+;`),
		regexp.MustCompile(`CREATE (?:DATABASE|SCHEMA) [^;]+;`),
		regexp.MustCompile(`USE [^;]+;`),
	}
)

// Transformer rewrites dumps. The zero value takes the first USE statement
// when several are present; StrictUse rejects such dumps instead.
type Transformer struct {
	StrictUse bool
}

// Transform runs the tolerant Transformer.
func Transform(overrideName, text string) (string, string, error) {
	return Transformer{}.Transform(overrideName, text)
}

// Transform returns the database name the body should be replayed under and
// the body with its DROP DATABASE, CREATE DATABASE and USE lines removed.
//
// When overrideName is set and differs from the name found in the dump, every
// literal occurrence of the old name is replaced, including occurrences that
// are only part of a longer identifier.
func (t Transformer) Transform(overrideName, text string) (string, string, error) {
	name, err := t.ExtractName(text)
	if err != nil {
		return "", "", err
	}

	if overrideName != "" && overrideName != name {
		text = strings.ReplaceAll(text, name, overrideName)
		name = overrideName
	}

	return name, Strip(text), nil
}

// ExtractName validates the lifecycle statements of text and returns the
// database name its USE statement selects.
func (t Transformer) ExtractName(text string) (string, error) {
	switch n := len(createPattern.FindAllStringIndex(text, 2)); {
	case n == 0:
		return "", ErrMissingCreateStatement
	case n > 1:
		return "", ErrMultipleCreateStatements
	}

	var names []string
	for _, m := range usePattern.FindAllStringSubmatch(text, -1) {
		if m[1] != m[3] {
			continue
		}
		names = append(names, m[2])
		if !t.StrictUse {
			break
		}
	}

	switch {
	case len(names) == 0:
		return "", ErrMissingUseStatement
	case t.StrictUse && len(names) > 1:
		return "", ErrMultipleUseStatements
	}
	return names[0], nil
}

// ExtractName runs ExtractName of the tolerant Transformer.
func ExtractName(text string) (string, error) {
	return Transformer{}.ExtractName(text)
}

// Strip drops every line holding a database lifecycle statement. All other
// lines, blank ones and a trailing newline included, are kept in order.
func Strip(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0:0]
	for _, line := range lines {
		if !isLifecycleLine(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func isLifecycleLine(line string) bool {
	for _, p := range stripPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
