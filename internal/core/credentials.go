package core

import (
	"errors"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

const DefaultMySQLPort = "3306"

// Credentials are the connection parameters shared by the driver connection and
// the command-line tools.
type Credentials struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Validate checks that the parameters needed to reach a server are present.
func (c Credentials) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.User == "" {
		errs = append(errs, errors.New("user is required"))
	}
	return errors.Join(errs...)
}

// WithDatabase returns a copy of c pointing at database name.
func (c Credentials) WithDatabase(name string) Credentials {
	c.Database = name
	return c
}

// MySQLDSN formats the credentials as a go-sql-driver/mysql DSN.
func (c Credentials) MySQLDSN() string {
	port := c.Port
	if port == "" {
		port = DefaultMySQLPort
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}
