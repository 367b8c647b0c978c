// Package provision creates the external fixtures integration tests need.
package provision

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"

	"layertest/internal/logging"
)

// Environment keys read when no explicit DSN is configured.
const (
	EnvHost     = "DB_HOST"
	EnvPort     = "DB_PORT"
	EnvUser     = "DB_USERNAME"
	EnvPassword = "DB_PASSWORD"
)

const dialTimeout = 5 * time.Second

var validName = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// ValidDatabaseName reports whether name is safe to interpolate into DDL.
func ValidDatabaseName(name string) bool {
	return validName.MatchString(name)
}

// DSNFromLookup builds a server level DSN from DB_* variables, falling back
// to a local root connection.
func DSNFromLookup(lookup func(string) (string, bool)) string {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := mysql.NewConfig()
	cfg.User = get(EnvUser, "root")
	cfg.Passwd = get(EnvPassword, "")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(get(EnvHost, "127.0.0.1"), get(EnvPort, "3306"))
	cfg.Timeout = dialTimeout
	return cfg.FormatDSN()
}

// MySQL provisions schemas on a MySQL server.
type MySQL struct {
	dsn string
}

// NewMySQL creates a provisioner for the server addressed by dsn. The DSN
// must not select a database.
func NewMySQL(dsn string) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	if cfg.DBName != "" {
		return nil, fmt.Errorf("database DSN must not name a database, got %q", cfg.DBName)
	}
	return &MySQL{dsn: dsn}, nil
}

// EnsureDatabase creates name if it does not exist yet.
func (m *MySQL) EnsureDatabase(ctx context.Context, name string) error {
	if !ValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}

	db, err := sql.Open("mysql", m.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := databaseExists(ctx, db, name)
	if err != nil {
		return fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if exists {
		logging.Debug("provision", "database %s already exists", name)
		return nil
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	logging.Info("provision", "created database %s", name)
	return nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}
