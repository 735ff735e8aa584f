// Package database is a thin passthrough to the course MySQL database. Its
// single job is running whatever SQL the assistant asks for and rendering
// the rows as text the model can read back.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	logx "github.com/tacs-assistant/server/pkg/logger"
)

type Config struct {
	Host     string `envconfig:"MYSQL_HOST" default:"localhost"`
	Port     int    `envconfig:"MYSQL_PORT" default:"3306"`
	Database string `envconfig:"MYSQL_DATABASE" required:"true"`
	User     string `envconfig:"MYSQL_USER" required:"true"`
	Password string `envconfig:"MYSQL_PASSWORD"`
}

func (c Config) dsn() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	mc.DBName = c.Database
	mc.User = c.User
	mc.Passwd = c.Password
	return mc.FormatDSN()
}

type DB struct {
	db *sql.DB
}

// Open prepares a handle to the configured database. The server is not
// contacted until the first query; use Healthcheck for that.
func Open(cfg Config) (*DB, error) {
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Query executes the given SQL and renders the result set as a list of row
// tuples, e.g. [(1, Juan, Perez), (2, Ana, Gomez)]. An empty result renders
// as an empty string so the caller can substitute its own sentinel.
func (d *DB) Query(ctx context.Context, query string) (string, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var rendered []string
	for rows.Next() {
		values := make([]sql.RawBytes, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return "", err
		}

		fields := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				fields[i] = "NULL"
				continue
			}
			fields[i] = string(v)
		}
		rendered = append(rendered, "("+strings.Join(fields, ", ")+")")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(rendered) == 0 {
		return "", nil
	}
	return "[" + strings.Join(rendered, ", ") + "]", nil
}

// Healthcheck reports "OK" when the database answers a trivial query and
// "FAILED" otherwise.
func (d *DB) Healthcheck(ctx context.Context) string {
	if _, err := d.Query(ctx, "SELECT 1"); err != nil {
		logx.Error().Err(err).Msg("database healthcheck failed")
		return "FAILED"
	}
	return "OK"
}
