package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/logger"
	"github.com/pp-cti/policr/internal/policr/submit"
)

// Table stores one row per submission attempt.
const Table = "policr_submissions"

// Ledger records submission outcomes in postgres, mysql or a local sqlite3
// file. It implements submit.Recorder.
type Ledger struct {
	db     *sql.DB
	driver string
}

var _ submit.Recorder = (*Ledger)(nil)

// Open connects with the configured credentials and creates the table if it
// does not exist yet.
func Open(ctx context.Context, c config.LedgerCfg) (*Ledger, error) {
	port := c.Port
	if port == 0 {
		port = defaultPort(c.Driver)
	}
	dsn := buildDSN(c.Driver, c.User, c.Password, c.Host, port, c.Database)
	db, err := sql.Open(c.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if c.Driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect ledger %s %s: %w", c.Driver, c.Database, err)
	}

	l := New(db, c.Driver)
	if err := l.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.L().Debugw("ledger ready", "driver", c.Driver, "host", c.Host, "database", c.Database)
	return l, nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver string) *Ledger { return &Ledger{db: db, driver: driver} }

func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schemaDDL(l.driver)); err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}
	return nil
}

// Record inserts one submission outcome.
func (l *Ledger) Record(ctx context.Context, r submit.Record) error {
	q := fmt.Sprintf(`INSERT INTO %s (submitted_at, endpoint, transformer, policy_uuid, hierarchy_uuid, status_code, outcome) VALUES (%s)`,
		Table, placeholders(l.driver, 7))
	_, err := l.db.ExecContext(ctx, q,
		r.SubmittedAt, r.Endpoint, r.Transformer, r.PolicyUUID, r.HierarchyUUID, r.StatusCode, r.Outcome)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", Table, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]submit.Record, error) {
	q := fmt.Sprintf(`SELECT submitted_at, endpoint, transformer, policy_uuid, hierarchy_uuid, status_code, outcome FROM %s ORDER BY submitted_at DESC LIMIT %s`,
		Table, placeholders(l.driver, 1))
	rows, err := l.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", Table, err)
	}
	defer rows.Close()

	var out []submit.Record
	for rows.Next() {
		var r submit.Record
		if err := rows.Scan(&r.SubmittedAt, &r.Endpoint, &r.Transformer, &r.PolicyUUID, &r.HierarchyUUID, &r.StatusCode, &r.Outcome); err != nil {
			return nil, fmt.Errorf("scan %s: %w", Table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// buildDSN constructs a DSN for postgres/mysql/sqlite3. For sqlite3 db is
// the database file path and the network settings are ignored.
func buildDSN(driver, user, pass, host string, port int, db string) string {
	switch driver {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, pass, host, port, db)
	case "sqlite3":
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", db)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", user, pass, host, port, db)
}

func defaultPort(driver string) int {
	switch driver {
	case "postgres":
		return 5432
	case "sqlite3":
		return 0
	}
	return 3306
}

// placeholders returns n bind parameters in the driver's syntax.
func placeholders(driver string, n int) string {
	ps := make([]string, n)
	for i := range ps {
		if driver == "postgres" {
			ps[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ps[i] = "?"
		}
	}
	return strings.Join(ps, ", ")
}

func schemaDDL(driver string) string {
	if driver == "postgres" {
		return `CREATE TABLE IF NOT EXISTS ` + Table + ` (
  id BIGSERIAL PRIMARY KEY,
  submitted_at TIMESTAMPTZ NOT NULL,
  endpoint TEXT NOT NULL,
  transformer VARCHAR(128) NOT NULL,
  policy_uuid VARCHAR(64) NOT NULL,
  hierarchy_uuid VARCHAR(64) NOT NULL,
  status_code INT NOT NULL,
  outcome VARCHAR(16) NOT NULL
)`
	}
	if driver == "sqlite3" {
		return `CREATE TABLE IF NOT EXISTS ` + Table + ` (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  submitted_at TIMESTAMP NOT NULL,
  endpoint TEXT NOT NULL,
  transformer TEXT NOT NULL,
  policy_uuid TEXT NOT NULL,
  hierarchy_uuid TEXT NOT NULL,
  status_code INTEGER NOT NULL,
  outcome TEXT NOT NULL
)`
	}
	return `CREATE TABLE IF NOT EXISTS ` + Table + ` (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  submitted_at DATETIME(6) NOT NULL,
  endpoint TEXT NOT NULL,
  transformer VARCHAR(128) NOT NULL,
  policy_uuid VARCHAR(64) NOT NULL,
  hierarchy_uuid VARCHAR(64) NOT NULL,
  status_code INT NOT NULL,
  outcome VARCHAR(16) NOT NULL
)`
}
