// Package persistence stores session-scoped values (the decision-service
// credential) and the day-report history. SQLite by default, Postgres
// optional. Nothing here survives EndSession.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/ceo-sim/internal/engine"
)

// Dialect selects the database backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const keyCredential = "credential"

// DB wraps a connection scoped to one session.
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	session string
}

// ParseDialect normalizes a dialect name. Empty means SQLite.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DialectSQLite:
		return DialectSQLite, nil
	case DialectPostgres, "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported db dialect %q", s)
	}
}

// Open connects, migrates and starts a fresh session.
func Open(dialect Dialect, dsn string) (*DB, error) {
	var driver string
	switch dialect {
	case DialectSQLite, "":
		dialect = DialectSQLite
		driver = "sqlite"
		if dsn == "" {
			dsn = "ceosim.db"
		}
		if dsn != ":memory:" && !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	case DialectPostgres:
		driver = "pgx"
		if dsn == "" {
			return nil, errors.New("postgres dialect requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported db dialect %q", dialect)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One writer; also keeps :memory: on a single connection.
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn, dialect: dialect, session: uuid.NewString()}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("session store opened", "dialect", dialect, "session", db.session)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SessionID identifies this process's session.
func (db *DB) SessionID() string {
	return db.session
}

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_values (
			session_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (session_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS day_reports (
			session_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			closing_cash TEXT NOT NULL,
			revenue TEXT NOT NULL,
			cost TEXT NOT NULL,
			event_cost TEXT NOT NULL,
			events INTEGER NOT NULL,
			headcount INTEGER NOT NULL,
			action TEXT NOT NULL,
			title TEXT NOT NULL,
			outcome TEXT NOT NULL,
			PRIMARY KEY (session_id, day)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SetValue stores a session-scoped key/value pair.
func (db *DB) SetValue(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO session_values (session_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value`),
		db.session, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Value reads a session-scoped value. Missing keys return "".
func (db *DB) Value(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, db.conn.Rebind(
		"SELECT value FROM session_values WHERE session_id = ? AND key = ?"),
		db.session, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// SetCredential stores the decision-service credential for this session.
func (db *DB) SetCredential(ctx context.Context, credential string) error {
	return db.SetValue(ctx, keyCredential, credential)
}

// Credential returns the stored credential, or "" if none was set.
func (db *DB) Credential(ctx context.Context) (string, error) {
	return db.Value(ctx, keyCredential)
}

// SaveDayReport records a finished day (replacing any earlier row for it).
func (db *DB) SaveDayReport(ctx context.Context, r engine.DayReport) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO day_reports
			(session_id, day, closing_cash, revenue, cost, event_cost, events, headcount, action, title, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, day) DO UPDATE SET
			closing_cash = excluded.closing_cash,
			revenue = excluded.revenue,
			cost = excluded.cost,
			event_cost = excluded.event_cost,
			events = excluded.events,
			headcount = excluded.headcount,
			action = excluded.action,
			title = excluded.title,
			outcome = excluded.outcome`),
		db.session, r.Day,
		r.ClosingCash.String(), r.Revenue.Round(4).String(), r.Cost.Round(4).String(), r.EventCost.String(),
		r.Events, r.Headcount, string(r.Action), r.Title, string(r.Outcome))
	if err != nil {
		return fmt.Errorf("save day %d: %w", r.Day, err)
	}
	return nil
}

// DayReports returns the most recent reports, newest first. limit <= 0
// returns all.
func (db *DB) DayReports(ctx context.Context, limit int) ([]engine.DayReport, error) {
	q := `SELECT day, closing_cash, revenue, cost, event_cost, events, headcount, action, title, outcome
		FROM day_reports WHERE session_id = ? ORDER BY day DESC`
	args := []any{db.session}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	var reports []engine.DayReport
	if err := db.conn.SelectContext(ctx, &reports, db.conn.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("day reports: %w", err)
	}
	return reports, nil
}

// EndSession deletes everything stored for this session.
func (db *DB) EndSession(ctx context.Context) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"session_values", "day_reports"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE session_id = ?"), db.session); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("session ended", "session", db.session)
	return nil
}
