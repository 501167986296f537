// Package sqlite implements the repository interfaces on SQLite via
// database/sql.
//
// modernc.org/sqlite is a pure-Go translation of the SQLite C code — no
// CGo, so cross-compilation stays trivial and tests can use ":memory:"
// databases with zero setup.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests) and runs
// migrations.
//
// The pool is capped at a single connection: SQLite allows one writer at a
// time anyway, and a one-connection pool also makes ":memory:" behave —
// every pooled connection would otherwise get its own empty in-memory
// database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The delete cascades
	// (user → contributions/authored objects, project → issues →
	// comments) depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Per-entity store accessors. Each store is a thin view over the same
// connection pool; the split exists because the repository interfaces
// share method names (Create, GetByID, ...) that one receiver type could
// not carry for every entity at once.

func (db *DB) Users() *UserStore               { return &UserStore{db: db} }
func (db *DB) Projects() *ProjectStore         { return &ProjectStore{db: db} }
func (db *DB) Contributors() *ContributorStore { return &ContributorStore{db: db} }
func (db *DB) Issues() *IssueStore             { return &IssueStore{db: db} }
func (db *DB) Comments() *CommentStore         { return &CommentStore{db: db} }
func (db *DB) Blacklist() *BlacklistStore      { return &BlacklistStore{db: db} }

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			username           TEXT NOT NULL UNIQUE,
			email              TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL,
			age                INTEGER NOT NULL,
			can_be_contacted   INTEGER NOT NULL DEFAULT 0,
			can_data_be_shared INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS projects (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL,
			author_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS contributors (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			role       TEXT NOT NULL DEFAULT 'CONTRIBUTOR',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, project_id)
		);

		CREATE TABLE IF NOT EXISTS issues (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			project_id  INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			author_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			assignee_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			priority    TEXT NOT NULL,
			tag         TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'TODO',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS comments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL,
			author_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			issue_id    INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			uuid        TEXT NOT NULL UNIQUE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS token_blacklist (
			jti        TEXT PRIMARY KEY,
			expires_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_contributors_project ON contributors(project_id);
		CREATE INDEX IF NOT EXISTS idx_contributors_user ON contributors(user_id);
		CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id);
		CREATE INDEX IF NOT EXISTS idx_comments_issue ON comments(issue_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure,
// optionally on a specific "table.column". modernc.org/sqlite exposes the
// failing constraint only in the error text.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}
