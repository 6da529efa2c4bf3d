package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/reportdesk/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL DEFAULT 0,
	title      TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL DEFAULT '',
	file_name  TEXT NOT NULL DEFAULT '',
	topics     TEXT NOT NULL DEFAULT '[]',
	categories TEXT NOT NULL DEFAULT '[]',
	keywords   TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_reports_position ON reports(position);
`

// SQLite is a Source backed by a "reports" table. Tag columns hold JSON
// arrays; rows load in position order.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Load reads every report row.
func (s *SQLite) Load(ctx context.Context) ([]models.Report, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, date, file_name, topics, categories, keywords
		FROM reports
		ORDER BY position, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var (
			r                          models.Report
			topics, categories, keywds string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Date, &r.FileName, &topics, &categories, &keywds); err != nil {
			return nil, fmt.Errorf("catalog: scan report: %w", err)
		}
		for _, col := range []struct {
			raw string
			dst *[]string
		}{{topics, &r.Topics}, {categories, &r.Categories}, {keywds, &r.Keywords}} {
			if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
				return nil, fmt.Errorf("catalog: report %s: decode tags: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Replace swaps the table contents for reports inside one transaction,
// keeping their slice order.
func (s *SQLite) Replace(ctx context.Context, reports []models.Report) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM reports`); err != nil {
		return fmt.Errorf("catalog: clear reports: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reports (id, position, title, date, file_name, topics, categories, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("catalog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range reports {
		r = r.Normalized()
		topics, _ := json.Marshal(r.Topics)
		categories, _ := json.Marshal(r.Categories)
		keywords, _ := json.Marshal(r.Keywords)
		if _, err := stmt.ExecContext(ctx, r.ID, i, r.Title, r.Date, r.FileName,
			string(topics), string(categories), string(keywords)); err != nil {
			return fmt.Errorf("catalog: insert report %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
