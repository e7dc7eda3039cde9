package faqrepo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS faq_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id  TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT,
	category   TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_faq_items_tenant_created ON faq_items (tenant_id, created_at DESC);
`

// SQLiteRepository implements faq.QuestionRepository for single-node deployments.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if path == "" {
		path = "data/faq.db"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// FetchRecentQA reads the tenant's newest pairs.
func (r *SQLiteRepository) FetchRecentQA(ctx context.Context, tenantID string, limit int) ([]faq.QAItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(id AS TEXT), tenant_id, question, answer, category
		FROM faq_items
		WHERE tenant_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query faq items: %w", err)
	}
	defer rows.Close()

	var items []faq.QAItem
	for rows.Next() {
		item, err := scanQAItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveQA inserts the pairs in one transaction.
func (r *SQLiteRepository) SaveQA(ctx context.Context, tenantID string, items []faq.QAItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO faq_items (tenant_id, question, answer, category) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, tenantID, item.Question, item.Answer, item.Category); err != nil {
			return fmt.Errorf("insert faq item: %w", err)
		}
	}
	return tx.Commit()
}

var _ faq.QuestionRepository = (*SQLiteRepository)(nil)
