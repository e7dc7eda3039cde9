package faqrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// PostgresRepository implements faq.QuestionRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FetchRecentQA reads the tenant's newest pairs.
func (r *PostgresRepository) FetchRecentQA(ctx context.Context, tenantID string, limit int) ([]faq.QAItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, tenant_id, question, answer, category
		FROM faq_items
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
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

// SaveQA inserts the pairs in one batch.
func (r *PostgresRepository) SaveQA(ctx context.Context, tenantID string, items []faq.QAItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO faq_items (tenant_id, question, answer, category)
			VALUES ($1, $2, $3, $4)
		`, tenantID, item.Question, item.Answer, item.Category)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQAItem(row rowScanner) (faq.QAItem, error) {
	var (
		item     faq.QAItem
		answer   sql.NullString
		category sql.NullString
	)
	if err := row.Scan(&item.ID, &item.TenantID, &item.Question, &answer, &category); err != nil {
		return faq.QAItem{}, fmt.Errorf("scan faq item: %w", err)
	}
	item.Answer = answer.String
	item.Category = category.String
	return item, nil
}

var _ faq.QuestionRepository = (*PostgresRepository)(nil)
