package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-live-service/internal/domain"
)

// BankLoader loads question banks stored as one JSONB row per question.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, category string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM question_bank WHERE lower(category) = lower($1) ORDER BY id`, category)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var bank []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		if q.Category == "" {
			q.Category = category
		}
		bank = append(bank, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	return bank, nil
}

// SaveBank replaces the stored bank of a category.
func (l *BankLoader) SaveBank(ctx context.Context, category string, questions []domain.Question) error {
	return l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM question_bank WHERE lower(category) = lower($1)`, category); err != nil {
			return fmt.Errorf("clear bank: %w", err)
		}
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question: %w", err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO question_bank (category, data) VALUES ($1, $2)`, category, raw); err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
		return nil
	})
}
