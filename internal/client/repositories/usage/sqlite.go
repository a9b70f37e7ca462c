package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, l models.AiUsageLog) (int64, error) {
	query := `INSERT INTO ai_usage_logs
			(timestamp, feature_type, input_tokens, output_tokens, estimated_cost_usd,
			 success, subscription_month, subscription_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		l.Timestamp.UnixMilli(), string(l.FeatureType), l.InputTokens, l.OutputTokens,
		l.EstimatedCostUsd, l.Success, l.SubscriptionMonth, string(l.SubscriptionType))
	if err != nil {
		return 0, fmt.Errorf("failed to insert usage log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get usage log id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) CountForMonth(ctx context.Context, month string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ai_usage_logs WHERE subscription_month = ?`, month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage logs: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListForMonth(ctx context.Context, month string) ([]models.AiUsageLog, error) {
	query := `SELECT id, timestamp, feature_type, input_tokens, output_tokens,
			estimated_cost_usd, success, subscription_month, subscription_type
		FROM ai_usage_logs WHERE subscription_month = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("failed to select usage logs: %w", err)
	}
	defer rows.Close()

	var result []models.AiUsageLog
	for rows.Next() {
		var (
			l       models.AiUsageLog
			ts      int64
			feature string
			subType string
		)
		err := rows.Scan(&l.ID, &ts, &feature, &l.InputTokens, &l.OutputTokens,
			&l.EstimatedCostUsd, &l.Success, &l.SubscriptionMonth, &subType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage log row: %w", err)
		}
		l.Timestamp = time.UnixMilli(ts).UTC()
		l.FeatureType = models.AiFeature(feature)
		l.SubscriptionType = models.SubscriptionType(subType)
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_usage_logs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge usage logs: %w", err)
	}
	return res.RowsAffected()
}
