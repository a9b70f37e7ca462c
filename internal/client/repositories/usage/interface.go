package usage

import (
	"context"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Repository describes the append-only AI usage ledger. Rows are immutable
// once written; the only mutation is the retention purge.
type Repository interface {
	// Insert appends one usage row and returns its id.
	Insert(ctx context.Context, l models.AiUsageLog) (int64, error)

	// CountForMonth reports how many invocations were logged for a
	// subscription month ("YYYY-MM").
	CountForMonth(ctx context.Context, month string) (int64, error)

	// ListForMonth returns the month's rows, oldest first.
	ListForMonth(ctx context.Context, month string) ([]models.AiUsageLog, error)

	// DeleteOlderThan removes rows with timestamp strictly before cutoff
	// (epoch millis) and reports how many went away.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
