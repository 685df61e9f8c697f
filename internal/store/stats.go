package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// StatsStore defines the interface for user stats and XP log persistence.
type StatsStore interface {
	// Create saves a new stats row. Returns ErrDuplicate if one already exists.
	Create(ctx context.Context, stats *domain.UserStats) error

	// Get retrieves the user's stats without locking.
	// Returns ErrUserStatsNotFound if the row does not exist.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// GetForUpdate retrieves the user's stats with a row-level lock using
	// SELECT FOR UPDATE. Use inside the transaction that will update the row.
	// Returns ErrUserStatsNotFound if the row does not exist.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// Update overwrites the stats row.
	// Returns ErrUserStatsNotFound if the row does not exist.
	Update(ctx context.Context, stats *domain.UserStats) error

	// AppendXpLog saves one immutable XP audit row.
	AppendXpLog(ctx context.Context, entry *domain.XpLogEntry) error

	// WithTx returns a new StatsStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) StatsStore
}
