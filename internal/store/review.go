package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// ReviewStore defines the interface for the append-only review audit trail.
// Entries are immutable once written; there are no update or delete methods.
type ReviewStore interface {
	// Append saves a new review entry. It handles domain validation internally.
	Append(ctx context.Context, entry *domain.ReviewEntry) error

	// ListByTopic returns a page of the topic's review history, newest first,
	// along with the total number of entries for the topic.
	ListByTopic(
		ctx context.Context,
		topicID uuid.UUID,
		limit, offset int,
	) ([]*domain.ReviewEntry, int, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
