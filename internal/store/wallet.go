package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// WalletStore defines the interface for gem wallet and ledger persistence.
// The wallet balance and the transaction ledger must always be written in the
// same database transaction: for any (user, kind) pair the balance equals the
// sum of all ledger amounts for that pair.
type WalletStore interface {
	// Create saves a new wallet. Returns ErrDuplicate if the user already has one.
	Create(ctx context.Context, wallet *domain.GemWallet) error

	// Get retrieves the user's wallet without locking.
	// Returns ErrWalletNotFound if the wallet does not exist.
	Get(ctx context.Context, userID uuid.UUID) (*domain.GemWallet, error)

	// GetForUpdate retrieves the user's wallet with a row-level lock using
	// SELECT FOR UPDATE. Every debit must re-check the balance through this
	// method inside the transaction that performs the decrement.
	// Returns ErrWalletNotFound if the wallet does not exist.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.GemWallet, error)

	// UpdateBalances overwrites the wallet's balances.
	// Returns ErrWalletNotFound if the wallet does not exist.
	UpdateBalances(ctx context.Context, userID uuid.UUID, balances domain.GemCost) error

	// AppendTransaction saves one immutable ledger row.
	AppendTransaction(ctx context.Context, txn *domain.GemTransaction) error

	// ListTransactions returns a page of the user's ledger, newest first,
	// along with the total number of rows for the user.
	ListTransactions(
		ctx context.Context,
		userID uuid.UUID,
		limit, offset int,
	) ([]*domain.GemTransaction, int, error)

	// WithTx returns a new WalletStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) WalletStore
}
