package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
)

// PostgresWalletStore implements the store.WalletStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWalletStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWalletStore creates a new PostgreSQL implementation of the
// WalletStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresWalletStore(db store.DBTX, logger *slog.Logger) *PostgresWalletStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWalletStore{
		db:     db,
		logger: logger.With(slog.String("component", "wallet_store")),
	}
}

// Ensure PostgresWalletStore implements store.WalletStore interface
var _ store.WalletStore = (*PostgresWalletStore)(nil)

// WithTx implements store.WalletStore.WithTx
func (s *PostgresWalletStore) WithTx(tx *sql.Tx) store.WalletStore {
	return &PostgresWalletStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.WalletStore.Create
// Returns store.ErrDuplicate if the user already has a wallet.
func (s *PostgresWalletStore) Create(ctx context.Context, wallet *domain.GemWallet) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := wallet.Validate(); err != nil {
		log.Warn("wallet validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", wallet.UserID.String()))
		return err
	}

	query := `
		INSERT INTO gem_wallets
			(user_id, sapphire, emerald, ruby, diamond, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		wallet.UserID,
		wallet.Balances[0], wallet.Balances[1], wallet.Balances[2], wallet.Balances[3],
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create wallet",
			slog.String("error", err.Error()),
			slog.String("user_id", wallet.UserID.String()))
		return MapError(err)
	}

	log.Info("wallet created", slog.String("user_id", wallet.UserID.String()))
	return nil
}

// Get implements store.WalletStore.Get
// Returns store.ErrWalletNotFound if the wallet does not exist.
func (s *PostgresWalletStore) Get(ctx context.Context, userID uuid.UUID) (*domain.GemWallet, error) {
	query := `
		SELECT user_id, sapphire, emerald, ruby, diamond, created_at, updated_at
		FROM gem_wallets
		WHERE user_id = $1
	`
	return s.getWallet(ctx, query, userID)
}

// GetForUpdate implements store.WalletStore.GetForUpdate
// It locks the wallet row so the balance re-check and the decrement happen
// under the same lock.
// Returns store.ErrWalletNotFound if the wallet does not exist.
func (s *PostgresWalletStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.GemWallet, error) {
	query := `
		SELECT user_id, sapphire, emerald, ruby, diamond, created_at, updated_at
		FROM gem_wallets
		WHERE user_id = $1
		FOR UPDATE
	`
	return s.getWallet(ctx, query, userID)
}

// getWallet runs a single-row wallet query and scans the result.
func (s *PostgresWalletStore) getWallet(
	ctx context.Context,
	query string,
	userID uuid.UUID,
) (*domain.GemWallet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var wallet domain.GemWallet
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.Balances[0], &wallet.Balances[1], &wallet.Balances[2], &wallet.Balances[3],
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("wallet not found", slog.String("user_id", userID.String()))
			return nil, store.ErrWalletNotFound
		}
		log.Error("failed to get wallet",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return &wallet, nil
}

// UpdateBalances implements store.WalletStore.UpdateBalances
// Returns store.ErrWalletNotFound if the wallet does not exist.
func (s *PostgresWalletStore) UpdateBalances(
	ctx context.Context,
	userID uuid.UUID,
	balances domain.GemCost,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := balances.Validate(); err != nil {
		log.Warn("wallet balances validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	query := `
		UPDATE gem_wallets
		SET sapphire = $1, emerald = $2, ruby = $3, diamond = $4, updated_at = $5
		WHERE user_id = $6
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		balances[0], balances[1], balances[2], balances[3],
		time.Now().UTC(),
		userID,
	)
	if err != nil {
		log.Error("failed to update wallet balances",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "gem wallet"); err != nil {
		return err
	}

	log.Debug("wallet balances updated", slog.String("user_id", userID.String()))
	return nil
}

// AppendTransaction implements store.WalletStore.AppendTransaction
// Ledger rows are immutable once written.
func (s *PostgresWalletStore) AppendTransaction(
	ctx context.Context,
	txn *domain.GemTransaction,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := txn.Validate(); err != nil {
		log.Warn("gem transaction validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", txn.UserID.String()))
		return err
	}

	query := `
		INSERT INTO gem_transactions
			(id, user_id, kind, amount, reason, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		txn.ID,
		txn.UserID,
		txn.Kind,
		txn.Amount,
		txn.Reason,
		txn.ReferenceID,
		txn.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append gem transaction",
			slog.String("error", err.Error()),
			slog.String("user_id", txn.UserID.String()),
			slog.String("reason", txn.Reason))
		return MapError(err)
	}

	log.Debug("gem transaction appended",
		slog.String("user_id", txn.UserID.String()),
		slog.String("kind", string(txn.Kind)),
		slog.Int("amount", txn.Amount),
		slog.String("reason", txn.Reason))
	return nil
}

// ListTransactions implements store.WalletStore.ListTransactions
// It returns a page of the user's ledger, newest first, plus the total count.
func (s *PostgresWalletStore) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.GemTransaction, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM gem_transactions WHERE user_id = $1`
	if err := s.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		log.Error("failed to count gem transactions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}

	query := `
		SELECT id, user_id, kind, amount, reason, reference_id, created_at
		FROM gem_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query gem transactions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, 0, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var txns []*domain.GemTransaction
	for rows.Next() {
		var txn domain.GemTransaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Kind,
			&txn.Amount,
			&txn.Reason,
			&txn.ReferenceID,
			&txn.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan gem transaction row", slog.String("error", err.Error()))
			return nil, 0, MapError(err)
		}
		txns = append(txns, &txn)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning gem transaction rows", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	if txns == nil {
		txns = []*domain.GemTransaction{}
	}

	return txns, total, nil
}
