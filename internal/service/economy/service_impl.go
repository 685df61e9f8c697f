package economy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/domain/progression"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/stats"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
)

// Verify interface compliance at compile time
var _ EconomyService = (*economyServiceImpl)(nil)

// economyServiceImpl implements the EconomyService interface.
type economyServiceImpl struct {
	txRunner     store.TxRunner
	topicStore   store.TopicStore
	walletStore  store.WalletStore
	statsStore   store.StatsStore
	statsService stats.StatsService
	progression  progression.Service
	logger       *slog.Logger
}

// NewEconomyService creates a new EconomyService implementation.
func NewEconomyService(
	txRunner store.TxRunner,
	topicStore store.TopicStore,
	walletStore store.WalletStore,
	statsStore store.StatsStore,
	statsService stats.StatsService,
	progressionService progression.Service,
	logger *slog.Logger,
) EconomyService {
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if topicStore == nil {
		panic("topicStore cannot be nil")
	}
	if walletStore == nil {
		panic("walletStore cannot be nil")
	}
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if statsService == nil {
		panic("statsService cannot be nil")
	}
	if progressionService == nil {
		panic("progressionService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &economyServiceImpl{
		txRunner:     txRunner,
		topicStore:   topicStore,
		walletStore:  walletStore,
		statsStore:   statsStore,
		statsService: statsService,
		progression:  progressionService,
		logger:       logger.With(slog.String("component", "economy_service")),
	}
}

// GetEffectiveCost implements EconomyService.GetEffectiveCost.
func (s *economyServiceImpl) GetEffectiveCost(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*CostBreakdown, error) {
	topic, err := s.topicStore.GetByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, store.ErrTopicNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	if topic.UserID != userID {
		return nil, ErrTopicNotOwned
	}

	discount, err := s.subjectDiscount(ctx, s.topicStore, userID, topic.SubjectID)
	if err != nil {
		return nil, err
	}

	return &CostBreakdown{
		BaseCost:      topic.GemCost,
		Discount:      discount,
		EffectiveCost: topic.GemCost.SubFloorZero(discount),
	}, nil
}

// Purchase implements EconomyService.Purchase.
func (s *economyServiceImpl) Purchase(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*PurchaseOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	var outcome *PurchaseOutcome
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		topicStore := s.topicStore.WithTx(tx)
		walletStore := s.walletStore.WithTx(tx)

		topic, err := topicStore.GetForUpdate(ctx, topicID)
		if err != nil {
			if errors.Is(err, store.ErrTopicNotFound) {
				return ErrTopicNotFound
			}
			return fmt.Errorf("failed to lock topic: %w", err)
		}
		if topic.UserID != userID {
			return ErrTopicNotOwned
		}
		if !topic.IsMasterable() {
			return ErrAlreadyMastered
		}

		// Price under the lock; the discount may have grown since the client
		// fetched the quote, never shrink mid-purchase.
		discount, err := s.subjectDiscount(ctx, topicStore, userID, topic.SubjectID)
		if err != nil {
			return err
		}
		effective := topic.GemCost.SubFloorZero(discount)

		wallet, err := s.lockWallet(ctx, walletStore, userID)
		if err != nil {
			return err
		}
		if !wallet.Covers(effective) {
			return ErrInsufficientGems
		}

		// Debit and ledger rows in the same transaction as the balance check.
		newBalances := wallet.Balances.SubFloorZero(effective)
		if err := walletStore.UpdateBalances(ctx, userID, newBalances); err != nil {
			return fmt.Errorf("failed to update wallet balances: %w", err)
		}
		for i, kind := range domain.GemKinds {
			if effective[i] == 0 {
				continue
			}
			txn, err := domain.NewGemTransaction(
				userID, kind, -effective[i], domain.GemReasonPurchase, &topicID,
			)
			if err != nil {
				return fmt.Errorf("failed to build ledger row: %w", err)
			}
			if err := walletStore.AppendTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to append ledger row: %w", err)
			}
		}

		// Promote straight to mastered with the discount snapshot frozen on
		// the topic row.
		toColumn := domain.ColumnMastered
		masteryCount := s.progression.MasteryThreshold()
		purchased := true
		update := store.TopicUpdate{
			Column:           &toColumn,
			MasteryCount:     &masteryCount,
			ClearNextReview:  true,
			Purchased:        &purchased,
			PurchaseDiscount: &discount,
		}
		if err := topicStore.Update(ctx, topicID, update); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}

		statsStore := s.statsStore.WithTx(tx)
		prestige := s.progression.PrestigeForPurchase(topic.Difficulty)
		if _, err := s.statsService.AddPrestigeInTx(ctx, statsStore, userID, prestige); err != nil {
			return fmt.Errorf("failed to award prestige: %w", err)
		}
		xp := s.progression.PurchaseXp()
		if _, err := s.statsService.GrantXpInTx(
			ctx, statsStore, userID, xp, domain.XpReasonPurchase, &topicID,
		); err != nil {
			return fmt.Errorf("failed to grant purchase xp: %w", err)
		}

		topic.Column = toColumn
		topic.MasteryCount = masteryCount
		topic.NextReviewAt = nil
		topic.Purchased = true
		topic.PurchaseDiscount = discount
		topic.UpdatedAt = now
		wallet.Balances = newBalances
		wallet.UpdatedAt = now
		outcome = &PurchaseOutcome{
			Topic:           topic,
			EffectiveCost:   effective,
			Wallet:          wallet,
			XpAwarded:       xp,
			PrestigeAwarded: prestige,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("topic purchased",
		slog.String("topic_id", topicID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("prestige_awarded", outcome.PrestigeAwarded),
		slog.Int("xp_awarded", outcome.XpAwarded))
	return outcome, nil
}

// Earn implements EconomyService.Earn.
func (s *economyServiceImpl) Earn(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.GemKind,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*domain.GemWallet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	idx, err := domain.GemKindIndex(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGemKind, kind)
	}
	if amount <= 0 {
		return nil, ErrInvalidGemAmount
	}

	var updated *domain.GemWallet
	txErr := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		walletStore := s.walletStore.WithTx(tx)

		wallet, err := s.lockWallet(ctx, walletStore, userID)
		if err != nil {
			return err
		}

		newBalances := wallet.Balances
		newBalances[idx] += amount
		if err := walletStore.UpdateBalances(ctx, userID, newBalances); err != nil {
			return fmt.Errorf("failed to update wallet balances: %w", err)
		}

		txn, err := domain.NewGemTransaction(userID, kind, amount, reason, referenceID)
		if err != nil {
			return fmt.Errorf("failed to build ledger row: %w", err)
		}
		if err := walletStore.AppendTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to append ledger row: %w", err)
		}

		wallet.Balances = newBalances
		wallet.UpdatedAt = time.Now().UTC()
		updated = wallet
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Debug("gems earned",
		slog.String("user_id", userID.String()),
		slog.String("kind", string(kind)),
		slog.Int("amount", amount),
		slog.String("reason", reason))
	return updated, nil
}

// GetWallet implements EconomyService.GetWallet.
func (s *economyServiceImpl) GetWallet(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.GemWallet, error) {
	wallet, err := s.walletStore.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrWalletNotFound) {
			fresh, newErr := domain.NewGemWallet(userID)
			if newErr != nil {
				return nil, newErr
			}
			if createErr := s.walletStore.Create(ctx, fresh); createErr != nil {
				if errors.Is(createErr, store.ErrDuplicate) {
					return s.walletStore.Get(ctx, userID)
				}
				return nil, fmt.Errorf("failed to create wallet: %w", createErr)
			}
			return fresh, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// ListTransactions implements EconomyService.ListTransactions.
func (s *economyServiceImpl) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.GemTransaction, int, error) {
	txns, total, err := s.walletStore.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, total, nil
}

// subjectDiscount computes the user's current discount within a subject: the
// full count of mastered-and-purchased topics, applied to the first canonical
// gem kind only.
func (s *economyServiceImpl) subjectDiscount(
	ctx context.Context,
	topicStore store.TopicStore,
	userID, subjectID uuid.UUID,
) (domain.GemCost, error) {
	count, err := topicStore.CountMasteredPurchasedBySubject(ctx, userID, subjectID)
	if err != nil {
		return domain.ZeroGemCost, &ServiceError{
			Operation: "subject_discount",
			Message:   "failed to count mastered purchased topics",
			Err:       err,
		}
	}
	var discount domain.GemCost
	discount[0] = count
	return discount, nil
}

// lockWallet locks the user's wallet row, creating an empty wallet on first
// access so earn and purchase flows never race account provisioning.
func (s *economyServiceImpl) lockWallet(
	ctx context.Context,
	walletStore store.WalletStore,
	userID uuid.UUID,
) (*domain.GemWallet, error) {
	wallet, err := walletStore.GetForUpdate(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, store.ErrWalletNotFound) {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	fresh, newErr := domain.NewGemWallet(userID)
	if newErr != nil {
		return nil, newErr
	}
	if createErr := walletStore.Create(ctx, fresh); createErr != nil {
		if !errors.Is(createErr, store.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create wallet: %w", createErr)
		}
	}
	return walletStore.GetForUpdate(ctx, userID)
}
