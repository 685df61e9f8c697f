package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GemKind identifies one of the four resource currencies used to price topics.
type GemKind string

// The four gem kinds, in canonical order. Discounts are always applied to the
// first kind in this order, so the order is part of the pricing contract.
const (
	GemSapphire GemKind = "sapphire"
	GemEmerald  GemKind = "emerald"
	GemRuby     GemKind = "ruby"
	GemDiamond  GemKind = "diamond"
)

// GemKindCount is the number of gem kinds in the system.
const GemKindCount = 4

// GemKinds lists every gem kind in canonical order. Index positions match
// the slots of a GemCost vector.
var GemKinds = [GemKindCount]GemKind{GemSapphire, GemEmerald, GemRuby, GemDiamond}

// Common validation errors for gem values.
var (
	ErrNegativeGemAmount = errors.New("gem amount cannot be negative")
	ErrUnknownGemKind    = errors.New("unknown gem kind")
	ErrEmptyWalletUserID = errors.New("gem wallet user ID cannot be empty")
	ErrNegativeBalance   = errors.New("gem wallet balance cannot be negative")
)

// GemCost is a vector of non-negative amounts, one per gem kind in canonical
// order. It is used for base costs, discounts, and effective costs alike.
type GemCost [GemKindCount]int

// ZeroGemCost is the zero vector.
var ZeroGemCost = GemCost{}

// Validate checks that every slot is non-negative.
func (c GemCost) Validate() error {
	for i, amount := range c {
		if amount < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeGemAmount, GemKinds[i])
		}
	}
	return nil
}

// IsZero reports whether every slot is zero.
func (c GemCost) IsZero() bool {
	return c == ZeroGemCost
}

// Add returns the slot-wise sum of two cost vectors.
func (c GemCost) Add(other GemCost) GemCost {
	var result GemCost
	for i := range c {
		result[i] = c[i] + other[i]
	}
	return result
}

// SubFloorZero returns the slot-wise difference floored at zero per slot.
// This is the effective-cost rule: discount can never push a cost negative.
func (c GemCost) SubFloorZero(other GemCost) GemCost {
	var result GemCost
	for i := range c {
		result[i] = c[i] - other[i]
		if result[i] < 0 {
			result[i] = 0
		}
	}
	return result
}

// Amount returns the amount for the given kind, or 0 for an unknown kind.
func (c GemCost) Amount(kind GemKind) int {
	idx, err := GemKindIndex(kind)
	if err != nil {
		return 0
	}
	return c[idx]
}

// GemKindIndex returns the canonical slot for a gem kind.
// Returns ErrUnknownGemKind for anything outside the four known kinds.
func GemKindIndex(kind GemKind) (int, error) {
	for i, k := range GemKinds {
		if k == kind {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGemKind, kind)
}

// IsValidGemKind reports whether the given kind is one of the four known kinds.
func IsValidGemKind(kind GemKind) bool {
	_, err := GemKindIndex(kind)
	return err == nil
}

// GemWallet holds a user's balance for each gem kind. There is exactly one
// wallet per user, created at account creation and mutated for the account's
// lifetime. Balances are never negative: every debit re-checks the balance
// inside the same transaction that performs the decrement.
type GemWallet struct {
	UserID    uuid.UUID `json:"user_id"`
	Balances  GemCost   `json:"balances"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGemWallet creates an empty wallet for the given user.
func NewGemWallet(userID uuid.UUID) (*GemWallet, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyWalletUserID
	}
	now := time.Now().UTC()
	return &GemWallet{
		UserID:    userID,
		Balances:  ZeroGemCost,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the wallet invariants.
func (w *GemWallet) Validate() error {
	if w.UserID == uuid.Nil {
		return ErrEmptyWalletUserID
	}
	for i, balance := range w.Balances {
		if balance < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeBalance, GemKinds[i])
		}
	}
	return nil
}

// Covers reports whether the wallet can pay the given cost in full.
// Partial spends are never allowed.
func (w *GemWallet) Covers(cost GemCost) bool {
	for i := range cost {
		if w.Balances[i] < cost[i] {
			return false
		}
	}
	return true
}

// Ledger reason strings for gem transactions.
const (
	// GemReasonPurchase marks debit rows written when a topic is purchased.
	GemReasonPurchase = "card_purchase"
)

// GemTransaction is one append-only ledger row. For any user and gem kind the
// wallet balance equals the sum of all transaction amounts for that pair, so
// wallet and ledger rows are always written in the same transaction.
type GemTransaction struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Kind        GemKind    `json:"kind"`
	Amount      int        `json:"amount"` // signed: positive earn, negative spend
	Reason      string     `json:"reason"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Common validation errors for GemTransaction.
var (
	ErrEmptyTransactionUserID = errors.New("gem transaction user ID cannot be empty")
	ErrEmptyTransactionReason = errors.New("gem transaction reason cannot be empty")
	ErrZeroTransactionAmount  = errors.New("gem transaction amount cannot be zero")
)

// NewGemTransaction creates a ledger row. Amount must be non-zero; zero-amount
// rows are never written (a purchase appends one row per non-zero gem kind).
func NewGemTransaction(
	userID uuid.UUID,
	kind GemKind,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*GemTransaction, error) {
	txn := &GemTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Reason:      reason,
		ReferenceID: referenceID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	return txn, nil
}

// Validate checks if the GemTransaction has valid data.
func (t *GemTransaction) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrEmptyTransactionUserID
	}
	if !IsValidGemKind(t.Kind) {
		return fmt.Errorf("%w: %q", ErrUnknownGemKind, t.Kind)
	}
	if t.Amount == 0 {
		return ErrZeroTransactionAmount
	}
	if t.Reason == "" {
		return ErrEmptyTransactionReason
	}
	return nil
}
