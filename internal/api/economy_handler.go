package api

import (
	"log/slog"
	"net/http"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/events"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/economy"
	"github.com/google/uuid"
)

// EconomyHandler handles wallet and purchase HTTP requests
type EconomyHandler struct {
	economyService economy.EconomyService
	eventEmitter   events.EventEmitter
	logger         *slog.Logger
}

// NewEconomyHandler creates a new EconomyHandler
func NewEconomyHandler(
	economyService economy.EconomyService,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) *EconomyHandler {
	if economyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("economyService cannot be nil for EconomyHandler")
	}
	if eventEmitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("eventEmitter cannot be nil for EconomyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for EconomyHandler")
	}

	return &EconomyHandler{
		economyService: economyService,
		eventEmitter:   eventEmitter,
		logger:         logger.With(slog.String("component", "economy_handler")),
	}
}

// CostResponse represents the priced view of a topic
type CostResponse struct {
	BaseCost      map[string]int `json:"base_cost"`
	Discount      map[string]int `json:"discount"`
	EffectiveCost map[string]int `json:"effective_cost"`
}

// GetCost handles GET /topics/{id}/cost requests, pricing a topic for the
// authenticated user without modifying anything.
func (h *EconomyHandler) GetCost(w http.ResponseWriter, r *http.Request) {
	userID, topicID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	breakdown, err := h.economyService.GetEffectiveCost(r.Context(), userID, topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to price topic")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CostResponse{
		BaseCost:      gemMap(breakdown.BaseCost),
		Discount:      gemMap(breakdown.Discount),
		EffectiveCost: gemMap(breakdown.EffectiveCost),
	})
}

// PurchaseResponse represents the outcome of a purchase-to-mastery
type PurchaseResponse struct {
	Topic           TopicResponse  `json:"topic"`
	EffectiveCost   map[string]int `json:"effective_cost"`
	Wallet          WalletResponse `json:"wallet"`
	XpAwarded       int            `json:"xp_awarded"`
	PrestigeAwarded int            `json:"prestige_awarded"`
}

// Purchase handles POST /topics/{id}/purchase requests, buying a topic
// straight to mastery.
func (h *EconomyHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	outcome, err := h.economyService.Purchase(r.Context(), userID, topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to purchase topic")
		return
	}

	requestAchievementEvaluation(r.Context(), h.eventEmitter, userID, log)

	log.Info("topic purchased",
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()),
		slog.Int("xp_awarded", outcome.XpAwarded),
		slog.Int("prestige_awarded", outcome.PrestigeAwarded))
	shared.RespondWithJSON(w, r, http.StatusOK, PurchaseResponse{
		Topic:           topicToResponse(outcome.Topic),
		EffectiveCost:   gemMap(outcome.EffectiveCost),
		Wallet:          walletToResponse(outcome.Wallet),
		XpAwarded:       outcome.XpAwarded,
		PrestigeAwarded: outcome.PrestigeAwarded,
	})
}

// GetWallet handles GET /wallet requests.
func (h *EconomyHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	wallet, err := h.economyService.GetWallet(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get wallet")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, walletToResponse(wallet))
}

// TransactionListResponse represents a page of the gem ledger
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ListTransactions handles GET /wallet/transactions requests, returning the
// user's gem ledger newest first.
func (h *EconomyHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, offset := parseLimitOffset(r)

	rows, total, err := h.economyService.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list transactions")
		return
	}

	transactions := make([]TransactionResponse, 0, len(rows))
	for _, txn := range rows {
		transactions = append(transactions, transactionToResponse(txn))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TransactionListResponse{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// EarnRequest represents the request body for crediting the wallet
type EarnRequest struct {
	Kind        string  `json:"kind"   validate:"required,oneof=sapphire emerald ruby diamond"`
	Amount      int     `json:"amount" validate:"required,gt=0"`
	Reason      string  `json:"reason" validate:"required,max=100"`
	ReferenceID *string `json:"reference_id,omitempty" validate:"omitempty,uuid"`
}

// Earn handles POST /wallet/earn requests. Reward flows (quests, daily
// bonuses) credit gems through this endpoint; the engine itself never mints.
func (h *EconomyHandler) Earn(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req EarnRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode earn request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	var referenceID *uuid.UUID
	if req.ReferenceID != nil {
		// Validated as a UUID above, so parsing cannot fail here.
		id, _ := uuid.Parse(*req.ReferenceID)
		referenceID = &id
	}

	wallet, err := h.economyService.Earn(
		r.Context(),
		userID,
		domain.GemKind(req.Kind),
		req.Amount,
		req.Reason,
		referenceID,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to credit wallet")
		return
	}

	log.Debug("gems credited",
		slog.String("user_id", userID.String()),
		slog.String("kind", req.Kind),
		slog.Int("amount", req.Amount))
	shared.RespondWithJSON(w, r, http.StatusOK, walletToResponse(wallet))
}
