package api

import (
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// gemMap renders a GemCost vector as a kind-keyed JSON object.
func gemMap(cost domain.GemCost) map[string]int {
	m := make(map[string]int, domain.GemKindCount)
	for i, kind := range domain.GemKinds {
		m[string(kind)] = cost[i]
	}
	return m
}

// TopicResponse represents the response data for a topic
type TopicResponse struct {
	ID           string         `json:"id"`
	SubjectID    string         `json:"subject_id"`
	UnitID       string         `json:"unit_id"`
	Title        string         `json:"title"`
	Difficulty   string         `json:"difficulty"`
	Importance   string         `json:"importance"`
	Column       string         `json:"column"`
	MasteryCount int            `json:"mastery_count"`
	NextReviewAt *time.Time     `json:"next_review_at,omitempty"`
	GemCost      map[string]int `json:"gem_cost"`
	Purchased    bool           `json:"purchased"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// topicToResponse converts a domain topic to its response form
func topicToResponse(topic *domain.Topic) TopicResponse {
	return TopicResponse{
		ID:           topic.ID.String(),
		SubjectID:    topic.SubjectID.String(),
		UnitID:       topic.UnitID.String(),
		Title:        topic.Title,
		Difficulty:   string(topic.Difficulty),
		Importance:   string(topic.Importance),
		Column:       string(topic.Column),
		MasteryCount: topic.MasteryCount,
		NextReviewAt: topic.NextReviewAt,
		GemCost:      gemMap(topic.GemCost),
		Purchased:    topic.Purchased,
		CreatedAt:    topic.CreatedAt,
		UpdatedAt:    topic.UpdatedAt,
	}
}

// ReviewEntryResponse represents one row of a topic's audit trail
type ReviewEntryResponse struct {
	ID                 string    `json:"id"`
	TopicID            string    `json:"topic_id"`
	ReviewedAt         time.Time `json:"reviewed_at"`
	FromColumn         string    `json:"from_column"`
	ToColumn           string    `json:"to_column"`
	UnderstandingScore *int      `json:"understanding_score,omitempty"`
	Note               string    `json:"note,omitempty"`
	Automatic          bool      `json:"automatic"`
}

// reviewEntryToResponse converts a domain review entry to its response form.
// Entries without a score were produced by the overdue rescheduler.
func reviewEntryToResponse(entry *domain.ReviewEntry) ReviewEntryResponse {
	return ReviewEntryResponse{
		ID:                 entry.ID.String(),
		TopicID:            entry.TopicID.String(),
		ReviewedAt:         entry.ReviewedAt,
		FromColumn:         string(entry.FromColumn),
		ToColumn:           string(entry.ToColumn),
		UnderstandingScore: entry.UnderstandingScore,
		Note:               entry.Note,
		Automatic:          entry.UnderstandingScore == nil,
	}
}

// WalletResponse represents the response data for a gem wallet
type WalletResponse struct {
	Balances  map[string]int `json:"balances"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// walletToResponse converts a domain wallet to its response form
func walletToResponse(wallet *domain.GemWallet) WalletResponse {
	return WalletResponse{
		Balances:  gemMap(wallet.Balances),
		UpdatedAt: wallet.UpdatedAt,
	}
}

// TransactionResponse represents one gem ledger row
type TransactionResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Amount      int       `json:"amount"`
	Reason      string    `json:"reason"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// transactionToResponse converts a domain gem transaction to its response form
func transactionToResponse(txn *domain.GemTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        txn.ID.String(),
		Kind:      string(txn.Kind),
		Amount:    txn.Amount,
		Reason:    txn.Reason,
		CreatedAt: txn.CreatedAt,
	}
	if txn.ReferenceID != nil {
		ref := txn.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

// StatsResponse represents the response data for user stats
type StatsResponse struct {
	TotalXp        int        `json:"total_xp"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastStudyDate  *time.Time `json:"last_study_date,omitempty"`
	PrestigePoints int        `json:"prestige_points"`
}

// statsToResponse converts domain user stats to their response form
func statsToResponse(stats *domain.UserStats) StatsResponse {
	return StatsResponse{
		TotalXp:        stats.TotalXp,
		CurrentStreak:  stats.CurrentStreak,
		LongestStreak:  stats.LongestStreak,
		LastStudyDate:  stats.LastStudyDate,
		PrestigePoints: stats.PrestigePoints,
	}
}
