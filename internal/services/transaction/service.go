// Package transaction provides read access to the ledger: lookups, filtered
// listings and the per-agent overview. Everything here is side-effect-free;
// writes go through the settlement engine only.
package transaction

import (
	"context"
	"fmt"
	"strings"

	"dwallet/internal/apperr"
	"dwallet/internal/models"

	"gorm.io/gorm"
)

type Service interface {
	GetByTransactionID(ctx context.Context, txnID string) (*models.Transaction, error)
	List(ctx context.Context, f ListFilter) ([]models.Transaction, int64, error)
	ListForUser(ctx context.Context, userID uint, f ListFilter) ([]models.Transaction, int64, error)
	AgentOverview(ctx context.Context, agentUserID uint) (*AgentOverview, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	if db == nil {
		panic("db is required")
	}
	return &service{db: db}
}

// ListFilter narrows and orders a ledger listing.
type ListFilter struct {
	Type   string
	Status string
	Search string // matches transaction id, reference or description
	SortBy string // created_at, amount
	Desc   bool
	Limit  int
	Offset int
}

func (s *service) GetByTransactionID(ctx context.Context, txnID string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", txnID).First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("transaction not found")
		}
		return nil, apperr.Internal(err)
	}
	return &t, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]models.Transaction, int64, error) {
	return s.list(ctx, s.db.WithContext(ctx).Model(&models.Transaction{}), f)
}

func (s *service) ListForUser(ctx context.Context, userID uint, f ListFilter) ([]models.Transaction, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("sender_id = ? OR receiver_id = ? OR agent_id = ?", userID, userID, userID)
	return s.list(ctx, q, f)
}

func (s *service) list(ctx context.Context, q *gorm.DB, f ListFilter) ([]models.Transaction, int64, error) {
	if f.Type != "" {
		if !models.IsValidTransactionType(f.Type) {
			return nil, 0, apperr.Newf(apperr.KindBadRequest, "unknown transaction type %q", f.Type)
		}
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("transaction_id ILIKE ? OR reference ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	sortBy := "created_at"
	switch strings.ToLower(f.SortBy) {
	case "", "created_at":
	case "amount":
		sortBy = "amount"
	default:
		return nil, 0, apperr.Newf(apperr.KindBadRequest, "cannot sort by %q", f.SortBy)
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	var txs []models.Transaction
	err := q.Order(fmt.Sprintf("%s %s", sortBy, dir)).
		Limit(limit).
		Offset(f.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return txs, total, nil
}

// AgentOverview aggregates an agent's completed cash-in/cash-out activity.
type AgentOverview struct {
	CashIn          OverviewBucket `json:"cash_in"`
	CashOut         OverviewBucket `json:"cash_out"`
	TotalCommission float64        `json:"total_commission"`
}

type OverviewBucket struct {
	TotalCount  int64   `json:"total_count"`
	TotalAmount float64 `json:"total_amount"`
}

func (s *service) AgentOverview(ctx context.Context, agentUserID uint) (*AgentOverview, error) {
	type row struct {
		Type            string
		TotalCount      int64
		TotalAmount     float64
		TotalCommission float64
	}
	var rows []row

	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("agent_id = ? AND status = ? AND type IN ?",
			agentUserID, models.TransactionStatusCompleted,
			[]string{models.TransactionTypeCashIn, models.TransactionTypeCashOut}).
		Select("type, COUNT(*) as total_count, COALESCE(SUM(amount), 0) as total_amount, COALESCE(SUM(commission), 0) as total_commission").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}

	overview := &AgentOverview{}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeCashIn:
			overview.CashIn = OverviewBucket{TotalCount: r.TotalCount, TotalAmount: r.TotalAmount}
		case models.TransactionTypeCashOut:
			overview.CashOut = OverviewBucket{TotalCount: r.TotalCount, TotalAmount: r.TotalAmount}
		}
		overview.TotalCommission += r.TotalCommission
	}
	return overview, nil
}
