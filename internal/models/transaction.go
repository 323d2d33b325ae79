package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypeTransfer   = "TRANSFER"
	TransactionTypeCashIn     = "CASH_IN"
	TransactionTypeCashOut    = "CASH_OUT"
	TransactionTypeCommission = "COMMISSION"
	TransactionTypeFee        = "FEE"
	TransactionTypeRefund     = "REFUND"
)

// Transaction statuses
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
	TransactionStatusCancelled = "CANCELLED"
	TransactionStatusRefunded  = "REFUNDED"
)

// OutflowTypes are the transaction types counted against a sender wallet's
// daily and monthly limits.
var OutflowTypes = []string{
	TransactionTypeTransfer,
	TransactionTypeCashOut,
	TransactionTypeWithdrawal,
}

// Transaction is an immutable ledger row. The only status change allowed
// after commit is COMPLETED -> REFUNDED.
type Transaction struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	TransactionID string `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Type          string `gorm:"not null;index" json:"type"`

	SenderID         uint  `gorm:"not null;index" json:"sender_id"`
	ReceiverID       uint  `gorm:"not null;index" json:"receiver_id"`
	SenderWalletID   uint  `gorm:"not null;index" json:"sender_wallet_id"`
	ReceiverWalletID uint  `gorm:"not null;index" json:"receiver_wallet_id"`
	AgentID          *uint `gorm:"index" json:"agent_id,omitempty"`
	AgentWalletID    *uint `json:"agent_wallet_id,omitempty"`

	Amount     float64 `gorm:"not null" json:"amount"`
	Fee        float64 `gorm:"default:0" json:"fee"`
	Commission float64 `gorm:"default:0" json:"commission"`
	Status     string  `gorm:"not null;default:'PENDING';index" json:"status"`

	Reference   string `gorm:"size:100" json:"reference,omitempty"`
	Description string `gorm:"size:500" json:"description,omitempty"`

	SenderBalanceBefore   float64 `json:"sender_balance_before"`
	SenderBalanceAfter    float64 `json:"sender_balance_after"`
	ReceiverBalanceBefore float64 `json:"receiver_balance_before"`
	ReceiverBalanceAfter  float64 `json:"receiver_balance_after"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValidTransactionType reports whether t is one of the ledger types.
func IsValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypeCashIn, TransactionTypeCashOut, TransactionTypeCommission,
		TransactionTypeFee, TransactionTypeRefund:
		return true
	}
	return false
}
