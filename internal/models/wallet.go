package models

import (
	"time"
)

// Wallet statuses
const (
	WalletStatusActive   = "ACTIVE"
	WalletStatusInactive = "INACTIVE"
	WalletStatusBlocked  = "BLOCKED"
)

// InitialWalletBalance is the promotional balance credited when a wallet
// is provisioned at registration.
const InitialWalletBalance = 50.0

// MaxPinAttempts is the number of consecutive PIN failures before a wallet
// locks, PinLockoutDuration how long the lock lasts.
const (
	MaxPinAttempts     = 5
	PinLockoutDuration = 24 * time.Hour
)

type Wallet struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	WalletNumber string  `gorm:"uniqueIndex;not null" json:"wallet_number"`
	UserID       uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance      float64 `gorm:"not null;default:0" json:"balance"`
	Currency     string  `gorm:"default:'BDT'" json:"currency"`
	Status       string  `gorm:"default:'ACTIVE'" json:"status"`

	DailyLimit   float64 `gorm:"default:50000" json:"daily_limit"`
	MonthlyLimit float64 `gorm:"default:500000" json:"monthly_limit"`

	TotalDeposited float64 `gorm:"default:0" json:"total_deposited"`
	TotalWithdrawn float64 `gorm:"default:0" json:"total_withdrawn"`
	TotalSent      float64 `gorm:"default:0" json:"total_sent"`
	TotalReceived  float64 `gorm:"default:0" json:"total_received"`

	PinHash        string     `gorm:"not null" json:"-"`
	PinAttempts    int        `gorm:"default:0" json:"-"`
	PinLockedUntil *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the wallet may participate in operations.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// IsPinLocked reports whether PIN checks are blocked at the given time.
func (w *Wallet) IsPinLocked(now time.Time) bool {
	return w.PinLockedUntil != nil && w.PinLockedUntil.After(now)
}
