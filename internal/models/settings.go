package models

import "time"

// Default fee, commission and limit configuration. These seed the singleton
// SystemSettings row on first access; administrators tune them afterwards.
const (
	DefaultCashInFeeRate  = 0.02
	DefaultCashOutFeeRate = 0.02
	DefaultCommissionRate = 0.5
	DefaultSendMoneyFee   = 0
	DefaultDailyLimit     = 50000
	DefaultMonthlyLimit   = 500000
)

// SystemSettings is a singleton. Exactly one row exists; it is created
// lazily on first read and mutated only by administrators.
type SystemSettings struct {
	ID             uint    `gorm:"primarykey" json:"id"`
	CashInFeeRate  float64 `gorm:"not null;default:0.02" json:"cash_in_fee_rate"`
	CashOutFeeRate float64 `gorm:"not null;default:0.02" json:"cash_out_fee_rate"`
	CommissionRate float64 `gorm:"not null;default:0.5" json:"commission_rate"`
	SendMoneyFee   float64 `gorm:"not null;default:0" json:"send_money_fee"`

	DefaultDailyLimit   float64 `gorm:"not null;default:50000" json:"default_daily_limit"`
	DefaultMonthlyLimit float64 `gorm:"not null;default:500000" json:"default_monthly_limit"`

	LastUpdatedBy *uint     `json:"last_updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SystemSettingsID is the fixed primary key of the singleton row; pinning it
// makes concurrent first-access seeds conflict instead of duplicating.
const SystemSettingsID = 1

// DefaultSystemSettings returns the settings row used to seed the singleton.
func DefaultSystemSettings() *SystemSettings {
	return &SystemSettings{
		ID:                  SystemSettingsID,
		CashInFeeRate:       DefaultCashInFeeRate,
		CashOutFeeRate:      DefaultCashOutFeeRate,
		CommissionRate:      DefaultCommissionRate,
		SendMoneyFee:        DefaultSendMoneyFee,
		DefaultDailyLimit:   DefaultDailyLimit,
		DefaultMonthlyLimit: DefaultMonthlyLimit,
	}
}
