package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSystemSettings(t *testing.T) {
	s := DefaultSystemSettings()

	// The seed row carries the fixed singleton key so concurrent seeds
	// collide on the primary key instead of inserting twice.
	assert.Equal(t, uint(SystemSettingsID), s.ID)

	assert.Equal(t, 0.02, s.CashInFeeRate)
	assert.Equal(t, 0.02, s.CashOutFeeRate)
	assert.Equal(t, 0.5, s.CommissionRate)
	assert.Equal(t, 0.0, s.SendMoneyFee)
	assert.Equal(t, 50000.0, s.DefaultDailyLimit)
	assert.Equal(t, 500000.0, s.DefaultMonthlyLimit)
}
