package fee

import (
	"testing"

	"dwallet/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_QuoteFor(t *testing.T) {
	settings := &models.SystemSettings{
		CashInFeeRate:  0.02,
		CashOutFeeRate: 0.02,
		CommissionRate: 0.5,
		SendMoneyFee:   0,
	}

	tests := []struct {
		name           string
		txType         string
		amount         float64
		wantFee        float64
		wantCommission float64
		wantTotal      float64
	}{
		{
			name:           "cash in charges percentage with commission share",
			txType:         models.TransactionTypeCashIn,
			amount:         1000,
			wantFee:        20,
			wantCommission: 10,
			wantTotal:      1020,
		},
		{
			name:           "cash out charges percentage with commission share",
			txType:         models.TransactionTypeCashOut,
			amount:         100,
			wantFee:        2,
			wantCommission: 1,
			wantTotal:      102,
		},
		{
			name:      "transfer charges the flat send money fee",
			txType:    models.TransactionTypeTransfer,
			amount:    200,
			wantFee:   0,
			wantTotal: 200,
		},
		{
			name:      "deposit is free",
			txType:    models.TransactionTypeDeposit,
			amount:    500,
			wantTotal: 500,
		},
		{
			name:      "withdrawal is free",
			txType:    models.TransactionTypeWithdrawal,
			amount:    500,
			wantTotal: 500,
		},
		{
			name:      "refund is free",
			txType:    models.TransactionTypeRefund,
			amount:    500,
			wantTotal: 500,
		},
		{
			name:           "fee is rounded to two decimals",
			txType:         models.TransactionTypeCashOut,
			amount:         123.45,
			wantFee:        2.47,
			wantCommission: 1.24,
			wantTotal:      125.92,
		},
	}

	policy := NewPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := policy.QuoteFor(tt.txType, tt.amount, settings)
			assert.Equal(t, tt.wantFee, quote.Fee)
			assert.Equal(t, tt.wantCommission, quote.Commission)
			assert.Equal(t, tt.wantTotal, quote.Total(tt.amount))
		})
	}
}

func TestPolicy_QuoteFor_FlatTransferFee(t *testing.T) {
	settings := &models.SystemSettings{SendMoneyFee: 5}

	quote := NewPolicy().QuoteFor(models.TransactionTypeTransfer, 200, settings)
	assert.Equal(t, 5.0, quote.Fee)
	assert.Equal(t, 0.0, quote.Commission)
	assert.Equal(t, 205.0, quote.Total(200))
}
