// Package fee computes fees and agent commissions for settlement
// operations. The policy is a pure function over the operation type, the
// amount and the live system settings; administrators tune the rates at
// runtime, so nothing here is compiled in.
package fee

import (
	"dwallet/internal/models"
	"dwallet/internal/utils"
)

type Quote struct {
	Fee        float64
	Commission float64
}

// Total is the amount the paying wallet must cover.
func (q Quote) Total(amount float64) float64 {
	return utils.Round2(amount + q.Fee)
}

type Policy struct{}

func NewPolicy() Policy { return Policy{} }

// QuoteFor computes the fee and agent commission for an operation.
// CASH_IN and CASH_OUT charge a percentage of the moved amount with a
// commission share credited to the facilitating agent; TRANSFER charges the
// flat send-money fee; everything else is free.
func (Policy) QuoteFor(txType string, amount float64, settings *models.SystemSettings) Quote {
	var fee, commission float64

	switch txType {
	case models.TransactionTypeCashIn:
		fee = utils.Round2(amount * settings.CashInFeeRate)
		commission = utils.Round2(fee * settings.CommissionRate)
	case models.TransactionTypeCashOut:
		fee = utils.Round2(amount * settings.CashOutFeeRate)
		commission = utils.Round2(fee * settings.CommissionRate)
	case models.TransactionTypeTransfer:
		fee = utils.Round2(settings.SendMoneyFee)
	}

	return Quote{Fee: fee, Commission: commission}
}
