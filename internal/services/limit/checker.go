// Package limit enforces per-wallet daily and monthly outflow caps.
package limit

import (
	"context"
	"time"

	"dwallet/internal/apperr"
	"dwallet/internal/models"
)

// OutflowSummer provides completed-outflow totals for a wallet. Inside a
// settlement unit this is the transaction-scoped store, so the aggregation
// and the balance mutation see the same committed history.
type OutflowSummer interface {
	OutflowTotalSince(ctx context.Context, walletID uint, since time.Time) (float64, error)
}

type Checker struct {
	now func() time.Time
}

func NewChecker() *Checker {
	return &Checker{now: time.Now}
}

// Check rejects the candidate outflow if it would push the wallet past its
// daily or monthly cap. Totals cover COMPLETED outflow transactions in the
// current calendar day and calendar month.
func (c *Checker) Check(ctx context.Context, sums OutflowSummer, w *models.Wallet, amount float64) error {
	now := c.now()

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayTotal, err := sums.OutflowTotalSince(ctx, w.ID, startOfDay)
	if err != nil {
		return apperr.Internal(err)
	}
	if dayTotal+amount > w.DailyLimit {
		return apperr.Newf(apperr.KindForbidden,
			"daily limit exceeded, available: %.2f", w.DailyLimit-dayTotal)
	}

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthTotal, err := sums.OutflowTotalSince(ctx, w.ID, startOfMonth)
	if err != nil {
		return apperr.Internal(err)
	}
	if monthTotal+amount > w.MonthlyLimit {
		return apperr.Newf(apperr.KindForbidden,
			"monthly limit exceeded, available: %.2f", w.MonthlyLimit-monthTotal)
	}

	return nil
}
