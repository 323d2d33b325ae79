// Package pin verifies wallet PINs and enforces the failed-attempt lockout.
// The Guard mutates the wallet's attempt counter and lockout timestamp in
// memory; the caller persists the wallet inside the same atomic unit as the
// operation the check gates.
package pin

import (
	"dwallet/internal/apperr"
	"dwallet/internal/models"
	"time"
)

// Hasher is the PIN hashing capability injected into the guard and the
// settlement orchestrator.
type Hasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) error
}

type Guard struct {
	hasher Hasher
	now    func() time.Time
}

func NewGuard(hasher Hasher) *Guard {
	return &Guard{hasher: hasher, now: time.Now}
}

// Hasher exposes the injected hashing capability for wallet provisioning.
func (g *Guard) Hasher() Hasher { return g.hasher }

// Verify checks the candidate PIN against the wallet's stored hash.
//
// While a lockout is in force the check fails without consuming an attempt.
// A mismatch increments the counter; the fifth consecutive mismatch locks
// the wallet for 24 hours and resets the counter. A match resets the
// counter and clears any expired lockout.
func (g *Guard) Verify(w *models.Wallet, candidate string) error {
	now := g.now()

	if w.IsPinLocked(now) {
		return apperr.Newf(apperr.KindForbidden, "wallet is locked until %s",
			w.PinLockedUntil.Format(time.RFC3339))
	}

	if err := g.hasher.Compare(w.PinHash, candidate); err != nil {
		w.PinAttempts++
		if w.PinAttempts >= models.MaxPinAttempts {
			lockedUntil := now.Add(models.PinLockoutDuration)
			w.PinLockedUntil = &lockedUntil
			w.PinAttempts = 0
			return apperr.Forbidden("too many failed attempts, wallet locked for 24 hours")
		}
		return apperr.Newf(apperr.KindBadRequest, "incorrect PIN, %d attempts remaining",
			models.MaxPinAttempts-w.PinAttempts)
	}

	w.PinAttempts = 0
	w.PinLockedUntil = nil
	return nil
}

// Change verifies the old PIN and writes the hash of the new one. It is not
// callable while the wallet is locked; Verify already enforces that.
func (g *Guard) Change(w *models.Wallet, oldPin, newPin string) error {
	if err := g.Verify(w, oldPin); err != nil {
		return err
	}

	hash, err := g.hasher.Hash(newPin)
	if err != nil {
		return apperr.Internal(err)
	}
	w.PinHash = hash
	return nil
}
