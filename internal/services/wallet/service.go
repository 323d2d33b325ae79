// Package wallet manages wallet records outside the settlement path:
// provisioning, status changes, limit updates, PIN changes and the
// administrator-tunable system settings.
package wallet

import (
	"context"
	"log"
	"regexp"

	"dwallet/internal/apperr"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/repositories/cache"
	"dwallet/internal/services/pin"
	"dwallet/internal/utils"
)

type Service interface {
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	GetByNumber(ctx context.Context, number string) (*models.Wallet, error)
	List(ctx context.Context, limit, offset int) ([]models.Wallet, int64, error)

	Create(ctx context.Context, userID uint, rawPin string) (*models.Wallet, error)
	UpdateStatus(ctx context.Context, walletID uint, status string) (*models.Wallet, error)
	UpdateLimits(ctx context.Context, walletID uint, daily, monthly *float64) (*models.Wallet, error)
	Stats(ctx context.Context, walletID uint) (*Stats, error)

	VerifyPin(ctx context.Context, walletID uint, rawPin string) error
	ChangePin(ctx context.Context, walletID uint, oldPin, newPin string) error

	GetSettings(ctx context.Context) (*models.SystemSettings, error)
	AdjustSettings(ctx context.Context, adminID uint, upd SettingsUpdate) (*models.SystemSettings, error)
}

// Stats is a per-wallet summary of balance, counters and limits.
type Stats struct {
	Balance        float64 `json:"balance"`
	TotalDeposited float64 `json:"total_deposited"`
	TotalWithdrawn float64 `json:"total_withdrawn"`
	TotalSent      float64 `json:"total_sent"`
	TotalReceived  float64 `json:"total_received"`
	DailyLimit     float64 `json:"daily_limit"`
	MonthlyLimit   float64 `json:"monthly_limit"`
	Status         string  `json:"status"`
}

// SettingsUpdate carries partial system settings changes; nil fields are
// left untouched. Updating a default limit propagates to every wallet.
type SettingsUpdate struct {
	CashInFeeRate  *float64
	CashOutFeeRate *float64
	CommissionRate *float64
	SendMoneyFee   *float64
	DailyLimit     *float64
	MonthlyLimit   *float64
}

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

type service struct {
	store repositories.Store
	cache *cache.CacheService
	pins  *pin.Guard
}

// NewService creates the wallet management service. cache may be nil.
func NewService(store repositories.Store, cacheService *cache.CacheService, pins *pin.Guard) Service {
	if store == nil {
		panic("store is required")
	}
	if pins == nil {
		panic("pin guard is required")
	}
	return &service{store: store, cache: cacheService, pins: pins}
}

func (s *service) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	if s.cache != nil {
		if w, ok := s.cache.GetWallet(ctx, id); ok {
			return w, nil
		}
	}

	w, err := s.store.WalletByID(ctx, id)
	if err != nil {
		return nil, asWalletErr(err)
	}

	if s.cache != nil {
		if err := s.cache.CacheWallet(ctx, w); err != nil {
			log.Printf("failed to cache wallet %d: %v", w.ID, err)
		}
	}
	return w, nil
}

func (s *service) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, err := s.store.WalletByUserID(ctx, userID)
	if err != nil {
		return nil, asWalletErr(err)
	}
	return w, nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Wallet, error) {
	w, err := s.store.WalletByNumber(ctx, number)
	if err != nil {
		return nil, asWalletErr(err)
	}
	return w, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]models.Wallet, int64, error) {
	wallets, total, err := s.store.ListWallets(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return wallets, total, nil
}

// Create provisions a wallet for a newly registered user with the default
// limits from system settings and the initial promotional balance.
func (s *service) Create(ctx context.Context, userID uint, rawPin string) (*models.Wallet, error) {
	if !pinPattern.MatchString(rawPin) {
		return nil, apperr.BadRequest("PIN must be 4 to 6 digits")
	}

	hash, err := s.pins.Hasher().Hash(rawPin)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var created *models.Wallet
	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		settings, err := tx.Settings(ctx)
		if err != nil {
			return apperr.Internal(err)
		}

		w := &models.Wallet{
			WalletNumber: utils.NewWalletNumber(),
			UserID:       userID,
			Balance:      models.InitialWalletBalance,
			Status:       models.WalletStatusActive,
			DailyLimit:   settings.DefaultDailyLimit,
			MonthlyLimit: settings.DefaultMonthlyLimit,
			PinHash:      hash,
		}
		if err := tx.CreateWallet(ctx, w); err != nil {
			return apperr.Internal(err)
		}

		user, err := tx.UserByID(ctx, userID)
		if err != nil {
			if err == repositories.ErrUserNotFound {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal(err)
		}
		user.WalletID = &w.ID
		if err := tx.SaveUser(ctx, user); err != nil {
			return apperr.Internal(err)
		}

		created = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateStatus(ctx context.Context, walletID uint, status string) (*models.Wallet, error) {
	switch status {
	case models.WalletStatusActive, models.WalletStatusInactive, models.WalletStatusBlocked:
	default:
		return nil, apperr.Newf(apperr.KindBadRequest, "unknown wallet status %q", status)
	}

	var updated *models.Wallet
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		w, err := tx.WalletByIDForUpdate(ctx, walletID)
		if err != nil {
			return asWalletErr(err)
		}
		w.Status = status
		if err := tx.SaveWallet(ctx, w); err != nil {
			return apperr.Internal(err)
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, walletID)
	return updated, nil
}

func (s *service) UpdateLimits(ctx context.Context, walletID uint, daily, monthly *float64) (*models.Wallet, error) {
	if daily != nil && *daily < 0 {
		return nil, apperr.BadRequest("daily limit cannot be negative")
	}
	if monthly != nil && *monthly < 0 {
		return nil, apperr.BadRequest("monthly limit cannot be negative")
	}

	var updated *models.Wallet
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		w, err := tx.WalletByIDForUpdate(ctx, walletID)
		if err != nil {
			return asWalletErr(err)
		}
		if daily != nil {
			w.DailyLimit = *daily
		}
		if monthly != nil {
			w.MonthlyLimit = *monthly
		}
		if err := tx.SaveWallet(ctx, w); err != nil {
			return apperr.Internal(err)
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, walletID)
	return updated, nil
}

func (s *service) Stats(ctx context.Context, walletID uint) (*Stats, error) {
	w, err := s.store.WalletByID(ctx, walletID)
	if err != nil {
		return nil, asWalletErr(err)
	}
	return &Stats{
		Balance:        w.Balance,
		TotalDeposited: w.TotalDeposited,
		TotalWithdrawn: w.TotalWithdrawn,
		TotalSent:      w.TotalSent,
		TotalReceived:  w.TotalReceived,
		DailyLimit:     w.DailyLimit,
		MonthlyLimit:   w.MonthlyLimit,
		Status:         w.Status,
	}, nil
}

// VerifyPin checks a PIN against the wallet's hash. Attempt bookkeeping
// (counter, lockout) persists whether or not the check passes.
func (s *service) VerifyPin(ctx context.Context, walletID uint, rawPin string) error {
	var gateErr error
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		w, err := tx.WalletByIDForUpdate(ctx, walletID)
		if err != nil {
			return asWalletErr(err)
		}
		if !w.IsActive() {
			return apperr.Newf(apperr.KindForbidden, "wallet is %s", w.Status)
		}
		gateErr = s.pins.Verify(w, rawPin)
		if err := tx.SaveWallet(ctx, w); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, walletID)
	return gateErr
}

// ChangePin verifies the old PIN and stores the hash of the new one.
// Blocked while the wallet is PIN-locked.
func (s *service) ChangePin(ctx context.Context, walletID uint, oldPin, newPin string) error {
	if !pinPattern.MatchString(newPin) {
		return apperr.BadRequest("PIN must be 4 to 6 digits")
	}

	var gateErr error
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		w, err := tx.WalletByIDForUpdate(ctx, walletID)
		if err != nil {
			return asWalletErr(err)
		}
		gateErr = s.pins.Change(w, oldPin, newPin)
		if err := tx.SaveWallet(ctx, w); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, walletID)
	return gateErr
}

func (s *service) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	if s.cache != nil {
		if settings, ok := s.cache.GetSettings(ctx); ok {
			return settings, nil
		}
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if s.cache != nil {
		if err := s.cache.CacheSettings(ctx, settings); err != nil {
			log.Printf("failed to cache settings: %v", err)
		}
	}
	return settings, nil
}

// AdjustSettings applies a partial update to the settings singleton.
// Changing a default limit rewrites the limit on every wallet so the new
// cap takes effect immediately.
func (s *service) AdjustSettings(ctx context.Context, adminID uint, upd SettingsUpdate) (*models.SystemSettings, error) {
	if err := validateRates(upd); err != nil {
		return nil, err
	}

	var updated *models.SystemSettings
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		settings, err := tx.Settings(ctx)
		if err != nil {
			return apperr.Internal(err)
		}

		if upd.CashInFeeRate != nil {
			settings.CashInFeeRate = *upd.CashInFeeRate
		}
		if upd.CashOutFeeRate != nil {
			settings.CashOutFeeRate = *upd.CashOutFeeRate
		}
		if upd.CommissionRate != nil {
			settings.CommissionRate = *upd.CommissionRate
		}
		if upd.SendMoneyFee != nil {
			settings.SendMoneyFee = *upd.SendMoneyFee
		}
		if upd.DailyLimit != nil {
			settings.DefaultDailyLimit = *upd.DailyLimit
		}
		if upd.MonthlyLimit != nil {
			settings.DefaultMonthlyLimit = *upd.MonthlyLimit
		}
		settings.LastUpdatedBy = &adminID

		if err := tx.SaveSettings(ctx, settings); err != nil {
			return apperr.Internal(err)
		}

		if upd.DailyLimit != nil || upd.MonthlyLimit != nil {
			if err := tx.UpdateAllWalletLimits(ctx, upd.DailyLimit, upd.MonthlyLimit); err != nil {
				return apperr.Internal(err)
			}
		}

		updated = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateSettings(ctx); err != nil {
			log.Printf("failed to invalidate settings cache: %v", err)
		}
	}
	return updated, nil
}

func validateRates(upd SettingsUpdate) error {
	for name, rate := range map[string]*float64{
		"cash-in fee rate":  upd.CashInFeeRate,
		"cash-out fee rate": upd.CashOutFeeRate,
		"commission rate":   upd.CommissionRate,
	} {
		if rate != nil && (*rate < 0 || *rate > 1) {
			return apperr.Newf(apperr.KindBadRequest, "%s must be between 0 and 1", name)
		}
	}
	if upd.SendMoneyFee != nil && *upd.SendMoneyFee < 0 {
		return apperr.BadRequest("send money fee cannot be negative")
	}
	if upd.DailyLimit != nil && *upd.DailyLimit < 0 {
		return apperr.BadRequest("daily limit cannot be negative")
	}
	if upd.MonthlyLimit != nil && *upd.MonthlyLimit < 0 {
		return apperr.BadRequest("monthly limit cannot be negative")
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, walletID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, walletID); err != nil {
		log.Printf("failed to invalidate wallet cache: %v", err)
	}
}

func asWalletErr(err error) error {
	if err == repositories.ErrWalletNotFound {
		return apperr.NotFound("wallet not found")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Internal(err)
}
