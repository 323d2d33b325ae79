// Package repositories provides the data access layer.
// It owns all database operations and the unit-of-work used by the
// settlement engine.
package repositories

import (
	"context"
	"errors"
	"time"

	"dwallet/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateWallet     = errors.New("wallet already exists")
)

// Store is the persistence boundary of the settlement core. Atomic runs fn
// inside one database transaction and hands it a Store scoped to that
// transaction; every write made through the scoped Store commits together
// or not at all. The ForUpdate variants take row locks that live until the
// surrounding transaction commits or aborts.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	// Wallets
	CreateWallet(ctx context.Context, w *models.Wallet) error
	WalletByID(ctx context.Context, id uint) (*models.Wallet, error)
	WalletByIDForUpdate(ctx context.Context, id uint) (*models.Wallet, error)
	WalletByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	WalletByNumber(ctx context.Context, number string) (*models.Wallet, error)
	SaveWallet(ctx context.Context, w *models.Wallet) error
	ListWallets(ctx context.Context, limit, offset int) ([]models.Wallet, int64, error)
	UpdateAllWalletLimits(ctx context.Context, daily, monthly *float64) error

	// Users
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	UserByWalletID(ctx context.Context, walletID uint) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	IncrementTokenVersion(ctx context.Context, userID uint) error

	// Ledger
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	SaveTransaction(ctx context.Context, t *models.Transaction) error
	TransactionByTxnID(ctx context.Context, txnID string) (*models.Transaction, error)
	TransactionByTxnIDForUpdate(ctx context.Context, txnID string) (*models.Transaction, error)

	// OutflowTotalSince sums amounts of COMPLETED outflow transactions
	// (TRANSFER, CASH_OUT, WITHDRAWAL) sent from the wallet since the given
	// instant. Inside Atomic it reads under the same isolation as the
	// balance mutation.
	OutflowTotalSince(ctx context.Context, walletID uint, since time.Time) (float64, error)

	// Settings returns the singleton system settings row, creating it with
	// defaults on first access.
	Settings(ctx context.Context) (*models.SystemSettings, error)
	SaveSettings(ctx context.Context, s *models.SystemSettings) error
}
