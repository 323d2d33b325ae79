package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"dwallet/internal/apperr"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/services/fee"
	"dwallet/internal/services/limit"
	"dwallet/internal/services/pin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memStore is an in-memory repositories.Store. Atomic snapshots all state
// and restores it when fn fails, mirroring a database rollback. Reads hand
// out copies so mutations only land through SaveWallet, as with a real scan.
type memStore struct {
	wallets      map[uint]*models.Wallet
	users        map[uint]*models.User
	transactions []*models.Transaction
	settings     *models.SystemSettings
	nextRowID    uint
}

func newMemStore() *memStore {
	return &memStore{
		wallets:  make(map[uint]*models.Wallet),
		users:    make(map[uint]*models.User),
		settings: models.DefaultSystemSettings(),
	}
}

func (m *memStore) addApprovedAgent(userID uint) {
	m.users[userID] = &models.User{
		Model:         gorm.Model{ID: userID},
		Role:          models.RoleAgent,
		AgentApproved: true,
	}
}

func (m *memStore) addWallet(w models.Wallet) {
	if w.Status == "" {
		w.Status = models.WalletStatusActive
	}
	if w.DailyLimit == 0 {
		w.DailyLimit = models.DefaultDailyLimit
	}
	if w.MonthlyLimit == 0 {
		w.MonthlyLimit = models.DefaultMonthlyLimit
	}
	m.wallets[w.ID] = &w
}

func (m *memStore) wallet(id uint) *models.Wallet { return m.wallets[id] }

func (m *memStore) snapshot() *memStore {
	cp := &memStore{
		wallets:   make(map[uint]*models.Wallet, len(m.wallets)),
		users:     make(map[uint]*models.User, len(m.users)),
		nextRowID: m.nextRowID,
	}
	for id, w := range m.wallets {
		c := *w
		cp.wallets[id] = &c
	}
	for id, u := range m.users {
		c := *u
		cp.users[id] = &c
	}
	for _, t := range m.transactions {
		c := *t
		cp.transactions = append(cp.transactions, &c)
	}
	if m.settings != nil {
		c := *m.settings
		cp.settings = &c
	}
	return cp
}

func (m *memStore) Atomic(_ context.Context, fn func(repositories.Store) error) error {
	saved := m.snapshot()
	if err := fn(m); err != nil {
		m.wallets = saved.wallets
		m.users = saved.users
		m.transactions = saved.transactions
		m.settings = saved.settings
		m.nextRowID = saved.nextRowID
		return err
	}
	return nil
}

func (m *memStore) CreateWallet(_ context.Context, w *models.Wallet) error {
	c := *w
	m.wallets[w.ID] = &c
	return nil
}

func (m *memStore) WalletByID(_ context.Context, id uint) (*models.Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	c := *w
	return &c, nil
}

func (m *memStore) WalletByIDForUpdate(ctx context.Context, id uint) (*models.Wallet, error) {
	return m.WalletByID(ctx, id)
}

func (m *memStore) WalletByUserID(_ context.Context, userID uint) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.UserID == userID {
			c := *w
			return &c, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (m *memStore) WalletByNumber(_ context.Context, number string) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.WalletNumber == number {
			c := *w
			return &c, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (m *memStore) SaveWallet(_ context.Context, w *models.Wallet) error {
	c := *w
	m.wallets[w.ID] = &c
	return nil
}

func (m *memStore) ListWallets(_ context.Context, _, _ int) ([]models.Wallet, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (m *memStore) UpdateAllWalletLimits(_ context.Context, daily, monthly *float64) error {
	for _, w := range m.wallets {
		if daily != nil {
			w.DailyLimit = *daily
		}
		if monthly != nil {
			w.MonthlyLimit = *monthly
		}
	}
	return nil
}

func (m *memStore) CreateUser(_ context.Context, _ *models.User) error { return nil }
func (m *memStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}
func (m *memStore) UserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (m *memStore) UserByPhone(_ context.Context, _ string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (m *memStore) UserByWalletID(_ context.Context, _ uint) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (m *memStore) SaveUser(_ context.Context, _ *models.User) error      { return nil }
func (m *memStore) IncrementTokenVersion(_ context.Context, _ uint) error { return nil }

func (m *memStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	m.nextRowID++
	t.ID = m.nextRowID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	c := *t
	m.transactions = append(m.transactions, &c)
	return nil
}

func (m *memStore) SaveTransaction(_ context.Context, t *models.Transaction) error {
	for i, existing := range m.transactions {
		if existing.TransactionID == t.TransactionID {
			c := *t
			m.transactions[i] = &c
			return nil
		}
	}
	return repositories.ErrTransactionNotFound
}

func (m *memStore) TransactionByTxnID(_ context.Context, txnID string) (*models.Transaction, error) {
	for _, t := range m.transactions {
		if t.TransactionID == txnID {
			c := *t
			return &c, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (m *memStore) TransactionByTxnIDForUpdate(ctx context.Context, txnID string) (*models.Transaction, error) {
	return m.TransactionByTxnID(ctx, txnID)
}

func (m *memStore) OutflowTotalSince(_ context.Context, walletID uint, since time.Time) (float64, error) {
	var total float64
	for _, t := range m.transactions {
		if t.SenderWalletID != walletID || t.Status != models.TransactionStatusCompleted {
			continue
		}
		if t.CreatedAt.Before(since) {
			continue
		}
		for _, typ := range models.OutflowTypes {
			if t.Type == typ {
				total += t.Amount
				break
			}
		}
	}
	return total, nil
}

func (m *memStore) Settings(_ context.Context) (*models.SystemSettings, error) {
	c := *m.settings
	return &c, nil
}

func (m *memStore) SaveSettings(_ context.Context, s *models.SystemSettings) error {
	c := *s
	m.settings = &c
	return nil
}

// plainHasher keeps PIN checks fast and readable in tests.
type plainHasher struct{}

func (plainHasher) Hash(pin string) (string, error) { return pin, nil }

func (plainHasher) Compare(hash, pin string) error {
	if hash != pin {
		return errors.New("mismatch")
	}
	return nil
}

func newTestService(store *memStore) Service {
	return NewService(store, pin.NewGuard(plainHasher{}), fee.NewPolicy(), limit.NewChecker(), nil)
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the wallet and records snapshots", func(t *testing.T) {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 50})
		svc := newTestService(store)

		tx, err := svc.Deposit(ctx, DepositRequest{WalletID: 1, Amount: 100})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeDeposit, tx.Type)
		assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
		assert.Equal(t, 100.0, tx.Amount)
		assert.Equal(t, 0.0, tx.Fee)
		assert.Equal(t, 50.0, tx.SenderBalanceBefore)
		assert.Equal(t, 150.0, tx.SenderBalanceAfter)

		w := store.wallet(1)
		assert.Equal(t, 150.0, w.Balance)
		assert.Equal(t, 100.0, w.TotalDeposited)
		assert.Len(t, store.transactions, 1)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 50})
		svc := newTestService(store)

		for _, amount := range []float64{0, -5} {
			_, err := svc.Deposit(ctx, DepositRequest{WalletID: 1, Amount: amount})
			require.Error(t, err)
			assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		}
		assert.Empty(t, store.transactions)
	})

	t.Run("rejects inactive wallets", func(t *testing.T) {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 50, Status: models.WalletStatusBlocked})
		svc := newTestService(store)

		_, err := svc.Deposit(ctx, DepositRequest{WalletID: 1, Amount: 100})
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		assert.Equal(t, 50.0, store.wallet(1).Balance)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		store := newMemStore()
		svc := newTestService(store)

		_, err := svc.Deposit(ctx, DepositRequest{WalletID: 99, Amount: 100})
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	seed := func() *memStore {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 200, PinHash: "12345"})
		store.addWallet(models.Wallet{ID: 2, UserID: 20, Balance: 50, PinHash: "54321"})
		return store
	}

	t.Run("moves the amount between wallets", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		tx, err := svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           150,
			PIN:              "12345",
		})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeTransfer, tx.Type)
		assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
		assert.Equal(t, 200.0, tx.SenderBalanceBefore)
		assert.Equal(t, 50.0, tx.SenderBalanceAfter)
		assert.Equal(t, 50.0, tx.ReceiverBalanceBefore)
		assert.Equal(t, 200.0, tx.ReceiverBalanceAfter)

		assert.Equal(t, 50.0, store.wallet(1).Balance)
		assert.Equal(t, 150.0, store.wallet(1).TotalSent)
		assert.Equal(t, 200.0, store.wallet(2).Balance)
		assert.Equal(t, 150.0, store.wallet(2).TotalReceived)
	})

	t.Run("insufficient balance aborts with no ledger row", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		_, err := svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           200.01,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		assert.EqualError(t, err, "insufficient balance")

		assert.Equal(t, 200.0, store.wallet(1).Balance)
		assert.Equal(t, 50.0, store.wallet(2).Balance)
		assert.Empty(t, store.transactions)
	})

	t.Run("same wallet is rejected", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		_, err := svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 1,
			Amount:           10,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})

	t.Run("wrong PIN aborts but the attempt is persisted", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		_, err := svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           10,
			PIN:              "00000",
		})
		require.Error(t, err)
		assert.EqualError(t, err, "incorrect PIN, 4 attempts remaining")

		assert.Equal(t, 1, store.wallet(1).PinAttempts)
		assert.Equal(t, 200.0, store.wallet(1).Balance)
		assert.Empty(t, store.transactions)
	})

	t.Run("five failures lock the wallet", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		req := TransferRequest{SenderWalletID: 1, ReceiverWalletID: 2, Amount: 10, PIN: "00000"}
		for i := 0; i < models.MaxPinAttempts; i++ {
			_, err := svc.Transfer(ctx, req)
			require.Error(t, err)
		}
		require.NotNil(t, store.wallet(1).PinLockedUntil)

		// The correct PIN is refused while the lock holds.
		req.PIN = "12345"
		_, err := svc.Transfer(ctx, req)
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		assert.Equal(t, 200.0, store.wallet(1).Balance)
	})

	t.Run("daily limit counts prior completed outflows", func(t *testing.T) {
		store := seed()
		daily := 100.0
		w := store.wallet(1)
		w.DailyLimit = daily
		store.transactions = append(store.transactions, &models.Transaction{
			TransactionID:  "TXN-SEED",
			Type:           models.TransactionTypeTransfer,
			SenderWalletID: 1,
			Amount:         80,
			Status:         models.TransactionStatusCompleted,
			CreatedAt:      time.Now(),
		})
		svc := newTestService(store)

		_, err := svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           30,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		assert.EqualError(t, err, "daily limit exceeded, available: 20.00")

		// Exactly the remaining headroom settles.
		_, err = svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           20,
			PIN:              "12345",
		})
		assert.NoError(t, err)
	})
}

func TestCashIn(t *testing.T) {
	ctx := context.Background()

	seed := func() *memStore {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 1000, PinHash: "12345"}) // agent
		store.addWallet(models.Wallet{ID: 2, UserID: 20, Balance: 50, PinHash: "54321"})  // customer
		store.addApprovedAgent(10)
		return store
	}

	t.Run("agent funds the customer and keeps the commission", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		tx, err := svc.CashIn(ctx, CashInRequest{
			AgentWalletID:    1,
			CustomerWalletID: 2,
			Amount:           100,
			PIN:              "12345",
		})
		require.NoError(t, err)

		// 2% fee, half of it back as commission.
		assert.Equal(t, 2.0, tx.Fee)
		assert.Equal(t, 1.0, tx.Commission)
		require.NotNil(t, tx.AgentID)
		assert.Equal(t, uint(10), *tx.AgentID)

		assert.Equal(t, 899.0, store.wallet(1).Balance)
		assert.Equal(t, 150.0, store.wallet(2).Balance)
		assert.Equal(t, 100.0, store.wallet(2).TotalReceived)
	})

	t.Run("unapproved agent is refused", func(t *testing.T) {
		store := seed()
		store.users[10].AgentApproved = false
		svc := newTestService(store)

		_, err := svc.CashIn(ctx, CashInRequest{
			AgentWalletID:    1,
			CustomerWalletID: 2,
			Amount:           100,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		assert.EqualError(t, err, "agent is not approved")
		assert.Empty(t, store.transactions)
	})

	t.Run("agent cannot cover amount plus fee", func(t *testing.T) {
		store := seed()
		store.wallet(1).Balance = 100
		svc := newTestService(store)

		_, err := svc.CashIn(ctx, CashInRequest{
			AgentWalletID:    1,
			CustomerWalletID: 2,
			Amount:           100,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.EqualError(t, err, "insufficient agent balance")
		assert.Equal(t, 100.0, store.wallet(1).Balance)
		assert.Empty(t, store.transactions)
	})
}

func TestCashOut(t *testing.T) {
	ctx := context.Background()

	seed := func() *memStore {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 500, PinHash: "12345"})  // customer
		store.addWallet(models.Wallet{ID: 2, UserID: 20, Balance: 1000, PinHash: "54321"}) // agent
		store.addApprovedAgent(20)
		return store
	}

	t.Run("customer pays amount plus fee, agent earns commission", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		tx, err := svc.CashOut(ctx, CashOutRequest{
			CustomerWalletID: 1,
			AgentWalletID:    2,
			Amount:           100,
			PIN:              "12345",
		})
		require.NoError(t, err)

		assert.Equal(t, 2.0, tx.Fee)
		assert.Equal(t, 1.0, tx.Commission)
		assert.Equal(t, 398.0, store.wallet(1).Balance)
		assert.Equal(t, 100.0, store.wallet(1).TotalSent)
		assert.Equal(t, 1101.0, store.wallet(2).Balance)
	})

	t.Run("fee pushes the debit past the balance", func(t *testing.T) {
		store := seed()
		store.wallet(1).Balance = 100
		svc := newTestService(store)

		// 100 + 2% fee = 102 > 100.
		_, err := svc.CashOut(ctx, CashOutRequest{
			CustomerWalletID: 1,
			AgentWalletID:    2,
			Amount:           100,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.EqualError(t, err, "insufficient balance")
		assert.Equal(t, 100.0, store.wallet(1).Balance)
		assert.Equal(t, 1000.0, store.wallet(2).Balance)
		assert.Empty(t, store.transactions)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	seed := func() *memStore {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 500, PinHash: "12345"})  // customer
		store.addWallet(models.Wallet{ID: 2, UserID: 20, Balance: 1000, PinHash: "54321"}) // agent
		store.addApprovedAgent(20)
		return store
	}

	t.Run("moves cash liability from customer to agent", func(t *testing.T) {
		store := seed()
		svc := newTestService(store)

		tx, err := svc.Withdraw(ctx, WithdrawRequest{
			CustomerWalletID: 1,
			AgentWalletID:    2,
			Amount:           100,
			PIN:              "12345",
		})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeWithdrawal, tx.Type)
		assert.Equal(t, 0.0, tx.Fee)
		assert.Equal(t, 400.0, store.wallet(1).Balance)
		assert.Equal(t, 100.0, store.wallet(1).TotalWithdrawn)
		assert.Equal(t, 900.0, store.wallet(2).Balance)
	})

	t.Run("agent must hold the cash being paid out", func(t *testing.T) {
		store := seed()
		store.wallet(2).Balance = 50
		svc := newTestService(store)

		_, err := svc.Withdraw(ctx, WithdrawRequest{
			CustomerWalletID: 1,
			AgentWalletID:    2,
			Amount:           100,
			PIN:              "12345",
		})
		require.Error(t, err)
		assert.EqualError(t, err, "insufficient agent balance")
		assert.Empty(t, store.transactions)
	})
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memStore, Service, *models.Transaction) {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 200, PinHash: "12345"})
		store.addWallet(models.Wallet{ID: 2, UserID: 20, Balance: 50, PinHash: "54321"})
		svc := newTestService(store)

		tx, err := svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           150,
			PIN:              "12345",
		})
		require.NoError(t, err)
		return store, svc, tx
	}

	t.Run("reverses the original deltas", func(t *testing.T) {
		store, svc, original := setup(t)

		refund, err := svc.Refund(ctx, RefundRequest{TransactionID: original.TransactionID})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeRefund, refund.Type)
		assert.Equal(t, "REFUND-"+original.TransactionID, refund.Reference)
		assert.Equal(t, 150.0, refund.Amount)

		// Balances are back where they started.
		assert.Equal(t, 200.0, store.wallet(1).Balance)
		assert.Equal(t, 50.0, store.wallet(2).Balance)

		stored, err := store.TransactionByTxnID(ctx, original.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefunded, stored.Status)
	})

	t.Run("refunding a deposit debits the credited amount", func(t *testing.T) {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 50, PinHash: "12345"})
		svc := newTestService(store)

		dep, err := svc.Deposit(ctx, DepositRequest{WalletID: 1, Amount: 100})
		require.NoError(t, err)
		require.Equal(t, 150.0, store.wallet(1).Balance)

		refund, err := svc.Refund(ctx, RefundRequest{TransactionID: dep.TransactionID})
		require.NoError(t, err)

		// The deposit is actually reversed, not cancelled out.
		assert.Equal(t, 50.0, store.wallet(1).Balance)
		assert.Equal(t, 150.0, refund.SenderBalanceBefore)
		assert.Equal(t, 50.0, refund.SenderBalanceAfter)
		assert.Equal(t, 150.0, refund.ReceiverBalanceBefore)
		assert.Equal(t, 50.0, refund.ReceiverBalanceAfter)

		stored, err := store.TransactionByTxnID(ctx, dep.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefunded, stored.Status)
	})

	t.Run("a spent deposit cannot be refunded", func(t *testing.T) {
		store := newMemStore()
		store.addWallet(models.Wallet{ID: 1, UserID: 10, Balance: 0, PinHash: "12345"})
		store.addWallet(models.Wallet{ID: 2, UserID: 20, Balance: 50, PinHash: "54321"})
		svc := newTestService(store)

		dep, err := svc.Deposit(ctx, DepositRequest{WalletID: 1, Amount: 100})
		require.NoError(t, err)

		_, err = svc.Transfer(ctx, TransferRequest{
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           60,
			PIN:              "12345",
		})
		require.NoError(t, err)

		_, err = svc.Refund(ctx, RefundRequest{TransactionID: dep.TransactionID})
		require.Error(t, err)
		assert.EqualError(t, err, "receiver balance insufficient for refund")

		// The aborted refund leaves the deposit COMPLETED and the balance alone.
		stored, err := store.TransactionByTxnID(ctx, dep.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, stored.Status)
		assert.Equal(t, 40.0, store.wallet(1).Balance)
	})

	t.Run("a refunded transaction cannot be refunded again", func(t *testing.T) {
		_, svc, original := setup(t)

		_, err := svc.Refund(ctx, RefundRequest{TransactionID: original.TransactionID})
		require.NoError(t, err)

		_, err = svc.Refund(ctx, RefundRequest{TransactionID: original.TransactionID})
		require.Error(t, err)
		assert.EqualError(t, err, "transaction already refunded")
	})

	t.Run("only completed transactions are refundable", func(t *testing.T) {
		store, svc, _ := setup(t)
		store.transactions = append(store.transactions, &models.Transaction{
			TransactionID:    "TXN-PENDING",
			Type:             models.TransactionTypeTransfer,
			SenderWalletID:   1,
			ReceiverWalletID: 2,
			Amount:           10,
			Status:           models.TransactionStatusPending,
		})

		_, err := svc.Refund(ctx, RefundRequest{TransactionID: "TXN-PENDING"})
		require.Error(t, err)
		assert.EqualError(t, err, "only completed transactions can be refunded")
	})

	t.Run("receiver must still hold the amount", func(t *testing.T) {
		store, svc, original := setup(t)
		store.wallet(2).Balance = 10

		_, err := svc.Refund(ctx, RefundRequest{TransactionID: original.TransactionID})
		require.Error(t, err)
		assert.EqualError(t, err, "receiver balance insufficient for refund")

		// The original stays COMPLETED after the aborted refund.
		stored, err := store.TransactionByTxnID(ctx, original.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, stored.Status)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, svc, _ := setup(t)

		_, err := svc.Refund(ctx, RefundRequest{TransactionID: "TXN-MISSING"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
