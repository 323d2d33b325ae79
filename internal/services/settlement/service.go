// Package settlement is the transaction settlement engine. Each operation
// validates preconditions, computes fees and commissions, enforces spending
// limits, mutates wallet balances and appends an auditable ledger record,
// all inside one atomic unit of work. Any precondition failure aborts the
// whole unit: no partial balance mutation, no ledger row.
package settlement

import (
	"context"
	"log"

	"dwallet/internal/apperr"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/services/fee"
	"dwallet/internal/services/limit"
	"dwallet/internal/services/pin"
	"dwallet/internal/utils"
)

type Service interface {
	Transfer(ctx context.Context, req TransferRequest) (*models.Transaction, error)
	CashIn(ctx context.Context, req CashInRequest) (*models.Transaction, error)
	CashOut(ctx context.Context, req CashOutRequest) (*models.Transaction, error)
	Deposit(ctx context.Context, req DepositRequest) (*models.Transaction, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*models.Transaction, error)
	Refund(ctx context.Context, req RefundRequest) (*models.Transaction, error)
}

// CacheInvalidator drops cached wallet reads after a commit touches them.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, walletIDs ...uint) error
}

type service struct {
	store  repositories.Store
	pins   *pin.Guard
	fees   fee.Policy
	limits *limit.Checker
	cache  CacheInvalidator
}

// NewService wires the settlement engine. cache may be nil.
func NewService(store repositories.Store, pins *pin.Guard, fees fee.Policy, limits *limit.Checker, cache CacheInvalidator) Service {
	if store == nil {
		panic("store is required")
	}
	if pins == nil {
		panic("pin guard is required")
	}
	if limits == nil {
		panic("limit checker is required")
	}

	return &service{
		store:  store,
		pins:   pins,
		fees:   fees,
		limits: limits,
		cache:  cache,
	}
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (*models.Transaction, error) {
	amount, err := validAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.SenderWalletID == req.ReceiverWalletID {
		return nil, apperr.BadRequest("cannot transfer to same wallet")
	}

	var record *models.Transaction
	var gateErr error

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		sender, receiver, err := lockPair(ctx, tx, req.SenderWalletID, req.ReceiverWalletID)
		if err != nil {
			return err
		}
		if err := requireActive(sender); err != nil {
			return err
		}
		if err := requireActive(receiver); err != nil {
			return err
		}

		if pinErr := s.pins.Verify(sender, req.PIN); pinErr != nil {
			gateErr = pinErr
			return tx.SaveWallet(ctx, sender)
		}

		settings, err := tx.Settings(ctx)
		if err != nil {
			return apperr.Internal(err)
		}
		quote := s.fees.QuoteFor(models.TransactionTypeTransfer, amount, settings)
		total := quote.Total(amount)

		if sender.Balance < total {
			return apperr.BadRequest("insufficient balance")
		}
		if err := s.limits.Check(ctx, tx, sender, total); err != nil {
			return err
		}

		t := &models.Transaction{
			TransactionID:         utils.NewTransactionID(),
			Type:                  models.TransactionTypeTransfer,
			SenderID:              sender.UserID,
			ReceiverID:            receiver.UserID,
			SenderWalletID:        sender.ID,
			ReceiverWalletID:      receiver.ID,
			Amount:                amount,
			Fee:                   quote.Fee,
			Status:                models.TransactionStatusPending,
			Reference:             req.Reference,
			Description:           req.Description,
			SenderBalanceBefore:   sender.Balance,
			ReceiverBalanceBefore: receiver.Balance,
		}

		sender.Balance = utils.Round2(sender.Balance - total)
		sender.TotalSent = utils.Round2(sender.TotalSent + amount)
		receiver.Balance = utils.Round2(receiver.Balance + amount)
		receiver.TotalReceived = utils.Round2(receiver.TotalReceived + amount)

		t.SenderBalanceAfter = sender.Balance
		t.ReceiverBalanceAfter = receiver.Balance
		t.Status = models.TransactionStatusCompleted

		if err := tx.SaveWallet(ctx, sender); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.SaveWallet(ctx, receiver); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return apperr.Internal(err)
		}

		record = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if gateErr != nil {
		return nil, gateErr
	}

	s.invalidate(ctx, req.SenderWalletID, req.ReceiverWalletID)
	return record, nil
}

func (s *service) CashIn(ctx context.Context, req CashInRequest) (*models.Transaction, error) {
	amount, err := validAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.AgentWalletID == req.CustomerWalletID {
		return nil, apperr.BadRequest("agent and customer wallets must differ")
	}

	var record *models.Transaction
	var gateErr error

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		agent, customer, err := lockPair(ctx, tx, req.AgentWalletID, req.CustomerWalletID)
		if err != nil {
			return err
		}
		if err := requireActive(agent); err != nil {
			return err
		}
		if err := requireActive(customer); err != nil {
			return err
		}
		if err := requireApprovedAgent(ctx, tx, agent); err != nil {
			return err
		}

		if pinErr := s.pins.Verify(agent, req.PIN); pinErr != nil {
			gateErr = pinErr
			return tx.SaveWallet(ctx, agent)
		}

		settings, err := tx.Settings(ctx)
		if err != nil {
			return apperr.Internal(err)
		}
		quote := s.fees.QuoteFor(models.TransactionTypeCashIn, amount, settings)
		total := quote.Total(amount)

		if agent.Balance < total {
			return apperr.BadRequest("insufficient agent balance")
		}

		t := &models.Transaction{
			TransactionID:         utils.NewTransactionID(),
			Type:                  models.TransactionTypeCashIn,
			SenderID:              agent.UserID,
			ReceiverID:            customer.UserID,
			SenderWalletID:        agent.ID,
			ReceiverWalletID:      customer.ID,
			AgentID:               &agent.UserID,
			AgentWalletID:         &agent.ID,
			Amount:                amount,
			Fee:                   quote.Fee,
			Commission:            quote.Commission,
			Status:                models.TransactionStatusPending,
			Reference:             req.Reference,
			SenderBalanceBefore:   agent.Balance,
			ReceiverBalanceBefore: customer.Balance,
		}

		// Agent pays amount + fee and earns the commission back.
		agent.Balance = utils.Round2(agent.Balance - total + quote.Commission)
		customer.Balance = utils.Round2(customer.Balance + amount)
		customer.TotalReceived = utils.Round2(customer.TotalReceived + amount)

		t.SenderBalanceAfter = agent.Balance
		t.ReceiverBalanceAfter = customer.Balance
		t.Status = models.TransactionStatusCompleted

		if err := tx.SaveWallet(ctx, agent); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.SaveWallet(ctx, customer); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return apperr.Internal(err)
		}

		record = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if gateErr != nil {
		return nil, gateErr
	}

	s.invalidate(ctx, req.AgentWalletID, req.CustomerWalletID)
	return record, nil
}

func (s *service) CashOut(ctx context.Context, req CashOutRequest) (*models.Transaction, error) {
	amount, err := validAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.AgentWalletID == req.CustomerWalletID {
		return nil, apperr.BadRequest("agent and customer wallets must differ")
	}

	var record *models.Transaction
	var gateErr error

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		customer, agent, err := lockPair(ctx, tx, req.CustomerWalletID, req.AgentWalletID)
		if err != nil {
			return err
		}
		if err := requireActive(customer); err != nil {
			return err
		}
		if err := requireActive(agent); err != nil {
			return err
		}
		if err := requireApprovedAgent(ctx, tx, agent); err != nil {
			return err
		}

		if pinErr := s.pins.Verify(customer, req.PIN); pinErr != nil {
			gateErr = pinErr
			return tx.SaveWallet(ctx, customer)
		}

		settings, err := tx.Settings(ctx)
		if err != nil {
			return apperr.Internal(err)
		}
		quote := s.fees.QuoteFor(models.TransactionTypeCashOut, amount, settings)
		total := quote.Total(amount)

		if customer.Balance < total {
			return apperr.BadRequest("insufficient balance")
		}
		if err := s.limits.Check(ctx, tx, customer, total); err != nil {
			return err
		}

		t := &models.Transaction{
			TransactionID:         utils.NewTransactionID(),
			Type:                  models.TransactionTypeCashOut,
			SenderID:              customer.UserID,
			ReceiverID:            agent.UserID,
			SenderWalletID:        customer.ID,
			ReceiverWalletID:      agent.ID,
			AgentID:               &agent.UserID,
			AgentWalletID:         &agent.ID,
			Amount:                amount,
			Fee:                   quote.Fee,
			Commission:            quote.Commission,
			Status:                models.TransactionStatusPending,
			Reference:             req.Reference,
			SenderBalanceBefore:   customer.Balance,
			ReceiverBalanceBefore: agent.Balance,
		}

		customer.Balance = utils.Round2(customer.Balance - total)
		customer.TotalSent = utils.Round2(customer.TotalSent + amount)
		agent.Balance = utils.Round2(agent.Balance + amount + quote.Commission)
		agent.TotalReceived = utils.Round2(agent.TotalReceived + amount)

		t.SenderBalanceAfter = customer.Balance
		t.ReceiverBalanceAfter = agent.Balance
		t.Status = models.TransactionStatusCompleted

		if err := tx.SaveWallet(ctx, customer); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.SaveWallet(ctx, agent); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return apperr.Internal(err)
		}

		record = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if gateErr != nil {
		return nil, gateErr
	}

	s.invalidate(ctx, req.CustomerWalletID, req.AgentWalletID)
	return record, nil
}

func (s *service) Deposit(ctx context.Context, req DepositRequest) (*models.Transaction, error) {
	amount, err := validAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var record *models.Transaction

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		w, err := tx.WalletByIDForUpdate(ctx, req.WalletID)
		if err != nil {
			return walletErr(err)
		}
		if err := requireActive(w); err != nil {
			return err
		}

		t := &models.Transaction{
			TransactionID:         utils.NewTransactionID(),
			Type:                  models.TransactionTypeDeposit,
			SenderID:              w.UserID,
			ReceiverID:            w.UserID,
			SenderWalletID:        w.ID,
			ReceiverWalletID:      w.ID,
			Amount:                amount,
			Status:                models.TransactionStatusPending,
			Reference:             req.Reference,
			Description:           req.Description,
			SenderBalanceBefore:   w.Balance,
			ReceiverBalanceBefore: w.Balance,
		}

		w.Balance = utils.Round2(w.Balance + amount)
		w.TotalDeposited = utils.Round2(w.TotalDeposited + amount)

		t.SenderBalanceAfter = w.Balance
		t.ReceiverBalanceAfter = w.Balance
		t.Status = models.TransactionStatusCompleted

		if err := tx.SaveWallet(ctx, w); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return apperr.Internal(err)
		}

		record = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.WalletID)
	return record, nil
}

func (s *service) Withdraw(ctx context.Context, req WithdrawRequest) (*models.Transaction, error) {
	amount, err := validAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.AgentWalletID == req.CustomerWalletID {
		return nil, apperr.BadRequest("agent and customer wallets must differ")
	}

	var record *models.Transaction
	var gateErr error

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		customer, agent, err := lockPair(ctx, tx, req.CustomerWalletID, req.AgentWalletID)
		if err != nil {
			return err
		}
		if err := requireActive(customer); err != nil {
			return err
		}
		if err := requireActive(agent); err != nil {
			return err
		}
		if err := requireApprovedAgent(ctx, tx, agent); err != nil {
			return err
		}

		if pinErr := s.pins.Verify(customer, req.PIN); pinErr != nil {
			gateErr = pinErr
			return tx.SaveWallet(ctx, customer)
		}

		settings, err := tx.Settings(ctx)
		if err != nil {
			return apperr.Internal(err)
		}
		quote := s.fees.QuoteFor(models.TransactionTypeWithdrawal, amount, settings)
		total := quote.Total(amount)

		if customer.Balance < total {
			return apperr.BadRequest("insufficient balance")
		}
		// The agent pays out physical cash and must hold enough balance.
		if agent.Balance < amount {
			return apperr.BadRequest("insufficient agent balance")
		}
		if err := s.limits.Check(ctx, tx, customer, total); err != nil {
			return err
		}

		t := &models.Transaction{
			TransactionID:         utils.NewTransactionID(),
			Type:                  models.TransactionTypeWithdrawal,
			SenderID:              customer.UserID,
			ReceiverID:            agent.UserID,
			SenderWalletID:        customer.ID,
			ReceiverWalletID:      agent.ID,
			AgentID:               &agent.UserID,
			AgentWalletID:         &agent.ID,
			Amount:                amount,
			Fee:                   quote.Fee,
			Commission:            quote.Commission,
			Status:                models.TransactionStatusPending,
			Reference:             req.Reference,
			Description:           req.Description,
			SenderBalanceBefore:   customer.Balance,
			ReceiverBalanceBefore: agent.Balance,
		}

		customer.Balance = utils.Round2(customer.Balance - total)
		customer.TotalWithdrawn = utils.Round2(customer.TotalWithdrawn + amount)
		agent.Balance = utils.Round2(agent.Balance - amount + quote.Commission)

		t.SenderBalanceAfter = customer.Balance
		t.ReceiverBalanceAfter = agent.Balance
		t.Status = models.TransactionStatusCompleted

		if err := tx.SaveWallet(ctx, customer); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.SaveWallet(ctx, agent); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return apperr.Internal(err)
		}

		record = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if gateErr != nil {
		return nil, gateErr
	}

	s.invalidate(ctx, req.CustomerWalletID, req.AgentWalletID)
	return record, nil
}

func (s *service) Refund(ctx context.Context, req RefundRequest) (*models.Transaction, error) {
	var record *models.Transaction
	var senderWalletID, receiverWalletID uint

	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		original, err := tx.TransactionByTxnIDForUpdate(ctx, req.TransactionID)
		if err != nil {
			if err == repositories.ErrTransactionNotFound {
				return apperr.NotFound("transaction not found")
			}
			return apperr.Internal(err)
		}

		if original.Status == models.TransactionStatusRefunded {
			return apperr.BadRequest("transaction already refunded")
		}
		if original.Status != models.TransactionStatusCompleted {
			return apperr.BadRequest("only completed transactions can be refunded")
		}

		description := req.Reason
		if description == "" {
			description = "Transaction refund"
		}

		t := &models.Transaction{
			TransactionID:    utils.NewTransactionID(),
			Type:             models.TransactionTypeRefund,
			SenderID:         original.ReceiverID,
			ReceiverID:       original.SenderID,
			SenderWalletID:   original.ReceiverWalletID,
			ReceiverWalletID: original.SenderWalletID,
			Amount:           original.Amount,
			Fee:              original.Fee,
			Status:           models.TransactionStatusPending,
			Reference:        "REFUND-" + original.TransactionID,
			Description:      description,
		}

		var touched []*models.Wallet

		if original.SenderWalletID == original.ReceiverWalletID {
			// Self-referential original (a deposit): both parties are the
			// same wallet, so the reversal is the single net delta, a debit
			// of amount less any fee the wallet already paid.
			w, err := tx.WalletByIDForUpdate(ctx, original.SenderWalletID)
			if err != nil {
				return walletErr(err)
			}
			if w.Balance < original.Amount {
				return apperr.BadRequest("receiver balance insufficient for refund")
			}

			t.SenderBalanceBefore = w.Balance
			t.ReceiverBalanceBefore = w.Balance
			w.Balance = utils.Round2(w.Balance - original.Amount + original.Fee)
			t.SenderBalanceAfter = w.Balance
			t.ReceiverBalanceAfter = w.Balance

			touched = []*models.Wallet{w}
		} else {
			senderWallet, receiverWallet, err := lockPair(ctx, tx, original.SenderWalletID, original.ReceiverWalletID)
			if err != nil {
				return err
			}

			// Reverse the original deltas exactly: the receiver gives back
			// the amount, the original sender regains amount + fee.
			if receiverWallet.Balance < original.Amount {
				return apperr.BadRequest("receiver balance insufficient for refund")
			}

			t.SenderBalanceBefore = receiverWallet.Balance
			t.ReceiverBalanceBefore = senderWallet.Balance
			receiverWallet.Balance = utils.Round2(receiverWallet.Balance - original.Amount)
			senderWallet.Balance = utils.Round2(senderWallet.Balance + original.Amount + original.Fee)
			t.SenderBalanceAfter = receiverWallet.Balance
			t.ReceiverBalanceAfter = senderWallet.Balance

			touched = []*models.Wallet{senderWallet, receiverWallet}
		}

		t.Status = models.TransactionStatusCompleted
		original.Status = models.TransactionStatusRefunded

		for _, w := range touched {
			if err := tx.SaveWallet(ctx, w); err != nil {
				return apperr.Internal(err)
			}
		}
		if err := tx.SaveTransaction(ctx, original); err != nil {
			return apperr.Internal(err)
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return apperr.Internal(err)
		}

		senderWalletID = original.SenderWalletID
		receiverWalletID = original.ReceiverWalletID
		record = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, senderWalletID, receiverWalletID)
	return record, nil
}

func (s *service) invalidate(ctx context.Context, walletIDs ...uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, walletIDs...); err != nil {
		log.Printf("failed to invalidate wallet cache: %v", err)
	}
}

func validAmount(amount float64) (float64, error) {
	rounded := utils.Round2(amount)
	if rounded <= 0 {
		return 0, apperr.BadRequest("amount must be greater than 0")
	}
	return rounded, nil
}

// requireApprovedAgent ensures the wallet belongs to an admin-approved agent
// before it may facilitate cash-in, cash-out or withdrawal.
func requireApprovedAgent(ctx context.Context, tx repositories.Store, w *models.Wallet) error {
	u, err := tx.UserByID(ctx, w.UserID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return apperr.NotFound("agent not found")
		}
		return apperr.Internal(err)
	}
	if !u.IsAgent() {
		return apperr.Forbidden("agent is not approved")
	}
	return nil
}

func requireActive(w *models.Wallet) error {
	if !w.IsActive() {
		return apperr.Newf(apperr.KindForbidden, "wallet %s is %s", w.WalletNumber, w.Status)
	}
	return nil
}

func walletErr(err error) error {
	if err == repositories.ErrWalletNotFound {
		return apperr.NotFound("wallet not found")
	}
	return apperr.Internal(err)
}

// lockPair takes FOR UPDATE locks on two wallets in ascending ID order so
// concurrent operations touching the same pair never deadlock, then returns
// them in the order they were asked for.
func lockPair(ctx context.Context, tx repositories.Store, firstID, secondID uint) (*models.Wallet, *models.Wallet, error) {
	lockOrder := []uint{firstID, secondID}
	if secondID < firstID {
		lockOrder = []uint{secondID, firstID}
	}

	locked := make(map[uint]*models.Wallet, 2)
	for _, id := range lockOrder {
		w, err := tx.WalletByIDForUpdate(ctx, id)
		if err != nil {
			return nil, nil, walletErr(err)
		}
		locked[id] = w
	}

	return locked[firstID], locked[secondID], nil
}
