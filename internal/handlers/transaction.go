package handlers

import (
	"dwallet/internal/models"
	"dwallet/internal/services/settlement"
	"dwallet/internal/services/transaction"
	"dwallet/internal/services/wallet"
	"dwallet/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	settlementService  settlement.Service
	transactionService transaction.Service
	walletService      wallet.Service
}

func NewTransactionHandler(
	settlementService settlement.Service,
	transactionService transaction.Service,
	walletService wallet.Service,
) *TransactionHandler {
	return &TransactionHandler{
		settlementService:  settlementService,
		transactionService: transactionService,
		walletService:      walletService,
	}
}

// callerWallet resolves the authenticated user's wallet.
func (h *TransactionHandler) callerWallet(c *fiber.Ctx) (*models.Wallet, error) {
	claims, err := extractUserClaims(c)
	if err != nil {
		return nil, err
	}
	return h.walletService.GetByUserID(c.Context(), claims.UserID)
}

func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	var input struct {
		ReceiverWalletNumber string  `json:"receiver_wallet_number"`
		Amount               float64 `json:"amount"`
		PIN                  string  `json:"pin"`
		Reference            string  `json:"reference"`
		Description          string  `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.ReceiverWalletNumber == "" {
		return utils.BadRequest(c, "receiver wallet number is required")
	}

	sender, err := h.callerWallet(c)
	if err != nil {
		return utils.Error(c, err)
	}
	receiver, err := h.walletService.GetByNumber(c.Context(), input.ReceiverWalletNumber)
	if err != nil {
		return utils.Error(c, err)
	}

	tx, err := h.settlementService.Transfer(c.Context(), settlement.TransferRequest{
		SenderWalletID:   sender.ID,
		ReceiverWalletID: receiver.ID,
		Amount:           input.Amount,
		PIN:              input.PIN,
		Reference:        input.Reference,
		Description:      input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": tx})
}

// CashIn is performed by an approved agent: cash collected from the customer
// becomes wallet balance.
func (h *TransactionHandler) CashIn(c *fiber.Ctx) error {
	var input struct {
		CustomerWalletNumber string  `json:"customer_wallet_number"`
		Amount               float64 `json:"amount"`
		PIN                  string  `json:"pin"`
		Reference            string  `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.CustomerWalletNumber == "" {
		return utils.BadRequest(c, "customer wallet number is required")
	}

	agent, err := h.callerWallet(c)
	if err != nil {
		return utils.Error(c, err)
	}
	customer, err := h.walletService.GetByNumber(c.Context(), input.CustomerWalletNumber)
	if err != nil {
		return utils.Error(c, err)
	}

	tx, err := h.settlementService.CashIn(c.Context(), settlement.CashInRequest{
		AgentWalletID:    agent.ID,
		CustomerWalletID: customer.ID,
		Amount:           input.Amount,
		PIN:              input.PIN,
		Reference:        input.Reference,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": tx})
}

func (h *TransactionHandler) CashOut(c *fiber.Ctx) error {
	var input struct {
		AgentWalletNumber string  `json:"agent_wallet_number"`
		Amount            float64 `json:"amount"`
		PIN               string  `json:"pin"`
		Reference         string  `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.AgentWalletNumber == "" {
		return utils.BadRequest(c, "agent wallet number is required")
	}

	customer, err := h.callerWallet(c)
	if err != nil {
		return utils.Error(c, err)
	}
	agent, err := h.walletService.GetByNumber(c.Context(), input.AgentWalletNumber)
	if err != nil {
		return utils.Error(c, err)
	}

	tx, err := h.settlementService.CashOut(c.Context(), settlement.CashOutRequest{
		CustomerWalletID: customer.ID,
		AgentWalletID:    agent.ID,
		Amount:           input.Amount,
		PIN:              input.PIN,
		Reference:        input.Reference,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": tx})
}

func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	var input struct {
		Amount      float64 `json:"amount"`
		Reference   string  `json:"reference"`
		Description string  `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.callerWallet(c)
	if err != nil {
		return utils.Error(c, err)
	}

	tx, err := h.settlementService.Deposit(c.Context(), settlement.DepositRequest{
		WalletID:    w.ID,
		Amount:      input.Amount,
		Reference:   input.Reference,
		Description: input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": tx})
}

func (h *TransactionHandler) Withdraw(c *fiber.Ctx) error {
	var input struct {
		AgentWalletNumber string  `json:"agent_wallet_number"`
		Amount            float64 `json:"amount"`
		PIN               string  `json:"pin"`
		Reference         string  `json:"reference"`
		Description       string  `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.AgentWalletNumber == "" {
		return utils.BadRequest(c, "agent wallet number is required")
	}

	customer, err := h.callerWallet(c)
	if err != nil {
		return utils.Error(c, err)
	}
	agent, err := h.walletService.GetByNumber(c.Context(), input.AgentWalletNumber)
	if err != nil {
		return utils.Error(c, err)
	}

	tx, err := h.settlementService.Withdraw(c.Context(), settlement.WithdrawRequest{
		CustomerWalletID: customer.ID,
		AgentWalletID:    agent.ID,
		Amount:           input.Amount,
		PIN:              input.PIN,
		Reference:        input.Reference,
		Description:      input.Description,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": tx})
}

func (h *TransactionHandler) Refund(c *fiber.Ctx) error {
	var input struct {
		TransactionID string `json:"transaction_id"`
		Reason        string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.TransactionID == "" {
		return utils.BadRequest(c, "transaction id is required")
	}

	tx, err := h.settlementService.Refund(c.Context(), settlement.RefundRequest{
		TransactionID: input.TransactionID,
		Reason:        input.Reason,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, fiber.Map{"transaction": tx})
}

func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	txnID := c.Params("txnId")
	if txnID == "" {
		return utils.BadRequest(c, "transaction id is required")
	}

	tx, err := h.transactionService.GetByTransactionID(c.Context(), txnID)
	if err != nil {
		return utils.Error(c, err)
	}

	// Only parties to the transaction and admins may inspect it.
	if claims.Role != models.RoleAdmin &&
		tx.SenderID != claims.UserID && tx.ReceiverID != claims.UserID &&
		(tx.AgentID == nil || *tx.AgentID != claims.UserID) {
		return utils.Forbidden(c, "not a party to this transaction")
	}
	return utils.Success(c, fiber.Map{"transaction": tx})
}

func (h *TransactionHandler) MyTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	txs, total, err := h.transactionService.ListForUser(c.Context(), claims.UserID, transaction.ListFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		SortBy: c.Query("sort_by"),
		Desc:   c.Query("order", "desc") == "desc",
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(txs, p))
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	p := utils.GetPagination(c, 1, 20)
	txs, total, err := h.transactionService.List(c.Context(), transaction.ListFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		SortBy: c.Query("sort_by"),
		Desc:   c.Query("order", "desc") == "desc",
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(txs, p))
}

func (h *TransactionHandler) AgentOverview(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	overview, err := h.transactionService.AgentOverview(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"overview": overview})
}
