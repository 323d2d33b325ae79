package handlers

import (
	"dwallet/internal/services/wallet"
	"dwallet/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) GetMyWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetByUserID(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetMyStats(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetByUserID(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	stats, err := h.walletService.Stats(c.Context(), w.ID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"stats": stats})
}

func (h *WalletHandler) GetByNumber(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return utils.BadRequest(c, "wallet number is required")
	}

	w, err := h.walletService.GetByNumber(c.Context(), number)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) List(c *fiber.Ctx) error {
	p := utils.GetPagination(c, 1, 20)

	wallets, total, err := h.walletService.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return utils.Error(c, err)
	}
	p.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(wallets, p))
}

func (h *WalletHandler) VerifyPin(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		PIN string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.walletService.GetByUserID(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.walletService.VerifyPin(c.Context(), w.ID, input.PIN); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"verified": true})
}

func (h *WalletHandler) ChangePin(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		OldPIN string `json:"old_pin"`
		NewPIN string `json:"new_pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.walletService.GetByUserID(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	if err := h.walletService.ChangePin(c.Context(), w.ID, input.OldPIN, input.NewPIN); err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "PIN changed successfully"})
}

func (h *WalletHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.walletService.UpdateStatus(c.Context(), uint(id), input.Status)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) UpdateLimits(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		DailyLimit   *float64 `json:"daily_limit"`
		MonthlyLimit *float64 `json:"monthly_limit"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.walletService.UpdateLimits(c.Context(), uint(id), input.DailyLimit, input.MonthlyLimit)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.walletService.GetSettings(c.Context())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"settings": settings})
}

func (h *WalletHandler) AdjustSettings(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		CashInFeeRate  *float64 `json:"cash_in_fee_rate"`
		CashOutFeeRate *float64 `json:"cash_out_fee_rate"`
		CommissionRate *float64 `json:"commission_rate"`
		SendMoneyFee   *float64 `json:"send_money_fee"`
		DailyLimit     *float64 `json:"daily_limit"`
		MonthlyLimit   *float64 `json:"monthly_limit"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	settings, err := h.walletService.AdjustSettings(c.Context(), claims.UserID, wallet.SettingsUpdate{
		CashInFeeRate:  input.CashInFeeRate,
		CashOutFeeRate: input.CashOutFeeRate,
		CommissionRate: input.CommissionRate,
		SendMoneyFee:   input.SendMoneyFee,
		DailyLimit:     input.DailyLimit,
		MonthlyLimit:   input.MonthlyLimit,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"settings": settings})
}
