package handlers

import (
	"dwallet/internal/services/user"
	"dwallet/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
		PIN      string `json:"pin"`
		Role     string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	u, err := h.userService.Register(c.Context(), user.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
		PIN:      input.PIN,
		Role:     input.Role,
	})
	if err != nil {
		return utils.Error(c, err)
	}

	return utils.Created(c, fiber.Map{"user": u})
}

func (h *UserHandler) ApproveAgent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "invalid user id")
	}

	u, err := h.userService.ApproveAgent(c.Context(), uint(id))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"user": u})
}
