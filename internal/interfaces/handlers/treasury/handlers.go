package treasury

import (
	"github.com/gofiber/fiber/v2"

	treasvc "wattshare-backend/internal/application/treasury"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/middleware"
	"wattshare-backend/internal/pkg/response"
)

type Handlers struct {
	Service *treasvc.Service
}

var statusByErr = map[error]int{
	treasvc.ErrProjectNotFound:   404,
	treasvc.ErrUnauthorized:      403,
	treasvc.ErrInvalidAmount:     400,
	treasvc.ErrInvalidRecipient:  400,
	treasvc.ErrInsufficientSales: 400,
	treasvc.ErrNoResidual:        400,
	treasvc.ErrTransferFailed:    502,
}

func fail(c *fiber.Ctx, err error) error {
	if code, ok := statusByErr[err]; ok {
		return response.Error(c, err.Error(), code)
	}
	return response.Error(c, "Internal Server Error", 500)
}

// WithdrawSales POST /api/v1/treasury/withdraw-sales
func (h *Handlers) WithdrawSales(c *fiber.Ctx) error {
	var body struct {
		ProjectID uint64 `json:"project_id"`
		Recipient string `json:"recipient"`
		AmountWei string `json:"amount_wei"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 || body.Recipient == "" {
		return response.Error(c, "Missing required fields", 400)
	}
	amount, err := domain.ParseWei(body.AmountWei)
	if err != nil {
		return response.Error(c, "Invalid amount_wei", 400)
	}

	if err := h.Service.WithdrawSales(c.Context(), body.ProjectID, middleware.GetActor(c), body.Recipient, amount); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Sales withdrawn", nil, nil)
}

// Pause POST /api/v1/treasury/pause (admin only)
func (h *Handlers) Pause(c *fiber.Ctx) error {
	if err := h.Service.SetPaused(c.Context(), middleware.GetActor(c), true); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Operations paused", nil, nil)
}

// Unpause POST /api/v1/treasury/unpause (admin only)
func (h *Handlers) Unpause(c *fiber.Ctx) error {
	if err := h.Service.SetPaused(c.Context(), middleware.GetActor(c), false); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Operations resumed", nil, nil)
}

// Credit POST /api/v1/treasury/credit (admin only)
func (h *Handlers) Credit(c *fiber.Ctx) error {
	var body struct {
		AmountWei string `json:"amount_wei"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400)
	}
	amount, err := domain.ParseWei(body.AmountWei)
	if err != nil {
		return response.Error(c, "Invalid amount_wei", 400)
	}

	if err := h.Service.Credit(c.Context(), middleware.GetActor(c), amount); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Treasury credited", nil, nil)
}

// RescueDust POST /api/v1/treasury/rescue-dust (admin only)
func (h *Handlers) RescueDust(c *fiber.Ctx) error {
	var body struct {
		Recipient string `json:"recipient"`
	}
	if err := c.BodyParser(&body); err != nil || body.Recipient == "" {
		return response.Error(c, "Missing required fields", 400)
	}

	amount, err := h.Service.RescueDust(c.Context(), middleware.GetActor(c), body.Recipient)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Residual balance rescued", fiber.Map{
		"amount_wei": amount.String(),
	}, nil)
}

// State GET /api/v1/treasury/state
func (h *Handlers) State(c *fiber.Ctx) error {
	st, err := h.Service.State(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Treasury state fetched", st, nil)
}
