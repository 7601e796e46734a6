package ledger

import (
	"github.com/gofiber/fiber/v2"

	ledgersvc "wattshare-backend/internal/application/ledger"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/middleware"
	"wattshare-backend/internal/pkg/pagination"
	"wattshare-backend/internal/pkg/response"
	"wattshare-backend/internal/pkg/validation"
)

type Handlers struct {
	Service *ledgersvc.Service
}

var statusByErr = map[error]int{
	ledgersvc.ErrProjectNotFound:     404,
	ledgersvc.ErrProjectNotActive:    409,
	ledgersvc.ErrPaused:              409,
	ledgersvc.ErrInvalidAmount:       400,
	ledgersvc.ErrBelowMinPurchase:    400,
	ledgersvc.ErrSupplyExhausted:     400,
	ledgersvc.ErrInsufficientPayment: 402,
	ledgersvc.ErrInsufficientBalance: 400,
	ledgersvc.ErrInvalidRecipient:    400,
	ledgersvc.ErrLengthMismatch:      400,
	ledgersvc.ErrTransferFailed:      502,
	pagination.ErrLimitTooLarge:      400,
}

func fail(c *fiber.Ctx, err error) error {
	if code, ok := statusByErr[err]; ok {
		return response.Error(c, err.Error(), code)
	}
	return response.Error(c, "Internal Server Error", 500)
}

// Purchase POST /api/v1/ledger/purchase
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	var body struct {
		ProjectID  uint64 `json:"project_id"`
		Units      uint64 `json:"units"`
		PaymentWei string `json:"payment_wei"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 {
		return response.Error(c, "Missing required fields", 400)
	}
	payment, err := domain.ParseWei(body.PaymentWei)
	if err != nil {
		return response.Error(c, "Invalid payment_wei", 400)
	}

	result, err := h.Service.Purchase(c.Context(), body.ProjectID, middleware.GetActor(c), body.Units, payment)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Units purchased", result, nil)
}

// Transfer POST /api/v1/ledger/transfer
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	var body struct {
		To        string `json:"to"`
		ProjectID uint64 `json:"project_id"`
		Units     uint64 `json:"units"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 || body.To == "" {
		return response.Error(c, "Missing required fields", 400)
	}

	if err := h.Service.Transfer(c.Context(), middleware.GetActor(c), validation.NormalizeAddress(body.To), body.ProjectID, body.Units); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Units transferred", nil, nil)
}

// TransferBatch POST /api/v1/ledger/transfer-batch
func (h *Handlers) TransferBatch(c *fiber.Ctx) error {
	var body struct {
		To         string   `json:"to"`
		ProjectIDs []uint64 `json:"project_ids"`
		Units      []uint64 `json:"units"`
	}
	if err := c.BodyParser(&body); err != nil || body.To == "" {
		return response.Error(c, "Missing required fields", 400)
	}

	if err := h.Service.TransferBatch(c.Context(), middleware.GetActor(c), validation.NormalizeAddress(body.To), body.ProjectIDs, body.Units); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Units transferred", nil, nil)
}

// Balance GET /api/v1/ledger/balance?project_id=&address=
func (h *Handlers) Balance(c *fiber.Ctx) error {
	id := c.QueryInt("project_id")
	if id <= 0 {
		return response.Error(c, "Invalid project id", 400)
	}
	projectID := uint64(id)
	address := c.Query("address")
	if address == "" {
		address = middleware.GetActor(c)
	}
	if !validation.IsValidAddress(address) {
		return response.Error(c, "Invalid address", 400)
	}

	units, err := h.Service.BalanceOf(c.Context(), validation.NormalizeAddress(address), projectID)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Balance fetched", fiber.Map{
		"project_id": projectID,
		"holder":     validation.NormalizeAddress(address),
		"units":      units,
	}, nil)
}

// Portfolio GET /api/v1/ledger/portfolio?offset=&limit=
func (h *Handlers) Portfolio(c *fiber.Ctx) error {
	page, err := h.Service.Portfolio(c.Context(), middleware.GetActor(c), c.QueryInt("offset"), c.QueryInt("limit"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Portfolio fetched", page.Holdings, fiber.Map{
		"total":    page.Total,
		"has_more": page.HasMore,
	})
}
