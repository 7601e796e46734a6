package rewards

import (
	"github.com/gofiber/fiber/v2"

	rewardsvc "wattshare-backend/internal/application/rewards"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/middleware"
	"wattshare-backend/internal/pkg/response"
	"wattshare-backend/internal/pkg/validation"
)

type Handlers struct {
	Service *rewardsvc.Service
}

var statusByErr = map[error]int{
	rewardsvc.ErrProjectNotFound:        404,
	rewardsvc.ErrProjectNotActive:       409,
	rewardsvc.ErrUnauthorized:           403,
	rewardsvc.ErrNoTokensMinted:         400,
	rewardsvc.ErrNoFundsDeposited:       400,
	rewardsvc.ErrRewardIncreaseTooSmall: 400,
	rewardsvc.ErrNothingToClaim:         400,
	rewardsvc.ErrBatchSizeTooLarge:      400,
	rewardsvc.ErrReasonRequired:         400,
	rewardsvc.ErrTransferFailed:         502,
}

func fail(c *fiber.Ctx, err error) error {
	if code, ok := statusByErr[err]; ok {
		return response.Error(c, err.Error(), code)
	}
	return response.Error(c, "Internal Server Error", 500)
}

// DepositRevenue POST /api/v1/rewards/deposit-revenue
func (h *Handlers) DepositRevenue(c *fiber.Ctx) error {
	var body struct {
		ProjectID      uint64 `json:"project_id"`
		AmountWei      string `json:"amount_wei"`
		EnergyDeltaKwh uint64 `json:"energy_delta_kwh"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 {
		return response.Error(c, "Missing required fields", 400)
	}
	amount, err := domain.ParseWei(body.AmountWei)
	if err != nil {
		return response.Error(c, "Invalid amount_wei", 400)
	}

	if err := h.Service.DepositRevenue(c.Context(), body.ProjectID, middleware.GetActor(c), amount, body.EnergyDeltaKwh); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Revenue deposited", nil, nil)
}

// Claimable GET /api/v1/rewards/claimable?project_id=&address=
func (h *Handlers) Claimable(c *fiber.Ctx) error {
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

	amount, err := h.Service.ClaimableAmount(c.Context(), projectID, address)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Claimable amount fetched", fiber.Map{
		"project_id":    projectID,
		"holder":        validation.NormalizeAddress(address),
		"claimable_wei": amount.String(),
	}, nil)
}

// Claim POST /api/v1/rewards/claim
func (h *Handlers) Claim(c *fiber.Ctx) error {
	var body struct {
		ProjectID uint64 `json:"project_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 {
		return response.Error(c, "Missing required fields", 400)
	}

	amount, err := h.Service.Claim(c.Context(), body.ProjectID, middleware.GetActor(c))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Reward claimed", fiber.Map{
		"project_id":  body.ProjectID,
		"claimed_wei": amount.String(),
	}, nil)
}

// ClaimMultiple POST /api/v1/rewards/claim-multiple
func (h *Handlers) ClaimMultiple(c *fiber.Ctx) error {
	var body struct {
		ProjectIDs []uint64 `json:"project_ids"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.ProjectIDs) == 0 {
		return response.Error(c, "Missing required fields", 400)
	}

	total, err := h.Service.ClaimMultiple(c.Context(), body.ProjectIDs, middleware.GetActor(c))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Rewards claimed", fiber.Map{
		"project_ids": body.ProjectIDs,
		"claimed_wei": total.String(),
	}, nil)
}

// UpdateEnergy POST /api/v1/rewards/update-energy
func (h *Handlers) UpdateEnergy(c *fiber.Ctx) error {
	var body struct {
		ProjectID uint64 `json:"project_id"`
		DeltaKwh  uint64 `json:"delta_kwh"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 {
		return response.Error(c, "Missing required fields", 400)
	}

	if err := h.Service.UpdateEnergy(c.Context(), body.ProjectID, middleware.GetActor(c), body.DeltaKwh); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Energy updated", nil, nil)
}

// SetEnergy POST /api/v1/rewards/set-energy
func (h *Handlers) SetEnergy(c *fiber.Ctx) error {
	var body struct {
		ProjectID uint64 `json:"project_id"`
		ValueKwh  uint64 `json:"value_kwh"`
		Reason    string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 {
		return response.Error(c, "Missing required fields", 400)
	}

	if err := h.Service.SetEnergy(c.Context(), body.ProjectID, middleware.GetActor(c), body.ValueKwh, body.Reason); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Energy corrected", nil, nil)
}
