package projects

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	projsvc "wattshare-backend/internal/application/projects"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/middleware"
	"wattshare-backend/internal/pkg/pagination"
	"wattshare-backend/internal/pkg/response"
	"wattshare-backend/internal/pkg/validation"
)

type Handlers struct {
	Service *projsvc.Service
}

var statusByErr = map[error]int{
	projsvc.ErrInvalidSupply:      400,
	projsvc.ErrInvalidPrice:       400,
	projsvc.ErrInvalidMinPurchase: 400,
	projsvc.ErrInvalidCreator:     400,
	projsvc.ErrInvalidName:        400,
	projsvc.ErrProjectNotFound:    404,
	projsvc.ErrUnauthorized:       403,
	pagination.ErrLimitTooLarge:   400,
}

func fail(c *fiber.Ctx, err error) error {
	if code, ok := statusByErr[err]; ok {
		return response.Error(c, err.Error(), code)
	}
	return response.Error(c, "Internal Server Error", 500)
}

type createBody struct {
	Name        string `json:"name"`
	TotalSupply uint64 `json:"total_supply"`
	PriceWei    string `json:"price_wei"`
	MinPurchase uint64 `json:"min_purchase"`
}

func (b createBody) params() (projsvc.CreateParams, error) {
	price, err := domain.ParseWei(b.PriceWei)
	if err != nil {
		return projsvc.CreateParams{}, err
	}
	return projsvc.CreateParams{
		Name:        b.Name,
		TotalSupply: b.TotalSupply,
		PriceWei:    price,
		MinPurchase: b.MinPurchase,
	}, nil
}

// CreateProject POST /api/v1/projects/create-project
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var body createBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400)
	}
	params, err := body.params()
	if err != nil {
		return response.Error(c, "Invalid price_wei", 400)
	}

	project, err := h.Service.Create(c.Context(), middleware.GetActor(c), params)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Project created", project)
}

// CreateProjectFor POST /api/v1/projects/create-project-for (admin only)
func (h *Handlers) CreateProjectFor(c *fiber.Ctx) error {
	var body struct {
		createBody
		Creator string `json:"creator"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400)
	}
	params, err := body.params()
	if err != nil {
		return response.Error(c, "Invalid price_wei", 400)
	}

	project, err := h.Service.CreateFor(c.Context(), middleware.GetActor(c), body.Creator, params)
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Project created", project)
}

// TransferOwnership PATCH /api/v1/projects/transfer-ownership
func (h *Handlers) TransferOwnership(c *fiber.Ctx) error {
	var body struct {
		ProjectID  uint64 `json:"project_id"`
		NewCreator string `json:"new_creator"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 {
		return response.Error(c, "Missing required fields", 400)
	}

	if err := h.Service.TransferOwnership(c.Context(), body.ProjectID, middleware.GetActor(c), body.NewCreator); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Ownership transferred", nil, nil)
}

// SetStatus PATCH /api/v1/projects/set-status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	var body struct {
		ProjectID uint64 `json:"project_id"`
		Active    *bool  `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil || body.ProjectID == 0 || body.Active == nil {
		return response.Error(c, "Missing required fields", 400)
	}

	if err := h.Service.SetActive(c.Context(), body.ProjectID, middleware.GetActor(c), *body.Active); err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Project status updated", nil, nil)
}

// GetProject GET /api/v1/projects/get-project/:id
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return response.Error(c, "Invalid project id", 400)
	}

	project, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Project fetched", project, nil)
}

// ListProjects GET /api/v1/projects/get-projects?offset=&limit=
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	page, err := h.Service.List(c.Context(), c.QueryInt("offset"), c.QueryInt("limit"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Projects fetched", page.Projects, fiber.Map{
		"total":    page.Total,
		"has_more": page.HasMore,
	})
}

// ListUserProjects GET /api/v1/projects/get-user-projects?address=&offset=&limit=
func (h *Handlers) ListUserProjects(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		address = middleware.GetActor(c)
	}
	if !validation.IsValidAddress(address) {
		return response.Error(c, "Invalid address", 400)
	}

	page, err := h.Service.ListByCreator(c.Context(), address, c.QueryInt("offset"), c.QueryInt("limit"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Projects fetched", page.Projects, fiber.Map{
		"total":    page.Total,
		"has_more": page.HasMore,
	})
}
