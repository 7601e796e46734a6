package projects

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/pkg/pagination"
	"wattshare-backend/internal/pkg/validation"
)

// Service owns the project registry: creation, activation toggling and
// ownership transfer. The per-creator project index is the indexed creator
// column, so listings preserve creation order.
type Service struct {
	DB *gorm.DB
	Mu *sync.Mutex
}

// CreateParams are the caller-supplied project parameters.
type CreateParams struct {
	Name        string
	TotalSupply uint64
	PriceWei    domain.Wei
	MinPurchase uint64
}

func (p CreateParams) validate() error {
	if !validation.IsValidProjectName(p.Name) {
		return ErrInvalidName
	}
	if p.TotalSupply == 0 {
		return ErrInvalidSupply
	}
	if !p.PriceWei.IsPositive() {
		return ErrInvalidPrice
	}
	if p.MinPurchase == 0 || p.MinPurchase > p.TotalSupply {
		return ErrInvalidMinPurchase
	}
	return nil
}

// Create registers a new active project owned by creator and returns its id.
func (s *Service) Create(ctx context.Context, creator string, params CreateParams) (*domain.Project, error) {
	return s.create(ctx, creator, creator, params)
}

// CreateFor is the administrator-only variant that registers a project on
// behalf of another creator. The admin check is enforced at the route.
func (s *Service) CreateFor(ctx context.Context, admin, creator string, params CreateParams) (*domain.Project, error) {
	return s.create(ctx, admin, creator, params)
}

func (s *Service) create(ctx context.Context, actor, creator string, params CreateParams) (*domain.Project, error) {
	if !validation.IsValidAddress(creator) {
		return nil, ErrInvalidCreator
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	project := domain.Project{
		Creator:     validation.NormalizeAddress(creator),
		Name:        params.Name,
		TotalSupply: params.TotalSupply,
		MinPurchase: params.MinPurchase,
		PriceWei:    params.PriceWei,
		Active:      true,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventProjectCreated, validation.NormalizeAddress(actor), map[string]interface{}{
			"name":         project.Name,
			"creator":      project.Creator,
			"total_supply": project.TotalSupply,
			"price_wei":    project.PriceWei.String(),
			"min_purchase": project.MinPurchase,
		})).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// TransferOwnership reassigns the project to newCreator. Only the current
// creator may call it.
func (s *Service) TransferOwnership(ctx context.Context, projectID uint64, caller, newCreator string) error {
	if !validation.IsValidAddress(newCreator) {
		return ErrInvalidCreator
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProjectNotFound
			}
			return err
		}
		if project.Creator != validation.NormalizeAddress(caller) {
			return ErrUnauthorized
		}

		previous := project.Creator
		project.Creator = validation.NormalizeAddress(newCreator)
		if err := tx.Save(&project).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventOwnershipTransfer, previous, map[string]interface{}{
			"new_creator": project.Creator,
		})).Error
	})
}

// SetActive toggles the purchase/deposit gate. Only the current creator may
// call it; claims and transfers are unaffected by the flag.
func (s *Service) SetActive(ctx context.Context, projectID uint64, caller string, active bool) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProjectNotFound
			}
			return err
		}
		if project.Creator != validation.NormalizeAddress(caller) {
			return ErrUnauthorized
		}
		if project.Active == active {
			return nil
		}

		project.Active = active
		if err := tx.Save(&project).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventStatusChanged, project.Creator, map[string]interface{}{
			"active": active,
		})).Error
	})
}

// Get returns one project by id.
func (s *Service) Get(ctx context.Context, projectID uint64) (*domain.Project, error) {
	var project domain.Project
	err := s.DB.WithContext(ctx).Where("id = ?", projectID).First(&project).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Projects []domain.Project `json:"projects"`
	Total    int64            `json:"total"`
	HasMore  bool             `json:"has_more"`
}

// List returns all projects in creation order, paginated.
func (s *Service) List(ctx context.Context, offset, limit int) (*ProjectPage, error) {
	return s.list(ctx, s.DB.WithContext(ctx).Model(&domain.Project{}), offset, limit)
}

// ListByCreator returns the creator's projects in creation order, paginated.
func (s *Service) ListByCreator(ctx context.Context, creator string, offset, limit int) (*ProjectPage, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Project{}).
		Where("creator = ?", validation.NormalizeAddress(creator))
	return s.list(ctx, q, offset, limit)
}

func (s *Service) list(ctx context.Context, q *gorm.DB, offset, limit int) (*ProjectPage, error) {
	page, err := pagination.New(offset, limit, pagination.MaxProjectPageSize)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var list []domain.Project
	if err := q.Order("id ASC").Offset(page.Offset).Limit(page.Limit).Find(&list).Error; err != nil {
		return nil, err
	}

	return &ProjectPage{
		Projects: list,
		Total:    total,
		HasMore:  pagination.HasMore(page.Offset, len(list), total),
	}, nil
}
