package ledger

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"wattshare-backend/internal/application/payout"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/pkg/fixedpoint"
	"wattshare-backend/internal/pkg/pagination"
	"wattshare-backend/internal/pkg/validation"
)

// Service owns the unit ledger: balances, purchases (minting) and transfers.
// Mu is the global write lock shared by every mutating service; all state
// changes happen inside a DB transaction so failures roll back completely.
type Service struct {
	DB     *gorm.DB
	Mu     *sync.Mutex
	Payout payout.Sender
}

// Settle credits a holder's pending reward up to the project's current
// accumulator and advances their checkpoint:
//
//	pending += units * (rewardPerUnit - checkpoint) / 1e18
//	checkpoint = rewardPerUnit
//
// This is the single settlement call site. It must run for every holder
// whose balance is about to change, using the pre-change balance, and is
// idempotent: a second call with an unchanged accumulator earns zero.
func Settle(tx *gorm.DB, project *domain.Project, holder string) (*domain.Holding, error) {
	var h domain.Holding
	err := tx.Where("holder = ? AND project_id = ?", holder, project.ID).First(&h).Error
	if err == gorm.ErrRecordNotFound {
		h = domain.Holding{
			Holder:           holder,
			ProjectID:        project.ID,
			RewardCheckpoint: project.RewardPerUnit,
		}
		if err := tx.Create(&h).Error; err != nil {
			return nil, err
		}
		return &h, nil
	}
	if err != nil {
		return nil, err
	}

	delta := project.RewardPerUnit.Sub(h.RewardCheckpoint)
	if !delta.IsZero() {
		h.PendingReward = h.PendingReward.Add(fixedpoint.Earned(h.Units, delta))
	}
	h.RewardCheckpoint = project.RewardPerUnit
	if err := tx.Save(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// PurchaseResult reports what a purchase cost and refunded.
type PurchaseResult struct {
	ProjectID uint64     `json:"project_id"`
	Units     uint64     `json:"units"`
	CostWei   domain.Wei `json:"cost_wei"`
	RefundWei domain.Wei `json:"refund_wei"`
}

// Purchase mints units to the buyer against payment. The buyer is settled
// with their pre-mint balance before units are credited; excess payment is
// refunded through the payout sender (a refund failure aborts the purchase).
func (s *Service) Purchase(ctx context.Context, projectID uint64, buyer string, units uint64, payment domain.Wei) (*PurchaseResult, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	var result *PurchaseResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		if treasury.Paused {
			return ErrPaused
		}

		var project domain.Project
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProjectNotFound
			}
			return err
		}
		if !project.Active {
			return ErrProjectNotActive
		}
		if units == 0 {
			return ErrInvalidAmount
		}
		if units < project.MinPurchase {
			return ErrBelowMinPurchase
		}
		// Compare against the remaining supply; the additive form wraps
		// on huge unit counts.
		if units > project.TotalSupply-project.Minted {
			return ErrSupplyExhausted
		}

		cost := project.PriceWei.MulUnits(units)
		if payment.LT(cost) {
			return ErrInsufficientPayment
		}

		holding, err := Settle(tx, &project, buyer)
		if err != nil {
			return err
		}
		holding.Units += units
		if err := tx.Save(holding).Error; err != nil {
			return err
		}

		project.Minted += units
		project.SalesBalance = project.SalesBalance.Add(cost)
		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		treasury.BalanceWei = treasury.BalanceWei.Add(cost)
		treasury.TotalSalesBalance = treasury.TotalSalesBalance.Add(cost)
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}

		refund := payment.Sub(cost)
		if err := tx.Create(domain.NewLedgerEvent(project.ID, domain.EventPurchase, buyer, map[string]interface{}{
			"units":      units,
			"cost_wei":   cost.String(),
			"refund_wei": refund.String(),
		})).Error; err != nil {
			return err
		}

		if refund.IsPositive() {
			if err := s.Payout.Send(ctx, buyer, refund, "purchase refund"); err != nil {
				return ErrTransferFailed
			}
		}

		result = &PurchaseResult{ProjectID: project.ID, Units: units, CostWei: cost, RefundWei: refund}
		return nil
	})
	return result, err
}

// Transfer moves units between holders. Both parties are settled with their
// pre-transfer balances first, so rewards accrued before the transfer stay
// with the sender. A self-transfer leaves balances untouched but still runs
// settlement (harmless: the second pass earns zero).
func (s *Service) Transfer(ctx context.Context, from, to string, projectID, units uint64) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		if treasury.Paused {
			return ErrPaused
		}
		return transferOne(tx, from, to, projectID, units)
	})
}

// TransferBatch applies the per-project transfer contract element-wise in a
// single transaction. Equal-length arrays are required; empty arrays are a
// valid no-op.
func (s *Service) TransferBatch(ctx context.Context, from, to string, projectIDs []uint64, amounts []uint64) error {
	if len(projectIDs) != len(amounts) {
		return ErrLengthMismatch
	}
	if len(projectIDs) == 0 {
		return nil
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		if treasury.Paused {
			return ErrPaused
		}
		for i := range projectIDs {
			if err := transferOne(tx, from, to, projectIDs[i], amounts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func transferOne(tx *gorm.DB, from, to string, projectID, units uint64) error {
	if !validation.IsValidAddress(to) {
		return ErrInvalidRecipient
	}
	if units == 0 {
		return ErrInvalidAmount
	}

	// Transfers are allowed regardless of the project's active status.
	var project domain.Project
	if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrProjectNotFound
		}
		return err
	}

	fromH, err := Settle(tx, &project, from)
	if err != nil {
		return err
	}
	toH := fromH
	if to != from {
		toH, err = Settle(tx, &project, to)
		if err != nil {
			return err
		}
	}

	if fromH.Units < units {
		return ErrInsufficientBalance
	}

	if to != from {
		fromH.Units -= units
		toH.Units += units
		if err := tx.Save(fromH).Error; err != nil {
			return err
		}
		if err := tx.Save(toH).Error; err != nil {
			return err
		}
	}

	return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventTransfer, from, map[string]interface{}{
		"to":    to,
		"units": units,
	})).Error
}

// BalanceOf returns the unit balance for (holder, project); zero for unknown
// pairs.
func (s *Service) BalanceOf(ctx context.Context, holder string, projectID uint64) (uint64, error) {
	var h domain.Holding
	err := s.DB.WithContext(ctx).Where("holder = ? AND project_id = ?", holder, projectID).First(&h).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return h.Units, nil
}

// PortfolioPage is one page of a holder's positions.
type PortfolioPage struct {
	Holdings []domain.Holding `json:"holdings"`
	Total    int64            `json:"total"`
	HasMore  bool             `json:"has_more"`
}

// Portfolio lists the holder's positions (units or unclaimed rewards), oldest
// first, bounded by the portfolio page size.
func (s *Service) Portfolio(ctx context.Context, holder string, offset, limit int) (*PortfolioPage, error) {
	page, err := pagination.New(offset, limit, pagination.MaxPortfolioPageSize)
	if err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).Model(&domain.Holding{}).
		Where("holder = ? AND (units > 0 OR pending_reward <> '0')", holder)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var holdings []domain.Holding
	if err := q.Order("project_id ASC").Offset(page.Offset).Limit(page.Limit).Find(&holdings).Error; err != nil {
		return nil, err
	}

	return &PortfolioPage{
		Holdings: holdings,
		Total:    total,
		HasMore:  pagination.HasMore(page.Offset, len(holdings), total),
	}, nil
}
