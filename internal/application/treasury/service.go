package treasury

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"wattshare-backend/internal/application/payout"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/pkg/validation"
)

// Service owns sales withdrawals, the emergency-stop flag and the residual
// ("dust") sweep. Admin-only operations are gated at the route.
type Service struct {
	DB     *gorm.DB
	Mu     *sync.Mutex
	Payout payout.Sender
}

// WithdrawSales pays part of a project's accumulated sales balance to a
// recipient. Only the project creator may withdraw.
func (s *Service) WithdrawSales(ctx context.Context, projectID uint64, caller, recipient string, amount domain.Wei) error {
	if !validation.IsValidAddress(recipient) {
		return ErrInvalidRecipient
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
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
		if project.SalesBalance.LT(amount) {
			return ErrInsufficientSales
		}

		project.SalesBalance = project.SalesBalance.Sub(amount)
		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		treasury.BalanceWei = treasury.BalanceWei.Sub(amount)
		treasury.TotalSalesBalance = treasury.TotalSalesBalance.Sub(amount)
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}

		if err := tx.Create(domain.NewLedgerEvent(project.ID, domain.EventWithdrawal, project.Creator, map[string]interface{}{
			"recipient":  validation.NormalizeAddress(recipient),
			"amount_wei": amount.String(),
		})).Error; err != nil {
			return err
		}

		if err := s.Payout.Send(ctx, validation.NormalizeAddress(recipient), amount, "sales withdrawal"); err != nil {
			return ErrTransferFailed
		}
		return nil
	})
}

// SetPaused flips the emergency stop. Pausing blocks purchases and explicit
// transfers only; claims and revenue deposits keep working so investors can
// always withdraw what they are owed. Setting the current value is a no-op.
func (s *Service) SetPaused(ctx context.Context, caller string, paused bool) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		if treasury.Paused == paused {
			return nil
		}
		treasury.Paused = paused
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}
		eventType := domain.EventPaused
		if !paused {
			eventType = domain.EventUnpaused
		}
		return tx.Create(domain.NewLedgerEvent(0, eventType, validation.NormalizeAddress(caller), nil)).Error
	})
}

// Credit records value received outside the purchase/deposit flows (the
// analog of funds sent directly to the contract). Such value is attributed
// to nothing and becomes rescuable residual.
func (s *Service) Credit(ctx context.Context, caller string, amount domain.Wei) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		treasury.BalanceWei = treasury.BalanceWei.Add(amount)
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewLedgerEvent(0, domain.EventTreasuryCredit, validation.NormalizeAddress(caller), map[string]interface{}{
			"amount_wei": amount.String(),
		})).Error
	})
}

// RescueDust sweeps the residual balance not attributed to any project's
// sales balance or outstanding reward pool:
//
//	residual = balance - totalSalesBalance - rewardOutstanding
//
// The running accumulators keep this O(1); no per-project scan is needed.
func (s *Service) RescueDust(ctx context.Context, caller, recipient string) (domain.Wei, error) {
	if !validation.IsValidAddress(recipient) {
		return domain.Wei{}, ErrInvalidRecipient
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	var residual domain.Wei
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}

		attributed := treasury.TotalSalesBalance.Add(treasury.RewardOutstanding)
		if !treasury.BalanceWei.GTE(attributed) {
			return ErrNoResidual
		}
		residual = treasury.BalanceWei.Sub(attributed)
		if residual.IsZero() {
			return ErrNoResidual
		}

		treasury.BalanceWei = attributed
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}

		if err := tx.Create(domain.NewLedgerEvent(0, domain.EventDustRescue, validation.NormalizeAddress(caller), map[string]interface{}{
			"recipient":  validation.NormalizeAddress(recipient),
			"amount_wei": residual.String(),
		})).Error; err != nil {
			return err
		}

		if err := s.Payout.Send(ctx, validation.NormalizeAddress(recipient), residual, "dust rescue"); err != nil {
			return ErrTransferFailed
		}
		return nil
	})
	if err != nil {
		return domain.Wei{}, err
	}
	return residual, nil
}

// State returns the treasury snapshot for the ops surface.
func (s *Service) State(ctx context.Context) (*domain.TreasuryState, error) {
	return domain.LoadTreasury(s.DB.WithContext(ctx))
}
