package rewards

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"wattshare-backend/internal/application/ledger"
	"wattshare-backend/internal/application/payout"
	"wattshare-backend/internal/domain"
	"wattshare-backend/internal/pkg/fixedpoint"
	"wattshare-backend/internal/pkg/validation"
)

// MaxClaimBatchSize bounds a single claim-multiple call.
const MaxClaimBatchSize = 100

// claimableTTL bounds the staleness of cached claimable previews.
const claimableTTL = 10 * time.Second

// Service owns the revenue accrual engine: deposits move the per-project
// reward-per-unit accumulator in O(1); holders are credited lazily at their
// next settlement. Claims are settled, zeroed and paid inside one
// transaction; a failed payout rolls everything back.
type Service struct {
	DB     *gorm.DB
	Mu     *sync.Mutex
	Rdb    *redis.Client
	Payout payout.Sender
	Admin  string
}

// satAddKwh clamps the informational energy counter at the type maximum
// instead of wrapping.
func satAddKwh(total, delta uint64) uint64 {
	if delta > math.MaxUint64-total {
		return math.MaxUint64
	}
	return total + delta
}

func (s *Service) isCreatorOrAdmin(project *domain.Project, caller string) bool {
	caller = validation.NormalizeAddress(caller)
	return caller == project.Creator || (s.Admin != "" && caller == validation.NormalizeAddress(s.Admin))
}

// DepositRevenue adds revenue to a project's distribution pool. No holder is
// settled here: crediting is deferred to each holder's next settlement, so
// the deposit is O(1) regardless of holder count. Deposits that would round
// to a zero accumulator increase are rejected so no funds are stranded.
// Deposits are deliberately not blocked by the pause flag.
func (s *Service) DepositRevenue(ctx context.Context, projectID uint64, caller string, amount domain.Wei, energyDeltaKwh uint64) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProjectNotFound
			}
			return err
		}
		if !s.isCreatorOrAdmin(&project, caller) {
			return ErrUnauthorized
		}
		if !project.Active {
			return ErrProjectNotActive
		}
		if !amount.IsPositive() {
			return ErrNoFundsDeposited
		}
		if project.Minted == 0 {
			return ErrNoTokensMinted
		}

		increase := fixedpoint.RewardIncrease(amount, project.Minted)
		if increase.IsZero() {
			return ErrRewardIncreaseTooSmall
		}
		// Only the amount holders can actually collect is a liability;
		// the truncation remainder stays unattributed and is recoverable
		// through the treasury's residual sweep.
		distributable := fixedpoint.Earned(project.Minted, increase)

		project.RewardPerUnit = project.RewardPerUnit.Add(increase)
		project.TotalRevenue = project.TotalRevenue.Add(amount)
		project.TotalEnergyKwh = satAddKwh(project.TotalEnergyKwh, energyDeltaKwh)
		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		treasury.BalanceWei = treasury.BalanceWei.Add(amount)
		treasury.RewardOutstanding = treasury.RewardOutstanding.Add(distributable)
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}

		return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventDeposit, validation.NormalizeAddress(caller), map[string]interface{}{
			"amount_wei":       amount.String(),
			"distributed_wei":  distributable.String(),
			"energy_delta_kwh": energyDeltaKwh,
			"increase":         increase.String(),
		})).Error
	})
	if err != nil {
		return err
	}
	s.bumpClaimableVersion(ctx, projectID)
	return nil
}

// ClaimableAmount previews what a settlement would credit right now:
// pending + units * (rewardPerUnit - checkpoint) / 1e18. Pure read; cached
// briefly in Redis when available.
func (s *Service) ClaimableAmount(ctx context.Context, projectID uint64, holder string) (domain.Wei, error) {
	holder = validation.NormalizeAddress(holder)

	var ver string
	if s.Rdb != nil {
		ver, _ = s.Rdb.Get(ctx, claimableVerKey(projectID)).Result()
		if cached, err := s.Rdb.Get(ctx, claimableKey(projectID, ver, holder)).Result(); err == nil {
			if amount, perr := domain.ParseWei(cached); perr == nil {
				return amount, nil
			}
		}
	}

	amount, err := s.claimable(ctx, projectID, holder)
	if err != nil {
		return domain.Wei{}, err
	}

	if s.Rdb != nil {
		_ = s.Rdb.Set(ctx, claimableKey(projectID, ver, holder), amount.String(), claimableTTL).Err()
	}
	return amount, nil
}

func (s *Service) claimable(ctx context.Context, projectID uint64, holder string) (domain.Wei, error) {
	var project domain.Project
	if err := s.DB.WithContext(ctx).Where("id = ?", projectID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Wei{}, ErrProjectNotFound
		}
		return domain.Wei{}, err
	}

	var h domain.Holding
	err := s.DB.WithContext(ctx).Where("holder = ? AND project_id = ?", holder, projectID).First(&h).Error
	if err == gorm.ErrRecordNotFound {
		return domain.ZeroWei(), nil
	}
	if err != nil {
		return domain.Wei{}, err
	}

	delta := project.RewardPerUnit.Sub(h.RewardCheckpoint)
	return h.PendingReward.Add(fixedpoint.Earned(h.Units, delta)), nil
}

// Claim settles the caller, zeroes their pending reward and pays it out.
// State is finalized before the outbound transfer; a failed transfer rolls
// the claim back. Claims are never blocked by the pause flag.
func (s *Service) Claim(ctx context.Context, projectID uint64, caller string) (domain.Wei, error) {
	caller = validation.NormalizeAddress(caller)

	s.Mu.Lock()
	defer s.Mu.Unlock()

	var amount domain.Wei
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		amount, err = claimOne(tx, projectID, caller)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return ErrNothingToClaim
		}

		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		treasury.BalanceWei = treasury.BalanceWei.Sub(amount)
		treasury.RewardOutstanding = treasury.RewardOutstanding.Sub(amount)
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}

		if err := s.Payout.Send(ctx, caller, amount, "reward claim"); err != nil {
			return ErrTransferFailed
		}
		return nil
	})
	if err != nil {
		return domain.Wei{}, err
	}
	s.bumpClaimableVersion(ctx, projectID)
	return amount, nil
}

// ClaimMultiple settles and zeroes the caller's pending rewards across up to
// MaxClaimBatchSize projects, then performs exactly one outbound transfer
// for the batch total. Projects yielding zero are skipped; the call fails
// only if the total is zero. A failed transfer restores every zeroed
// pending amount via transaction rollback.
func (s *Service) ClaimMultiple(ctx context.Context, projectIDs []uint64, caller string) (domain.Wei, error) {
	if len(projectIDs) > MaxClaimBatchSize {
		return domain.Wei{}, ErrBatchSizeTooLarge
	}
	caller = validation.NormalizeAddress(caller)

	s.Mu.Lock()
	defer s.Mu.Unlock()

	total := domain.ZeroWei()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, projectID := range projectIDs {
			amount, err := claimOne(tx, projectID, caller)
			if err != nil {
				return err
			}
			total = total.Add(amount)
		}
		if total.IsZero() {
			return ErrNothingToClaim
		}

		treasury, err := domain.LoadTreasury(tx)
		if err != nil {
			return err
		}
		treasury.BalanceWei = treasury.BalanceWei.Sub(total)
		treasury.RewardOutstanding = treasury.RewardOutstanding.Sub(total)
		if err := tx.Save(treasury).Error; err != nil {
			return err
		}

		if err := s.Payout.Send(ctx, caller, total, "reward claim batch"); err != nil {
			return ErrTransferFailed
		}
		return nil
	})
	if err != nil {
		return domain.Wei{}, err
	}
	for _, projectID := range projectIDs {
		s.bumpClaimableVersion(ctx, projectID)
	}
	return total, nil
}

// claimOne settles one (project, holder) pair, zeroes the pending reward and
// returns the claimed amount. Writes a CLAIM event only when something was
// actually credited.
func claimOne(tx *gorm.DB, projectID uint64, holder string) (domain.Wei, error) {
	var project domain.Project
	if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Wei{}, ErrProjectNotFound
		}
		return domain.Wei{}, err
	}

	h, err := ledger.Settle(tx, &project, holder)
	if err != nil {
		return domain.Wei{}, err
	}

	amount := h.PendingReward
	if amount.IsZero() {
		return domain.ZeroWei(), nil
	}

	h.PendingReward = domain.ZeroWei()
	h.TotalClaimed = h.TotalClaimed.Add(amount)
	if err := tx.Save(h).Error; err != nil {
		return domain.Wei{}, err
	}

	if err := tx.Create(domain.NewLedgerEvent(project.ID, domain.EventClaim, holder, map[string]interface{}{
		"amount_wei": amount.String(),
	})).Error; err != nil {
		return domain.Wei{}, err
	}
	return amount, nil
}

// UpdateEnergy adds delta to the project's informational energy counter.
func (s *Service) UpdateEnergy(ctx context.Context, projectID uint64, caller string, deltaKwh uint64) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.requireActiveCreatorOrAdmin(tx, projectID, caller)
		if err != nil {
			return err
		}
		project.TotalEnergyKwh = satAddKwh(project.TotalEnergyKwh, deltaKwh)
		if err := tx.Save(project).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventEnergyUpdate, validation.NormalizeAddress(caller), map[string]interface{}{
			"delta_kwh": deltaKwh,
		})).Error
	})
}

// SetEnergy overwrites the energy counter with an absolute value, recording
// the previous value and a free-text reason for audit. Reward accounting is
// unaffected.
func (s *Service) SetEnergy(ctx context.Context, projectID uint64, caller string, valueKwh uint64, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.requireActiveCreatorOrAdmin(tx, projectID, caller)
		if err != nil {
			return err
		}
		previous := project.TotalEnergyKwh
		project.TotalEnergyKwh = valueKwh
		if err := tx.Save(project).Error; err != nil {
			return err
		}
		return tx.Create(domain.NewLedgerEvent(project.ID, domain.EventEnergyCorrection, validation.NormalizeAddress(caller), map[string]interface{}{
			"previous_kwh": previous,
			"value_kwh":    valueKwh,
			"reason":       reason,
		})).Error
	})
}

func (s *Service) requireActiveCreatorOrAdmin(tx *gorm.DB, projectID uint64, caller string) (*domain.Project, error) {
	var project domain.Project
	if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if !s.isCreatorOrAdmin(&project, caller) {
		return nil, ErrUnauthorized
	}
	if !project.Active {
		return nil, ErrProjectNotActive
	}
	return &project, nil
}

func claimableVerKey(projectID uint64) string {
	return "claimable:ver:" + strconv.FormatUint(projectID, 10)
}

func claimableKey(projectID uint64, ver, holder string) string {
	return fmt.Sprintf("claimable:%d:%s:%s", projectID, ver, holder)
}

// bumpClaimableVersion invalidates cached previews for a project by rotating
// the version segment of their cache keys.
func (s *Service) bumpClaimableVersion(ctx context.Context, projectID uint64) {
	if s.Rdb == nil {
		return
	}
	_ = s.Rdb.Incr(ctx, claimableVerKey(projectID)).Err()
}
