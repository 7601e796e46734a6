package domain

import (
	"time"

	"gorm.io/gorm"
)

// TreasuryState is a singleton row holding the emergency-stop flag and the
// running accumulators that make the residual ("dust") computation O(1):
//
//	residual = balance_wei - total_sales_balance - reward_outstanding
//
// BalanceWei tracks all value held; TotalSalesBalance mirrors the sum of all
// projects' sales balances; RewardOutstanding is deposited-minus-claimed
// reward liability.
type TreasuryState struct {
	ID                uint64    `gorm:"column:id;primaryKey" json:"-"`
	Paused            bool      `gorm:"column:paused;not null;default:false" json:"paused"`
	BalanceWei        Wei       `gorm:"column:balance_wei;type:varchar(80)" json:"balance_wei"`
	TotalSalesBalance Wei       `gorm:"column:total_sales_balance;type:varchar(80)" json:"total_sales_balance"`
	RewardOutstanding Wei       `gorm:"column:reward_outstanding;type:varchar(80)" json:"reward_outstanding"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (TreasuryState) TableName() string {
	return "treasury_state"
}

const treasuryRowID = 1

// LoadTreasury fetches the singleton row, creating it on first use.
func LoadTreasury(tx *gorm.DB) (*TreasuryState, error) {
	var st TreasuryState
	err := tx.Where("id = ?", treasuryRowID).First(&st).Error
	if err == gorm.ErrRecordNotFound {
		st = TreasuryState{ID: treasuryRowID}
		if err := tx.Create(&st).Error; err != nil {
			return nil, err
		}
		return &st, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
