package domain

import (
	"time"
)

// Holding is the unit balance and reward state of one holder in one project.
// Rows are kept when the balance drops to zero so past holders retain their
// pending (unclaimed) rewards.
type Holding struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Holder           string    `gorm:"column:holder;type:varchar(42);uniqueIndex:idx_holder_project;not null" json:"holder"`
	ProjectID        uint64    `gorm:"column:project_id;uniqueIndex:idx_holder_project;not null" json:"project_id"`
	Units            uint64    `gorm:"column:units;not null;default:0" json:"units"`
	RewardCheckpoint Wei       `gorm:"column:reward_checkpoint;type:varchar(80)" json:"reward_checkpoint"`
	PendingReward    Wei       `gorm:"column:pending_reward;type:varchar(80)" json:"pending_reward"`
	TotalClaimed     Wei       `gorm:"column:total_claimed;type:varchar(80)" json:"total_claimed"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holdings"
}
