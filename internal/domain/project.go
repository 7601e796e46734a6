package domain

import (
	"time"
)

// Project is one investment offering. Ids are assigned monotonically and
// never reused; existence is decided by the row being present (record not
// found means the project was never created).
type Project struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Creator        string    `gorm:"column:creator;type:varchar(42);index;not null" json:"creator"`
	Name           string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	TotalSupply    uint64    `gorm:"column:total_supply;not null" json:"total_supply"`
	Minted         uint64    `gorm:"column:minted;not null;default:0" json:"minted"`
	MinPurchase    uint64    `gorm:"column:min_purchase;not null;default:1" json:"min_purchase"`
	PriceWei       Wei       `gorm:"column:price_wei;type:varchar(80)" json:"price_wei"`
	Active         bool      `gorm:"column:active;not null;default:true" json:"active"`
	TotalEnergyKwh uint64    `gorm:"column:total_energy_kwh;not null;default:0" json:"total_energy_kwh"`
	TotalRevenue   Wei       `gorm:"column:total_revenue;type:varchar(80)" json:"total_revenue"`
	RewardPerUnit  Wei       `gorm:"column:reward_per_unit;type:varchar(80)" json:"reward_per_unit"`
	SalesBalance   Wei       `gorm:"column:sales_balance;type:varchar(80)" json:"sales_balance"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}
