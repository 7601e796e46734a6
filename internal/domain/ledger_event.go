package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Ledger event types.
const (
	EventProjectCreated    = "PROJECT_CREATED"
	EventOwnershipTransfer = "OWNERSHIP_TRANSFERRED"
	EventStatusChanged     = "STATUS_CHANGED"
	EventPurchase          = "PURCHASE"
	EventTransfer          = "TRANSFER"
	EventDeposit           = "DEPOSIT"
	EventClaim             = "CLAIM"
	EventWithdrawal        = "WITHDRAWAL"
	EventEnergyUpdate      = "ENERGY_UPDATE"
	EventEnergyCorrection  = "ENERGY_CORRECTION"
	EventPaused            = "PAUSED"
	EventUnpaused          = "UNPAUSED"
	EventTreasuryCredit    = "TREASURY_CREDIT"
	EventDustRescue        = "DUST_RESCUE"
)

// LedgerEvent is the append-only audit trail written in the same transaction
// as the state change it describes.
type LedgerEvent struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID uint64         `gorm:"column:project_id;index" json:"project_id"`
	EventType string         `gorm:"column:event_type;type:varchar(32);not null" json:"event_type"`
	Actor     string         `gorm:"column:actor;type:varchar(42)" json:"actor"`
	EventData datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}

// NewLedgerEvent builds an event row; payload marshal errors are impossible
// for the map-of-scalars payloads used here.
func NewLedgerEvent(projectID uint64, eventType, actor string, payload map[string]interface{}) *LedgerEvent {
	b, _ := json.Marshal(payload)
	return &LedgerEvent{
		ProjectID: projectID,
		EventType: eventType,
		Actor:     actor,
		EventData: datatypes.JSON(b),
	}
}
