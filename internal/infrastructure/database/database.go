package database

import (
	"wattshare-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from a Postgres DSN. PreferSimpleProtocol disables
// prepared statement caching to avoid 42P05 ("prepared statement already
// exists") behind connection poolers (PgBouncer and friends).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for the ledger models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Project{},
		&domain.Holding{},
		&domain.LedgerEvent{},
		&domain.TreasuryState{},
	)
}
