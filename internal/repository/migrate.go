package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates the pipeline tables with GORM. Postgres deployments
// use the SQL migrations instead; this serves sqlite.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&jobRow{}, &applicationRow{}, &interviewRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
