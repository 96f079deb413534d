package family

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations creates or updates the family module tables.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRow{}, &inviteRow{}); err != nil {
		return fmt.Errorf("failed to migrate family tables: %w", err)
	}
	return nil
}
