package database

import (
	"fmt"

	"todo-tracker/backend/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the todos table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Todo{}); err != nil {
		return fmt.Errorf("failed to migrate todos table: %w", err)
	}
	return nil
}
