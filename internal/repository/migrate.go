package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docchat/internal/model"
)

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Session{}, &model.Message{}, &model.Document{}, &model.DocumentChunk{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
