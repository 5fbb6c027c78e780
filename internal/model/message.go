package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	ID        uint              `gorm:"primaryKey" json:"-" bson:"-"`
	PublicID  string            `gorm:"size:36;not null;uniqueIndex" json:"id" bson:"id"`
	SessionID string            `gorm:"size:36;not null;index" json:"session_id" bson:"session_id"`
	Role      string            `gorm:"size:16;not null" json:"role" bson:"role"`
	Content   string            `gorm:"type:text;not null" json:"content" bson:"content"`
	Metadata  datatypes.JSONMap `json:"metadata" bson:"metadata"`
	CreatedAt time.Time         `gorm:"index" json:"timestamp" bson:"timestamp"`
}
