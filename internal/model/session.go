package model

import "time"

const (
	ModeGeneral = "general"
	ModePDF     = "pdf"
)

// Session is a conversation. ID is the storage key and never leaves the
// process; PublicID is the identifier clients see.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"-" bson:"-"`
	PublicID  string    `gorm:"size:36;not null;uniqueIndex" json:"id" bson:"id"`
	Title     string    `gorm:"size:256;not null" json:"title" bson:"title"`
	Mode      string    `gorm:"size:16;not null;default:general" json:"mode" bson:"mode"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at" bson:"updated_at"`
}

func ValidMode(mode string) bool {
	return mode == ModeGeneral || mode == ModePDF
}
