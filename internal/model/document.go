package model

import "time"

// Document is one uploaded PDF. A session may collect several; the most
// recently uploaded one is the session's active document.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"-" bson:"-"`
	PublicID    string    `gorm:"size:36;not null;uniqueIndex" json:"id" bson:"id"`
	SessionID   string    `gorm:"size:36;not null;index" json:"session_id" bson:"session_id"`
	Filename    string    `gorm:"size:256;not null" json:"filename" bson:"filename"`
	FilePath    string    `gorm:"size:512;not null" json:"file_path" bson:"file_path"`
	TextContent string    `gorm:"type:longtext" json:"-" bson:"text_content"`
	Pages       int       `json:"pages" bson:"pages"`
	Chunks      []string  `gorm:"-" json:"-" bson:"chunks"`
	UploadedAt  time.Time `gorm:"index" json:"uploaded_at" bson:"uploaded_at"`
}
