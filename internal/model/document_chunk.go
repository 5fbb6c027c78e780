package model

// DocumentChunk is the relational row for one entry of Document.Chunks.
// Position keeps source order.
type DocumentChunk struct {
	ID         uint   `gorm:"primaryKey"`
	DocumentID uint   `gorm:"not null;index:idx_document_position,priority:1"`
	Position   int    `gorm:"not null;index:idx_document_position,priority:2"`
	Content    string `gorm:"type:text;not null"`
}
