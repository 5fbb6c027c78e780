package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docchat/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores the document row and its chunks in one transaction.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create document failed: %w", err)
		}
		if len(doc.Chunks) == 0 {
			return nil
		}
		rows := make([]model.DocumentChunk, len(doc.Chunks))
		for i, content := range doc.Chunks {
			rows[i] = model.DocumentChunk{DocumentID: doc.ID, Position: i, Content: content}
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("create document chunks failed: %w", err)
		}
		return nil
	})
	return err
}

// LatestBySessionID returns the most recently uploaded document of a session
// with its chunks in source order, or nil, nil when there is none.
func (r *DocumentRepository) LatestBySessionID(ctx context.Context, sessionID string) (*model.Document, error) {
	db := r.db.WithContext(ctx)

	var doc model.Document
	if err := db.Where("session_id = ?", sessionID).Order("uploaded_at DESC").Order("id DESC").First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}

	var chunks []string
	if err := db.Model(&model.DocumentChunk{}).
		Where("document_id = ?", doc.ID).
		Order("position ASC").
		Pluck("content", &chunks).Error; err != nil {
		return nil, fmt.Errorf("list document chunks failed: %w", err)
	}
	doc.Chunks = chunks
	return &doc, nil
}
