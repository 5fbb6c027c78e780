package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat/internal/metrics"
	"docchat/internal/model"
	"docchat/internal/pkg/log"
)

type DocumentService struct {
	sessions  SessionStore
	documents DocumentStore
	files     FileStore
	extractor TextExtractor
	chunker   Chunker
	events    EventPublisher
}

// NewDocumentService wires PDF ingestion. events may be nil.
func NewDocumentService(
	sessions SessionStore,
	documents DocumentStore,
	files FileStore,
	extractor TextExtractor,
	chunker Chunker,
	events EventPublisher,
) *DocumentService {
	return &DocumentService{
		sessions:  sessions,
		documents: documents,
		files:     files,
		extractor: extractor,
		chunker:   chunker,
		events:    events,
	}
}

type UploadInput struct {
	SessionID string
	Filename  string
	Data      []byte
}

type DocumentSummary struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
	Size     int    `json:"size"`
}

// Upload stores a PDF, extracts and chunks its text, attaches the document to
// the session and switches the session to pdf mode. Size is the length of
// the extracted text in characters.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*DocumentSummary, error) {
	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, ErrNotPDF
	}
	session, err := findSession(ctx, s.sessions, input.SessionID)
	if err != nil {
		return nil, err
	}

	path, err := s.files.Save(ctx, session.PublicID+"_"+filename, input.Data)
	if err != nil {
		return nil, fmt.Errorf("save upload failed: %w", err)
	}

	extracted, err := s.extractor.Extract(ctx, input.Data)
	if err != nil {
		log.Errorw("pdf extraction failed", "session_id", session.PublicID, "file", filename, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	chunks := s.chunker.Split(extracted.Text)

	now := time.Now().UTC()
	doc := &model.Document{
		PublicID:    uuid.NewString(),
		SessionID:   session.PublicID,
		Filename:    filename,
		FilePath:    path,
		TextContent: extracted.Text,
		Pages:       extracted.Pages,
		Chunks:      chunks,
		UploadedAt:  now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session.PublicID, map[string]interface{}{
		"mode":       model.ModePDF,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	metrics.CaptureDocumentIngested(len(chunks))

	summary := &DocumentSummary{
		ID:       doc.PublicID,
		Filename: filename,
		Pages:    extracted.Pages,
		Chunks:   len(chunks),
		Size:     len([]rune(extracted.Text)),
	}
	log.Infow("document attached", "session_id", session.PublicID, "document_id", doc.PublicID,
		"pages", summary.Pages, "chunks", summary.Chunks)

	if s.events != nil {
		event := model.DocumentEvent{
			Type:       model.EventDocumentAttached,
			SessionID:  session.PublicID,
			DocumentID: doc.PublicID,
			Filename:   filename,
			Pages:      summary.Pages,
			Chunks:     summary.Chunks,
			OccurredAt: now,
		}
		if err := s.events.PublishDocumentEvent(ctx, event); err != nil {
			log.Warnw("publish document event failed", "document_id", doc.PublicID, "error", err)
		}
	}
	return summary, nil
}
