package app

import (
	"context"

	"docchat/internal/ai"
	"docchat/internal/model"
	"docchat/internal/pkg/pdfextract"
)

// SessionStore persists sessions. GetByPublicID returns nil, nil for an
// unknown id. Update accepts the title, mode and updated_at columns.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	List(ctx context.Context, limit int) ([]model.Session, error)
	GetByPublicID(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

// MessageStore persists messages. Both list methods return oldest first.
type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
	ListRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
}

// DocumentStore persists documents with their chunks. LatestBySessionID
// returns nil, nil when the session has no document.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	LatestBySessionID(ctx context.Context, sessionID string) (*model.Document, error)
}

type Gateway interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
	Stream(ctx context.Context, req ai.CompletionRequest) (*ai.Stream, error)
}

type FileStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (pdfextract.Result, error)
}

type Chunker interface {
	Split(text string) []string
}

type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, event model.DocumentEvent) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	Invalidate(ctx context.Context, sessionID string) error
}

// Sampling carries caller overrides for one gateway call; nil fields keep the
// operation defaults and an empty Model keeps the configured model.
type Sampling struct {
	Model       string
	Temperature *float64
	MaxTokens   *int
}

func (s Sampling) validate() error {
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return ErrSamplingParams
	}
	if s.MaxTokens != nil && *s.MaxTokens < 0 {
		return ErrSamplingParams
	}
	return nil
}
