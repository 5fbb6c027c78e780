package model

import "time"

const EventDocumentAttached = "document.attached"

// DocumentEvent announces that a document was stored and its session
// switched to pdf mode.
type DocumentEvent struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	OccurredAt time.Time `json:"occurred_at"`
}
