// Package memstore is an in-process implementation of the session, message
// and document stores. Data lives only as long as the process.
package memstore

import (
	"context"
	"sort"
	"sync"

	"docchat/internal/model"
)

// Store holds all three tables behind one lock. Rows get an increasing
// sequence number that breaks timestamp ties in insertion order.
type Store struct {
	mu        sync.RWMutex
	seq       uint
	sessions  []model.Session
	messages  []model.Message
	documents []model.Document
}

func New() *Store {
	return &Store{}
}

func (s *Store) Sessions() *SessionStore   { return &SessionStore{s} }
func (s *Store) Messages() *MessageStore   { return &MessageStore{s} }
func (s *Store) Documents() *DocumentStore { return &DocumentStore{s} }

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

type SessionStore struct{ s *Store }

func (r *SessionStore) Create(_ context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session.ID = r.s.nextID()
	r.s.sessions = append(r.s.sessions, *session)
	return nil
}

func (r *SessionStore) List(_ context.Context, limit int) ([]model.Session, error) {
	r.s.mu.RLock()
	out := append([]model.Session(nil), r.s.sessions...)
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionStore) GetByPublicID(_ context.Context, id string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, session := range r.s.sessions {
		if session.PublicID == id {
			found := session
			return &found, nil
		}
	}
	return nil, nil
}

// Update understands the title, mode and updated_at columns.
func (r *SessionStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.sessions {
		session := &r.s.sessions[i]
		if session.PublicID != id {
			continue
		}
		for k, v := range fields {
			switch k {
			case "title":
				session.Title, _ = v.(string)
			case "mode":
				session.Mode, _ = v.(string)
			case "updated_at":
				if t, ok := asTime(v); ok {
					session.UpdatedAt = t
				}
			}
		}
	}
	return nil
}

type MessageStore struct{ s *Store }

func (r *MessageStore) Create(_ context.Context, message *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	message.ID = r.s.nextID()
	r.s.messages = append(r.s.messages, *message)
	return nil
}

func (r *MessageStore) ListBySessionID(_ context.Context, sessionID string, limit int) ([]model.Message, error) {
	all := r.bySession(sessionID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MessageStore) ListRecentBySessionID(_ context.Context, sessionID string, limit int) ([]model.Message, error) {
	all := r.bySession(sessionID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *MessageStore) bySession(sessionID string) []model.Message {
	r.s.mu.RLock()
	out := []model.Message{}
	for _, m := range r.s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type DocumentStore struct{ s *Store }

func (r *DocumentStore) Create(_ context.Context, doc *model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc.ID = r.s.nextID()
	stored := *doc
	stored.Chunks = append([]string(nil), doc.Chunks...)
	r.s.documents = append(r.s.documents, stored)
	return nil
}

func (r *DocumentStore) LatestBySessionID(_ context.Context, sessionID string) (*model.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *model.Document
	for i := range r.s.documents {
		d := &r.s.documents[i]
		if d.SessionID != sessionID {
			continue
		}
		if latest == nil || d.UploadedAt.After(latest.UploadedAt) ||
			(d.UploadedAt.Equal(latest.UploadedAt) && d.ID > latest.ID) {
			latest = d
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	out.Chunks = append([]string(nil), latest.Chunks...)
	return &out, nil
}

// Count reports how many rows each table holds.
func (s *Store) Count() (sessions, messages, documents int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), len(s.messages), len(s.documents)
}
