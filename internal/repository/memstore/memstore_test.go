package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"docchat/internal/model"
)

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := New().Sessions()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s := &model.Session{PublicID: fmt.Sprintf("s-%d", i), Title: "t", Mode: model.ModeGeneral, UpdatedAt: base}
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := store.Update(ctx, "s-0", map[string]interface{}{"mode": model.ModePDF, "updated_at": base.Add(time.Hour)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	list, _ := store.List(ctx, 2)
	if len(list) != 2 || list[0].PublicID != "s-0" || list[1].PublicID != "s-2" {
		t.Errorf("unexpected order: %+v", list)
	}
	got, _ := store.GetByPublicID(ctx, "s-0")
	if got == nil || got.Mode != model.ModePDF {
		t.Errorf("update not applied: %+v", got)
	}
	got.Title = "mutated"
	again, _ := store.GetByPublicID(ctx, "s-0")
	if again.Title != "t" {
		t.Errorf("store shares memory with callers")
	}
	if missing, _ := store.GetByPublicID(ctx, "none"); missing != nil {
		t.Errorf("expected nil for unknown session")
	}
}

func TestMessageStore(t *testing.T) {
	ctx := context.Background()
	store := New().Messages()
	now := time.Now()

	for i := 0; i < 12; i++ {
		m := &model.Message{SessionID: "s", Role: model.RoleUser, Content: fmt.Sprintf("m%02d", i), CreatedAt: now}
		store.Create(ctx, m)
	}
	first, _ := store.ListBySessionID(ctx, "s", 5)
	if len(first) != 5 || first[0].Content != "m00" {
		t.Errorf("unexpected head: %+v", first)
	}
	recent, _ := store.ListRecentBySessionID(ctx, "s", 10)
	if len(recent) != 10 || recent[0].Content != "m02" || recent[9].Content != "m11" {
		t.Errorf("unexpected window: %q .. %q", recent[0].Content, recent[len(recent)-1].Content)
	}
	if none, _ := store.ListBySessionID(ctx, "other", 10); len(none) != 0 {
		t.Errorf("messages leaked across sessions")
	}
}

func TestDocumentStore_LatestWins(t *testing.T) {
	ctx := context.Background()
	store := New().Documents()
	now := time.Now()

	store.Create(ctx, &model.Document{PublicID: "d1", SessionID: "s", Chunks: []string{"old"}, UploadedAt: now})
	store.Create(ctx, &model.Document{PublicID: "d2", SessionID: "s", Chunks: []string{"new"}, UploadedAt: now})

	doc, _ := store.LatestBySessionID(ctx, "s")
	if doc == nil || doc.PublicID != "d2" || doc.Chunks[0] != "new" {
		t.Errorf("expected latest upload, got %+v", doc)
	}
	if none, _ := store.LatestBySessionID(ctx, "other"); none != nil {
		t.Errorf("expected nil for session without documents")
	}
}
