package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/storage/models"
)

func TestChatLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	now := time.Now().UTC()
	chat := &models.ChatSession{ID: "c1", UserID: "u1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateChat(ctx, chat); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	msgs := []models.Message{
		{Role: models.RoleUser, Content: "hi", Timestamp: now},
		{Role: models.RoleAssistant, Content: "hello", Timestamp: now,
			Sources: []models.SourceRef{{FileID: "f1", ChunkID: "f1_chunk_0", Text: "src"}}},
	}
	if err := store.AppendMessages(ctx, "c1", msgs); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	got, err := store.GetChat(ctx, "c1")
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[1].Sources[0].ChunkID != "f1_chunk_0" {
		t.Errorf("sources not round-tripped")
	}

	// Mutating the returned copy must not affect the store.
	got.Messages[0].Content = "tampered"
	again, _ := store.GetChat(ctx, "c1")
	if again.Messages[0].Content != "hi" {
		t.Errorf("store must hand out copies")
	}
}

func TestGetChatMissing(t *testing.T) {
	store := NewStore()
	if _, err := store.GetChat(context.Background(), "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSetFeedbackBounds(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.CreateChat(ctx, &models.ChatSession{ID: "c1", UserID: "u1"})
	store.AppendMessages(ctx, "c1", []models.Message{{Role: models.RoleAssistant, Content: "a"}})

	if err := store.SetFeedback(ctx, "c1", 0, models.FeedbackNegative); err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	chat, _ := store.GetChat(ctx, "c1")
	if chat.Messages[0].Feedback != models.FeedbackNegative {
		t.Errorf("feedback not set")
	}

	if err := store.SetFeedback(ctx, "c1", 5, models.FeedbackPositive); !errors.Is(err, errs.ErrInvalidMessageIndex) {
		t.Errorf("expected invalid index, got %v", err)
	}
	if err := store.SetFeedback(ctx, "missing", 0, models.FeedbackPositive); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListChatsScopedAndSorted(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	old := time.Now().Add(-time.Hour).UTC()
	recent := time.Now().UTC()
	store.CreateChat(ctx, &models.ChatSession{ID: "c1", UserID: "u1", UpdatedAt: old})
	store.CreateChat(ctx, &models.ChatSession{ID: "c2", UserID: "u1", UpdatedAt: recent})
	store.CreateChat(ctx, &models.ChatSession{ID: "c3", UserID: "u2", UpdatedAt: recent})

	chats, err := store.ListChats(ctx, "u1")
	if err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats for u1, got %d", len(chats))
	}
	if chats[0].ID != "c2" || chats[1].ID != "c1" {
		t.Errorf("chats should be newest first: %s, %s", chats[0].ID, chats[1].ID)
	}
}

func TestFileOwnership(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	file := &models.FileRecord{ID: "f1", UserID: "u1", OriginalName: "a.txt",
		VectorIDs: []string{"f1_chunk_0"}, CreatedAt: time.Now().UTC()}
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	if _, err := store.GetFile(ctx, "f1", "u2"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign user should get not found, got %v", err)
	}
	if err := store.DeleteFile(ctx, "f1", "u2"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign user delete should fail, got %v", err)
	}

	got, err := store.GetFile(ctx, "f1", "u1")
	if err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if len(got.VectorIDs) != 1 {
		t.Errorf("vector ids not stored")
	}

	if err := store.DeleteFile(ctx, "f1", "u1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := store.GetFile(ctx, "f1", "u1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("file should be gone")
	}
}

func TestCreateReport(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	report := &models.Report{ID: "r1", UserID: "u1", Query: "q", Response: "bad",
		Status: models.ReportPending, CreatedAt: time.Now().UTC()}
	if err := store.CreateReport(ctx, report); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	reports := store.Reports()
	if len(reports) != 1 || reports[0].ID != "r1" {
		t.Errorf("report not stored: %v", reports)
	}
}
