package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestChatRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	if err := client.CreateChat(ctx, &models.ChatSession{
		ID: "c1", UserID: "u1", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	msgs := []models.Message{
		{Role: models.RoleUser, Content: "question", Timestamp: now},
		{Role: models.RoleAssistant, Content: "answer", Timestamp: now,
			Sources: []models.SourceRef{{FileID: "f1", ChunkID: "f1_chunk_2", Text: "excerpt"}}},
	}
	if err := client.AppendMessages(ctx, "c1", msgs); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	chat, err := client.GetChat(ctx, "c1")
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(chat.Messages))
	}
	if chat.Messages[1].Sources[0].ChunkID != "f1_chunk_2" {
		t.Errorf("sources not round-tripped: %+v", chat.Messages[1].Sources)
	}

	// A second append continues the index sequence.
	if err := client.AppendMessages(ctx, "c1", msgs); err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	chat, _ = client.GetChat(ctx, "c1")
	if len(chat.Messages) != 4 {
		t.Errorf("expected 4 messages after second append, got %d", len(chat.Messages))
	}
}

func TestGetChatMissing(t *testing.T) {
	client := newTestClient(t)
	if _, err := client.GetChat(context.Background(), "absent"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSetFeedback(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	now := time.Now().UTC()
	client.CreateChat(ctx, &models.ChatSession{ID: "c1", UserID: "u1", CreatedAt: now, UpdatedAt: now})
	client.AppendMessages(ctx, "c1", []models.Message{
		{Role: models.RoleAssistant, Content: "a", Timestamp: now},
	})

	if err := client.SetFeedback(ctx, "c1", 0, models.FeedbackNegative); err != nil {
		t.Fatalf("SetFeedback failed: %v", err)
	}
	chat, _ := client.GetChat(ctx, "c1")
	if chat.Messages[0].Feedback != models.FeedbackNegative {
		t.Errorf("feedback not persisted")
	}

	if err := client.SetFeedback(ctx, "c1", 9, models.FeedbackPositive); !errors.Is(err, errs.ErrInvalidMessageIndex) {
		t.Errorf("expected invalid index, got %v", err)
	}
}

func TestFileRoundTripAndOwnership(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	file := &models.FileRecord{
		ID: "f1", UserID: "u1", Filename: "f1.pdf", OriginalName: "report.pdf",
		FileType: "pdf", FileSize: 1234, StoragePath: "/tmp/f1.pdf",
		VectorIDs: []string{"f1_chunk_0", "f1_chunk_1"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := client.CreateFile(ctx, file); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	got, err := client.GetFile(ctx, "f1", "u1")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if len(got.VectorIDs) != 2 || got.OriginalName != "report.pdf" {
		t.Errorf("record not round-tripped: %+v", got)
	}

	if _, err := client.GetFile(ctx, "f1", "u2"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign user should get not found, got %v", err)
	}

	files, err := client.ListFiles(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %d", len(files))
	}

	if err := client.DeleteFile(ctx, "f1", "u2"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("foreign delete should fail, got %v", err)
	}
	if err := client.DeleteFile(ctx, "f1", "u1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}

func TestCreateReport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.CreateReport(ctx, &models.Report{
		ID: "r1", UserID: "u1", Query: "q", Response: "bad answer",
		Sources:   []models.SourceRef{{FileID: "f1", ChunkID: "f1_chunk_0", Text: "t"}},
		Status:    models.ReportPending,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}
}
