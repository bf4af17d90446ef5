// Package storage defines the persistence ports implemented by the
// sqlite and memory backends.
package storage

import (
	"context"

	"github.com/docchat/backend/internal/storage/models"
)

type ChatRepository interface {
	CreateChat(ctx context.Context, chat *models.ChatSession) error
	// GetChat fetches by id only; ownership is enforced by callers so
	// that a foreign chat id surfaces as not-found, not as forbidden.
	GetChat(ctx context.Context, chatID string) (*models.ChatSession, error)
	// ListChats returns the user's sessions, newest UpdatedAt first.
	ListChats(ctx context.Context, userID string) ([]*models.ChatSession, error)
	AppendMessages(ctx context.Context, chatID string, msgs []models.Message) error
	SetFeedback(ctx context.Context, chatID string, index int, feedback string) error
}

type FileRepository interface {
	CreateFile(ctx context.Context, file *models.FileRecord) error
	GetFile(ctx context.Context, fileID, userID string) (*models.FileRecord, error)
	// ListFiles returns the user's files, newest CreatedAt first.
	ListFiles(ctx context.Context, userID string) ([]*models.FileRecord, error)
	DeleteFile(ctx context.Context, fileID, userID string) error
}

type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
}
