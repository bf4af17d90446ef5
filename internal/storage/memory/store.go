// Package memory implements the persistence ports in process, for
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/storage/models"
)

type Store struct {
	mu      sync.RWMutex
	chats   map[string]*models.ChatSession
	files   map[string]*models.FileRecord
	reports map[string]*models.Report
}

func NewStore() *Store {
	return &Store{
		chats:   make(map[string]*models.ChatSession),
		files:   make(map[string]*models.FileRecord),
		reports: make(map[string]*models.Report),
	}
}

func cloneChat(chat *models.ChatSession) *models.ChatSession {
	out := *chat
	out.Messages = make([]models.Message, len(chat.Messages))
	copy(out.Messages, chat.Messages)
	return &out
}

func cloneFile(file *models.FileRecord) *models.FileRecord {
	out := *file
	out.VectorIDs = append([]string(nil), file.VectorIDs...)
	return &out
}

func (s *Store) CreateChat(ctx context.Context, chat *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chat.ID] = cloneChat(chat)
	return nil
}

func (s *Store) GetChat(ctx context.Context, chatID string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneChat(chat), nil
}

func (s *Store) ListChats(ctx context.Context, userID string) ([]*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := make([]*models.ChatSession, 0)
	for _, chat := range s.chats {
		if chat.UserID == userID {
			chats = append(chats, cloneChat(chat))
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if !chats[i].UpdatedAt.Equal(chats[j].UpdatedAt) {
			return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
		}
		return chats[i].ID < chats[j].ID
	})
	return chats, nil
}

func (s *Store) AppendMessages(ctx context.Context, chatID string, msgs []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return errs.ErrNotFound
	}
	chat.Messages = append(chat.Messages, msgs...)
	chat.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SetFeedback(ctx context.Context, chatID string, index int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return errs.ErrNotFound
	}
	if index < 0 || index >= len(chat.Messages) {
		return errs.ErrInvalidMessageIndex
	}
	chat.Messages[index].Feedback = feedback
	return nil
}

func (s *Store) CreateFile(ctx context.Context, file *models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file.ID] = cloneFile(file)
	return nil
}

func (s *Store) GetFile(ctx context.Context, fileID, userID string) (*models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.files[fileID]
	if !ok || file.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return cloneFile(file), nil
}

func (s *Store) ListFiles(ctx context.Context, userID string) ([]*models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]*models.FileRecord, 0)
	for _, file := range s.files {
		if file.UserID == userID {
			files = append(files, cloneFile(file))
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].ID < files[j].ID
	})
	return files, nil
}

func (s *Store) DeleteFile(ctx context.Context, fileID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[fileID]
	if !ok || file.UserID != userID {
		return errs.ErrNotFound
	}
	delete(s.files, fileID)
	return nil
}

func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *report
	clone.Sources = append([]models.SourceRef(nil), report.Sources...)
	s.reports[report.ID] = &clone
	return nil
}

// Reports returns all stored reports, for tests.
func (s *Store) Reports() []*models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		clone := *r
		out = append(out, &clone)
	}
	return out
}
