// Package chat orchestrates retrieval-grounded conversations: message
// turns, history, feedback, reports, and session summaries.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/metrics"
	"github.com/docchat/backend/internal/storage"
	"github.com/docchat/backend/internal/storage/models"
	"github.com/docchat/backend/internal/vector"
	"github.com/docchat/backend/pkg/keylock"
)

// Retriever returns the user's most relevant chunks for a query.
type Retriever interface {
	SearchRelevantChunks(ctx context.Context, query, userID string, topK int) ([]vector.RelevantChunk, error)
}

// Generator produces an answer grounded on the given context chunks.
type Generator interface {
	Generate(ctx context.Context, question string, contextChunks []string) (string, error)
}

type Service struct {
	chats     storage.ChatRepository
	reports   storage.ReportRepository
	retriever Retriever
	generator Generator
	topK      int
	locks     *keylock.KeyedMutex
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(chats storage.ChatRepository, reports storage.ReportRepository,
	retriever Retriever, generator Generator, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}
	return &Service{
		chats:     chats,
		reports:   reports,
		retriever: retriever,
		generator: generator,
		topK:      topK,
		locks:     keylock.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// TurnResult is the outcome of one message turn.
type TurnResult struct {
	ChatID   string
	Response string
	Sources  []models.SourceRef
}

// PostMessage runs one conversation turn. Retrieval and generation
// both complete before any session state changes, so a failed turn
// records nothing.
func (s *Service) PostMessage(ctx context.Context, userID, message, chatID string) (*TurnResult, error) {
	start := time.Now()

	if userID == "" || strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: userId and message are required", errs.ErrValidation)
	}

	isNew := chatID == ""
	if !isNew {
		chat, err := s.chats.GetChat(ctx, chatID)
		if err != nil {
			metrics.MessagesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if chat.UserID != userID {
			metrics.MessagesTotal.WithLabelValues("error").Inc()
			return nil, errs.ErrNotFound
		}
	}

	chunks, err := s.retriever.SearchRelevantChunks(ctx, message, userID, s.topK)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	contextTexts := make([]string, len(chunks))
	for i, c := range chunks {
		contextTexts[i] = c.Text
	}

	response, err := s.generator.Generate(ctx, message, contextTexts)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	sources := make([]models.SourceRef, len(chunks))
	for i, c := range chunks {
		sources[i] = models.SourceRef{FileID: c.FileID, ChunkID: c.ID, Text: c.Text}
	}

	now := s.now().UTC()
	msgs := []models.Message{
		{Role: models.RoleUser, Content: message, Timestamp: now},
		{Role: models.RoleAssistant, Content: response, Timestamp: now, Sources: sources},
	}

	if isNew {
		chatID = uuid.New().String()
		if err := s.chats.CreateChat(ctx, &models.ChatSession{
			ID:        chatID,
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			metrics.MessagesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	unlock := s.locks.Lock(chatID)
	err = s.chats.AppendMessages(ctx, chatID, msgs)
	unlock()
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues("ok").Inc()
	metrics.ChatRequestDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("Chat turn completed",
		zap.String("chatId", chatID),
		zap.String("userId", userID),
		zap.Int("sources", len(sources)),
	)

	return &TurnResult{ChatID: chatID, Response: response, Sources: sources}, nil
}

// History lists the user's sessions, most recently updated first.
func (s *Service) History(ctx context.Context, userID string) ([]*models.ChatSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", errs.ErrValidation)
	}
	return s.chats.ListChats(ctx, userID)
}

// SubmitFeedback rates the assistant message at index. A negative
// rating with a reason additionally files a Report, using the content
// of the immediately preceding message as the query.
func (s *Service) SubmitFeedback(ctx context.Context, chatID string, index int, feedback, reportReason string) error {
	if feedback != models.FeedbackPositive && feedback != models.FeedbackNegative {
		return fmt.Errorf("%w: feedback must be positive or negative", errs.ErrValidation)
	}

	unlock := s.locks.Lock(chatID)
	defer unlock()

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(chat.Messages) {
		return errs.ErrInvalidMessageIndex
	}

	rated := chat.Messages[index]
	if rated.Role != models.RoleAssistant {
		return fmt.Errorf("%w: feedback applies to assistant messages only", errs.ErrValidation)
	}

	if err := s.chats.SetFeedback(ctx, chatID, index, feedback); err != nil {
		return err
	}
	metrics.FeedbackTotal.WithLabelValues(feedback).Inc()

	if feedback == models.FeedbackNegative && reportReason != "" {
		query := ""
		if index > 0 {
			query = chat.Messages[index-1].Content
		}
		report := &models.Report{
			ID:        uuid.New().String(),
			UserID:    chat.UserID,
			Query:     query,
			Response:  rated.Content,
			Sources:   rated.Sources,
			Status:    models.ReportPending,
			CreatedAt: s.now().UTC(),
		}
		if err := s.reports.CreateReport(ctx, report); err != nil {
			return err
		}
		s.logger.Info("Report filed from negative feedback",
			zap.String("chatId", chatID), zap.Int("messageIndex", index))
	}

	return nil
}

// EndSession derives a summary of the session. It is a pure read; the
// session stays writable afterwards.
func (s *Service) EndSession(ctx context.Context, chatID, userID string) (*models.SessionSummary, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != userID {
		return nil, errs.ErrNotFound
	}

	summary := &models.SessionSummary{ChatID: chatID}

	var questions []string
	for _, msg := range chat.Messages {
		switch msg.Role {
		case models.RoleUser:
			summary.UserMessages++
			if len(questions) < 5 {
				q := msg.Content
				if len(q) > 100 {
					q = q[:100]
				}
				questions = append(questions, q)
			}
		case models.RoleAssistant:
			summary.AssistantMessages++
		}
	}

	if len(chat.Messages) > 0 {
		elapsed := s.now().Sub(chat.Messages[0].Timestamp)
		summary.DurationMinutes = int(elapsed.Minutes())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session with %d user and %d assistant messages over %d minutes.",
		summary.UserMessages, summary.AssistantMessages, summary.DurationMinutes)
	if len(questions) > 0 {
		b.WriteString(" Questions asked:")
		for i, q := range questions {
			fmt.Fprintf(&b, " %d) %s", i+1, q)
		}
	}
	summary.Summary = b.String()

	return summary, nil
}
