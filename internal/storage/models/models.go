// Package models holds the persisted entities of the service.
package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	FeedbackPositive = "positive"
	FeedbackNegative = "negative"

	ReportPending  = "pending"
	ReportReviewed = "reviewed"
)

// SourceRef points a generated answer back at the chunk it was
// grounded on.
type SourceRef struct {
	FileID  string `json:"fileId"`
	ChunkID string `json:"chunkId"`
	Text    string `json:"text"`
}

type Message struct {
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Feedback  string      `json:"feedback,omitempty"`
	Sources   []SourceRef `json:"sources,omitempty"`
}

type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FileRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	StoragePath  string    `json:"storagePath"`
	VectorIDs    []string  `json:"vectorIds"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Report is raised when a user flags an assistant answer as wrong.
type Report struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Query      string      `json:"query"`
	Response   string      `json:"response"`
	Sources    []SourceRef `json:"sources,omitempty"`
	Status     string      `json:"status"`
	Correction string      `json:"correction,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// SessionSummary is derived at session end; nothing is persisted.
type SessionSummary struct {
	ChatID            string `json:"chatId"`
	UserMessages      int    `json:"userMessages"`
	AssistantMessages int    `json:"assistantMessages"`
	DurationMinutes   int    `json:"durationMinutes"`
	Summary           string `json:"summary"`
}
