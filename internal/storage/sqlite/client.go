// Package sqlite implements the persistence ports on a local SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/storage/models"
)

type Client struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewClient(path string, logger *zap.Logger) (*Client, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &Client{db: db, logger: logger}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized", zap.String("path", path))
	return c, nil
}

func (c *Client) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chats (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id, updated_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		chat_id   TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		idx       INTEGER NOT NULL,
		role      TEXT NOT NULL,
		content   TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		feedback  TEXT NOT NULL DEFAULT '',
		sources   TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (chat_id, idx)
	);

	CREATE TABLE IF NOT EXISTS files (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		filename      TEXT NOT NULL,
		original_name TEXT NOT NULL,
		file_type     TEXT NOT NULL,
		file_size     INTEGER NOT NULL,
		storage_path  TEXT NOT NULL,
		vector_ids    TEXT NOT NULL DEFAULT '[]',
		created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_files_user ON files(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS reports (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		query      TEXT NOT NULL,
		response   TEXT NOT NULL,
		sources    TEXT NOT NULL DEFAULT '[]',
		status     TEXT NOT NULL,
		correction TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) CreateChat(ctx context.Context, chat *models.ChatSession) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		chat.ID, chat.UserID, chat.CreatedAt.Unix(), chat.UpdatedAt.Unix())
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	return nil
}

func (c *Client) GetChat(ctx context.Context, chatID string) (*models.ChatSession, error) {
	var chat models.ChatSession
	var created, updated int64
	err := c.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM chats WHERE id = ?`, chatID).
		Scan(&chat.ID, &chat.UserID, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	chat.CreatedAt = time.Unix(created, 0).UTC()
	chat.UpdatedAt = time.Unix(updated, 0).UTC()

	rows, err := c.db.QueryContext(ctx,
		`SELECT role, content, timestamp, feedback, sources FROM messages
		 WHERE chat_id = ? ORDER BY idx`, chatID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg models.Message
		var ts int64
		var sources string
		if err := rows.Scan(&msg.Role, &msg.Content, &ts, &msg.Feedback, &sources); err != nil {
			return nil, errs.Wrap(errs.ErrUpstreamStore, err)
		}
		msg.Timestamp = time.Unix(ts, 0).UTC()
		if err := json.Unmarshal([]byte(sources), &msg.Sources); err != nil {
			return nil, errs.Wrap(errs.ErrUpstreamStore, err)
		}
		chat.Messages = append(chat.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	return &chat, nil
}

func (c *Client) ListChats(ctx context.Context, userID string) ([]*models.ChatSession, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id FROM chats WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.ErrUpstreamStore, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	chats := make([]*models.ChatSession, 0, len(ids))
	for _, id := range ids {
		chat, err := c.GetChat(ctx, id)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

func (c *Client) AppendMessages(ctx context.Context, chatID string, msgs []models.Message) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(idx), -1) + 1 FROM messages WHERE chat_id = ?`, chatID).
		Scan(&next)
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}

	for i, msg := range msgs {
		sources, err := json.Marshal(msg.Sources)
		if err != nil {
			return errs.Wrap(errs.ErrUpstreamStore, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (chat_id, idx, role, content, timestamp, feedback, sources)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			chatID, next+i, msg.Role, msg.Content, msg.Timestamp.Unix(), msg.Feedback, string(sources))
		if err != nil {
			return errs.Wrap(errs.ErrUpstreamStore, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ?`, time.Now().Unix(), chatID); err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	return nil
}

func (c *Client) SetFeedback(ctx context.Context, chatID string, index int, feedback string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE messages SET feedback = ? WHERE chat_id = ? AND idx = ?`,
		feedback, chatID, index)
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	if n == 0 {
		return errs.ErrInvalidMessageIndex
	}
	return nil
}

func (c *Client) CreateFile(ctx context.Context, file *models.FileRecord) error {
	vectorIDs, err := json.Marshal(file.VectorIDs)
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO files (id, user_id, filename, original_name, file_type, file_size, storage_path, vector_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID, file.UserID, file.Filename, file.OriginalName, file.FileType,
		file.FileSize, file.StoragePath, string(vectorIDs), file.CreatedAt.Unix())
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	return nil
}

func (c *Client) GetFile(ctx context.Context, fileID, userID string) (*models.FileRecord, error) {
	var file models.FileRecord
	var vectorIDs string
	var created int64
	err := c.db.QueryRowContext(ctx,
		`SELECT id, user_id, filename, original_name, file_type, file_size, storage_path, vector_ids, created_at
		 FROM files WHERE id = ? AND user_id = ?`, fileID, userID).
		Scan(&file.ID, &file.UserID, &file.Filename, &file.OriginalName, &file.FileType,
			&file.FileSize, &file.StoragePath, &vectorIDs, &created)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	file.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(vectorIDs), &file.VectorIDs); err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	return &file, nil
}

func (c *Client) ListFiles(ctx context.Context, userID string) ([]*models.FileRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, filename, original_name, file_type, file_size, storage_path, vector_ids, created_at
		 FROM files WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	defer rows.Close()

	files := make([]*models.FileRecord, 0)
	for rows.Next() {
		var file models.FileRecord
		var vectorIDs string
		var created int64
		if err := rows.Scan(&file.ID, &file.UserID, &file.Filename, &file.OriginalName,
			&file.FileType, &file.FileSize, &file.StoragePath, &vectorIDs, &created); err != nil {
			return nil, errs.Wrap(errs.ErrUpstreamStore, err)
		}
		file.CreatedAt = time.Unix(created, 0).UTC()
		if err := json.Unmarshal([]byte(vectorIDs), &file.VectorIDs); err != nil {
			return nil, errs.Wrap(errs.ErrUpstreamStore, err)
		}
		files = append(files, &file)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	return files, nil
}

func (c *Client) DeleteFile(ctx context.Context, fileID, userID string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = ? AND user_id = ?`, fileID, userID)
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (c *Client) CreateReport(ctx context.Context, report *models.Report) error {
	sources, err := json.Marshal(report.Sources)
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, query, response, sources, status, correction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.UserID, report.Query, report.Response, string(sources),
		report.Status, report.Correction, report.CreatedAt.Unix())
	if err != nil {
		return errs.Wrap(errs.ErrUpstreamStore, err)
	}
	return nil
}
