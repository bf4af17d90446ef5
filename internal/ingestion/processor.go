// Package ingestion runs the upload pipeline: persist the blob,
// extract text, chunk it, and index the chunks for retrieval.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/internal/metrics"
	"github.com/docchat/backend/internal/storage"
	"github.com/docchat/backend/internal/storage/models"
	"github.com/docchat/backend/pkg/keylock"
)

// AllowedTypes is the upload extension allowlist, without dots.
var AllowedTypes = []string{"pdf", "txt", "md", "png", "jpg", "jpeg", "webp"}

const MaxUploadSize = 10 * 1024 * 1024

// Extractor turns a stored blob into plain text.
type Extractor interface {
	Extract(path, fileType string) (string, error)
}

// ChunkStore indexes chunk texts and removes them per file.
type ChunkStore interface {
	StoreDocumentChunks(ctx context.Context, chunks []string, userID, fileID string) ([]string, error)
	DeleteFileVectors(ctx context.Context, fileID string) (int, error)
}

type Processor struct {
	extractor    Extractor
	chunkStore   ChunkStore
	files        storage.FileRepository
	uploadDir    string
	chunkSize    int
	chunkOverlap int
	locks        *keylock.KeyedMutex
	logger       *zap.Logger
}

func NewProcessor(extractor Extractor, chunkStore ChunkStore, files storage.FileRepository,
	uploadDir string, chunkSize, chunkOverlap int, logger *zap.Logger) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Processor{
		extractor:    extractor,
		chunkStore:   chunkStore,
		files:        files,
		uploadDir:    uploadDir,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		locks:        keylock.New(),
		logger:       logger,
	}
}

func allowedType(ext string) bool {
	for _, t := range AllowedTypes {
		if t == ext {
			return true
		}
	}
	return false
}

// ProcessUpload validates the upload, persists it under a generated
// name, extracts and chunks the text, indexes the chunks, and records
// the file. The stored blob is removed again if any later step fails.
func (p *Processor) ProcessUpload(ctx context.Context, userID, originalName string, size int64, r io.Reader) (*models.FileRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", errs.ErrValidation)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	if !allowedType(ext) {
		return nil, fmt.Errorf("%w (allowed: %s)",
			&errs.UnsupportedTypeError{Type: ext}, strings.Join(AllowedTypes, ", "))
	}
	if size > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", errs.ErrValidation, MaxUploadSize)
	}

	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	fileID := uuid.New().String()
	storedName := fileID + "." + ext
	storagePath := filepath.Join(p.uploadDir, storedName)

	unlock := p.locks.Lock(fileID)
	defer unlock()

	dst, err := os.Create(storagePath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}
	written, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(storagePath)
		return nil, errs.Wrap(errs.ErrUpstreamStore, err)
	}

	text, err := p.extractor.Extract(storagePath, ext)
	if err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	chunks := ChunkText(text, p.chunkSize, p.chunkOverlap)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectorIDs, err := p.chunkStore.StoreDocumentChunks(ctx, texts, userID, fileID)
	if err != nil {
		os.Remove(storagePath)
		return nil, err
	}

	record := &models.FileRecord{
		ID:           fileID,
		UserID:       userID,
		Filename:     storedName,
		OriginalName: originalName,
		FileType:     ext,
		FileSize:     written,
		StoragePath:  storagePath,
		VectorIDs:    vectorIDs,
		CreatedAt:    time.Now().UTC(),
	}

	if err := p.files.CreateFile(ctx, record); err != nil {
		p.chunkStore.DeleteFileVectors(ctx, fileID)
		os.Remove(storagePath)
		return nil, err
	}

	metrics.DocumentsIngested.Inc()
	metrics.ChunksStored.Add(float64(len(vectorIDs)))

	p.logger.Info("Document ingested",
		zap.String("fileId", fileID),
		zap.String("userId", userID),
		zap.String("type", ext),
		zap.Int("chunks", len(vectorIDs)),
	)

	return record, nil
}

func (p *Processor) ListFiles(ctx context.Context, userID string) ([]*models.FileRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", errs.ErrValidation)
	}
	return p.files.ListFiles(ctx, userID)
}

// DeleteFile removes the blob, the indexed vectors, and the record.
func (p *Processor) DeleteFile(ctx context.Context, userID, fileID string) error {
	unlock := p.locks.Lock(fileID)
	defer unlock()

	record, err := p.files.GetFile(ctx, fileID, userID)
	if err != nil {
		return err
	}

	if _, err := p.chunkStore.DeleteFileVectors(ctx, fileID); err != nil {
		return err
	}

	if err := os.Remove(record.StoragePath); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("Failed to remove stored file",
			zap.String("path", record.StoragePath), zap.Error(err))
	}

	if err := p.files.DeleteFile(ctx, fileID, userID); err != nil {
		return err
	}

	p.logger.Info("Document deleted",
		zap.String("fileId", fileID), zap.String("userId", userID))
	return nil
}
