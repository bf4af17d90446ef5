package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/ingestion"
)

type FileHandler struct {
	processor *ingestion.Processor
	logger    *zap.Logger
}

func NewFileHandler(processor *ingestion.Processor, logger *zap.Logger) *FileHandler {
	return &FileHandler{processor: processor, logger: logger}
}

func (h *FileHandler) Upload(c *fiber.Ctx) error {
	userID := c.FormValue("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File is required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer src.Close()

	record, err := h.processor.ProcessUpload(c.Context(), userID, fileHeader.Filename, fileHeader.Size, src)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"file":       record,
		"chunkCount": len(record.VectorIDs),
	})
}

func (h *FileHandler) List(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	files, err := h.processor.ListFiles(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"files": files})
}

func (h *FileHandler) Delete(c *fiber.Ctx) error {
	fileID := c.Params("id")
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	if err := h.processor.DeleteFile(c.Context(), userID, fileID); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
