package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/chat"
)

type ChatHandler struct {
	service *chat.Service
	logger  *zap.Logger
}

func NewChatHandler(service *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

type messageRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
}

type sourceResponse struct {
	FileID string `json:"fileId"`
	Text   string `json:"text"`
}

// truncateSource keeps responses small; full source text stays on the
// stored message.
func truncateSource(text string) string {
	if len(text) > 150 {
		return text[:150] + "..."
	}
	return text
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.UserID == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID and message are required"})
	}

	result, err := h.service.PostMessage(c.Context(), req.UserID, req.Message, req.ChatID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	sources := make([]sourceResponse, len(result.Sources))
	for i, s := range result.Sources {
		sources[i] = sourceResponse{FileID: s.FileID, Text: truncateSource(s.Text)}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"chatId":  result.ChatID,
		"message": result.Response,
		"sources": sources,
	})
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}

	chats, err := h.service.History(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"chats": chats})
}

type feedbackRequest struct {
	ChatID       string `json:"chatId"`
	MessageIndex *int   `json:"messageIndex"`
	Feedback     string `json:"feedback"`
	ReportReason string `json:"reportReason"`
}

func (h *ChatHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ChatID == "" || req.MessageIndex == nil || req.Feedback == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Chat ID, message index, and feedback are required"})
	}

	err := h.service.SubmitFeedback(c.Context(), req.ChatID, *req.MessageIndex, req.Feedback, req.ReportReason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

type endSessionRequest struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func (h *ChatHandler) EndSession(c *fiber.Ctx) error {
	var req endSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ChatID == "" || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Chat ID and user ID are required"})
	}

	summary, err := h.service.EndSession(c.Context(), req.ChatID, req.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
