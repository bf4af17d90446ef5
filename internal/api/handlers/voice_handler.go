package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/voice"
)

type VoiceHandler struct {
	service *voice.Service
	logger  *zap.Logger
}

func NewVoiceHandler(service *voice.Service, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{service: service, logger: logger}
}

func (h *VoiceHandler) SpeechToText(c *fiber.Ctx) error {
	text, err := h.service.SpeechToText(c.Body())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"text": text})
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (h *VoiceHandler) TextToSpeech(c *fiber.Ctx) error {
	var req ttsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	audio, err := h.service.TextToSpeech(req.Text, req.Voice)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"audio": audio})
}
