// Package voice provides placeholder speech endpoints. Both directions
// are pass-throughs until a real speech provider is wired in.
package voice

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docchat/backend/internal/errs"
)

type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// SpeechToText acknowledges the audio payload without transcribing it.
func (s *Service) SpeechToText(audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: audio payload is empty", errs.ErrValidation)
	}
	s.logger.Debug("Speech-to-text requested", zap.Int("bytes", len(audio)))
	return fmt.Sprintf("[transcription placeholder for %d bytes of audio]", len(audio)), nil
}

// TextToSpeech echoes the text as a synthesis descriptor.
func (s *Service) TextToSpeech(text, voiceName string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text is required", errs.ErrValidation)
	}
	if voiceName == "" {
		voiceName = "default"
	}
	s.logger.Debug("Text-to-speech requested",
		zap.String("voice", voiceName), zap.Int("length", len(text)))
	return fmt.Sprintf("[audio placeholder: voice=%s text=%q]", voiceName, text), nil
}
