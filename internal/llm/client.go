// Package llm wraps the Gemini API for embeddings and grounded
// generation.
package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/docchat/backend/internal/errs"
	"github.com/docchat/backend/pkg/circuitbreaker"
	"github.com/docchat/backend/pkg/config"
)

type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	genConfig      genai.GenerationConfig
	breaker        *circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

func NewClient(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	temperature := cfg.Temperature
	topP := cfg.TopP
	topK := cfg.TopK
	maxTokens := cfg.MaxOutputTokens

	return &Client{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		genConfig: genai.GenerationConfig{
			Temperature:     &temperature,
			TopP:            &topP,
			TopK:            &topK,
			MaxOutputTokens: &maxTokens,
		},
		breaker: circuitbreaker.NewCircuitBreaker("gemini", circuitbreaker.Config{
			MaxRequests:      3,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Logger:           logger,
		}),
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Embed returns the embedding vector for text. Failures are reported
// immediately; there is no retry.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var values []float32

	err := c.breaker.Execute(ctx, func() error {
		res, err := c.client.EmbeddingModel(c.embeddingModel).EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return fmt.Errorf("empty embedding response")
		}
		values = res.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrEmbedding, err)
	}

	return values, nil
}

// Generate answers question, grounding on contextChunks when any are
// present. A single generation call is made per invocation.
func (c *Client) Generate(ctx context.Context, question string, contextChunks []string) (string, error) {
	prompt := BuildPlainPrompt(question)
	if len(contextChunks) > 0 {
		prompt = BuildGroundedPrompt(question, contextChunks)
	}

	var answer string
	err := c.breaker.Execute(ctx, func() error {
		model := c.client.GenerativeModel(c.model)
		model.GenerationConfig = c.genConfig

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return fmt.Errorf("empty generation response")
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				answer += string(text)
			}
		}
		if answer == "" {
			return fmt.Errorf("no text parts in generation response")
		}
		return nil
	})
	if err != nil {
		return "", errs.Wrap(errs.ErrGeneration, err)
	}

	c.logger.Debug("Generated response",
		zap.Int("contextChunks", len(contextChunks)),
		zap.Int("responseLength", len(answer)),
	)

	return answer, nil
}
