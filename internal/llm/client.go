package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/truststack/scorer/pkg/circuitbreaker"
	"github.com/truststack/scorer/pkg/logger"
	"github.com/truststack/scorer/pkg/retry"
)

const classifySystemPrompt = `You are a content authenticity classifier. Given item metadata and a numeric score (0-100), return a JSON object with keys: label (authentic|suspect|inauthentic), confidence (0.0-1.0), and optional notes. Respond with JSON only.`

// ClassifyRequest is the serialized payload sent to the model for one item.
type ClassifyRequest struct {
	ContentID  string            `json:"content_id"`
	Meta       map[string]string `json:"meta"`
	FinalScore float64           `json:"final_score"`
}

// Classification is the parsed model response. Any response that does not
// decode into this shape with a valid label is treated as a parse failure.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
}

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	cb             *circuitbreaker.Breaker
	retryConfig    retry.Config
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 5
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    2,
		InitialDelay:   300 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		timeout:        time.Duration(timeoutSec) * time.Second,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Classify issues one classification request for one item. All failure
// modes, transport errors, timeouts, and unparseable responses, surface as
// errors; the caller decides how to degrade.
func (c *Client) Classify(ctx context.Context, req ClassifyRequest) (*Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize classification request: %w", err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Item:\n%s", payload)},
	}

	var result *Classification

	err = c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: c.temperature,
					MaxTokens:   c.maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			if len(resp.Choices) == 0 {
				return fmt.Errorf("empty completion response")
			}

			parsed, err := parseClassification(resp.Choices[0].Message.Content)
			if err != nil {
				return err
			}

			logger.Debug("Classification response received",
				zap.String("content_id", req.ContentID),
				zap.String("label", parsed.Label),
				zap.Int("total_tokens", resp.Usage.TotalTokens),
			)

			result = parsed
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("empty embedding response")
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return embedding, nil
}

func parseClassification(raw string) (*Classification, error) {
	trimmed := strings.TrimSpace(raw)
	// Models occasionally wrap JSON in a code fence despite instructions.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var parsed Classification
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	switch parsed.Label {
	case "authentic", "suspect", "inauthentic":
	default:
		return nil, fmt.Errorf("classification label out of range: %q", parsed.Label)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, fmt.Errorf("classification confidence out of range: %f", parsed.Confidence)
	}

	return &parsed, nil
}
