package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/internal/metrics"
	"github.com/KingArthur0205/LLM-Tutor-Student-Simulator/pkg/logger"
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures one client. BaseURL lets the same client talk to any
// OpenAI-compatible endpoint, e.g. Anthropic's https://api.anthropic.com/v1/.
type Options struct {
	Role           string
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	Timeout        time.Duration
	Metrics        *metrics.Metrics
}

type Client struct {
	client         *openai.Client
	role           string
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	metrics        *metrics.Metrics
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	logger.Info("LLM client initialized",
		zap.String("role", opts.Role),
		zap.String("model", opts.Model),
		zap.String("base_url", cfg.BaseURL),
	)

	return &Client{
		client:         openai.NewClientWithConfig(cfg),
		role:           opts.Role,
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		temperature:    opts.Temperature,
		maxTokens:      opts.MaxTokens,
		timeout:        opts.Timeout,
		metrics:        opts.Metrics,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Chat sends the messages verbatim with the client's fixed sampling
// parameters and returns the first choice.
func (c *Client) Chat(ctx context.Context, messages []Message) (*CompletionResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAI(messages),
		Temperature: wireTemperature(c.temperature),
		MaxTokens:   c.maxTokens,
	}

	started := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err == nil && len(resp.Choices) == 0 {
		err = ErrEmptyCompletion
	}
	c.metrics.ObserveRequest(c.role, "chat", started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s completion: %w", c.role, err)
	}

	c.metrics.AddTokens(c.role, c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	logger.Debug("LLM completion generated",
		zap.String("role", c.role),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", time.Since(started)),
	)

	return &CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Complete is the single-shot system + user form used by the rubric judge.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return c.Chat(ctx, []Message{
		{Role: RoleSystem, Content: req.SystemPrompt},
		{Role: RoleUser, Content: req.UserPrompt},
	})
}

func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.GenerateBatchEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (c *Client) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.embeddingModel == "" {
		return nil, fmt.Errorf("no embedding model configured for %s client", c.role)
	}

	var embeddings [][]float32

	batchSize := 100
	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		batch := texts[i:end]

		started := time.Now()
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err == nil && len(resp.Data) != len(batch) {
			err = fmt.Errorf("embedding count mismatch: got %d, expected %d", len(resp.Data), len(batch))
		}
		c.metrics.ObserveRequest(c.role, "embedding", started, err)
		if err != nil {
			return nil, fmt.Errorf("failed to generate batch embeddings: %w", err)
		}

		ordered := make([][]float32, len(batch))
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", data.Index)
			}
			embedding := make([]float32, len(data.Embedding))
			copy(embedding, data.Embedding)
			ordered[data.Index] = embedding
		}
		embeddings = append(embeddings, ordered...)
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}

// go-openai drops a zero temperature from the request body (omitempty), which
// makes the server fall back to its own default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
