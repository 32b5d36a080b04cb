package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"survey-server/internal/config"
	"survey-server/internal/models"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMClient - абстракция Model Gateway: отправить промпт и получить ответ
// модели при заданной температуре. Повторы с экспоненциальной задержкой
// выполняются внутри реализации.
type LLMClient interface {
	// RequestStructured запрашивает у модели JSON, соответствующий схеме.
	RequestStructured(ctx context.Context, prompt string, schema *models.ResponseSchema, temperature float32) (json.RawMessage, error)
	// RequestJSON запрашивает произвольный JSON-объект без строгой схемы.
	RequestJSON(ctx context.Context, prompt string, temperature float32) (json.RawMessage, error)
	// RequestText запрашивает у модели обычный текстовый ответ.
	RequestText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// --- OpenAI / Azure OpenAI Client Implementation ---

// openAIClient реализует LLMClient через go-openai (работает и с OpenAI,
// и с Azure OpenAI, и с совместимыми шлюзами через BaseURL).
type openAIClient struct {
	client   *openaigo.Client
	model    string
	retry    RetryPolicy
	cooldown *CooldownGate
	logger   *zap.Logger
}

func (c *openAIClient) RequestStructured(ctx context.Context, prompt string, schema *models.ResponseSchema, temperature float32) (json.RawMessage, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: prompt schema is required", models.ErrAIRequestFailed)
	}

	req := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openaigo.ChatCompletionResponseFormatJSONSchema{
				Name:        schema.Name,
				Description: schema.Description,
				Schema:      schema.Schema,
				Strict:      schema.Strict,
			},
		},
	}

	var raw json.RawMessage
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}
		content, err := c.doRequest(ctx, req)
		if err != nil {
			return err
		}
		// Проверяем, что модель вернула валидный JSON
		var js json.RawMessage
		if err := json.Unmarshal([]byte(content), &js); err != nil {
			c.logger.Warn("Ответ AI не является валидным JSON",
				zap.String("model", c.model), zap.Error(err))
			return fmt.Errorf("%w: %v", models.ErrInvalidAIJSON, err)
		}
		raw = js
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *openAIClient) RequestJSON(ctx context.Context, prompt string, temperature float32) (json.RawMessage, error) {
	req := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var raw json.RawMessage
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}
		content, err := c.doRequest(ctx, req)
		if err != nil {
			return err
		}
		var js json.RawMessage
		if err := json.Unmarshal([]byte(content), &js); err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidAIJSON, err)
		}
		raw = js
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *openAIClient) RequestText(ctx context.Context, prompt string, temperature float32) (string, error) {
	req := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	}

	var text string
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}
		content, err := c.doRequest(ctx, req)
		if err != nil {
			return err
		}
		text = content
		return nil
	})
	return text, err
}

// doRequest выполняет один вызов chat completions и записывает метрики.
func (c *openAIClient) doRequest(ctx context.Context, req openaigo.ChatCompletionRequest) (string, error) {
	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("Ошибка от AI API",
			zap.String("model", c.model), zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", models.ErrAIRequestFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", models.ErrEmptyAIResponse
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	content := resp.Choices[0].Message.Content

	usage := UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		// API не вернул usage - оцениваем токены через tiktoken
		usage = estimateUsage(c.model, promptOf(req), content)
	}
	usage.EstimatedCostUSD = calculateCost(usage.PromptTokens, usage.CompletionTokens)
	observeUsage(c.model, usage)

	c.logger.Debug("Ответ от AI API получен",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Int("response_len", len(content)))

	return content, nil
}

func promptOf(req openaigo.ChatCompletionRequest) string {
	var sb strings.Builder
	for _, msg := range req.Messages {
		sb.WriteString(msg.Content)
	}
	return sb.String()
}

// estimateUsage оценивает использование токенов, когда API его не вернул.
func estimateUsage(model, prompt, completion string) UsageInfo {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return UsageInfo{}
		}
	}
	promptTokens := len(tke.Encode(prompt, nil, nil))
	completionTokens := len(tke.Encode(completion, nil, nil))
	return UsageInfo{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// --- Factory Function ---

// NewLLMClient создает клиент Model Gateway в зависимости от конфигурации.
func NewLLMClient(cfg *config.Config, logger *zap.Logger) (LLMClient, error) {
	retry := RetryPolicy{
		MaxAttempts: cfg.AIMaxAttempts,
		BaseDelay:   cfg.AIBaseRetryDelay,
		MaxDelay:    cfg.AIMaxRetryDelay,
	}
	cooldown := NewCooldownGate(cfg.AICooldown)

	switch strings.ToLower(cfg.AIClientType) {
	case "openai":
		clientConfig := openaigo.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.AIBaseURL != "" {
			clientConfig.BaseURL = cfg.AIBaseURL
		}
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		logger.Info("Используется реализация AI клиента: OpenAI",
			zap.String("model", cfg.AIModel), zap.Duration("timeout", cfg.AITimeout))
		return &openAIClient{
			client:   openaigo.NewClientWithConfig(clientConfig),
			model:    cfg.AIModel,
			retry:    retry,
			cooldown: cooldown,
			logger:   logger.Named("OpenAIClient"),
		}, nil
	case "azure":
		clientConfig := openaigo.DefaultAzureConfig(cfg.AzureOpenAIAPIKey, cfg.AzureOpenAIEndpoint)
		clientConfig.APIVersion = cfg.AzureAPIVersion
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		logger.Info("Используется реализация AI клиента: Azure OpenAI",
			zap.String("model", cfg.AIModel), zap.String("endpoint", cfg.AzureOpenAIEndpoint))
		return &openAIClient{
			client:   openaigo.NewClientWithConfig(clientConfig),
			model:    cfg.AIModel,
			retry:    retry,
			cooldown: cooldown,
			logger:   logger.Named("AzureOpenAIClient"),
		}, nil
	case "ollama":
		logger.Info("Используется реализация AI клиента: Ollama",
			zap.String("model", cfg.AIModel))
		return newOllamaClient(cfg, retry, cooldown, logger.Named("OllamaClient"))
	default:
		return nil, fmt.Errorf("%w: '%s'", models.ErrUnknownClientType, cfg.AIClientType)
	}
}
