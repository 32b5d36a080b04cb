package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"survey-server/internal/config"
	"survey-server/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ollamaClient реализует LLMClient с использованием ollama/api.
type ollamaClient struct {
	client   *api.Client
	model    string
	timeout  time.Duration
	retry    RetryPolicy
	cooldown *CooldownGate
	logger   *zap.Logger
}

// newOllamaClient создает новый клиент для взаимодействия с Ollama.
func newOllamaClient(cfg *config.Config, retry RetryPolicy, cooldown *CooldownGate, logger *zap.Logger) (LLMClient, error) {
	httpClient := &http.Client{
		Timeout: cfg.AITimeout,
	}

	// api.NewClient требует URL без суффикса /v1
	ollamaBaseURL := strings.TrimSuffix(cfg.AIBaseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", ollamaBaseURL, err)
	}

	return &ollamaClient{
		client:   api.NewClient(parsedURL, httpClient),
		model:    cfg.AIModel,
		timeout:  cfg.AITimeout,
		retry:    retry,
		cooldown: cooldown,
		logger:   logger,
	}, nil
}

func (c *ollamaClient) RequestStructured(ctx context.Context, prompt string, schema *models.ResponseSchema, temperature float32) (json.RawMessage, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: prompt schema is required", models.ErrAIRequestFailed)
	}

	var raw json.RawMessage
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}
		// Ollama принимает JSON-схему напрямую в поле Format
		content, err := c.doRequest(ctx, prompt, schema.Schema, temperature)
		if err != nil {
			return err
		}
		var js json.RawMessage
		if err := json.Unmarshal([]byte(content), &js); err != nil {
			c.logger.Warn("Ответ Ollama не является валидным JSON",
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

func (c *ollamaClient) RequestJSON(ctx context.Context, prompt string, temperature float32) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}
		content, err := c.doRequest(ctx, prompt, json.RawMessage(`"json"`), temperature)
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

func (c *ollamaClient) RequestText(ctx context.Context, prompt string, temperature float32) (string, error) {
	var text string
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.cooldown.Wait(ctx); err != nil {
			return err
		}
		content, err := c.doRequest(ctx, prompt, nil, temperature)
		if err != nil {
			return err
		}
		text = content
		return nil
	})
	return text, err
}

func (c *ollamaClient) doRequest(ctx context.Context, prompt string, format json.RawMessage, temperature float32) (string, error) {
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: func(b bool) *bool { return &b }(false),
		Format: format,
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r // Сохраняем последний (полный) ответ
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("Ошибка от Ollama API",
			zap.String("model", c.model), zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", models.ErrAIRequestFailed, err)
	}

	if resp.Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", models.ErrEmptyAIResponse
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	content := resp.Message.Content

	// Ollama API v0.1.29+ возвращает EvalCount как токены ответа
	usage := UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(c.model, prompt, content)
	}
	usage.EstimatedCostUSD = 0 // Ollama обычно локальный, стоимость 0
	observeUsage(c.model, usage)

	c.logger.Debug("Ответ от Ollama API получен",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Int("response_len", len(content)))

	return content, nil
}
