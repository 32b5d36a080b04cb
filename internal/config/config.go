package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервера симуляции опросов.
type Config struct {
	// Настройки HTTP сервера
	Port     string `envconfig:"PORT" default:"8000"`
	Env      string `envconfig:"ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Настройки AI (OpenAI / Azure OpenAI / Ollama)
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"azure"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:""`
	AIModel          string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"4s"`
	AIMaxRetryDelay  time.Duration `envconfig:"AI_MAX_RETRY_DELAY" default:"60s"`
	// Минимальный интервал между последовательными вызовами шлюза.
	AICooldown time.Duration `envconfig:"AI_COOLDOWN" default:"2s"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	AzureOpenAIAPIKey   string `envconfig:"AZURE_OPENAI_API_KEY"`
	AzureOpenAIEndpoint string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIVersion     string `envconfig:"AZURE_OPENAI_API_VERSION" default:"2024-08-01-preview"`

	// Настройки симуляции
	PersonaDataDir        string        `envconfig:"PERSONA_DATA_DIR" default:"data"`
	DefaultDataSource     string        `envconfig:"DEFAULT_DATA_SOURCE" default:"glassdoor"`
	MaxParallelPersonas   int           `envconfig:"MAX_PARALLEL_PERSONAS" default:"16"`
	MaxConcurrentRequests int           `envconfig:"MAX_CONCURRENT_REQUESTS" default:"32"`
	SurveyTimeout         time.Duration `envconfig:"SURVEY_TIMEOUT" default:"300s"`
	DefaultSamples        int           `envconfig:"DEFAULT_SAMPLES" default:"2000"`
	DefaultPersonas       int           `envconfig:"DEFAULT_PERSONAS" default:"5"`
	// Seed для выбора вариантов промптов; 0 - недетерминированный.
	PromptVariantSeed int64 `envconfig:"PROMPT_VARIANT_SEED" default:"0"`
	// Seed для выборки Монте-Карло; 0 - недетерминированный.
	SamplingSeed int64 `envconfig:"SAMPLING_SEED" default:"0"`

	// Настройки менеджера фоновых задач
	MaxBackgroundTasks int           `envconfig:"MAX_BACKGROUND_TASKS" default:"4"`
	TaskRetention      time.Duration `envconfig:"TASK_RETENTION" default:"1h"`
}

// LoadConfig загружает конфигурацию из переменных окружения и валидирует ее.
// Ошибки конфигурации фатальны: прогон не должен стартовать без ключей и
// данных персон.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	switch strings.ToLower(cfg.AIClientType) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for AI_CLIENT_TYPE=openai")
		}
	case "azure":
		if cfg.AzureOpenAIAPIKey == "" || cfg.AzureOpenAIEndpoint == "" {
			return nil, fmt.Errorf("AZURE_OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT are required for AI_CLIENT_TYPE=azure")
		}
	case "ollama":
		// Локальная модель, ключ не нужен
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.AIClientType)
	}

	// Файл с данными персон обязан существовать до начала работы
	dataFile := cfg.PersonaDataFile(cfg.DefaultDataSource)
	if _, err := os.Stat(dataFile); err != nil {
		return nil, fmt.Errorf("persona data file %s is not readable: %w", dataFile, err)
	}

	log.Printf("Конфигурация загружена:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  AI Client: %s, Model: %s, Timeout: %v", cfg.AIClientType, cfg.AIModel, cfg.AITimeout)
	log.Printf("  AI Max Attempts: %d, Base Retry Delay: %v, Cooldown: %v", cfg.AIMaxAttempts, cfg.AIBaseRetryDelay, cfg.AICooldown)
	log.Printf("  Persona Data Dir: %s, Default Source: %s", cfg.PersonaDataDir, cfg.DefaultDataSource)
	log.Printf("  Max Parallel Personas: %d, Max Concurrent Requests: %d", cfg.MaxParallelPersonas, cfg.MaxConcurrentRequests)
	log.Printf("  Survey Timeout: %v", cfg.SurveyTimeout)

	return &cfg, nil
}

// PersonaDataFile возвращает путь к JSON файлу персон для источника данных.
func (c *Config) PersonaDataFile(dataSource string) string {
	return filepath.Join(c.PersonaDataDir, dataSource+".json")
}
