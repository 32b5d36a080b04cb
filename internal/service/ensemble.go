package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"

	"survey-server/internal/ai"
	"survey-server/internal/models"
	"survey-server/internal/persona"
	"survey-server/internal/prompt"

	"go.uber.org/zap"
)

// EnsembleConfig - параметры ансамблевого опроса модели.
type EnsembleConfig struct {
	// Температуры членов ансамбля: один запрос на температуру.
	Temperatures []float32
	// RelevanceVeto: один нерелевантный член отклоняет всю пару
	// персона-вопрос. При false нерелевантные члены просто выпадают из
	// усреднения.
	RelevanceVeto bool
	// SummaryTemperature - температура для резюме причин и личности.
	SummaryTemperature float32
}

func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		Temperatures:       []float32{0.1, 0.5, 1.0},
		RelevanceVeto:      true,
		SummaryTemperature: 0.2,
	}
}

// EnsembleResponder получает ответы персоны на вопрос от ансамбля запросов
// с разными температурами и сводит их в одно распределение с оценкой
// надежности.
type EnsembleResponder struct {
	llm    ai.LLMClient
	store  *persona.Store
	cfg    EnsembleConfig
	logger *zap.Logger
}

func NewEnsembleResponder(llm ai.LLMClient, store *persona.Store, cfg EnsembleConfig, logger *zap.Logger) *EnsembleResponder {
	if len(cfg.Temperatures) == 0 {
		cfg.Temperatures = DefaultEnsembleConfig().Temperatures
	}
	return &EnsembleResponder{llm: llm, store: store, cfg: cfg, logger: logger}
}

// GetEnsembleDistribution опрашивает модель на каждой температуре ансамбля
// параллельно и усредняет распределения. Ошибка одного члена не роняет
// ансамбль: он просто выпадает. Нерелевантность и полный отказ ансамбля -
// не ошибки, а результаты с Relevant=false.
func (r *EnsembleResponder) GetEnsembleDistribution(ctx context.Context, p *models.Profile, question string, options []string) (*models.EnsembleResult, error) {
	var mu sync.Mutex
	var distributions []models.Distribution
	var reasons []string
	var notRelevant bool

	var wg sync.WaitGroup
	for _, temp := range r.cfg.Temperatures {
		wg.Add(1)
		go func(temp float32) {
			defer wg.Done()

			// Каждый член ансамбля получает свой случайный вариант промпта
			promptText, schema := r.store.BuildPrompt(p, question, options)
			raw, err := r.llm.RequestStructured(ctx, promptText, schema, temp)
			if err != nil {
				r.logger.Warn("Член ансамбля не ответил",
					zap.String("persona_id", p.ID),
					zap.Float64("temperature", float64(temp)),
					zap.Error(err))
				return
			}

			var resp models.SurveyLLMResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				r.logger.Warn("Член ансамбля вернул неразборный ответ",
					zap.String("persona_id", p.ID), zap.Error(err))
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if !resp.Relevant {
				notRelevant = true
				return
			}
			dist := resp.OptionMap().Normalized()
			if len(dist) == 0 {
				return
			}
			distributions = append(distributions, dist)
			reasons = append(reasons, resp.Reason)
		}(temp)
	}
	wg.Wait()

	if r.cfg.RelevanceVeto && notRelevant {
		return &models.EnsembleResult{
			Relevant: false,
			Reason:   "Persona not relevant to question",
		}, nil
	}

	if len(distributions) == 0 {
		return &models.EnsembleResult{
			Relevant: false,
			Reason:   "Failed to get distributions",
		}, nil
	}

	return &models.EnsembleResult{
		Relevant:         true,
		Distribution:     mergeDistributions(distributions, options),
		Reason:           r.summarizeReasons(ctx, reasons),
		ReliabilityScore: reliabilityScore(distributions, options),
	}, nil
}

// PersonalitySummary запрашивает у модели краткое резюме личности персоны.
func (r *EnsembleResponder) PersonalitySummary(ctx context.Context, p *models.Profile) (string, error) {
	return r.llm.RequestText(ctx, r.store.PersonalitySummaryPrompt(p), r.cfg.SummaryTemperature)
}

// mergeDistributions усредняет вероятность каждого варианта по всем членам
// ансамбля. Отсутствие варианта у члена считается нулевой вероятностью.
func mergeDistributions(distributions []models.Distribution, options []string) models.Distribution {
	merged := make(models.Distribution, len(options))
	for _, option := range options {
		var total float64
		for _, dist := range distributions {
			total += dist[option]
		}
		merged[option] = total / float64(len(distributions))
	}
	return merged
}

// reliabilityScore - 1/(1+mean CV), где CV - коэффициент вариации
// вероятностей варианта между членами ансамбля. Варианты с нулевой средней
// вероятностью в расчет не входят. Полное согласие дает 1, рост разброса
// монотонно уводит оценку к нулю.
func reliabilityScore(distributions []models.Distribution, options []string) float64 {
	var cvSum float64
	var cvCount int
	for _, option := range options {
		probs := make([]float64, len(distributions))
		var mean float64
		for i, dist := range distributions {
			probs[i] = dist[option]
			mean += dist[option]
		}
		mean /= float64(len(distributions))
		if mean == 0 {
			continue
		}
		var variance float64
		for _, prob := range probs {
			variance += (prob - mean) * (prob - mean)
		}
		variance /= float64(len(probs))
		cvSum += math.Sqrt(variance) / mean
		cvCount++
	}
	if cvCount == 0 {
		return 1
	}
	return 1 / (1 + cvSum/float64(cvCount))
}

// summarizeReasons сжимает причины членов ансамбля в короткое объяснение.
// Падение этого запроса не критично: возвращается конкатенация причин.
func (r *EnsembleResponder) summarizeReasons(ctx context.Context, reasons []string) string {
	summary, err := r.llm.RequestText(ctx, prompt.ReasonSummary(reasons), r.cfg.SummaryTemperature)
	if err != nil {
		r.logger.Warn("Не удалось сжать причины ансамбля", zap.Error(err))
		return strings.Join(reasons, "\n")
	}
	return summary
}
