package analytics

import (
	"context"

	"survey-server/internal/ai"
	"survey-server/internal/models"

	"go.uber.org/zap"
)

// Analyzer собирает полный анализ вопроса: классификация шкалы, выборка
// Монте-Карло с количественными метриками и качественные LLM-секции.
type Analyzer struct {
	classifier  *Classifier
	qualitative *Qualitative
	seed        int64
	logger      *zap.Logger
}

func NewAnalyzer(llm ai.LLMClient, seed int64, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		classifier:  NewClassifier(llm, logger.Named("Classifier")),
		qualitative: NewQualitative(llm, logger.Named("Qualitative")),
		seed:        seed,
		logger:      logger,
	}
}

// AnalyzeQuestion анализирует один вопрос по всем ответам персон, делая
// nSamples розыгрышей Монте-Карло на каждую валидную персону.
// Классификатор падает - падает весь анализ вопроса: без типа шкалы
// непонятно, какие метрики применимы.
func (a *Analyzer) AnalyzeQuestion(ctx context.Context, question *models.Question, responses []models.PersonaResponse, nSamples int) (*models.QuestionAnalysis, error) {
	options := question.OptionTexts()

	classification, err := a.classifier.Classify(ctx, question.Text, options)
	if err != nil {
		return nil, err
	}

	engine := NewEngine(responses, options, nSamples, a.seed, a.logger)
	if len(engine.ValidResponses()) == 0 {
		return nil, models.ErrNoDistributions
	}

	result := &models.QuestionAnalysis{
		QuestionType:      classification.ScaleType,
		BasicStatistics:   engine.BasicStats(),
		MeanReliability:   engine.MeanReliability(),
		CompletedPersonas: len(engine.ValidResponses()),
	}

	if classification.IsLikert && len(classification.OrderedOptions) > 0 {
		agreement := engine.AgreementMetrics(classification.OrderedOptions)
		polarization := engine.Polarization(classification.OrderedOptions)
		result.AgreementMetrics = &agreement
		result.PolarizationMetrics = &polarization
		result.OrderedOptions = classification.OrderedOptions
	} else {
		categorical := engine.CategoricalMetrics()
		result.CategoricalMetrics = &categorical
	}

	qualitative := a.qualitative.AnalyzeQuestion(ctx, question.Text, options, engine.ValidResponses())
	result.ThemeAnalysis = qualitative.ThemeAnalysis
	result.NetworkAnalysis = qualitative.NetworkAnalysis
	result.SentimentAnalysis = qualitative.SentimentAnalysis
	result.ResponsePatterns = qualitative.ResponsePatterns

	return result, nil
}
