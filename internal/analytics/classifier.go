package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"survey-server/internal/ai"
	"survey-server/internal/models"

	"go.uber.org/zap"
)

// classificationTemperature - низкая температура для детерминированной
// классификации.
const classificationTemperature = 0.2

// Classifier определяет тип шкалы вопроса через LLM: от этого зависит, какие
// метрики применимы к ответам.
type Classifier struct {
	llm    ai.LLMClient
	logger *zap.Logger
}

func NewClassifier(llm ai.LLMClient, logger *zap.Logger) *Classifier {
	return &Classifier{llm: llm, logger: logger}
}

// Classify классифицирует вопрос по тексту и набору вариантов.
func (c *Classifier) Classify(ctx context.Context, question string, options []string) (*models.QuestionClassification, error) {
	prompt := fmt.Sprintf(`
        Analyze these survey question options and determine their type and structure:
        Question: %s
        Options: %s

        Consider:
        1. Is this a Likert scale? (agreement, satisfaction, frequency, etc.)
        2. Is there a natural ordering to the options?
        3. Is it a binary choice?
        4. Is it a categorical/nominal selection?

        Note the examples below:
        Likert scale: "Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree"
        Binary choice: "Yes", "No"
        Categorical: "Red", "Blue", "Green"

        Return your analysis in the following JSON format:
        {
            "scale_type": "string (likert, numeric, binary, or categorical)",
            "is_likert": "boolean",
            "ordered_options": "list of options in order (if applicable and the order should be NEGATIVE to POSITIVE), null if no natural order"
        }
        `, question, strings.Join(options, ", "))

	raw, err := c.llm.RequestStructured(ctx, prompt, classificationSchema(), classificationTemperature)
	if err != nil {
		return nil, fmt.Errorf("ошибка классификации вопроса: %w", err)
	}

	var classification models.QuestionClassification
	if err := json.Unmarshal(raw, &classification); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAIJSON, err)
	}
	if classification.ScaleType == "" {
		return nil, fmt.Errorf("%w: scale_type", models.ErrMissingFields)
	}

	c.logger.Debug("Вопрос классифицирован",
		zap.String("question", question),
		zap.String("scale_type", string(classification.ScaleType)),
		zap.Bool("is_likert", classification.IsLikert))

	return &classification, nil
}
