// Package prompt собирает промпты для симуляции ответов персон на вопросы
// опроса. Для каждого типа профиля есть несколько эквивалентных по смыслу
// вариантов формулировки - они снижают систематическое смещение модели,
// вызванное конкретной формулировкой инструкции.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"survey-server/internal/models"
)

// BuilderFunc строит промпт и схему ответа для пары (персона, вопрос).
type BuilderFunc func(p *models.Profile, question string, options []string) (string, *models.ResponseSchema)

// surveySchemaBody - JSON-схема структурированного ответа модели на вопрос
// опроса. Общая для всех вариантов промптов, различаются только имена.
const surveySchemaBody = `{
    "type": "object",
    "properties": {
        "relevant": {
            "type": "boolean",
            "description": "True if the question relates to the persona's experience, false otherwise."
        },
        "option": {
            "type": "array",
            "description": "An array of objects, each representing a response option and its probability.",
            "items": {
                "type": "object",
                "properties": {
                    "option": {
                        "type": "string",
                        "description": "The text of the response option."
                    },
                    "probability": {
                        "type": "number",
                        "description": "The probability assigned to this option."
                    }
                },
                "required": ["option", "probability"],
                "additionalProperties": false
            }
        },
        "reason": {
            "type": "string",
            "description": "A detailed explanation of how the probability distribution was determined."
        }
    },
    "required": ["relevant", "option", "reason"],
    "additionalProperties": false
}`

func surveyResponseSchema(name string) *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        name,
		Description: "Simulated survey response with probability distribution using an array of option-probability objects.",
		Strict:      true,
		Schema:      json.RawMessage(surveySchemaBody),
	}
}

// writeHistory добавляет резюме предыдущих ответов персоны.
func writeHistory(sb *strings.Builder, header string, history []models.HistoryEntry) {
	if len(history) == 0 {
		return
	}
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, hist := range history {
		fmt.Fprintf(sb, "- %s\n", hist.Summary)
	}
}

// writeOptions добавляет нумерованный список вариантов ответа.
func writeOptions(sb *strings.Builder, options []string) {
	for i, opt := range options {
		fmt.Fprintf(sb, "        %d. %s\n", i+1, opt)
	}
}

func ratingOf(p *models.Profile) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// pick выбирает одну из двух формулировок по nullable-флагу. nil трактуется
// как положительное значение, как и в выгрузках исходных отзывов.
func pick(flag *bool, positive, negative string) string {
	if flag != nil && !*flag {
		return negative
	}
	return positive
}

func joined(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
