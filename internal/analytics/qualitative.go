package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"survey-server/internal/ai"
	"survey-server/internal/models"

	"go.uber.org/zap"
)

const qualitativeTemperature = 0.5

// emptyObject подставляется вместо упавшей качественной секции: частичный
// анализ полезнее отсутствующего.
var emptyObject = json.RawMessage(`{}`)

// QualitativeResults - четыре независимые качественные секции анализа.
type QualitativeResults struct {
	ThemeAnalysis     json.RawMessage
	NetworkAnalysis   json.RawMessage
	SentimentAnalysis json.RawMessage
	ResponsePatterns  json.RawMessage
}

// Qualitative выполняет качественный LLM-анализ ответов персон: темы,
// сеть персон, поток сентимента и паттерны ответов.
type Qualitative struct {
	llm    ai.LLMClient
	logger *zap.Logger
}

func NewQualitative(llm ai.LLMClient, logger *zap.Logger) *Qualitative {
	return &Qualitative{llm: llm, logger: logger}
}

// AnalyzeQuestion запускает все четыре анализа параллельно. Ошибка одного
// анализа не роняет остальные: вместо секции возвращается пустой объект.
func (q *Qualitative) AnalyzeQuestion(ctx context.Context, question string, options []string, responses []models.PersonaResponse) QualitativeResults {
	results := QualitativeResults{
		ThemeAnalysis:     emptyObject,
		NetworkAnalysis:   emptyObject,
		SentimentAnalysis: emptyObject,
		ResponsePatterns:  emptyObject,
	}

	type section struct {
		name   string
		prompt string
		schema *models.ResponseSchema
		out    *json.RawMessage
	}
	sections := []section{
		{"theme_analysis", q.themePrompt(question, options, responses), themeRadarSchema(), &results.ThemeAnalysis},
		{"network_analysis", q.networkPrompt(question, options, responses), personaNetworkSchema(), &results.NetworkAnalysis},
		{"sentiment_analysis", q.sentimentPrompt(question, options, responses), sentimentFlowSchema(), &results.SentimentAnalysis},
		{"response_patterns", q.patternPrompt(question, options, responses), responseHeatmapSchema(), &results.ResponsePatterns},
	}

	var wg sync.WaitGroup
	for i := range sections {
		s := sections[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := q.llm.RequestStructured(ctx, s.prompt, s.schema, qualitativeTemperature)
			if err != nil {
				q.logger.Warn("Качественный анализ не удался",
					zap.String("section", s.name), zap.Error(err))
				return
			}
			*s.out = raw
		}()
	}
	wg.Wait()

	return results
}

func (q *Qualitative) themePrompt(question string, options []string, responses []models.PersonaResponse) string {
	return fmt.Sprintf(`
        Analyze the themes in these survey responses for: "%s"
        Options: %s
        Identify themes following these rules:
        1. Extract 3-5 major themes that appear across multiple responses
        2. For each theme:
           - Calculate strength based on frequency and emphasis in responses
           - Determine sentiment based on context and language
           - Find supporting quotes from the responses
           - Identify related themes
        3. Map connections between themes
        4. Identify the most significant theme based on impact and frequency

        Consider how different persona types discuss each theme.
        Look for both explicit and implicit theme mentions.

        Response Data:
        %s
        `, question, strings.Join(options, ", "), q.formatForThemes(options, responses))
}

func (q *Qualitative) networkPrompt(question string, options []string, responses []models.PersonaResponse) string {
	return fmt.Sprintf(`
        Analyze the relationships between personas for: "%s"
        Options: %s
        Create a persona network by:
        1. For each persona:
           - Identify role and experience level
           - Calculate sentiment score from responses
           - Extract key concerns and viewpoints
           - Note primary response choice
        2. Find connections between personas:
           - Identify shared viewpoints
           - Calculate similarity in responses
           - Note key differences
        3. Group personas into meaningful clusters

        Focus on both quantitative (response distributions) and
        qualitative (reasoning, concerns) similarities.

        Response Data:
        %s
        `, question, strings.Join(options, ", "), q.formatFull(responses))
}

func (q *Qualitative) sentimentPrompt(question string, options []string, responses []models.PersonaResponse) string {
	return fmt.Sprintf(`
        Analyze sentiment flow in responses to: "%s"
        Options: %s
        Map sentiment progression by:
        1. Identify distinct stages in experiences
        2. For each stage:
           - Calculate positive/neutral/negative ratios
           - Identify key factors driving sentiment
           - Extract common phrases and expressions
        3. Determine overall trend
        4. Identify critical points where sentiment shifts

        Consider both:
        - Explicit sentiment statements
        - Implicit sentiment in language and reasoning

        Response Data:
        %s
        `, question, strings.Join(options, ", "), q.formatFull(responses))
}

func (q *Qualitative) patternPrompt(question string, options []string, responses []models.PersonaResponse) string {
	return fmt.Sprintf(`
        Analyze response patterns for: "%s"
        Options: %s

        Create detailed response mapping:
        1. For each experience level and response option:
           - Calculate response frequency
           - Note significant patterns
           - Identify notable responses
        2. Find areas of high concentration
        3. Identify unexpected patterns
        4. Note experience-based trends

        Consider:
        - Role/experience influence on responses
        - Common reasoning patterns
        - Outlier responses

        Response Data:
        %s
        `, question, strings.Join(options, ", "), q.formatFull(responses))
}

// formatForThemes показывает только доминирующий вариант каждой персоны.
func (q *Qualitative) formatForThemes(options []string, responses []models.PersonaResponse) string {
	var sb strings.Builder
	for _, resp := range responses {
		topOption, _ := resp.Distribution.TopOption(options)
		fmt.Fprintf(&sb, `
            Persona %s:
            Personality Summary: %s
            Main Response: %s
            Reasoning: %s
`, resp.PersonaID, resp.PersonalitySummary, topOption, resp.Reason)
	}
	return sb.String()
}

// formatFull показывает полное распределение каждой персоны.
func (q *Qualitative) formatFull(responses []models.PersonaResponse) string {
	var sb strings.Builder
	for _, resp := range responses {
		dist, _ := json.Marshal(resp.Distribution)
		fmt.Fprintf(&sb, `
            Persona %s:
            Personality Summary: %s
            Response Distribution: %s
            Reasoning: %s
`, resp.PersonaID, resp.PersonalitySummary, dist, resp.Reason)
	}
	return sb.String()
}
