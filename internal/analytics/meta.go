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

const metaTemperature = 0.5

// MetaAnalysis ищет паттерны поверх всего опроса: группы согласия между
// персонами, стабильность ответов между вопросами и демографические срезы,
// затем синтезирует из них ключевые выводы.
type MetaAnalysis struct {
	llm    ai.LLMClient
	logger *zap.Logger
}

func NewMetaAnalysis(llm ai.LLMClient, logger *zap.Logger) *MetaAnalysis {
	return &MetaAnalysis{llm: llm, logger: logger}
}

// CompleteAnalysis выполняет три анализа параллельно и отдельным запросом
// сводит их в ключевые выводы. distributions - доли по вариантам для каждого
// вопроса (из базовой статистики).
func (m *MetaAnalysis) CompleteAnalysis(ctx context.Context, profiles []*models.Profile, questions []models.Question, distributions map[string]map[string]float64) (*models.CompleteAnalysis, error) {
	profileType := models.ProfileTypeEmployee
	if len(profiles) > 0 {
		profileType = profiles[0].Type
	}

	responseData := m.formatPersonaData(profiles)
	distributionData := m.formatDistributions(questions, distributions)

	var alignment, consistency, demographic json.RawMessage
	var alignmentErr, consistencyErr, demographicErr error

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		alignment, alignmentErr = m.llm.RequestJSON(ctx, alignmentPrompt(profileType, responseData, distributionData), metaTemperature)
	}()
	go func() {
		defer wg.Done()
		consistency, consistencyErr = m.llm.RequestJSON(ctx, consistencyPrompt(profileType, responseData, distributionData), metaTemperature)
	}()
	go func() {
		defer wg.Done()
		demographic, demographicErr = m.llm.RequestJSON(ctx, demographicPrompt(profileType, responseData, distributionData), metaTemperature)
	}()
	wg.Wait()

	for _, err := range []error{alignmentErr, consistencyErr, demographicErr} {
		if err != nil {
			return nil, fmt.Errorf("ошибка мета-анализа: %w", err)
		}
	}

	findings, err := m.llm.RequestJSON(ctx, keyFindingsPrompt(alignment, consistency, demographic), metaTemperature)
	if err != nil {
		return nil, fmt.Errorf("ошибка синтеза ключевых выводов: %w", err)
	}

	var parsed struct {
		PrimaryFindings    json.RawMessage `json:"primary_findings"`
		StatisticalMetrics json.RawMessage `json:"statistical_metrics"`
		Recommendations    json.RawMessage `json:"recommendations"`
	}
	if err := json.Unmarshal(findings, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAIJSON, err)
	}

	return &models.CompleteAnalysis{
		KeyFindings:         orEmpty(parsed.PrimaryFindings, `[]`),
		StatisticalMetrics:  orEmpty(parsed.StatisticalMetrics, `{}`),
		Recommendations:     orEmpty(parsed.Recommendations, `[]`),
		AlignmentAnalysis:   alignment,
		ConsistencyAnalysis: consistency,
		DemographicInsights: demographic,
	}, nil
}

func orEmpty(raw json.RawMessage, fallback string) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(fallback)
	}
	return raw
}

func (m *MetaAnalysis) formatPersonaData(profiles []*models.Profile) string {
	parts := make([]string, 0, len(profiles))
	for _, p := range profiles {
		role := ""
		if p.Employee != nil {
			role = p.Employee.Role
		} else if p.Product != nil {
			role = p.Product.TechnicalLevel()
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, `
            Persona Description:
            Name: %s
            Role: %s
            Personality: %s

            Responses:
            `, p.Name, role, p.PersonalitySummary)
		for _, hist := range p.ConversationHistory {
			fmt.Fprintf(&sb, "\n- %s\n  %s", hist.Question, hist.Summary)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n---\n")
}

func (m *MetaAnalysis) formatDistributions(questions []models.Question, distributions map[string]map[string]float64) string {
	var sb strings.Builder
	sb.WriteString("Response Distributions Analysis:\n")
	for _, q := range questions {
		dist, ok := distributions[q.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\nQuestion %s: %s\n", q.ID, q.Text)
		// В порядке вариантов вопроса, чтобы промпт был стабилен между прогонами
		for _, opt := range q.OptionTexts() {
			if pct, ok := dist[opt]; ok {
				fmt.Fprintf(&sb, "- %s: %.1f%%\n", opt, pct*100)
			}
		}
	}
	return sb.String()
}
