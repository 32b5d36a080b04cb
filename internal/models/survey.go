package models

import "encoding/json"

// Option представляет один вариант ответа на вопрос опроса.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question представляет вопрос опроса с упорядоченным списком вариантов.
// После старта прогона вопросы неизменяемы.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// OptionTexts возвращает тексты вариантов в исходном порядке.
func (q Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for i, opt := range q.Options {
		texts[i] = opt.Text
	}
	return texts
}

// SurveyRequest - входной запрос на запуск симуляции опроса.
type SurveyRequest struct {
	Title            string     `json:"title"`
	Questions        []Question `json:"questions" binding:"required,min=1"`
	DataSource       string     `json:"data_source"`
	NumberOfPersonas int        `json:"number_of_personas"`
	NumberOfSamples  int        `json:"number_of_samples"`
}

// PersonaResponse - результат обработки одной пары персона-вопрос.
// Живет от получения ответа ансамбля до передачи в аналитику, после чего
// не нужен.
type PersonaResponse struct {
	PersonaID          string       `json:"persona_id"`
	PersonalitySummary string       `json:"personality_summary"`
	Distribution       Distribution `json:"distribution"`
	Reason             string       `json:"reason"`
	ReliabilityScore   float64      `json:"reliability_score"`
	Relevant           bool         `json:"relevant"`
	Error              string       `json:"error,omitempty"`
}

// Valid сообщает, может ли ответ участвовать в числовой агрегации:
// без ошибки, релевантный и с непустым распределением.
func (r PersonaResponse) Valid() bool {
	return r.Error == "" && r.Relevant && len(r.Distribution) > 0
}

// EnsembleResult - объединенный ответ ансамбля для одной пары персона-вопрос.
type EnsembleResult struct {
	Relevant         bool
	Distribution     Distribution
	Reason           string
	ReliabilityScore float64
}

// SurveyMetadata - сводные метаданные прогона опроса.
type SurveyMetadata struct {
	TotalPersonas     int            `json:"total_personas"`
	TotalQuestions    int            `json:"total_questions"`
	ErrorCount        int            `json:"error_count"`
	CompletedPersonas map[string]int `json:"completed_personas"`
	SkippedPersonas   map[string]int `json:"skipped_personas"`
	DurationSeconds   float64        `json:"duration_seconds"`
}

// SurveyResult - полный результат прогона опроса.
type SurveyResult struct {
	QuestionResults  map[string]*QuestionAnalysis `json:"question_results"`
	Metadata         SurveyMetadata               `json:"metadata"`
	CompleteAnalysis *CompleteAnalysis            `json:"complete_analysis,omitempty"`
}

// CompleteAnalysis - свободная по форме полезная нагрузка мета-анализа.
// Ключи пробрасываются вызывающему без изменений.
type CompleteAnalysis struct {
	KeyFindings         json.RawMessage `json:"key_findings"`
	StatisticalMetrics  json.RawMessage `json:"statistical_metrics"`
	Recommendations     json.RawMessage `json:"recommendations"`
	AlignmentAnalysis   json.RawMessage `json:"alignment_analysis"`
	ConsistencyAnalysis json.RawMessage `json:"consistency_analysis"`
	DemographicInsights json.RawMessage `json:"demographic_insights"`
}
