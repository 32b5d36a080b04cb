package models

import "encoding/json"

// ScaleType - тип шкалы вопроса, определяемый классификатором.
type ScaleType string

const (
	ScaleLikert      ScaleType = "likert"
	ScaleNumeric     ScaleType = "numeric"
	ScaleBinary      ScaleType = "binary"
	ScaleCategorical ScaleType = "categorical"
)

// QuestionClassification - вердикт классификатора вопроса.
// ordered_options упорядочены от негативного к позитивному; nil, если
// естественного порядка нет.
type QuestionClassification struct {
	ScaleType      ScaleType `json:"scale_type"`
	IsLikert       bool      `json:"is_likert"`
	OrderedOptions []string  `json:"ordered_options"`
}

// ConfidenceInterval - границы доверительного интервала в процентах (0-100).
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BasicStatistics - частоты и доли по объединенной выборке Монте-Карло.
// Proportions в долях (0-1), Percentages и интервалы - в процентах (0-100).
type BasicStatistics struct {
	Frequencies         map[string]int                `json:"frequencies"`
	Proportions         map[string]float64            `json:"proportions"`
	Percentages         map[string]float64            `json:"percentages"`
	TotalResponses      int                           `json:"total_responses"`
	ConfidenceIntervals map[string]ConfidenceInterval `json:"confidence_intervals"`
}

// BoxScore - top-box или bottom-box агрегат для шкалы Лайкерта.
type BoxScore struct {
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// AgreementMetrics - метрики согласия для шкал Лайкерта.
type AgreementMetrics struct {
	TopBoxScore    BoxScore `json:"top_box_score"`
	BottomBoxScore BoxScore `json:"bottom_box_score"`
	NetScore       float64  `json:"net_score"`
	OptionsUsed    struct {
		Top    []string `json:"top"`
		Bottom []string `json:"bottom"`
	} `json:"options_used"`
}

// PolarizationMetrics - метрики поляризации: среднее абсолютное расстояние
// от середины шкалы и доля экстремальных ответов (расстояние > 0.4).
type PolarizationMetrics struct {
	PolarizationIndex   float64 `json:"polarization_index"`
	ExtremeResponseRate float64 `json:"extreme_response_rate"`
}

// ModeResponse - самый частый вариант в объединенной выборке.
type ModeResponse struct {
	Option     string  `json:"option"`
	Frequency  int     `json:"frequency"`
	Proportion float64 `json:"proportion"`
}

// CategoricalMetrics - метрики для категориальных вопросов.
type CategoricalMetrics struct {
	MostCommonResponse    ModeResponse `json:"most_common_response"`
	ResponseEntropy       float64      `json:"response_entropy"`
	NumberOfOptionsChosen int          `json:"number_of_options_chosen"`
}

// QuestionAnalysis - полный результат анализа одного вопроса.
// Качественные секции - свободные JSON-объекты от LLM; отсутствующая секция
// заменяется пустым объектом, а не роняет весь анализ.
type QuestionAnalysis struct {
	QuestionType      ScaleType       `json:"question_type"`
	BasicStatistics   BasicStatistics `json:"basic_statistics"`
	MeanReliability   float64         `json:"mean_reliability"`
	CompletedPersonas int             `json:"completed_personas"`

	// Только для шкал Лайкерта с известным порядком вариантов.
	AgreementMetrics    *AgreementMetrics    `json:"agreement_metrics,omitempty"`
	PolarizationMetrics *PolarizationMetrics `json:"polarization_metrics,omitempty"`
	OrderedOptions      []string             `json:"ordered_options,omitempty"`

	// Только для остальных типов вопросов.
	CategoricalMetrics *CategoricalMetrics `json:"categorical_metrics,omitempty"`

	ThemeAnalysis     json.RawMessage `json:"theme_analysis"`
	NetworkAnalysis   json.RawMessage `json:"network_analysis"`
	SentimentAnalysis json.RawMessage `json:"sentiment_analysis"`
	ResponsePatterns  json.RawMessage `json:"response_patterns"`
}
