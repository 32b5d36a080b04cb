package models

import "encoding/json"

// ResponseSchema описывает ожидаемую структуру JSON-ответа модели.
// Передается в Model Gateway вместе с промптом (response_format json_schema).
type ResponseSchema struct {
	Name        string
	Description string
	Strict      bool
	Schema      json.RawMessage
}

// OptionProbability - один элемент массива option в структурированном ответе
// модели на вопрос опроса.
type OptionProbability struct {
	Option      string  `json:"option"`
	Probability float64 `json:"probability"`
}

// SurveyLLMResponse - структурированный ответ модели на пару персона-вопрос.
// Формат: {relevant, option: [{option, probability}], reason}.
type SurveyLLMResponse struct {
	Relevant bool                `json:"relevant"`
	Option   []OptionProbability `json:"option"`
	Reason   string              `json:"reason"`
}

// OptionMap сворачивает массив option в распределение.
func (r SurveyLLMResponse) OptionMap() Distribution {
	dist := make(Distribution, len(r.Option))
	for _, item := range r.Option {
		dist[item.Option] = item.Probability
	}
	return dist
}
