package models

import "errors"

// Стандартные ошибки приложения
var (
	// Ошибки Model Gateway
	ErrAIRequestFailed = errors.New("AI request failed")
	ErrEmptyAIResponse = errors.New("empty response from AI API")
	ErrInvalidAIJSON   = errors.New("AI response is not valid JSON")
	ErrMissingFields   = errors.New("missing required fields in response")

	// Ошибки персон
	ErrPersonaDataNotFound = errors.New("personas data file not found")
	ErrPersonaNotFound     = errors.New("persona not found")

	// Ошибки прогона опроса
	ErrNoQuestions       = errors.New("survey contains no questions")
	ErrSurveyTimeout     = errors.New("survey run exceeded timeout")
	ErrNoDistributions   = errors.New("failed to get distributions")
	ErrUnknownClientType = errors.New("unknown AI client type")

	// Общие ошибки запросов
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)
